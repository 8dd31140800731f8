package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"celltrade/internal/core/entity"
	"celltrade/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expectedCols := []string{"id", "archived", "version", "code", "name"}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:       id.New(),
				Archived: true,
				Version:  5,
			},
		},
		Code: "CP-000001",
		Name: "Acme Wholesale",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["archived"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "CP-000001", m["code"])
	assert.Equal(t, "Acme Wholesale", m["name"])
}

func TestStructToMap_PointerAndNil(t *testing.T) {
	m := StructToMap(&mockCatalog{Code: "X"})
	assert.Equal(t, "X", m["code"])

	assert.Nil(t, StructToMap(42))
}
