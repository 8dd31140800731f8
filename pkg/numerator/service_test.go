package numerator

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // simulates DB sequence value
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Strict passes (key); cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("S")

	num, err := svc.GetNextNumber(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S000001" {
		t.Errorf("expected S000001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S000002" {
		t.Errorf("expected S000002, got %s", num)
	}
}

func TestGetNextNumber_PrefixWidth(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	num, err := svc.GetNextNumber(ctx, DefaultConfig("PI"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PI000001" {
		t.Errorf("expected PI000001, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("ORD")

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call allocates the range 1..10; DB value jumps to 10.
	num, err := svc.GetNextNumber(ctx, cfg, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD000001" {
		t.Errorf("expected ORD000001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to be 10, got %d", q.currentValue)
	}

	// Second call comes from memory; DB unchanged.
	num, err = svc.GetNextNumber(ctx, cfg, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD000002" {
		t.Errorf("expected ORD000002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to stay 10, got %d", q.currentValue)
	}

	// Exhaust the range; next call reserves 11..20.
	for i := 0; i < 8; i++ {
		_, _ = svc.GetNextNumber(ctx, cfg, opts)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD000011" {
		t.Errorf("expected ORD000011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value to be 20, got %d", q.currentValue)
	}
}

func TestMockGenerator_Sequence(t *testing.T) {
	gen := NewMockGenerator()
	ctx := context.Background()
	cfg := DefaultConfig("PAY")

	first, _ := gen.GetNextNumber(ctx, cfg, nil)
	second, _ := gen.GetNextNumber(ctx, cfg, nil)

	if first != "PAY000001" || second != "PAY000002" {
		t.Errorf("unexpected mock sequence: %s, %s", first, second)
	}
}
