package ledger

import (
	"context"
	"fmt"
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/pkg/logger"
)

// DriftReport records one counterparty whose cached balance disagrees with
// the recomputed statement balance. The cache is an optimization, not a
// silent source of truth; this is its audit path.
type DriftReport struct {
	EntityID   id.ID             `json:"entityId"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	Kind       counterparty.Kind `json:"kind"`
	Cached     types.MinorUnits  `json:"cached"`
	Recomputed types.MinorUnits  `json:"recomputed"`
	Drift      types.MinorUnits  `json:"drift"`
	CheckedAt  time.Time         `json:"checkedAt"`
}

// Auditor recomputes balances from the full ledger and flags drift.
// Run on demand or from a periodic job.
type Auditor struct {
	source  Source
	parties counterparty.Repository
}

// NewAuditor creates a new drift auditor.
func NewAuditor(source Source, parties counterparty.Repository) *Auditor {
	return &Auditor{
		source:  source,
		parties: parties,
	}
}

// Run scans every counterparty (archived included, since their history
// still feeds reports) and returns a report per drifted balance. An empty
// slice means the cache is consistent.
func (a *Auditor) Run(ctx context.Context) ([]DriftReport, error) {
	var reports []DriftReport
	now := time.Now().UTC()

	filter := domain.ListFilter{IncludeArchived: true, Limit: 500}
	for {
		page, err := a.parties.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list counterparties: %w", err)
		}

		for _, cp := range page.Items {
			docs, err := a.source.UnpaidDocuments(ctx, cp.ID)
			if err != nil {
				return nil, fmt.Errorf("load documents for %s: %w", cp.ID, err)
			}
			payments, err := a.source.Payments(ctx, cp.ID)
			if err != nil {
				return nil, fmt.Errorf("load payments for %s: %w", cp.ID, err)
			}

			recomputed := BuildStatement(cp.Kind, docs, payments).FinalBalance
			if recomputed == cp.Balance {
				continue
			}

			report := DriftReport{
				EntityID:   cp.ID,
				Code:       cp.Code,
				Name:       cp.Name,
				Kind:       cp.Kind,
				Cached:     cp.Balance,
				Recomputed: recomputed,
				Drift:      cp.Balance - recomputed,
				CheckedAt:  now,
			}
			reports = append(reports, report)

			logger.Warn(ctx, "balance drift detected",
				"entity_id", cp.ID,
				"code", cp.Code,
				"cached", cp.Balance.String(),
				"recomputed", recomputed.String(),
			)
		}

		if len(page.Items) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	return reports, nil
}
