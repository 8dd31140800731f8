package ledger

import (
	"sort"

	"celltrade/internal/core/types"
	"celltrade/internal/domain/catalogs/counterparty"
)

// Statement is the derived chronological view of one counterparty's ledger.
type Statement struct {
	EntityID string           `json:"entityId"`
	Kind     counterparty.Kind `json:"kind"`

	// Entries are ordered most-recent-first for display.
	Entries []Entry `json:"entries"`

	// FinalBalance is the running balance after the chronologically last
	// entry. It must agree with the cached balance field for a complete
	// transaction set.
	FinalBalance types.MinorUnits `json:"finalBalance"`
}

// BuildStatement merges unpaid document residuals with payment/refund rows,
// sorts ascending by date to accumulate the running balance, then reverses
// for most-recent-first display. Pure transform, no storage access.
func BuildStatement(kind counterparty.Kind, docs []DocumentRow, payments []PaymentRow) Statement {
	entries := make([]Entry, 0, len(docs)+len(payments))

	docType := EntrySale
	if kind == counterparty.KindSupplier {
		docType = EntryPurchase
	}

	for _, d := range docs {
		if !d.Residual.IsPositive() {
			continue
		}
		entries = append(entries, Entry{
			Type:       docType,
			DocumentID: d.ID,
			Number:     d.Number,
			Date:       d.Date,
			Debit:      d.Residual,
		})
	}

	for _, p := range payments {
		e := Entry{
			DocumentID: p.ID,
			Number:     p.Number,
			Date:       p.Date,
		}
		// Refunds raise the debt again and land on the debit side;
		// ordinary payments settle it.
		if p.Type == TxRefund {
			e.Type = EntryRefund
			e.Debit = p.Amount
		} else {
			e.Type = EntryPayment
			e.Credit = p.Amount
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			// Same-day ties resolve by time-ordered document id (UUIDv7).
			return entries[i].DocumentID.String() < entries[j].DocumentID.String()
		}
		return entries[i].Date.Before(entries[j].Date)
	})

	var running types.MinorUnits
	for i := range entries {
		running += entries[i].Debit - entries[i].Credit
		entries[i].Running = running
	}

	// Most recent first for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return Statement{
		Kind:         kind,
		Entries:      entries,
		FinalBalance: running,
	}
}
