package dto

import (
	"celltrade/internal/core/types"
)

// OpenSessionRequest opens a cash register session with the counted
// drawer amount.
type OpenSessionRequest struct {
	OpeningBalance types.MinorUnits `json:"openingBalance" binding:"min=0"`
}

// CloseSessionRequest closes a session with the operator-counted balance.
// The expected balance and the difference are computed server-side.
type CloseSessionRequest struct {
	ActualBalance types.MinorUnits `json:"actualBalance" binding:"min=0"`
}
