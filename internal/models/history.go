package models

import (
	"time"
)

// HistoryAction is the kind of mutation recorded in the audit log.
type HistoryAction string

const (
	ActionCreate HistoryAction = "CREATE"
	ActionUpdate HistoryAction = "UPDATE"
	ActionDelete HistoryAction = "DELETE"
)

// ModificationHistory is an append-only audit record of a taxpayer
// mutation: who did it, what kind of change, and which fields changed.
// Application code never mutates or deletes entries.
type ModificationHistory struct {
	CreatedAt  time.Time     `json:"createdAt"`
	User       *string       `json:"user,omitempty"`
	Action     HistoryAction `json:"action"`
	Changed    []string      `json:"changedFields"`
	TaxpayerID int64         `json:"taxpayerId"`
	ID         int64         `json:"id"`
}
