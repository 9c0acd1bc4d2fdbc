package models

import "time"

// AuditEntry records one mutating operation with before/after JSON snapshots.
type AuditEntry struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	EntityTypeAccount = "account"
	EntityTypeLoan    = "loan"
)

const (
	AuditActionDebit  = "debit"
	AuditActionCredit = "credit"
	AuditActionClose  = "close"
)

// BalanceSnapshot is the JSON payload audited around balance changes.
type BalanceSnapshot struct {
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}
