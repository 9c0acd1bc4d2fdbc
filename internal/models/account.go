package models

import (
	"sort"
	"strings"
	"time"
)

// Account represents a bank account in the directory.
type Account struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	Username     string    `json:"username"`
	PINHash      string    `json:"-"`
	InterestRate float64   `json:"interest_rate"`
	Currency     string    `json:"currency"`
	Locale       string    `json:"locale"`
	CreatedAt    time.Time `json:"created_at"`
}

// Movement is one signed ledger entry: positive = inflow, negative = outflow.
// Amount, date and memo always travel together in a single row.
type Movement struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Amount    float64   `json:"amount"`
	Memo      string    `json:"memo"`
	Date      time.Time `json:"date"`
}

// Deposit reports whether the movement is an inflow.
func (m Movement) Deposit() bool { return m.Amount > 0 }

// Summary holds the derived totals for an account.
type Summary struct {
	Income   float64 `json:"income"`
	Outgoing float64 `json:"outgoing"`
	Interest float64 `json:"interest"`
}

// CategoryTotal is the per-memo aggregate for one calendar month.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// DeriveUsername builds the login name from the lowercase initials of the
// owner's space-separated words: "Steven Thomas Williams" -> "stw".
func DeriveUsername(owner string) string {
	var b strings.Builder
	for _, word := range strings.Fields(strings.ToLower(owner)) {
		b.WriteRune([]rune(word)[0])
	}
	return b.String()
}

// SortedByAmount returns a stable-sorted copy of the movements by numeric
// value. The input slice is never modified; sorting is display-only and does
// not claim to keep the chronological pairing of the unsorted view.
func SortedByAmount(movs []Movement, ascending bool) []Movement {
	out := make([]Movement, len(movs))
	copy(out, movs)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Amount < out[j].Amount
		}
		return out[i].Amount > out[j].Amount
	})
	return out
}
