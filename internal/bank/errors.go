package bank

import (
	"errors"

	"bankist/internal/session"
	"bankist/internal/storage"
)

// Domain errors for the transaction service. All of them are recoverable,
// user-facing conditions: a failed operation leaves the ledger and the
// directory exactly as they were.
var (
	ErrInvalidTransfer = errors.New("invalid transfer")
	ErrInvalidLoan     = errors.New("invalid loan request")
	ErrInvalidMemo     = errors.New("unknown memo category")
)

func IsInvalidTransfer(err error) bool {
	return errors.Is(err, ErrInvalidTransfer)
}

func IsInvalidLoan(err error) bool {
	return errors.Is(err, ErrInvalidLoan)
}

func IsInvalidMemo(err error) bool {
	return errors.Is(err, ErrInvalidMemo)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, session.ErrInvalidCredentials)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, session.ErrSessionExpired)
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, storage.ErrAccountNotFound)
}
