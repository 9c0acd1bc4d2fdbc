// Package bank implements the transaction service: it validates and applies
// the mutating operations (transfer, loan, close-account) against the ledger
// and the account directory.
package bank

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bankist/internal/auth"
	"bankist/internal/models"
	"bankist/internal/session"
	"bankist/internal/storage"

	"github.com/go-playground/validator/v10"
)

// ConfirmFunc is the yes/no decision point required before an account is
// closed. The frontend supplies it; declining leaves everything unchanged.
type ConfirmFunc func() bool

// TransferRequest carries the raw user intent for a transfer.
type TransferRequest struct {
	To     string  `validate:"required"`
	Amount float64 `validate:"gt=0"`
	Memo   string
}

// LoanRequest carries the raw user intent for a loan.
type LoanRequest struct {
	Amount float64 `validate:"gt=0"`
	Memo   string
}

// Service validates and applies mutating operations. Every successful
// mutation resets the session's inactivity countdown and leaves an audit
// entry; every failure leaves all state untouched.
type Service struct {
	db        *storage.DB
	sessions  *session.Manager
	logger    *slog.Logger
	validate  *validator.Validate
	loanDelay time.Duration
	now       func() time.Time
}

// NewService constructs a Service. loanDelay is how long a loan approval is
// deferred before the credit lands.
func NewService(db *storage.DB, sessions *session.Manager, logger *slog.Logger, loanDelay time.Duration) *Service {
	return &Service{
		db:        db,
		sessions:  sessions,
		logger:    logger,
		validate:  validator.New(),
		loanDelay: loanDelay,
		now:       time.Now,
	}
}

func requireActive(sess *session.Session) error {
	if sess == nil || !sess.Active() {
		return session.ErrSessionExpired
	}
	return nil
}

// normalizeMemo defaults an empty memo to "other" and rejects anything
// outside the fixed category set.
func normalizeMemo(memo string) (string, error) {
	if memo == "" {
		return models.CategoryOther, nil
	}
	if !models.ValidCategory(memo) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMemo, memo)
	}
	return memo, nil
}

// Transfer moves amount from the session's account to the named recipient.
// It succeeds iff the amount is positive, the recipient exists and is not
// the sender, and the sender's balance covers the amount. Both ledger
// entries are applied atomically.
func (s *Service) Transfer(sess *session.Session, req TransferRequest) error {
	if err := requireActive(sess); err != nil {
		return err
	}

	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("invalid transfer request",
			"from", sess.Account.Username,
			"to", req.To,
			"amount", req.Amount,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", ErrInvalidTransfer, err)
	}

	memo, err := normalizeMemo(req.Memo)
	if err != nil {
		return err
	}

	recipient, err := s.db.AccountByUsername(req.To)
	if err != nil {
		s.logger.Warn("transfer recipient not found",
			"from", sess.Account.Username,
			"to", req.To,
		)
		return fmt.Errorf("%w: recipient %q not found", ErrInvalidTransfer, req.To)
	}

	if recipient.Username == sess.Account.Username {
		return fmt.Errorf("%w: cannot transfer to own account", ErrInvalidTransfer)
	}

	balance, err := s.db.BalanceOf(sess.Account.ID)
	if err != nil {
		return err
	}
	if balance < req.Amount {
		s.logger.Warn("insufficient balance for transfer",
			"from", sess.Account.Username,
			"balance", balance,
			"amount", req.Amount,
		)
		return fmt.Errorf("%w: insufficient balance", ErrInvalidTransfer)
	}

	recipientBalance, err := s.db.BalanceOf(recipient.ID)
	if err != nil {
		return err
	}

	if err := s.db.TransferMovements(sess.Account.ID, recipient.ID, req.Amount, memo, s.now()); err != nil {
		return err
	}

	s.auditBalanceChange(sess.Account.Username, models.AuditActionDebit, balance, balance-req.Amount)
	s.auditBalanceChange(recipient.Username, models.AuditActionCredit, recipientBalance, recipientBalance+req.Amount)

	sess.Touch()
	s.logger.Info("transfer applied",
		"from", sess.Account.Username,
		"to", recipient.Username,
		"amount", req.Amount,
		"memo", memo,
	)
	return nil
}

// RequestLoan grants a loan iff the amount is positive and some prior
// movement is at least 10% of it. The credit is deferred by the configured
// delay; the pending timer is tied to the session, so logout, expiry or
// account closure cancels it, and the callback re-checks the account still
// exists before writing.
func (s *Service) RequestLoan(sess *session.Session, req LoanRequest) error {
	if err := requireActive(sess); err != nil {
		return err
	}

	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLoan, err)
	}

	memo, err := normalizeMemo(req.Memo)
	if err != nil {
		return err
	}

	movements, err := s.db.Movements(sess.Account.ID)
	if err != nil {
		return err
	}

	qualified := false
	for _, m := range movements {
		if m.Amount >= req.Amount*0.1 {
			qualified = true
			break
		}
	}
	if !qualified {
		s.logger.Warn("loan rejected",
			"username", sess.Account.Username,
			"amount", req.Amount,
		)
		return fmt.Errorf("%w: no deposit covers 10%% of the requested amount", ErrInvalidLoan)
	}

	accountID := sess.Account.ID
	username := sess.Account.Username
	timer := time.AfterFunc(s.loanDelay, func() {
		s.creditLoan(sess, accountID, username, req.Amount, memo)
	})
	sess.TrackTimer(timer)

	sess.Touch()
	s.logger.Info("loan approved",
		"username", username,
		"amount", req.Amount,
		"delay", s.loanDelay,
	)
	return nil
}

// creditLoan is the deferred continuation of an approved loan. It must never
// resurrect a dead session or write to a removed account.
func (s *Service) creditLoan(sess *session.Session, accountID int64, username string, amount float64, memo string) {
	if !sess.Active() {
		s.logger.Info("loan credit skipped, session ended", "username", username)
		return
	}
	if _, err := s.db.AccountByID(accountID); err != nil {
		s.logger.Info("loan credit skipped, account gone", "username", username)
		return
	}

	balance, err := s.db.BalanceOf(accountID)
	if err != nil {
		s.logger.Error("loan credit failed", "username", username, "error", err.Error())
		return
	}
	if err := s.db.AppendMovement(accountID, amount, memo, s.now()); err != nil {
		s.logger.Error("loan credit failed", "username", username, "error", err.Error())
		return
	}

	s.auditLoanCredit(username, balance, balance+amount)
	s.logger.Info("loan credited", "username", username, "amount", amount)
}

// CloseAccount removes the active session's account from the directory. The
// supplied credentials must match the session's account, and the caller's
// confirm func must approve. It returns true when the account was removed;
// a declined confirmation returns (false, nil) with nothing changed.
func (s *Service) CloseAccount(sess *session.Session, username, pin string, confirm ConfirmFunc) (bool, error) {
	if err := requireActive(sess); err != nil {
		return false, err
	}

	if username != sess.Account.Username || !auth.CheckPIN(pin, sess.Account.PINHash) {
		s.logger.Warn("close account rejected, credential mismatch",
			"session_username", sess.Account.Username,
			"supplied_username", username,
		)
		return false, session.ErrInvalidCredentials
	}

	if !confirm() {
		s.logger.Info("close account declined", "username", username)
		return false, nil
	}

	balance, err := s.db.BalanceOf(sess.Account.ID)
	if err != nil {
		return false, err
	}

	if err := s.db.DeleteAccount(sess.Account.ID); err != nil {
		return false, err
	}

	old, _ := json.Marshal(models.BalanceSnapshot{Username: username, Balance: balance})
	if err := s.db.AppendAudit(models.EntityTypeAccount, username, models.AuditActionClose, old, nil); err != nil {
		s.logger.Error("failed to audit account closure", "username", username, "error", err.Error())
	}

	s.sessions.Logout()
	s.logger.Info("account closed", "username", username)
	return true, nil
}

// Balance returns the session account's derived balance.
func (s *Service) Balance(sess *session.Session) (float64, error) {
	if err := requireActive(sess); err != nil {
		return 0, err
	}
	return s.db.BalanceOf(sess.Account.ID)
}

// Movements returns the session account's ledger, ordered chronologically or,
// when the session's sort flag is set, by ascending amount. Sorting never
// touches the stored ledger.
func (s *Service) Movements(sess *session.Session) ([]models.Movement, error) {
	if err := requireActive(sess); err != nil {
		return nil, err
	}
	movs, err := s.db.Movements(sess.Account.ID)
	if err != nil {
		return nil, err
	}
	if sess.SortAscending() {
		movs = models.SortedByAmount(movs, true)
	}
	return movs, nil
}

// Summary returns the all-time income/outgoing/interest totals.
func (s *Service) Summary(sess *session.Session) (*models.Summary, error) {
	if err := requireActive(sess); err != nil {
		return nil, err
	}
	return s.db.SummaryOf(sess.Account.ID, time.Time{}, sess.Account.InterestRate)
}

// MonthSummary returns the totals restricted to the current calendar month,
// with the boundary computed from the clock.
func (s *Service) MonthSummary(sess *session.Session) (*models.Summary, error) {
	if err := requireActive(sess); err != nil {
		return nil, err
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.db.SummaryOf(sess.Account.ID, start, sess.Account.InterestRate)
}

// CategoryBreakdown returns the current month's per-memo totals.
func (s *Service) CategoryBreakdown(sess *session.Session) ([]models.CategoryTotal, error) {
	if err := requireActive(sess); err != nil {
		return nil, err
	}
	now := s.now()
	return s.db.CategoryTotals(sess.Account.ID, now.Year(), now.Month())
}

func (s *Service) auditBalanceChange(username, action string, oldBalance, newBalance float64) {
	old, _ := json.Marshal(models.BalanceSnapshot{Username: username, Balance: oldBalance})
	updated, _ := json.Marshal(models.BalanceSnapshot{Username: username, Balance: newBalance})
	if err := s.db.AppendAudit(models.EntityTypeAccount, username, action, old, updated); err != nil {
		s.logger.Error("failed to audit balance change", "username", username, "error", err.Error())
	}
}

func (s *Service) auditLoanCredit(username string, oldBalance, newBalance float64) {
	old, _ := json.Marshal(models.BalanceSnapshot{Username: username, Balance: oldBalance})
	updated, _ := json.Marshal(models.BalanceSnapshot{Username: username, Balance: newBalance})
	if err := s.db.AppendAudit(models.EntityTypeLoan, username, models.AuditActionCredit, old, updated); err != nil {
		s.logger.Error("failed to audit loan credit", "username", username, "error", err.Error())
	}
}
