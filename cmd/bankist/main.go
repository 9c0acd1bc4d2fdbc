package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"bankist/internal/bank"
	"bankist/internal/config"
	"bankist/internal/format"
	"bankist/internal/models"
	"bankist/internal/session"
	"bankist/internal/storage"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the core to the terminal. It is the presentation collaborator:
// it forwards user intents to the session manager and the bank service and
// re-reads state to redraw; no business rules live here.
type app struct {
	svc      *bank.Service
	sessions *session.Manager
	scanner  *bufio.Scanner
	stdin    io.Reader
	stdout   io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bankist", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dbPath := fs.String("db", "", "Path to database file (default: in-memory)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}

	logger := newLogger(cfg.LogFormat, stderr)

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if cfg.SeedDemoData {
		count, err := db.AccountCount()
		if err != nil {
			return err
		}
		if count == 0 {
			if err := db.Seed(); err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}
			logger.Info("seeded demo accounts", "logins", "js/1111, jd/2222")
		}
	}

	sessions := session.NewManager(db, int(cfg.InactivityTimeout/time.Second))
	svc := bank.NewService(db, sessions, logger, cfg.LoanApprovalDelay)

	a := &app{
		svc:      svc,
		sessions: sessions,
		scanner:  bufio.NewScanner(stdin),
		stdin:    stdin,
		stdout:   stdout,
	}

	// The single countdown clock. Re-login resets the counter inside the
	// manager, so this ticker is never recreated.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			if _, expired := sessions.Tick(); expired {
				fmt.Fprintln(stdout, "\nSession expired. Log in to get started")
			}
		}
	}()

	fmt.Fprintln(stdout, "bankist — type 'help' for commands")
	return a.loop()
}

func newLogger(logFormat string, w io.Writer) *slog.Logger {
	if logFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func (a *app) loop() error {
	for {
		fmt.Fprint(a.stdout, "> ")
		if !a.scanner.Scan() {
			return a.scanner.Err()
		}
		fields := strings.Fields(a.scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			a.handleLogin(args)
		case "status":
			a.handleStatus()
		case "balance":
			a.handleBalance()
		case "movements":
			a.handleMovements()
		case "sort":
			a.handleSort()
		case "summary":
			a.handleSummary()
		case "transfer":
			a.handleTransfer(args)
		case "loan":
			a.handleLoan(args)
		case "close":
			a.handleClose()
		case "logout":
			a.sessions.Logout()
			fmt.Fprintln(a.stdout, "Logged out")
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(a.stdout, "Unknown command %q, type 'help'\n", cmd)
		}
	}
}

func (a *app) printHelp() {
	fmt.Fprint(a.stdout, `Commands:
  login <username>            log in (you will be asked for your PIN)
  status                      show who is logged in and the countdown
  balance                     show the current balance
  movements                   list movements (respects the sort toggle)
  sort                        toggle sorting movements by amount
  summary                     show in/out/interest totals and categories
  transfer <to> <amount> [memo]
  loan <amount> [memo]        request a loan (credited after a short delay)
  close                       close the logged-in account
  logout
  quit
`)
}

func (a *app) handleLogin(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.stdout, "Usage: login <username>")
		return
	}

	pin, err := a.readSecret("PIN: ")
	if err != nil {
		fmt.Fprintf(a.stdout, "Failed to read PIN: %v\n", err)
		return
	}

	sess, err := a.sessions.Login(args[0], pin)
	if err != nil {
		fmt.Fprintf(a.stdout, "Login failed: %v\n", err)
		return
	}

	first := strings.Split(sess.Account.Owner, " ")[0]
	fmt.Fprintf(a.stdout, "Good Day, %s!\n", first)
	a.renderDashboard(sess)
}

func (a *app) handleStatus() {
	sess := a.sessions.Current()
	if sess == nil {
		fmt.Fprintln(a.stdout, "Not logged in")
		return
	}
	fmt.Fprintf(a.stdout, "%s (%s), logout in %s\n",
		sess.Account.Owner, sess.Account.Username, format.Countdown(sess.Remaining()))
}

func (a *app) handleBalance() {
	sess := a.sessions.Current()
	balance, err := a.svc.Balance(sess)
	if err != nil {
		fmt.Fprintf(a.stdout, "%v\n", err)
		return
	}
	fmt.Fprintf(a.stdout, "Balance: %s\n", a.money(sess, balance))
}

func (a *app) handleMovements() {
	sess := a.sessions.Current()
	movs, err := a.svc.Movements(sess)
	if err != nil {
		fmt.Fprintf(a.stdout, "%v\n", err)
		return
	}
	a.renderMovements(sess, movs)
}

func (a *app) handleSort() {
	sess := a.sessions.Current()
	if sess == nil {
		fmt.Fprintf(a.stdout, "%v\n", session.ErrSessionExpired)
		return
	}
	if sess.ToggleSort() {
		fmt.Fprintln(a.stdout, "Sorting by amount")
	} else {
		fmt.Fprintln(a.stdout, "Chronological order")
	}
	a.handleMovements()
}

func (a *app) handleSummary() {
	sess := a.sessions.Current()
	summary, err := a.svc.Summary(sess)
	if err != nil {
		fmt.Fprintf(a.stdout, "%v\n", err)
		return
	}
	month, err := a.svc.MonthSummary(sess)
	if err != nil {
		fmt.Fprintf(a.stdout, "%v\n", err)
		return
	}

	fmt.Fprintf(a.stdout, "In: %s  Out: %s  Interest: %s\n",
		a.money(sess, summary.Income), a.money(sess, summary.Outgoing), a.money(sess, summary.Interest))
	fmt.Fprintf(a.stdout, "This month — in: %s  out: %s\n",
		a.money(sess, month.Income), a.money(sess, month.Outgoing))

	totals, err := a.svc.CategoryBreakdown(sess)
	if err != nil {
		fmt.Fprintf(a.stdout, "%v\n", err)
		return
	}
	for _, ct := range totals {
		fmt.Fprintf(a.stdout, "  %-14s %s (%d)\n", ct.Category, a.money(sess, ct.Total), ct.Count)
	}
}

func (a *app) handleTransfer(args []string) {
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(a.stdout, "Usage: transfer <to> <amount> [memo]")
		return
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(a.stdout, "Invalid amount %q\n", args[1])
		return
	}
	req := bank.TransferRequest{To: args[0], Amount: amount}
	if len(args) == 3 {
		req.Memo = args[2]
	}

	sess := a.sessions.Current()
	if err := a.svc.Transfer(sess, req); err != nil {
		fmt.Fprintf(a.stdout, "Transfer failed: %v\n", err)
		if bank.IsInvalidMemo(err) {
			fmt.Fprintf(a.stdout, "Valid memo categories: %s\n", strings.Join(models.Categories, ", "))
		}
		return
	}
	fmt.Fprintln(a.stdout, "Transfer complete")
	a.handleBalance()
}

func (a *app) handleLoan(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(a.stdout, "Usage: loan <amount> [memo]")
		return
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(a.stdout, "Invalid amount %q\n", args[0])
		return
	}
	req := bank.LoanRequest{Amount: amount}
	if len(args) == 2 {
		req.Memo = args[1]
	}

	sess := a.sessions.Current()
	if err := a.svc.RequestLoan(sess, req); err != nil {
		fmt.Fprintf(a.stdout, "Loan rejected: %v\n", err)
		if bank.IsInvalidMemo(err) {
			fmt.Fprintf(a.stdout, "Valid memo categories: %s\n", strings.Join(models.Categories, ", "))
		}
		return
	}
	fmt.Fprintln(a.stdout, "Loan approved, the credit will arrive shortly")
}

func (a *app) handleClose() {
	sess := a.sessions.Current()
	if sess == nil {
		fmt.Fprintf(a.stdout, "%v\n", session.ErrSessionExpired)
		return
	}

	fmt.Fprint(a.stdout, "Confirm username: ")
	if !a.scanner.Scan() {
		return
	}
	username := strings.TrimSpace(a.scanner.Text())

	pin, err := a.readSecret("Confirm PIN: ")
	if err != nil {
		fmt.Fprintf(a.stdout, "Failed to read PIN: %v\n", err)
		return
	}

	closed, err := a.svc.CloseAccount(sess, username, pin, func() bool {
		fmt.Fprint(a.stdout, "Really close this account? (y/N): ")
		if !a.scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(a.scanner.Text()))
		return answer == "y" || answer == "yes"
	})
	if err != nil {
		fmt.Fprintf(a.stdout, "Close failed: %v\n", err)
		return
	}
	if !closed {
		fmt.Fprintln(a.stdout, "Cancelled")
		return
	}
	fmt.Fprintln(a.stdout, "Account closed")
}

func (a *app) renderDashboard(sess *session.Session) {
	a.handleBalance()
	a.handleSummary()
	movs, err := a.svc.Movements(sess)
	if err != nil {
		fmt.Fprintf(a.stdout, "%v\n", err)
		return
	}
	a.renderMovements(sess, movs)
}

func (a *app) renderMovements(sess *session.Session, movs []models.Movement) {
	if len(movs) == 0 {
		fmt.Fprintln(a.stdout, "No movements yet")
		return
	}
	now := time.Now()
	// Latest entries first, like a bank statement.
	for i := len(movs) - 1; i >= 0; i-- {
		m := movs[i]
		kind := "WITHDRAWAL"
		if m.Deposit() {
			kind = "DEPOSIT"
		}
		fmt.Fprintf(a.stdout, "%3d %-10s %-12s %14s  %s\n",
			i+1, kind, format.MovementDate(m.Date, now), a.money(sess, m.Amount), m.Memo)
	}
}

func (a *app) money(sess *session.Session, value float64) string {
	if sess == nil {
		return fmt.Sprintf("%.2f", value)
	}
	return format.Amount(value, sess.Account.Currency, sess.Account.Locale)
}

// readSecret reads a PIN without echo when stdin is a terminal, falling back
// to plain line reading for pipes and tests.
func (a *app) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(a.stdout)
		return string(b), nil
	}
	if a.scanner.Scan() {
		return a.scanner.Text(), nil
	}
	if err := a.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
