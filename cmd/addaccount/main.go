package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"bankist/internal/auth"
	"bankist/internal/models"
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

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("addaccount", flag.ContinueOnError)
	fs.SetOutput(stderr)

	owner := fs.String("owner", "", "Account owner's full name")
	pinFlag := fs.String("pin", "", "PIN (optional, will prompt if omitted)")
	rate := fs.Float64("rate", 1.0, "Interest rate in percent")
	currencyCode := fs.String("currency", "EUR", "ISO currency code")
	locale := fs.String("locale", "en-US", "Locale for display formatting")
	dbPath := fs.String("db", "bankist.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *owner == "" {
		fmt.Fprintln(stdout, "Usage: addaccount -owner <full name> [-pin <pin>] [-rate <percent>] [-currency <code>] [-locale <locale>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: owner")
	}

	pin := *pinFlag
	if pin == "" {
		fmt.Fprint(stdout, "PIN: ")
		var err error
		pin, err = readPIN(stdin)
		if err != nil {
			return fmt.Errorf("failed to read PIN: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after PIN input
	}

	if strings.TrimSpace(pin) == "" {
		return fmt.Errorf("pin cannot be empty")
	}

	// Allow overriding db path via env var if not explicitly set via flag (flag default is used)
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "bankist.db" {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The derived username must still be free
	username := models.DeriveUsername(*owner)
	if existing, err := db.AccountByUsername(username); err == nil && existing != nil {
		return fmt.Errorf("username %s already exists (owned by %s)", username, existing.Owner)
	}

	hash, err := auth.HashPIN(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}

	account, err := db.CreateAccount(*owner, hash, *rate, *currencyCode, *locale)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Fprintf(stdout, "Account for %s created successfully, log in as %s\n", account.Owner, account.Username)
	return nil
}

func readPIN(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePIN, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePIN), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
