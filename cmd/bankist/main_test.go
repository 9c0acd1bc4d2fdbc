package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, lines ...string) string {
	t.Helper()

	stdin := bytes.NewBufferString(strings.Join(lines, "\n") + "\n")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := run(nil, stdin, stdout, stderr)
	require.NoError(t, err)
	return stdout.String()
}

func TestFullJourney(t *testing.T) {
	t.Setenv("LOAN_APPROVAL_DELAY", "5ms")

	out := runScript(t,
		"login js",
		"1111",
		"status",
		"balance",
		"movements",
		"sort",
		"transfer jd 50 meal",
		"loan 100",
		"logout",
		"quit",
	)

	assert.Contains(t, out, "Good Day, Jordan!")
	assert.Contains(t, out, "logout in 02:00")
	assert.Contains(t, out, "Balance:")
	assert.Contains(t, out, "DEPOSIT")
	assert.Contains(t, out, "WITHDRAWAL")
	assert.Contains(t, out, "Sorting by amount")
	assert.Contains(t, out, "Transfer complete")
	assert.Contains(t, out, "Loan approved")
	assert.Contains(t, out, "Logged out")
}

func TestLoginFailure(t *testing.T) {
	out := runScript(t,
		"login js",
		"9999",
		"balance",
		"quit",
	)

	assert.Contains(t, out, "Login failed: invalid username or pin")
	assert.Contains(t, out, "session expired, log in to get started")
}

func TestCloseDeclined(t *testing.T) {
	out := runScript(t,
		"login js",
		"1111",
		"close",
		"js",
		"1111",
		"n",
		"status",
		"quit",
	)

	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "Jordan Smith (js)", "session must survive a declined close")
}

func TestCloseConfirmed(t *testing.T) {
	out := runScript(t,
		"login js",
		"1111",
		"close",
		"js",
		"1111",
		"y",
		"balance",
		"login js",
		"1111",
		"quit",
	)

	assert.Contains(t, out, "Account closed")
	assert.Contains(t, out, "session expired, log in to get started")
	// The account is gone from the directory for good.
	assert.Contains(t, out, "Login failed: invalid username or pin")
}

func TestCloseWrongPIN(t *testing.T) {
	out := runScript(t,
		"login js",
		"1111",
		"close",
		"js",
		"0000",
		"status",
		"quit",
	)

	assert.Contains(t, out, "Close failed: invalid username or pin")
	assert.Contains(t, out, "Jordan Smith (js)")
}

func TestTransferValidation(t *testing.T) {
	out := runScript(t,
		"login jd",
		"2222",
		"transfer jd 10",
		"transfer zz 10",
		"transfer js -5",
		"transfer js 10 groceries",
		"quit",
	)

	assert.Contains(t, out, "cannot transfer to own account")
	assert.Contains(t, out, `recipient "zz" not found`)
	assert.Contains(t, out, "invalid transfer")
	assert.Contains(t, out, "unknown memo category")
}

func TestUnknownCommand(t *testing.T) {
	out := runScript(t,
		"frobnicate",
		"quit",
	)
	assert.Contains(t, out, `Unknown command "frobnicate"`)
}

func TestHelp(t *testing.T) {
	out := runScript(t, "help", "quit")
	assert.Contains(t, out, "login <username>")
	assert.Contains(t, out, "transfer <to> <amount> [memo]")
}
