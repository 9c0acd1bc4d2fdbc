// Package format renders amounts, dates and the countdown for display. The
// account's currency and locale are opaque hints everywhere else; this is
// the only place that interprets them.
package format

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount renders a value in the account's currency for the account's locale,
// e.g. 1300 with JPY/ja-JP -> "¥1,300".
func Amount(value float64, currencyCode, locale string) string {
	tag := language.Make(locale)
	p := message.NewPrinter(tag)

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return p.Sprintf("%.2f", value)
	}
	return p.Sprintf("%v", currency.Symbol(unit.Amount(value)))
}

// MovementDate renders a movement date relative to now: Today, Yesterday,
// "n days ago" up to a week, then the absolute date.
func MovementDate(date, now time.Time) string {
	days := int(math.Round(math.Abs(now.Sub(date).Hours() / 24)))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return date.Format("2006/01/02")
	}
}

// Countdown renders remaining seconds as zero-padded MM:SS.
func Countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
