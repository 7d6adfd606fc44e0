package dashboard

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var dePrinter = message.NewPrinter(language.German)

// FormatEUR renders a price the way the dashboard shows it, "-" when absent.
func FormatEUR(v *float64) string {
	if v == nil {
		return "-"
	}
	return EUR(*v)
}

func EUR(v float64) string {
	return dePrinter.Sprintf("%.2f €", v)
}

// FormatDate renders a timestamp as dd.mm.yyyy, "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
