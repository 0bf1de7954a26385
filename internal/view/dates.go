package view

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

var (
	monthsPT = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}
	monthsEN = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

	supportedLocales = []language.Tag{language.BrazilianPortuguese, language.English}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// DateFormatter formats publication dates as "dd MMM yyyy" with localized
// month abbreviations. Locales other than Portuguese fall back to English.
type DateFormatter struct {
	months [12]string
}

// NewDateFormatter picks the month table closest to locale.
func NewDateFormatter(locale language.Tag) DateFormatter {
	_, index, confidence := localeMatcher.Match(locale)
	if confidence == language.No || supportedLocales[index] != language.BrazilianPortuguese {
		return DateFormatter{months: monthsEN}
	}
	return DateFormatter{months: monthsPT}
}

// Format renders t, or "" for a post without a publication date.
func (f DateFormatter) Format(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), f.months[t.Month()-1], t.Year())
}

// Months returns the month abbreviations, January first.
func (f DateFormatter) Months() []string {
	return f.months[:]
}
