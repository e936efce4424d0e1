package helpers

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 2

	if price >= 100000 {
		decimals = 0
	} else if price != 0 && price < 0.01 && price > -0.01 {
		decimals = 6
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatMoney renders a dollar amount with thousands separators and two decimals
func FormatMoney(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	p := message.NewPrinter(language.English)
	f, _ := amount.Round(2).Float64()
	return sign + p.Sprintf("$%.2f", f)
}

// FormatPercent renders a signed percentage with two decimals
func FormatPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2) + "%"
	if pct.IsPositive() {
		return "+" + s
	}
	return s
}

func FormatQuantity(qty int64) string {
	return humanize.Comma(qty)
}

func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ChangeIcon picks an arrow for the sign of a change
func ChangeIcon(change decimal.Decimal) string {
	switch {
	case change.IsPositive():
		return "📈"
	case change.IsNegative():
		return "📉"
	default:
		return "➖"
	}
}
