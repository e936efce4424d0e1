package commands

import (
	"fmt"
	"strings"

	"portfolio-dashboard-bot/lib/helpers"

	"github.com/shopspring/decimal"
)

var linkEscaper = strings.NewReplacer(`\`, `\\`, `)`, `\)`)

func esc(text string) string {
	return helpers.EscapeMarkdownV2(text)
}

func bold(text string) string {
	return "*" + esc(text) + "*"
}

func link(title, url string) string {
	return fmt.Sprintf("[%s](%s)", esc(title), linkEscaper.Replace(url))
}

func money(d decimal.Decimal) string {
	return esc(helpers.FormatMoney(d))
}

func percent(d decimal.Decimal) string {
	return esc(helpers.FormatPercent(d))
}

// warningLines renders skipped-ticker notices under a reply
func warningLines(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, w := range warnings {
		b.WriteString("\n⚠️ " + esc(w))
	}
	return b.String()
}
