package ercx

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ercx-bot/model"
)

type levelCount struct {
	level   string
	success int
	total   int
}

func countByLevel(results []model.PropertyResult) []*levelCount {
	var order []*levelCount
	byLevel := make(map[string]*levelCount)

	for _, r := range results {
		c, ok := byLevel[r.Test.Level]
		if !ok {
			c = &levelCount{level: r.Test.Level}
			byLevel[r.Test.Level] = c
			order = append(order, c)
		}

		if r.Counted() {
			c.total++
			c.success += r.Result
		}
	}

	return order
}

// Summarize renders one "<Level> <success>/<total>" line per test level, in
// the order levels first appear. Not applicable properties are left out of
// both numbers.
func Summarize(results []model.PropertyResult) string {
	var sb strings.Builder

	for _, c := range countByLevel(results) {
		fmt.Fprintf(&sb, "%s %d/%d\n", capitalize(c.level), c.success, c.total)
	}

	return sb.String()
}

// PassRate is the percentage of counted properties that passed.
func PassRate(results []model.PropertyResult) decimal.Decimal {
	success, total := 0, 0
	for _, c := range countByLevel(results) {
		success += c.success
		total += c.total
	}

	if total == 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(success)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

// ReportURL links to the full report page on the ERCx site.
func ReportURL(baseURL string, q model.ReportQuery) string {
	return fmt.Sprintf("%s/token/%s?network=%d", strings.TrimRight(baseURL, "/"), q.Address, q.NetworkID())
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
