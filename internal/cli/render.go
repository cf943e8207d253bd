package cli

import (
	"fmt"
	"strings"

	"budget/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	ColorBorder = lipgloss.Color("#282726")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorRed    = lipgloss.Color("#D14D41")
	ColorDim    = lipgloss.Color("#575653")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorDim)
)

// Table is a bordered text table. Columns after the first are right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Separator inserts a horizontal rule between rows.
var Separator = []string{"---"}

func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

func RenderTable(t Table) string {
	numCols := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > numCols && !isSeparator(row) {
			numCols = len(row)
		}
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			continue
		}
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, headerStyle))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(line(row, valueStyle))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == Separator[0]
}

// FormatAmount prints two decimals with thousands separators:
// 1234567.5 -> "1,234,567.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(core.AmountPlaces)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// FormatPercent prints one decimal: 112.5 -> "112.5%".
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// Warn highlights a value, for example an exceeded budget.
func Warn(s string) string {
	return warnStyle.Render(s)
}

// RenderHistory renders the per-month totals and the per-year rollup.
func RenderHistory(h core.History) string {
	months := Table{
		Title:   "By month",
		Headers: []string{"Month", "Incomes", "Expenses", "Balance", "Plan"},
	}
	for _, m := range h.Months {
		plan := "-"
		if m.Budget != nil {
			plan = FormatAmount(m.Budget.IncomePlan) + " / " + FormatAmount(m.Budget.ExpensePlan)
		}
		balance := m.IncomesBase.Sub(m.ExpensesBase)
		balanceText := FormatAmount(balance)
		if balance.IsNegative() {
			balanceText = Warn(balanceText)
		}
		months.Rows = append(months.Rows, []string{
			core.MonthKey(m.Month.Time),
			FormatAmount(m.IncomesBase),
			FormatAmount(m.ExpensesBase),
			balanceText,
			plan,
		})
	}

	years := Table{
		Title:   "By year",
		Headers: []string{"Year", "Incomes", "Expenses"},
	}
	for _, y := range h.Years {
		years.Rows = append(years.Rows, []string{
			fmt.Sprint(y.Year),
			FormatAmount(y.IncomesBase),
			FormatAmount(y.ExpensesBase),
		})
	}
	return RenderTable(months) + "\n" + RenderTable(years)
}

// RenderAnalytics renders the category breakdown of one month.
func RenderAnalytics(r core.AnalyticsReport) string {
	t := Table{
		Title:   "Expenses " + core.MonthKey(r.Month.Time),
		Headers: []string{"Category", "Total", "Share"},
	}
	for _, c := range r.ByCategory {
		t.Rows = append(t.Rows, []string{c.Name, FormatAmount(c.Total), FormatPercent(core.Percent(c.Total, r.Total))})
	}
	t.Rows = append(t.Rows, Separator,
		[]string{"Total", FormatAmount(r.Total), ""},
		[]string{"Average", FormatAmount(r.Average), ""},
		[]string{"Max", FormatAmount(r.Max), ""},
	)
	return RenderTable(t)
}
