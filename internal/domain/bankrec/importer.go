package bankrec

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/strataledger/backend/internal/domain/shared"
	"github.com/strataledger/backend/internal/domain/shared/valueobject"
)

// Parse errors. A statement either fails structurally (empty, header columns
// missing) or parses; individual rows with unreadable dates are skipped, not
// fatal - banks pad exports with section headers and footer rows.
var (
	ErrEmptyStatement           = shared.NewDomainError("EMPTY_STATEMENT", "statement has no data rows")
	ErrMissingDateColumn        = shared.NewDomainError("MISSING_DATE_COLUMN", "statement header has no date column")
	ErrMissingDescriptionColumn = shared.NewDomainError("MISSING_DESCRIPTION_COLUMN", "statement header has no description column")
	ErrMissingAmountColumns     = shared.NewDomainError("MISSING_AMOUNT_COLUMNS", "statement header has neither a debit nor a credit column")
)

// ParsedLine is one typed statement row before persistence. Debit and credit
// are non-negative magnitudes; the column a value came from determines its
// direction.
type ParsedLine struct {
	Date           time.Time
	Description    string
	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal
	RunningBalance *decimal.Decimal
}

// ParsedStatement is the result of parsing raw statement text
type ParsedStatement struct {
	Lines []ParsedLine
	// OpeningBalance is back-computed from the first line's running balance
	// minus its credit plus its debit. Only set when a balance column exists.
	OpeningBalance *decimal.Decimal
	// ClosingBalance is the last line's running balance
	ClosingBalance *decimal.Decimal
	// SkippedRows counts data rows dropped for unparseable dates
	SkippedRows int
}

// columnIndex maps the recognized statement columns to header positions
type columnIndex struct {
	date        int
	description int
	debit       int
	credit      int
	balance     int
}

// supported date layouts, tried in order: AU bank exports first
var dateLayouts = []string{"02/01/2006", "2006-01-02"}

// StatementParser turns raw delimited bank statement text into typed lines.
// Header names are matched case-insensitively by substring, so "Debit
// Amount", "Withdrawals ($)" and "debit" all bind the debit column.
type StatementParser struct{}

// NewStatementParser creates a statement parser
func NewStatementParser() *StatementParser {
	return &StatementParser{}
}

// Parse reads the delimited text and produces typed lines with balances
func (p *StatementParser) Parse(text string) (*ParsedStatement, error) {
	rows, err := readRows(text)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrEmptyStatement
	}

	cols, err := bindColumns(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ParsedStatement{Lines: make([]ParsedLine, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		line, ok := p.parseRow(row, cols)
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Lines = append(result.Lines, line)
	}
	if len(result.Lines) == 0 {
		return nil, ErrEmptyStatement
	}

	if cols.balance >= 0 {
		first := result.Lines[0]
		if first.RunningBalance != nil {
			opening := valueobject.RoundCents(
				first.RunningBalance.Sub(first.CreditAmount).Add(first.DebitAmount))
			result.OpeningBalance = &opening
		}
		last := result.Lines[len(result.Lines)-1]
		if last.RunningBalance != nil {
			closing := valueobject.RoundCents(*last.RunningBalance)
			result.ClosingBalance = &closing
		}
	}
	return result, nil
}

// readRows splits the text into non-blank delimited rows, sniffing the
// delimiter from the first non-blank line.
func readRows(text string) ([][]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyStatement
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.Comma = sniffDelimiter(trimmed)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, treat like a blank row and move on
			continue
		}
		blank := true
		for _, f := range record {
			if strings.TrimSpace(f) != "" {
				blank = false
				break
			}
		}
		if !blank {
			rows = append(rows, record)
		}
	}
	return rows, nil
}

// sniffDelimiter picks the delimiter with the most occurrences on the header line
func sniffDelimiter(text string) rune {
	header := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		header = text[:idx]
	}
	best, bestCount := ',', strings.Count(header, ",")
	for _, cand := range []rune{'\t', ';', '|'} {
		if n := strings.Count(header, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// bindColumns matches header cells to the recognized columns by substring
func bindColumns(header []string) (columnIndex, error) {
	cols := columnIndex{date: -1, description: -1, debit: -1, credit: -1, balance: -1}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case cols.date < 0 && strings.Contains(name, "date"):
			cols.date = i
		case cols.description < 0 && (strings.Contains(name, "description") ||
			strings.Contains(name, "narrative") || strings.Contains(name, "details")):
			cols.description = i
		case cols.debit < 0 && (strings.Contains(name, "debit") || strings.Contains(name, "withdrawal")):
			cols.debit = i
		case cols.credit < 0 && (strings.Contains(name, "credit") || strings.Contains(name, "deposit")):
			cols.credit = i
		case cols.balance < 0 && strings.Contains(name, "balance"):
			cols.balance = i
		}
	}
	if cols.date < 0 {
		return cols, ErrMissingDateColumn
	}
	if cols.description < 0 {
		return cols, ErrMissingDescriptionColumn
	}
	if cols.debit < 0 && cols.credit < 0 {
		return cols, ErrMissingAmountColumns
	}
	return cols, nil
}

// parseRow converts one data row; ok is false when the date is unreadable
func (p *StatementParser) parseRow(row []string, cols columnIndex) (ParsedLine, bool) {
	date, ok := parseDate(field(row, cols.date))
	if !ok {
		return ParsedLine{}, false
	}

	line := ParsedLine{
		Date:         date,
		Description:  strings.TrimSpace(field(row, cols.description)),
		DebitAmount:  decimal.Zero,
		CreditAmount: decimal.Zero,
	}

	if cols.debit >= 0 {
		if amt, ok := parseAmount(field(row, cols.debit)); ok && !amt.IsZero() {
			line.DebitAmount = amt.Abs()
		}
	}
	if cols.credit >= 0 {
		if amt, ok := parseAmount(field(row, cols.credit)); ok && !amt.IsZero() {
			line.CreditAmount = amt.Abs()
		}
	}
	if cols.balance >= 0 {
		if bal, ok := parseAmount(field(row, cols.balance)); ok {
			line.RunningBalance = &bal
		}
	}
	return line, true
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount normalizes a currency cell: strips symbols and thousands
// separators, treats parenthesized values as negative, rounds to cents.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return valueobject.RoundCents(d), true
}
