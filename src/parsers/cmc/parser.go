package cmc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradevault/backend/src/logger"
)

// Column positions inside a CMC history export row.
const (
	colDateTime     = 0
	colType         = 1
	colOrderNumber  = 2
	colRelatedOrder = 4
	colProduct      = 5
	colUnits        = 6
	colPrice        = 7
	colAmount       = 14
)

// minColumns is the shortest row that still exposes the amount column.
const minColumns = colAmount + 1

// tradeTimeLayouts are the candidate timestamp formats, tried in order.
// CMC exports switch between them depending on export settings.
var tradeTimeLayouts = []string{
	"02/01/2006 15:04",
	"02 Jan 2006 15:04:05",
	"02 January 2006 15:04:05",
}

// Parser reads CMC Markets delimited-text history exports. A single
// malformed line is logged and skipped; the parse as a whole only fails when
// the underlying reader does.
type Parser struct {
	delimiter rune
}

func NewParser(delimiter rune) *Parser {
	return &Parser{delimiter: delimiter}
}

// Parse converts the export's lines into trade wrappers. The header line is
// always skipped.
func (p *Parser) Parse(file io.Reader) ([]TradeWrapper, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var wrappers []TradeWrapper
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		wrapper, err := p.parseLine(line)
		if err != nil {
			logger.L.Warn("cmc parser: skipping unparsable line", "line", line, "error", err)
			continue
		}
		wrappers = append(wrappers, wrapper)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cmc parser: failed reading export: %w", err)
	}
	return wrappers, nil
}

// parseLine converts one data row. Every failure mode here (short row, bad
// number, unparsable timestamp) is recoverable at the caller.
func (p *Parser) parseLine(line string) (TradeWrapper, error) {
	line = strings.ReplaceAll(line, "(T) ", "")
	line = strings.ReplaceAll(line, "(T)", "")

	fields := splitOutsideQuotes(line, p.delimiter)
	if len(fields) < minColumns {
		return TradeWrapper{}, fmt.Errorf("row has %d columns, need at least %d", len(fields), minColumns)
	}

	dateTime, err := parseTradeTime(sanitize(fields[colDateTime]))
	if err != nil {
		return TradeWrapper{}, err
	}

	units, err := safeParseFloat(sanitize(fields[colUnits]))
	if err != nil {
		return TradeWrapper{}, err
	}
	price, err := safeParseFloat(sanitize(fields[colPrice]))
	if err != nil {
		return TradeWrapper{}, err
	}
	amount, err := safeParseFloat(sanitize(fields[colAmount]))
	if err != nil {
		return TradeWrapper{}, err
	}

	return TradeWrapper{
		DateTime:           dateTime,
		Type:               sanitize(fields[colType]),
		OrderNumber:        sanitize(fields[colOrderNumber]),
		RelatedOrderNumber: sanitize(fields[colRelatedOrder]),
		Product:            sanitize(fields[colProduct]),
		Units:              units,
		Price:              price,
		Amount:             amount,
	}, nil
}

// splitOutsideQuotes splits on the delimiter, ignoring delimiters that fall
// inside double-quoted fields. The quotes themselves are kept for sanitize.
func splitOutsideQuotes(line string, delimiter rune) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == delimiter && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// sanitize strips the surrounding quotes a field may carry.
func sanitize(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// parseTradeTime tries the candidate layouts in order and returns the first
// successful parse. The second layout also tolerates an abbreviated month
// carrying a locale period ("24 Aug. 2022 11:13:05").
func parseTradeTime(s string) (time.Time, error) {
	if t, err := time.Parse(tradeTimeLayouts[0], s); err == nil {
		return t, nil
	}

	if tokens := strings.Fields(s); len(tokens) == 4 {
		tokens[1] = strings.TrimSuffix(tokens[1], ".")
		if t, err := time.Parse(tradeTimeLayouts[1], strings.Join(tokens, " ")); err == nil {
			return t, nil
		}
	}

	if t, err := time.Parse(tradeTimeLayouts[2], s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unparsable trade time %q", s)
}

// safeParseFloat parses a monetary/size field after stripping everything but
// digits, '.' and '-'. An empty value or a lone dash means zero.
func safeParseFloat(s string) (float64, error) {
	if s == "" || s == "-" {
		return 0.0, nil
	}

	var cleaned strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			cleaned.WriteRune(r)
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable number %q: %w", s, err)
	}
	return v, nil
}
