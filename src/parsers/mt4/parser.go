package mt4

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradevault/backend/src/logger"
)

// Structural errors abort the whole import; they are not per-row conditions.
var (
	ErrNoTrades     = errors.New("no valid trades were given to import")
	ErrBadStructure = errors.New("the import file is not properly formatted")
)

var (
	rowRegex  = regexp.MustCompile(`<tr.*?>(.*?)</tr>`)
	cellRegex = regexp.MustCompile(`<td.*?>(.*?)</td>`)
)

// cellCount is the exact number of cells a valid history row yields.
const cellCount = 14

const reportTimeLayout = "2006.01.02 15:04:05"

// Parser reads a MetaTrader 4 trade history report. The document must carry a
// "Ticket" header marker and a "Closed P/L:" terminator; rows between them
// that do not yield exactly 14 cells are skipped.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts all trade rows from the report and returns them sorted by
// open time ascending.
func (p *Parser) Parse(file io.Reader) ([]TradeWrapper, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("mt4 parser: failed reading report: %w", err)
	}
	// The report is processed as a single string; line breaks inside row
	// fragments would otherwise defeat the fragment regexes.
	content := strings.NewReplacer("\r", "", "\n", "").Replace(string(data))

	tradeContent, err := tradeSection(content)
	if err != nil {
		return nil, err
	}

	var wrappers []TradeWrapper
	for _, rowMatch := range rowRegex.FindAllStringSubmatch(tradeContent, -1) {
		row := strings.TrimSpace(rowMatch[1])
		if row == "" {
			continue
		}
		wrapper, ok := p.parseRow(row)
		if !ok {
			continue
		}
		wrappers = append(wrappers, wrapper)
	}

	sort.SliceStable(wrappers, func(i, j int) bool {
		return wrappers[i].OpenTime.Before(wrappers[j].OpenTime)
	})
	return wrappers, nil
}

// tradeSection cuts the document down to the fragment between the first row
// after the "Ticket" header and the "Closed P/L:" summary marker.
func tradeSection(content string) (string, error) {
	ticketIndex := strings.Index(content, "Ticket")
	if ticketIndex == -1 {
		return "", ErrNoTrades
	}

	rowOffset := strings.Index(content[ticketIndex:], "<tr")
	if rowOffset == -1 {
		return "", ErrBadStructure
	}
	startIndex := ticketIndex + rowOffset

	endIndex := strings.Index(content, "Closed P/L:")
	if endIndex == -1 || endIndex < startIndex {
		return "", ErrBadStructure
	}

	return content[startIndex:endIndex], nil
}

// parseRow converts one row fragment. A row that does not yield exactly 14
// cells, or whose cells fail to parse, is dropped without failing the pass.
func (p *Parser) parseRow(row string) (TradeWrapper, bool) {
	var cells []string
	for _, cellMatch := range cellRegex.FindAllStringSubmatch(row, -1) {
		cells = append(cells, strings.TrimSpace(cellMatch[1]))
	}
	if len(cells) != cellCount {
		logger.L.Debug("mt4 parser: discarding row without expected cell count", "cells", len(cells))
		return TradeWrapper{}, false
	}

	openTime, err := time.Parse(reportTimeLayout, cells[1])
	if err != nil {
		logger.L.Warn("mt4 parser: skipping row with unparsable open time", "value", cells[1], "error", err)
		return TradeWrapper{}, false
	}
	closeTime, err := time.Parse(reportTimeLayout, cells[8])
	if err != nil {
		logger.L.Warn("mt4 parser: skipping row with unparsable close time", "value", cells[8], "error", err)
		return TradeWrapper{}, false
	}

	numbers := make([]float64, 0, 5)
	for _, idx := range []int{3, 5, 6, 7, 9} {
		v, err := strconv.ParseFloat(cells[idx], 64)
		if err != nil {
			logger.L.Warn("mt4 parser: skipping row with unparsable number", "cell", idx, "value", cells[idx], "error", err)
			return TradeWrapper{}, false
		}
		numbers = append(numbers, v)
	}

	// The profit cell may carry thousands separators and embedded spaces.
	profitStr := strings.NewReplacer(" ", "", ",", "").Replace(cells[13])
	profit, err := strconv.ParseFloat(strings.TrimSpace(profitStr), 64)
	if err != nil {
		logger.L.Warn("mt4 parser: skipping row with unparsable profit", "value", cells[13], "error", err)
		return TradeWrapper{}, false
	}

	return TradeWrapper{
		TicketNumber: cells[0],
		OpenTime:     openTime,
		CloseTime:    closeTime,
		Type:         cells[2],
		Size:         numbers[0],
		Item:         cells[4],
		OpenPrice:    numbers[1],
		StopLoss:     numbers[2],
		TakeProfit:   numbers[3],
		ClosePrice:   numbers[4],
		Profit:       profit,
	}, true
}
