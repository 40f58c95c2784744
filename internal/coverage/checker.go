// Package coverage verifies the market data cache can support a signal
// set before the simulation starts. Gaps found here are fatal: running
// on partial data produces silently wrong results.
package coverage

import (
	"fmt"
	"strings"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/pkg/logger"
)

// maxListed caps how many offenders an error message names
const maxListed = 10

// Error reports every coverage gap found in one pass
type Error struct {
	MissingCodes []string
	MissingSpan  bool
	SpanDetail   string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.MissingCodes) > 0 {
		listed := e.MissingCodes
		suffix := ""
		if len(listed) > maxListed {
			suffix = fmt.Sprintf(" (and %d more)", len(listed)-maxListed)
			listed = listed[:maxListed]
		}
		parts = append(parts, fmt.Sprintf("%d signal codes missing from price data: %s%s",
			len(e.MissingCodes), strings.Join(listed, ", "), suffix))
	}
	if e.MissingSpan {
		parts = append(parts, e.SpanDetail)
	}
	return "coverage check failed: " + strings.Join(parts, "; ")
}

// Checker validates data coverage for a signal set
type Checker struct {
	logger *logger.Logger
}

// NewChecker creates a coverage checker
func NewChecker(log *logger.Logger) *Checker {
	return &Checker{logger: log}
}

// PriceInventory answers whether any price history exists for a code
type PriceInventory interface {
	HasCode(code string) bool
}

// Check verifies every signal code has price history and the trading
// calendar spans the signal period (plus the next-day execution shift)
func (c *Checker) Check(signals *contracts.SignalSet, prices PriceInventory, cal *marketdata.Calendar) error {
	covErr := &Error{}

	for _, code := range signals.Codes() {
		if !prices.HasCode(code) {
			covErr.MissingCodes = append(covErr.MissingCodes, code)
		}
	}

	first, last := signals.DateRange()
	if cal.Len() == 0 || cal.At(0).After(first) {
		covErr.MissingSpan = true
		covErr.SpanDetail = fmt.Sprintf("calendar starts after first signal date %s", first.Format("2006-01-02"))
	} else if _, ok := cal.NextAfter(last); !ok {
		// 마지막 신호의 익일 실행일까지 달력이 있어야 함
		covErr.MissingSpan = true
		covErr.SpanDetail = fmt.Sprintf("calendar has no trading day after last signal date %s", last.Format("2006-01-02"))
	}

	if len(covErr.MissingCodes) > 0 || covErr.MissingSpan {
		c.logger.WithFields(map[string]interface{}{
			"missing_codes": len(covErr.MissingCodes),
			"missing_span":  covErr.MissingSpan,
		}).Error("Coverage check failed")
		return covErr
	}

	c.logger.WithFields(map[string]interface{}{
		"codes": len(signals.Codes()),
		"from":  first.Format("2006-01-02"),
		"to":    last.Format("2006-01-02"),
	}).Info("Coverage check passed")
	return nil
}
