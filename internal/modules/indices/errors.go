package indices

import (
	"errors"
	"fmt"
)

// ErrNoPriceData signals that a category resolved to stocks but none of
// them carried prices in the requested range
var ErrNoPriceData = errors.New("no price data in range")

// NoConstituentsError signals that a category resolved to zero
// contributing stocks. Fatal for that category; a batch run collects it
// and continues with the remaining categories.
type NoConstituentsError struct {
	IndexName string
}

func (e *NoConstituentsError) Error() string {
	return fmt.Sprintf("no constituents resolved for index %s", e.IndexName)
}

// BelowMinimumError signals that a category has fewer constituents than
// the configured minimum
type BelowMinimumError struct {
	IndexName string
	Count     int
	Minimum   int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("index %s has %d constituents, minimum is %d", e.IndexName, e.Count, e.Minimum)
}

// UpstreamError wraps a price store read failure so callers can tell a
// data problem from a computation problem. Retryable.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream price data unavailable: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
