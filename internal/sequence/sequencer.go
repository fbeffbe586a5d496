// Package sequence issues receipt numbers.
package sequence

import (
	"math"
	"sync/atomic"
)

// DefaultLimit is the largest receipt number issued before wrapping to 1
const DefaultLimit = math.MaxInt32

// Sequencer hands out 1, 2, 3, ... up to its limit, then starts again at 1.
type Sequencer struct {
	last  atomic.Int64
	limit int64
}

// New creates a sequencer that wraps after DefaultLimit
func New() *Sequencer {
	return NewWithLimit(DefaultLimit)
}

// NewWithLimit creates a sequencer that wraps after limit. Non-positive limits
// fall back to DefaultLimit.
func NewWithLimit(limit int64) *Sequencer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Sequencer{limit: limit}
}

// Next returns the next receipt number. Once the limit has been issued the
// following call returns 1.
func (s *Sequencer) Next() int64 {
	for {
		current := s.last.Load()
		next := current + 1
		if current >= s.limit {
			next = 1
		}
		if s.last.CompareAndSwap(current, next) {
			return next
		}
	}
}

// Last returns the most recently issued number, or 0 if none
func (s *Sequencer) Last() int64 {
	return s.last.Load()
}
