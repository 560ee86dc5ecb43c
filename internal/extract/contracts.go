package extract

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TextExtractor turns an invoice file into text: the full blob plus the
// positioned fragments line-item extraction needs.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtraction, error)
}

// Fragment is a positioned piece of text. Y grows downward; the vertical
// coordinate is what line clustering groups on.
type Fragment struct {
	Text string
	X    float64
	Y    float64
	Page int
}

type TextExtraction struct {
	FullText  string
	Fragments []Fragment
	Pages     int
	Duration  time.Duration
	Warnings  []string
}

// ExtractionError means the input could not be decoded at all. It is the
// only fatal per-file failure; everything downstream degrades to nulls.
type ExtractionError struct {
	Path  string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Path, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// IsExtractionError reports whether err (or anything it wraps) is a fatal
// extraction failure.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
