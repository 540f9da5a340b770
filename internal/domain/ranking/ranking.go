// Package ranking selects the most-viewed records of a collection.
//
// Ordering: views DESC, then ID ASC. The ID tie-break keeps results
// reproducible across calls on unchanged data.
package ranking

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Collection names a homogeneous set of rankable records.
type Collection string

const (
	Announcements Collection = "announcements"
	Events        Collection = "events"
)

// Collections lists every known collection.
var Collections = []Collection{Announcements, Events}

// ParseCollection validates a collection name.
func ParseCollection(name string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return slices.Contains(Collections, c)
}

func (c Collection) String() string { return string(c) }

// Record is the projection of a ranked entity returned to callers.
type Record struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

// Source reads records of a collection. Implementations may push the
// ordering and limit down to storage; TopN re-applies both.
type Source interface {
	TopByViews(ctx context.Context, c Collection, limit int) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, c Collection, limit int) ([]Record, error)

func (f SourceFunc) TopByViews(ctx context.Context, c Collection, limit int) ([]Record, error) {
	return f(ctx, c, limit)
}

// TopN returns at most limit records of c ordered by views descending.
// A read failure is reported as ErrStorageUnavailable.
func TopN(ctx context.Context, src Source, c Collection, limit int) ([]Record, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	rows, err := src.TopByViews(ctx, c, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: top %s: %w", ErrStorageUnavailable, c, err)
	}
	return Rank(rows, limit), nil
}

// Rank sorts a copy of records by views DESC, ID ASC and truncates it to
// limit. The result is never nil.
func Rank(records []Record, limit int) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	slices.SortFunc(out, Compare)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Compare orders a before b when a ranks higher.
func Compare(a, b Record) int {
	switch {
	case a.Views > b.Views:
		return -1
	case a.Views < b.Views:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
