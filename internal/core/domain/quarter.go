package domain

import (
	"fmt"
	"time"
)

// Quarter is a three calendar month voting window, labelled "{year}-Q{1..4}".
type Quarter struct {
	Year   int
	Number int
}

// QuarterOf returns the quarter containing t, evaluated in t's location.
func QuarterOf(t time.Time) Quarter {
	return Quarter{
		Year:   t.Year(),
		Number: (int(t.Month())-1)/3 + 1,
	}
}

// CurrentQuarter returns the quarter identifier for now.
func CurrentQuarter(now time.Time) string {
	return QuarterOf(now).ID()
}

// QuarterStart is the first moment of the quarter containing now.
func QuarterStart(now time.Time) time.Time {
	return QuarterOf(now).Start(now.Location())
}

// NextQuarterStart is the first moment of the quarter following the one containing now.
func NextQuarterStart(now time.Time) time.Time {
	return QuarterOf(now).Next().Start(now.Location())
}

// ParseQuarter parses identifiers produced by Quarter.ID.
func ParseQuarter(id string) (Quarter, error) {
	var q Quarter
	if _, err := fmt.Sscanf(id, "%d-Q%d", &q.Year, &q.Number); err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter %q: %w", id, err)
	}
	if q.Number < 1 || q.Number > 4 {
		return Quarter{}, fmt.Errorf("invalid quarter %q: number out of range", id)
	}
	if q.ID() != id {
		return Quarter{}, fmt.Errorf("invalid quarter %q", id)
	}
	return q, nil
}

func (q Quarter) ID() string {
	return fmt.Sprintf("%d-Q%d", q.Year, q.Number)
}

func (q Quarter) String() string {
	return q.ID()
}

// Start returns midnight of the quarter's first day in loc.
func (q Quarter) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(q.Year, time.Month((q.Number-1)*3+1), 1, 0, 0, 0, 0, loc)
}

// Next rolls over to the following quarter, moving to Q1 of the next year after Q4.
func (q Quarter) Next() Quarter {
	if q.Number == 4 {
		return Quarter{Year: q.Year + 1, Number: 1}
	}
	return Quarter{Year: q.Year, Number: q.Number + 1}
}

func (q Quarter) Contains(t time.Time) bool {
	return QuarterOf(t) == q
}
