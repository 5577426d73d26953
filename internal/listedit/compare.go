package listedit

import (
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02",
}

// StringsEqual treats absent and empty as the same value.
func StringsEqual(a, b string) bool {
	return a == b
}

// DatesEqual compares two ISO dates by calendar day in UTC, ignoring time
// of day. Values that do not parse fall back to string equality.
func DatesEqual(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	ta, errA := parseDate(a)
	tb, errB := parseDate(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.UTC().Format(time.DateOnly) == tb.UTC().Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ProductsEqual compares product rows. Persisted rows must match one to one
// by id, name and quantity; status is ignored. Pending rows are compared by
// count only.
func ProductsEqual(snapshot, working []Product) bool {
	if len(snapshot) != len(working) {
		return false
	}

	persistedA, pendingA := partition(snapshot)
	persistedB, pendingB := partition(working)
	if len(persistedA) != len(persistedB) || pendingA != pendingB {
		return false
	}

	for id, a := range persistedA {
		b, ok := persistedB[id]
		if !ok || a.Name != b.Name || a.Quantity != b.Quantity {
			return false
		}
	}
	return true
}

func partition(products []Product) (map[int64]Product, int) {
	persisted := make(map[int64]Product, len(products))
	pending := 0
	for _, p := range products {
		if id, ok := p.Ref.ID(); ok {
			persisted[id] = p
		} else {
			pending++
		}
	}
	return persisted, pending
}

// HasUnsavedChanges reports whether working differs from snapshot in any
// user-editable field.
func HasUnsavedChanges(snapshot, working List) bool {
	return !StringsEqual(snapshot.Title, working.Title) ||
		!StringsEqual(snapshot.StoreName, working.StoreName) ||
		!DatesEqual(snapshot.PlannedDate, working.PlannedDate) ||
		!ProductsEqual(snapshot.Products, working.Products)
}

// Changes summarizes the difference between snapshot and working.
type Changes struct {
	TitleChanged bool
	StoreChanged bool
	DateChanged  bool
	Added        int
	Removed      int
	Modified     int
}

func (c Changes) Any() bool {
	return c.TitleChanged || c.StoreChanged || c.DateChanged || c.Added+c.Removed+c.Modified > 0
}

func Diff(snapshot, working List) Changes {
	c := Changes{
		TitleChanged: !StringsEqual(snapshot.Title, working.Title),
		StoreChanged: !StringsEqual(snapshot.StoreName, working.StoreName),
		DateChanged:  !DatesEqual(snapshot.PlannedDate, working.PlannedDate),
	}
	before, _ := partition(snapshot.Products)
	after, pending := partition(working.Products)
	c.Added = pending
	for id, a := range before {
		b, ok := after[id]
		switch {
		case !ok:
			c.Removed++
		case a.Name != b.Name || a.Quantity != b.Quantity:
			c.Modified++
		}
	}
	return c
}
