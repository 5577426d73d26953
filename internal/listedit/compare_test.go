package listedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"BothEmpty", "", "", true},
		{"OneEmpty", "", "2025-05-16", false},
		{"SameDayDifferentTime", "2025-05-16T00:00:00.000Z", "2025-05-16T10:00:00.000Z", true},
		{"DateOnlyVsTimestamp", "2025-05-16", "2025-05-16T23:59:59Z", true},
		{"DifferentDays", "2025-05-16", "2025-05-17", false},
		{"NoZone", "2025-05-16T08:00:00", "2025-05-16T00:00:00.000Z", true},
		{"Unparseable", "soon", "soon", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatesEqual(tt.a, tt.b))
		})
	}
}

func TestHasUnsavedChanges(t *testing.T) {
	snapshot := FromResponse(sampleResponse())

	t.Run("IdenticalCopy", func(t *testing.T) {
		assert.False(t, HasUnsavedChanges(snapshot, snapshot.Clone()))
	})

	t.Run("Rename", func(t *testing.T) {
		w, _ := snapshot.RenameProduct(Persisted(5), "Oat milk")
		assert.True(t, HasUnsavedChanges(snapshot, w))
	})

	t.Run("Quantity", func(t *testing.T) {
		w, _ := snapshot.RequantifyProduct(Persisted(6), 3)
		assert.True(t, HasUnsavedChanges(snapshot, w))
	})

	t.Run("StatusIgnored", func(t *testing.T) {
		w := snapshot.Clone()
		w.Products[0].Status = 3
		assert.False(t, HasUnsavedChanges(snapshot, w))
	})

	t.Run("ReorderIgnored", func(t *testing.T) {
		w := snapshot.Clone()
		w.Products[0], w.Products[1] = w.Products[1], w.Products[0]
		assert.False(t, HasUnsavedChanges(snapshot, w))
	})

	t.Run("DateTimeOfDay", func(t *testing.T) {
		w := snapshot.WithPlannedDate("2025-05-16T10:00:00.000Z")
		assert.False(t, HasUnsavedChanges(snapshot, w))
	})

	t.Run("DateChanged", func(t *testing.T) {
		w := snapshot.WithPlannedDate("2025-05-17T00:00:00.000Z")
		assert.True(t, HasUnsavedChanges(snapshot, w))
	})

	t.Run("RenameThenRevert", func(t *testing.T) {
		w, _ := snapshot.RenameProduct(Persisted(5), "Oat milk")
		w, _ = w.RenameProduct(Persisted(5), "Milk")
		assert.False(t, HasUnsavedChanges(snapshot, w))
	})
}

func TestDiff(t *testing.T) {
	snapshot := FromResponse(sampleResponse())
	w, _ := snapshot.DeleteProduct(Persisted(5))
	w, _ = w.RequantifyProduct(Persisted(6), 4)
	w, _, _ = w.AddProduct("Eggs", 6, fixedNow())
	w = w.WithTitle("Sunday")

	c := Diff(snapshot, w)
	assert.Equal(t, Changes{TitleChanged: true, Added: 1, Removed: 1, Modified: 1}, c)
	assert.True(t, c.Any())
	assert.False(t, Diff(snapshot, snapshot).Any())
}
