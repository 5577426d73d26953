package listedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRef(t *testing.T) {
	persisted := Persisted(42)
	id, ok := persisted.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "42", persisted.String())

	pending := NewPending()
	assert.True(t, pending.IsPending())
	assert.False(t, pending.IsPersisted())
	_, ok = pending.ID()
	assert.False(t, ok)
	assert.False(t, pending.IsZero())
	assert.True(t, ProductRef{}.IsZero())
}

func TestParseRef(t *testing.T) {
	pending := NewPending()

	for _, ref := range []ProductRef{Persisted(3), pending} {
		got, err := ParseRef(ref.String())
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	}

	for _, bad := range []string{"", "0", "-4", "12abc", "new:"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}
