package main

import (
	"testing"

	"ai-shopping-list/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	got, err := parseItems([]string{"Milk=2", " Bread ", "Eggs = 12"})
	require.NoError(t, err)
	assert.Equal(t, []api.ProductRequest{
		{Name: "Milk", Quantity: 2},
		{Name: "Bread", Quantity: 1},
		{Name: "Eggs", Quantity: 12},
	}, got)

	_, err = parseItems([]string{"Milk=two"})
	assert.ErrorContains(t, err, `invalid quantity in "Milk=two"`)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, in := range []string{"0", "-1", "abc"} {
		_, err := parseID(in)
		assert.Error(t, err, in)
	}
}
