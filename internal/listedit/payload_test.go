package listedit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateRequest(t *testing.T) {
	snapshot := FromResponse(sampleResponse())

	w, err := snapshot.DeleteProduct(Persisted(6))
	require.NoError(t, err)
	w, _, err = w.AddProduct("Eggs", 6, fixedNow())
	require.NoError(t, err)

	req := BuildUpdateRequest(w)
	data, err := json.Marshal(req)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"title": "Weekend",
		"storeName": "Corner shop",
		"plannedShoppingDate": "2025-05-16T00:00:00.000Z",
		"products": [
			{"id": 5, "name": "Milk", "quantity": 2},
			{"name": "Eggs", "quantity": 6}
		]
	}`, string(data))
}

func TestBuildUpdateRequestEmptyList(t *testing.T) {
	l := List{ID: 1}

	data, err := json.Marshal(BuildUpdateRequest(l))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "", "storeName": "", "products": []}`, string(data))
}
