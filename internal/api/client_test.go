package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHeaders(t *testing.T) {
	t.Run("GetWithoutTokenHasNoContentType", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			assert.Empty(t, r.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":1,"email":"a@b.c","userName":"ann","createdAt":"2025-01-01T00:00:00Z","listsCount":2}`)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		profile, err := client.GetProfile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ann", profile.UserName)
		assert.Equal(t, 2, profile.ListsCount)
	})

	t.Run("PostWithToken", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "/api/shoppinglists", r.URL.Path)

			var req CreateShoppingListRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Weekly", req.Title)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":7,"title":"Weekly","createdAt":"x","updatedAt":"x","source":"manual","products":[]}`)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		client.SetToken("tok")
		list, err := client.CreateShoppingList(context.Background(), CreateShoppingListRequest{Title: "Weekly"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), list.ID)
	})

	t.Run("ClearTokenDropsHeader", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		client.SetToken("tok")
		client.ClearToken()
		ok, err := client.DeleteShoppingList(context.Background(), 3)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestGetShoppingListsQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":1,"productsCount":3,"createdAt":"x","source":"generated"}],"pagination":{"page":1,"pageSize":10,"totalItems":1,"totalPages":1}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.GetShoppingLists(context.Background(), ListQuery{})
	require.NoError(t, err)

	assert.Equal(t, "page=1&pageSize=10&sort=newest", gotQuery)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 3, resp.Data[0].ProductsCount)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

func TestUpdateShoppingListPayload(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/shoppinglists/9", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `true`)
	}))
	defer server.Close()

	id := int64(5)
	title := "Groceries"
	client := NewClient(server.URL)
	ok, err := client.UpdateShoppingList(context.Background(), 9, UpdateShoppingListRequest{
		Title: &title,
		Products: []UpdateProductRequest{
			{ID: &id, Name: "Milk", Quantity: 2},
			{Name: "Bread", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	products := body["products"].([]any)
	first := products[0].(map[string]any)
	second := products[1].(map[string]any)
	assert.Equal(t, float64(5), first["id"])
	_, hasID := second["id"]
	assert.False(t, hasID, "pending product must not carry an id")
	_, hasDate := body["plannedShoppingDate"]
	assert.False(t, hasDate)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMessage string
		wantKind    Kind
	}{
		{
			name:        "DetailWins",
			status:      http.StatusBadRequest,
			contentType: "application/problem+json",
			body:        `{"message":"m","detail":"d"}`,
			wantMessage: "d",
			wantKind:    KindAPI,
		},
		{
			name:        "MessageFallback",
			status:      http.StatusUnauthorized,
			contentType: "application/json",
			body:        `{"message":"Token expired"}`,
			wantMessage: "Token expired",
			wantKind:    KindAuthentication,
		},
		{
			name:        "StatusFallback",
			status:      http.StatusNotFound,
			contentType: "application/json",
			body:        `{}`,
			wantMessage: "HTTP Error: 404 Not Found",
			wantKind:    KindNotFound,
		},
		{
			name:        "InvalidJSON",
			status:      http.StatusInternalServerError,
			contentType: "application/json",
			body:        `{oops`,
			wantMessage: "Request failed with status 500 and the response was not valid JSON.",
			wantKind:    KindAPI,
		},
		{
			name:        "HTMLPage",
			status:      http.StatusBadGateway,
			contentType: "text/html; charset=utf-8",
			body:        "<html><head><title>502</title><style>p{}</style></head><body>\n<h1>Bad   Gateway</h1>\n<p>nginx</p>\n</body></html>",
			wantMessage: "Bad Gateway nginx",
			wantKind:    KindAPI,
		},
		{
			name:        "PlainText",
			status:      http.StatusConflict,
			contentType: "text/plain",
			body:        "already exists\n",
			wantMessage: "already exists",
			wantKind:    KindAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL).GetShoppingListByID(context.Background(), 1)
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantKind, apiErr.Kind())
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).GetProfile(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, KindNetwork, apiErr.Kind())
}

func TestClientContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).GetProfile(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestErrorSentinels(t *testing.T) {
	wrapped := fmt.Errorf("failed to load list: %w", &APIError{Status: http.StatusUnauthorized})
	assert.True(t, IsUnauthorized(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsUnauthorized(errors.New("plain")))
}
