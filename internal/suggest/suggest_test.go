package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTextGenerator struct {
	content    string
	err        error
	lastPrompt string
}

func (m *MockTextGenerator) GenerateContent(_ context.Context, prompt string) (llm.ContentResponse, error) {
	m.lastPrompt = prompt
	return llm.ContentResponse{
		Content: m.content,
		Usage:   llm.TokenUsage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14, Model: "mock"},
	}, m.err
}

type MockRecorder struct {
	calls []string
	errs  []error
}

func (m *MockRecorder) RecordLLM(_ context.Context, name string, _ llm.TokenUsage, _ time.Duration, err error) {
	m.calls = append(m.calls, name)
	m.errs = append(m.errs, err)
}

func TestSuggest(t *testing.T) {
	size := 3
	list := listedit.FromResponse(&api.ShoppingListDetailResponse{
		ID:    1,
		Title: "Week",
		Products: []api.ProductInListResponse{
			{ID: 1, Name: "Milk", Quantity: 1},
		},
	})
	profile := &api.UserProfileResponse{
		HouseholdSize:      &size,
		Ages:               []int{40, 38, 6},
		DietaryPreferences: []string{"vegetarian"},
	}

	gen := &MockTextGenerator{content: "```json\n" + `{"products": [
		{"name": "milk", "quantity": 2},
		{"name": "  Tofu ", "quantity": 0, "reason": "protein"},
		{"name": "", "quantity": 1},
		{"name": "Tofu", "quantity": 1},
		{"name": "Apples", "quantity": 6}
	]}` + "\n```"}
	rec := &MockRecorder{}
	s := New(gen, nil, rec)

	res, err := s.Suggest(context.Background(), RequestFor(list, profile, "breakfast"))
	require.NoError(t, err)

	assert.Equal(t, []Suggestion{
		{Name: "Tofu", Quantity: 1, Reason: "protein"},
		{Name: "Apples", Quantity: 6},
	}, res.Products)
	assert.Equal(t, 10, res.Usage.PromptTokens)
	assert.Equal(t, []string{"suggest"}, rec.calls)

	for _, want := range []string{"List title: Week", "Household: 3 people, ages 40, 38, 6", "vegetarian", "- Milk", "The user asked for: breakfast", "at most 8 products"} {
		assert.True(t, strings.Contains(gen.lastPrompt, want), "prompt should contain %q:\n%s", want, gen.lastPrompt)
	}
}

func TestSuggestLimitAndBareArray(t *testing.T) {
	gen := &MockTextGenerator{content: `[{"name": "A", "quantity": 1}, {"name": "B", "quantity": 1}, {"name": "C", "quantity": 1}]`}
	s := New(gen, nil, nil)

	res, err := s.Suggest(context.Background(), Request{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)
	assert.Contains(t, gen.lastPrompt, "(untitled)")
	assert.Contains(t, gen.lastPrompt, "- (none)")
}

func TestSuggestErrors(t *testing.T) {
	t.Run("Backend", func(t *testing.T) {
		rec := &MockRecorder{}
		boom := errors.New("quota exceeded")
		s := New(&MockTextGenerator{err: boom}, nil, rec)
		_, err := s.Suggest(context.Background(), Request{})
		assert.ErrorIs(t, err, boom)
		require.Len(t, rec.errs, 1)
		assert.Equal(t, boom, rec.errs[0])
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		s := New(&MockTextGenerator{content: "sure, here you go"}, nil, nil)
		_, err := s.Suggest(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse suggestions")
	})
}
