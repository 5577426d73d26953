// Package suggest asks a language model for products to add to a list,
// honoring the household and dietary preferences of the profile.
package suggest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/llm"
	"ai-shopping-list/internal/validation"

	"go.uber.org/zap"
)

//go:embed suggest_prompt.md
var suggestPrompt string

const (
	DefaultLimit = 8
	MaxLimit     = 25
)

var promptTemplate = template.Must(template.New("Suggest").Funcs(template.FuncMap{
	"join": func(ages []int) string {
		parts := make([]string, len(ages))
		for i, a := range ages {
			parts[i] = strconv.Itoa(a)
		}
		return strings.Join(parts, ", ")
	},
	"joinStrings": func(s []string) string { return strings.Join(s, ", ") },
}).Parse(suggestPrompt))

// Request describes what to suggest for.
type Request struct {
	Title              string
	StoreName          string
	Hint               string
	Existing           []string
	HouseholdSize      int
	Ages               []int
	DietaryPreferences []string
	Limit              int
}

// Suggestion is one proposed product.
type Suggestion struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason,omitempty"`
}

type Result struct {
	Products []Suggestion
	Usage    llm.TokenUsage
	Latency  time.Duration
}

// Recorder receives one call per model request.
type Recorder interface {
	RecordLLM(ctx context.Context, name string, usage llm.TokenUsage, latency time.Duration, err error)
}

type Suggester struct {
	textGen  llm.TextGenerator
	logger   *zap.Logger
	recorder Recorder
}

func New(textGen llm.TextGenerator, logger *zap.Logger, recorder Recorder) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{textGen: textGen, logger: logger, recorder: recorder}
}

// RequestFor builds a request from a list and an optional profile.
func RequestFor(l listedit.List, profile *api.UserProfileResponse, hint string) Request {
	req := Request{
		Title:     l.Title,
		StoreName: l.StoreName,
		Hint:      strings.TrimSpace(hint),
		Existing:  make([]string, 0, len(l.Products)),
	}
	for _, p := range l.Products {
		req.Existing = append(req.Existing, p.Name)
	}
	if profile != nil {
		if profile.HouseholdSize != nil {
			req.HouseholdSize = *profile.HouseholdSize
		}
		req.Ages = profile.Ages
		req.DietaryPreferences = profile.DietaryPreferences
	}
	return req
}

func (s *Suggester) Suggest(ctx context.Context, req Request) (Result, error) {
	switch {
	case req.Limit <= 0:
		req.Limit = DefaultLimit
	case req.Limit > MaxLimit:
		req.Limit = MaxLimit
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	resp, err := s.textGen.GenerateContent(ctx, prompt)
	latency := time.Since(start)
	if s.recorder != nil {
		s.recorder.RecordLLM(ctx, "suggest", resp.Usage, latency, err)
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	products, err := parseSuggestions(resp.Content)
	if err != nil {
		return Result{Usage: resp.Usage, Latency: latency}, err
	}

	products = filter(products, req.Existing, req.Limit)
	s.logger.Info("suggestions generated",
		zap.Int("count", len(products)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", latency),
	)
	return Result{Products: products, Usage: resp.Usage, Latency: latency}, nil
}

func buildPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// parseSuggestions accepts {"products": [...]} or a bare array, optionally
// wrapped in a markdown code fence.
func parseSuggestions(content string) ([]Suggestion, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var wrapped struct {
		Products []Suggestion `json:"products"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		return wrapped.Products, nil
	}
	var bare []Suggestion
	if err := json.Unmarshal([]byte(content), &bare); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions %w: %s", err, content)
	}
	return bare, nil
}

// filter drops invalid entries and anything already on the list, ignoring
// case, and caps the result at limit.
func filter(in []Suggestion, existing []string, limit int) []Suggestion {
	seen := make(map[string]bool, len(existing)+len(in))
	for _, name := range existing {
		seen[strings.ToLower(strings.TrimSpace(name))] = true
	}
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		if s.Quantity <= 0 {
			s.Quantity = 1
		}
		if validation.ValidateProduct(api.ProductRequest{Name: s.Name, Quantity: s.Quantity}) != nil {
			continue
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
