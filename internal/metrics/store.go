// Package metrics records API and model calls to SQLite and summarizes
// them for the metrics command and the bot's admin report.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"ai-shopping-list/internal/llm"

	"go.uber.org/zap"
)

const (
	KindAPI = "api"
	KindLLM = "llm"
)

// RequestMetric records metadata for a single outbound call.
type RequestMetric struct {
	Kind             string
	Name             string
	Status           int
	Latency          time.Duration
	PromptTokens     int
	CompletionTokens int
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m RequestMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_metrics (kind, name, status, latency_ms, prompt_tokens, completion_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Kind, m.Name, m.Status, m.Latency.Milliseconds(), m.PromptTokens, m.CompletionTokens, ts.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// RecordAPI stores one HTTP call. Status 0 means no response.
func (s *Store) RecordAPI(ctx context.Context, name string, status int, latency time.Duration) {
	m := RequestMetric{Kind: KindAPI, Name: name, Status: status, Latency: latency}
	if err := s.Record(ctx, m); err != nil {
		s.logger.Warn("failed to record api metric", zap.String("name", name), zap.Error(err))
	}
}

// RecordLLM stores one model call with its token usage.
func (s *Store) RecordLLM(ctx context.Context, name string, usage llm.TokenUsage, latency time.Duration, callErr error) {
	status := http.StatusOK
	if callErr != nil {
		status = http.StatusInternalServerError
	}
	m := RequestMetric{
		Kind:             KindLLM,
		Name:             name,
		Status:           status,
		Latency:          latency,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}
	if err := s.Record(ctx, m); err != nil {
		s.logger.Warn("failed to record llm metric", zap.String("name", name), zap.Error(err))
	}
}

// DailyUsage represents totals for a single UTC day.
type DailyUsage struct {
	Date            string
	APIRequests     int
	Errors          int
	LLMCalls        int
	TotalPrompt     int
	TotalCompletion int
	AvgLatencyMS    float64
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := s.now().AddDate(0, 0, -days).UTC().Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', created_at, 'unixepoch') AS day,
		       SUM(CASE WHEN kind = 'api' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = 0 OR status >= 400 THEN 1 ELSE 0 END),
		       SUM(CASE WHEN kind = 'llm' THEN 1 ELSE 0 END),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(AVG(latency_ms), 0)
		FROM request_metrics
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.APIRequests, &u.Errors, &u.LLMCalls, &u.TotalPrompt, &u.TotalCompletion, &u.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.now().AddDate(0, 0, -olderThanDays).UTC().Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM request_metrics WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}
