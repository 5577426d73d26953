// Package shopping wraps the shopping-list endpoints with client-side
// validation and input normalization.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"

	"go.uber.org/zap"
)

// ErrMissingListID is returned when an operation is asked to act on no list.
var ErrMissingListID = errors.New("List ID is not provided.")

// Client is the subset of the API client the service needs.
type Client interface {
	GetShoppingLists(ctx context.Context, q api.ListQuery) (*api.ShoppingListsResponse, error)
	GetShoppingListByID(ctx context.Context, id int64) (*api.ShoppingListDetailResponse, error)
	CreateShoppingList(ctx context.Context, req api.CreateShoppingListRequest) (*api.ShoppingListDetailResponse, error)
	UpdateShoppingList(ctx context.Context, id int64, req api.UpdateShoppingListRequest) (bool, error)
	DeleteShoppingList(ctx context.Context, id int64) (bool, error)
	GenerateShoppingList(ctx context.Context, req api.GenerateShoppingListRequest) (*api.ShoppingListDetailResponse, error)
}

type Service struct {
	client Client
	logger *zap.Logger
}

func NewService(client Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

func (s *Service) List(ctx context.Context, q api.ListQuery) (*api.ShoppingListsResponse, error) {
	q, err := validation.NormalizeListQuery(q)
	if err != nil {
		return nil, err
	}
	return s.client.GetShoppingLists(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (*api.ShoppingListDetailResponse, error) {
	if id <= 0 {
		return nil, ErrMissingListID
	}
	return s.client.GetShoppingListByID(ctx, id)
}

// Create trims optional text fields, drops empty ones and normalizes the
// planned date to an ISO timestamp before sending.
func (s *Service) Create(ctx context.Context, req api.CreateShoppingListRequest) (*api.ShoppingListDetailResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.StoreName = strings.TrimSpace(req.StoreName)
	for i := range req.Products {
		req.Products[i].Name = strings.TrimSpace(req.Products[i].Name)
	}
	date, err := normalizeDateField(req.PlannedShoppingDate)
	if err != nil {
		return nil, err
	}
	req.PlannedShoppingDate = date

	if err := validation.ValidateCreateList(req); err != nil {
		return nil, err
	}
	list, err := s.client.CreateShoppingList(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("shopping list created", zap.Int64("list_id", list.ID), zap.Int("products", len(list.Products)))
	return list, nil
}

// Update sends a full replacement of the list.
func (s *Service) Update(ctx context.Context, id int64, req api.UpdateShoppingListRequest) error {
	if id <= 0 {
		return ErrMissingListID
	}
	if err := validation.ValidateUpdateList(req); err != nil {
		return err
	}
	ok, err := s.client.UpdateShoppingList(ctx, id, req)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("update of list %d was rejected", id)
	}
	s.logger.Info("shopping list updated", zap.Int64("list_id", id), zap.Int("products", len(req.Products)))
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingListID
	}
	ok, err := s.client.DeleteShoppingList(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("delete of list %d was rejected", id)
	}
	s.logger.Info("shopping list deleted", zap.Int64("list_id", id))
	return nil
}

// Generate asks the server to build a list from the user's profile.
func (s *Service) Generate(ctx context.Context, req api.GenerateShoppingListRequest) (*api.ShoppingListDetailResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.StoreName = strings.TrimSpace(req.StoreName)
	date, err := normalizeDateField(req.PlannedShoppingDate)
	if err != nil {
		return nil, err
	}
	req.PlannedShoppingDate = date

	if err := validation.ValidateGenerateList(req); err != nil {
		return nil, err
	}
	start := time.Now()
	list, err := s.client.GenerateShoppingList(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("shopping list generated",
		zap.Int64("list_id", list.ID),
		zap.Int("products", len(list.Products)),
		zap.Duration("latency", time.Since(start)),
	)
	return list, nil
}

func normalizeDateField(value string) (string, error) {
	date, err := FormatPlannedDate(value)
	if err != nil {
		return "", &validation.Error{Violations: []validation.Violation{{
			Path:     []string{"plannedShoppingDate"},
			Messages: []string{"Invalid date"},
		}}}
	}
	return date, nil
}
