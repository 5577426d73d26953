package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProfile(ctx context.Context) (*UserProfileResponse, error) {
	var resp UserProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (bool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", req, &raw); err != nil {
		return false, err
	}
	return boolResult(raw), nil
}

// GetShoppingLists fetches one page of list summaries. Zero values in q fall
// back to page 1, 10 per page, newest first.
func (c *Client) GetShoppingLists(ctx context.Context, q ListQuery) (*ShoppingListsResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.Sort == "" {
		q.Sort = SortNewest
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("sort", q.Sort)

	var resp ShoppingListsResponse
	if err := c.do(ctx, http.MethodGet, "/api/shoppinglists?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetShoppingListByID(ctx context.Context, id int64) (*ShoppingListDetailResponse, error) {
	var resp ShoppingListDetailResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/shoppinglists/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateShoppingList(ctx context.Context, req CreateShoppingListRequest) (*ShoppingListDetailResponse, error) {
	var resp ShoppingListDetailResponse
	if err := c.do(ctx, http.MethodPost, "/api/shoppinglists", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateShoppingList replaces the list identified by id with req.
func (c *Client) UpdateShoppingList(ctx context.Context, id int64, req UpdateShoppingListRequest) (bool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/shoppinglists/%d", id), req, &raw); err != nil {
		return false, err
	}
	return boolResult(raw), nil
}

func (c *Client) DeleteShoppingList(ctx context.Context, id int64) (bool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/shoppinglists/%d", id), nil, &raw); err != nil {
		return false, err
	}
	return boolResult(raw), nil
}

func (c *Client) GenerateShoppingList(ctx context.Context, req GenerateShoppingListRequest) (*ShoppingListDetailResponse, error) {
	var resp ShoppingListDetailResponse
	if err := c.do(ctx, http.MethodPost, "/api/shoppinglists/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
