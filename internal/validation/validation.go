// Package validation checks request payloads before they leave the client.
// Every validator returns nil or a *Error listing all violations found.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"ai-shopping-list/internal/api"
)

const (
	MaxTitleLength       = 100
	MaxProductNameLength = 100
	MinPasswordLength    = 6
	MaxHouseholdSize     = 20
	MaxPageSize          = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Violation is one failed rule, addressed by a field path such as
// ["products", "2", "name"].
type Violation struct {
	Path     []string
	Messages []string
}

func (v Violation) Field() string {
	return strings.Join(v.Path, ".")
}

// Error aggregates the violations of a single payload.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field(), strings.Join(v.Messages, ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the messages recorded for a dotted field path.
func (e *Error) Field(name string) []string {
	for _, v := range e.Violations {
		if v.Field() == name {
			return v.Messages
		}
	}
	return nil
}

// FieldErrors returns the first message per dotted field path.
func (e *Error) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if len(v.Messages) > 0 {
			out[v.Field()] = v.Messages[0]
		}
	}
	return out
}

// As extracts a *Error from err.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

type collector struct {
	violations []Violation
}

func (c *collector) add(msg string, path ...string) {
	key := strings.Join(path, ".")
	for i := range c.violations {
		if c.violations[i].Field() == key {
			c.violations[i].Messages = append(c.violations[i].Messages, msg)
			return
		}
	}
	c.violations = append(c.violations, Violation{Path: path, Messages: []string{msg}})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &Error{Violations: c.violations}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (c *collector) email(email string) {
	if isBlank(email) {
		c.add("Email is required", "email")
		return
	}
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		c.add("Invalid email address", "email")
	}
}

func (c *collector) password(pw string) {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		c.add(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password")
	}
	var upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case !(r >= 'a' && r <= 'z'):
			special = true
		}
	}
	if !upper {
		c.add("Password must contain at least one uppercase letter", "password")
	}
	if !digit {
		c.add("Password must contain at least one number", "password")
	}
	if !special {
		c.add("Password must contain at least one special character", "password")
	}
}

func (c *collector) household(size *int, ages []int) {
	if size != nil && *size < 1 {
		c.add("Household size must be at least 1", "householdSize")
	}
	if size != nil && *size > MaxHouseholdSize {
		c.add(fmt.Sprintf("Household size must be at most %d", MaxHouseholdSize), "householdSize")
		return
	}
	for i, age := range ages {
		if age <= 0 {
			c.add("Age must be positive", "ages", strconv.Itoa(i))
		}
	}
	if size != nil && *size != 0 && ages != nil && len(ages) != *size {
		c.add("The number of ages must match the household size", "ages")
	}
}

func (c *collector) title(title string) {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		c.add(fmt.Sprintf("Title must be %d characters or less", MaxTitleLength), "title")
	}
}

func (c *collector) product(name string, quantity int, path ...string) {
	switch {
	case isBlank(name):
		c.add("Product name is required", append(path, "name")...)
	case utf8.RuneCountInString(name) > MaxProductNameLength:
		c.add(fmt.Sprintf("Product name must be %d characters or less", MaxProductNameLength), append(path, "name")...)
	}
	if quantity <= 0 {
		c.add("Quantity must be greater than 0", append(path, "quantity")...)
	}
}

func ValidateLogin(req api.LoginRequest) error {
	var c collector
	c.email(req.Email)
	if req.Password == "" {
		c.add("Password is required", "password")
	}
	return c.err()
}

func ValidateRegister(req api.RegisterRequest) error {
	var c collector
	c.email(req.Email)
	c.password(req.Password)
	if isBlank(req.UserName) {
		c.add("Username is required", "userName")
	}
	c.household(req.HouseholdSize, req.Ages)
	return c.err()
}

func ValidateProfile(req api.UpdateProfileRequest) error {
	var c collector
	if isBlank(req.UserName) {
		c.add("Username is required", "userName")
	}
	c.household(req.HouseholdSize, req.Ages)
	for i, p := range req.DietaryPreferences {
		if isBlank(p) {
			c.add("Dietary preference must not be empty", "dietaryPreferences", strconv.Itoa(i))
		}
	}
	return c.err()
}

// ValidateProduct checks a single new product (name, quantity).
func ValidateProduct(req api.ProductRequest) error {
	var c collector
	c.product(req.Name, req.Quantity)
	return c.err()
}

func ValidateUpdateProduct(req api.UpdateProductRequest) error {
	var c collector
	if req.ID != nil && *req.ID <= 0 {
		c.add("Product id must be positive", "id")
	}
	c.product(req.Name, req.Quantity)
	return c.err()
}

func ValidateCreateList(req api.CreateShoppingListRequest) error {
	var c collector
	c.title(req.Title)
	for i, p := range req.Products {
		c.product(p.Name, p.Quantity, "products", strconv.Itoa(i))
	}
	return c.err()
}

func ValidateUpdateList(req api.UpdateShoppingListRequest) error {
	var c collector
	if req.Title != nil {
		c.title(*req.Title)
	}
	for i, p := range req.Products {
		idx := strconv.Itoa(i)
		if p.ID != nil && *p.ID <= 0 {
			c.add("Product id must be positive", "products", idx, "id")
		}
		c.product(p.Name, p.Quantity, "products", idx)
	}
	return c.err()
}

func ValidateGenerateList(req api.GenerateShoppingListRequest) error {
	var c collector
	c.title(req.Title)
	return c.err()
}

// NormalizeListQuery applies defaults to zero values (page 1, 10 per page,
// newest first) and rejects values that cannot be sent.
func NormalizeListQuery(q api.ListQuery) (api.ListQuery, error) {
	var c collector
	switch {
	case q.Page == 0:
		q.Page = 1
	case q.Page < 1:
		c.add("Page must be at least 1", "page")
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = 10
	case q.PageSize < 1:
		c.add("Page size must be at least 1", "pageSize")
	case q.PageSize > MaxPageSize:
		c.add(fmt.Sprintf("Page size must be at most %d", MaxPageSize), "pageSize")
	}
	switch strings.ToLower(strings.TrimSpace(q.Sort)) {
	case "":
		q.Sort = api.SortNewest
	case api.SortNewest, api.SortOldest, api.SortName:
		q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	default:
		c.add("Sort must be one of newest, oldest, name", "sort")
	}
	return q, c.err()
}
