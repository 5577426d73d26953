// Package forms holds the state of the login, register and profile forms
// shared by the CLI, terminal and Telegram surfaces. A form owns its field
// values and error maps; surfaces only read state and forward input.
package forms

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"
)

// RedirectLists is where a successful login or registration leads.
const RedirectLists = "/lists"

// Authenticator is implemented by auth.Service.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
}

// ProfileService is implemented by auth.Service.
type ProfileService interface {
	GetUserProfile(ctx context.Context) (*api.UserProfileResponse, error)
	UpdateUserProfile(ctx context.Context, req api.UpdateProfileRequest) error
}

// Errors maps a field name to its first error message.
type Errors map[string]string

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// fieldErrors flattens violations into one message per field. ages.N paths
// are renamed with agePrefix so surfaces can address individual age inputs.
func fieldErrors(verr *validation.Error, agePrefix string) Errors {
	out := make(Errors, len(verr.Violations))
	for _, v := range verr.Violations {
		if len(v.Messages) == 0 {
			continue
		}
		key := v.Field()
		if len(v.Path) == 2 && v.Path[0] == "ages" {
			key = agePrefix + v.Path[1]
		}
		if _, ok := out[key]; !ok {
			out[key] = v.Messages[0]
		}
	}
	return out
}

// apiMessage picks the text shown for a failed request.
func apiMessage(err error, fallback string) string {
	if apiErr, ok := api.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && !errors.Is(err, context.Canceled) && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// parseAges converts the age inputs; blank or malformed entries become 0 so
// the validator reports them as non-positive.
func parseAges(values []string) []int {
	ages := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			ages[i] = n
		}
	}
	return ages
}

// resizeAges keeps existing entries by position, pads with empty slots and
// truncates from the end.
func resizeAges(ages []string, size int) []string {
	out := make([]string, size)
	copy(out, ages)
	return out
}

func addPreference(prefs []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return prefs
	}
	for _, p := range prefs {
		if strings.EqualFold(p, value) {
			return prefs
		}
	}
	return append(append([]string(nil), prefs...), value)
}

func removePreference(prefs []string, value string) []string {
	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if p != value {
			out = append(out, p)
		}
	}
	return out
}
