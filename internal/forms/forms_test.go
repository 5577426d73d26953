package forms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAuth struct {
	loginCalls    int
	registerCalls int
	lastLogin     api.LoginRequest
	lastRegister  api.RegisterRequest
	err           error
}

func (m *MockAuth) Login(_ context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	m.loginCalls++
	m.lastLogin = req
	if m.err != nil {
		return nil, m.err
	}
	return &api.AuthResponse{UserID: 1, AccessToken: "t"}, nil
}

func (m *MockAuth) Register(_ context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	m.registerCalls++
	m.lastRegister = req
	if m.err != nil {
		return nil, m.err
	}
	return &api.AuthResponse{UserID: 1, AccessToken: "t"}, nil
}

type MockProfiles struct {
	profile    api.UserProfileResponse
	getCalls   int
	lastUpdate *api.UpdateProfileRequest
	getErr     error
	updateErr  error
}

func (m *MockProfiles) GetUserProfile(_ context.Context) (*api.UserProfileResponse, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	p := m.profile
	return &p, nil
}

func (m *MockProfiles) UpdateUserProfile(_ context.Context, req api.UpdateProfileRequest) error {
	m.lastUpdate = &req
	if m.updateErr != nil {
		return m.updateErr
	}
	m.profile.UserName = req.UserName
	m.profile.HouseholdSize = req.HouseholdSize
	m.profile.Ages = req.Ages
	m.profile.DietaryPreferences = req.DietaryPreferences
	return nil
}

func intPtr(n int) *int { return &n }

func TestLoginForm(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptySubmitStaysLocal", func(t *testing.T) {
		auth := &MockAuth{}
		f := NewLoginForm(auth)
		assert.Empty(t, f.VisibleErrors())

		assert.False(t, f.Submit(ctx))
		assert.Equal(t, 0, auth.loginCalls)
		assert.Equal(t, Errors{
			"email":    "Email is required",
			"password": "Password is required",
		}, f.VisibleErrors())
	})

	t.Run("SetFieldClearsErrors", func(t *testing.T) {
		f := NewLoginForm(&MockAuth{err: &api.APIError{Status: http.StatusUnauthorized}})
		f.Submit(ctx)
		f.SetField("email", "a@b.co")
		errs := f.VisibleErrors()
		assert.False(t, errs.Has("email"))
		assert.True(t, errs.Has("password"))

		f.SetField("password", "secret")
		assert.False(t, f.Submit(ctx))
		assert.Equal(t, LoginInvalidCredentials, f.FormError())

		f.SetField("password", "secret2")
		assert.Empty(t, f.FormError())
	})

	t.Run("APIMessage", func(t *testing.T) {
		f := NewLoginForm(&MockAuth{err: &api.APIError{Status: 500, Message: "Server exploded"}})
		f.SetField("email", "a@b.co")
		f.SetField("password", "x")
		assert.False(t, f.Submit(ctx))
		assert.Equal(t, "Server exploded", f.FormError())
		assert.False(t, f.Loading())
	})

	t.Run("Success", func(t *testing.T) {
		auth := &MockAuth{}
		f := NewLoginForm(auth)
		f.SetField("email", "a@b.co")
		f.SetField("password", "x")
		require.True(t, f.Submit(ctx))
		assert.Equal(t, "/lists", f.RedirectTo())
		assert.Equal(t, api.LoginRequest{Email: "a@b.co", Password: "x"}, auth.lastLogin)
	})
}

func TestRegisterHouseholdResize(t *testing.T) {
	f := NewRegisterForm(&MockAuth{})
	assert.Equal(t, []string{""}, f.Data().Ages)

	f.SetField("householdSize", "2")
	f.SetField("age-0", "30")
	f.SetField("age-1", "25")

	f.SetField("householdSize", "4")
	assert.Equal(t, []string{"30", "25", "", ""}, f.Data().Ages)

	f.SetField("householdSize", "2")
	f.SetField("householdSize", "1")
	assert.Equal(t, []string{"30"}, f.Data().Ages)

	f.SetField("householdSize", "abc")
	assert.Equal(t, []string{"30"}, f.Data().Ages)

	f.SetField("householdSize", "0")
	assert.Len(t, f.Data().Ages, 1)

	f.SetField("age-7", "40")
	assert.Equal(t, []string{"30"}, f.Data().Ages)

	for _, size := range []string{"2000000000", "9999999999999999"} {
		f.SetField("householdSize", size)
		assert.Len(t, f.Data().Ages, validation.MaxHouseholdSize, size)
	}
}

func fillRegister(f *RegisterForm) {
	f.SetField("email", "ann@example.com")
	f.SetField("password", "Secret1!")
	f.SetField("confirmPassword", "Secret1!")
	f.SetField("userName", "Ann")
	f.SetField("householdSize", "2")
	f.SetField("age-0", "34")
	f.SetField("age-1", "5")
}

func TestRegisterSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		auth := &MockAuth{}
		f := NewRegisterForm(auth)
		fillRegister(f)
		f.AddDietaryPreference("vegan")
		f.AddDietaryPreference("no mushrooms")
		f.AddDietaryPreference("vegan")
		f.RemoveDietaryPreference("no mushrooms")

		require.True(t, f.Submit(ctx))
		assert.Equal(t, RedirectLists, f.RedirectTo())
		want := api.RegisterRequest{
			Email:              "ann@example.com",
			Password:           "Secret1!",
			UserName:           "Ann",
			HouseholdSize:      intPtr(2),
			Ages:               []int{34, 5},
			DietaryPreferences: []string{"vegan"},
		}
		if diff := cmp.Diff(want, auth.lastRegister); diff != "" {
			t.Errorf("register request mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		auth := &MockAuth{}
		f := NewRegisterForm(auth)
		fillRegister(f)
		f.SetField("confirmPassword", "other")
		f.SetField("age-1", "")
		f.SetField("password", "short")

		assert.False(t, f.Submit(ctx))
		assert.Equal(t, 0, auth.registerCalls)
		errs := f.VisibleErrors()
		assert.Equal(t, "Passwords do not match", errs["confirmPassword"])
		assert.Equal(t, "Age must be positive", errs["age-1"])
		assert.Equal(t, "Password must be at least 6 characters", errs["password"])

		f.SetField("age-1", "6")
		assert.False(t, f.VisibleErrors().Has("age-1"))
	})

	t.Run("APIError", func(t *testing.T) {
		f := NewRegisterForm(&MockAuth{err: &api.APIError{Status: 409, Message: "Email already taken"}})
		fillRegister(f)
		assert.False(t, f.Submit(ctx))
		assert.Equal(t, "Email already taken", f.FormError())
		assert.Empty(t, f.RedirectTo())
	})

	t.Run("UnknownError", func(t *testing.T) {
		f := NewRegisterForm(&MockAuth{err: errors.New("")})
		fillRegister(f)
		assert.False(t, f.Submit(ctx))
		assert.Equal(t, registerUnknownError, f.FormError())
	})
}

func TestProfileForm(t *testing.T) {
	ctx := context.Background()

	newLoaded := func(t *testing.T) (*ProfileForm, *MockProfiles) {
		t.Helper()
		svc := &MockProfiles{profile: api.UserProfileResponse{
			ID:                 1,
			Email:              "ann@example.com",
			UserName:           "Ann",
			HouseholdSize:      intPtr(2),
			Ages:               []int{34, 5},
			DietaryPreferences: []string{"vegan"},
			ListsCount:         3,
		}}
		f := NewProfileForm(svc)
		require.NoError(t, f.Load(ctx))
		return f, svc
	}

	t.Run("Load", func(t *testing.T) {
		f, _ := newLoaded(t)
		assert.Equal(t, ProfileData{
			UserName:           "Ann",
			HouseholdSize:      "2",
			Ages:               []string{"34", "5"},
			DietaryPreferences: []string{"vegan"},
		}, f.Data())
		assert.Equal(t, "ann@example.com", f.Email())
		assert.Equal(t, 3, f.ListsCount())
	})

	t.Run("ResizeAllowsZero", func(t *testing.T) {
		f, _ := newLoaded(t)
		f.SetField("householdSize", "")
		assert.Empty(t, f.Data().Ages)
		f.SetField("householdSize", "3")
		assert.Equal(t, []string{"", "", ""}, f.Data().Ages)
	})

	t.Run("HugeHouseholdIsCapped", func(t *testing.T) {
		f, svc := newLoaded(t)
		f.SetField("householdSize", "9999999999999999")
		ages := f.Data().Ages
		require.Len(t, ages, validation.MaxHouseholdSize)
		assert.Equal(t, []string{"34", "5"}, ages[:2])

		assert.False(t, f.Submit(ctx))
		assert.Nil(t, svc.lastUpdate)
		assert.Equal(t, "Household size must be at most 20", f.Errors()["householdSize"])
	})

	t.Run("ValidationKeys", func(t *testing.T) {
		f, svc := newLoaded(t)
		f.SetField("userName", " ")
		f.SetField("age_1", "-2")
		assert.False(t, f.Submit(ctx))
		assert.Nil(t, svc.lastUpdate)
		assert.Equal(t, Errors{
			"userName": "Username is required",
			"age_1":    "Age must be positive",
		}, f.Errors())
	})

	t.Run("UpdateRefetches", func(t *testing.T) {
		f, svc := newLoaded(t)
		f.SetField("userName", "Anna")
		f.AddDietaryPreference("halal")
		require.True(t, f.Submit(ctx))
		assert.Equal(t, 2, svc.getCalls)
		assert.Equal(t, "Anna", f.Data().UserName)
		assert.Equal(t, &Notice{Title: ProfileUpdated}, f.Notice())
	})

	t.Run("NoHouseholdSize", func(t *testing.T) {
		f, svc := newLoaded(t)
		f.SetField("householdSize", "")
		require.True(t, f.Submit(ctx))
		require.NotNil(t, svc.lastUpdate)
		assert.Nil(t, svc.lastUpdate.HouseholdSize)
		assert.Nil(t, svc.lastUpdate.Ages)
	})

	t.Run("ToastPrefersFirstReason", func(t *testing.T) {
		f, svc := newLoaded(t)
		svc.updateErr = &api.APIError{
			Status:  400,
			Message: "Validation failed",
			Payload: api.ErrorPayload{Errors: json.RawMessage(`[{"field":"ages","reason":"Ages are out of range"}]`)},
		}
		assert.False(t, f.Submit(ctx))
		assert.Equal(t, &Notice{Title: ProfileUpdateFailed, Description: "Ages are out of range", Error: true}, f.Notice())
	})
}

func TestDietaryCatalog(t *testing.T) {
	assert.Len(t, DietaryCatalog(), 20)
	assert.Equal(t, []DietaryPreference{{ID: "low-fat", Label: "Low-fat"}, {ID: "low-carb", Label: "Low-carb"}, {ID: "fodmap", Label: "Low FODMAP"}},
		SuggestDietary("LOW"))
	assert.Empty(t, SuggestDietary("zzz"))
	assert.Equal(t, "Raw food", DietaryLabel("raw"))
	assert.Equal(t, "no mushrooms", DietaryLabel("no mushrooms"))
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, HouseholdSizeOptions())
}
