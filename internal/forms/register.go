package forms

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"
)

const (
	passwordMismatch     = "Passwords do not match"
	registerUnknownError = "An unknown error occurred while registering."
)

// RegisterData is a snapshot of the register form inputs.
type RegisterData struct {
	Email              string
	Password           string
	ConfirmPassword    string
	UserName           string
	HouseholdSize      string
	Ages               []string
	DietaryPreferences []string
}

// RegisterForm keeps one age input per household member at all times.
type RegisterForm struct {
	auth Authenticator

	mu         sync.Mutex
	data       RegisterData
	errors     Errors
	formError  string
	submitted  bool
	loading    bool
	redirectTo string
}

func NewRegisterForm(auth Authenticator) *RegisterForm {
	return &RegisterForm{
		auth: auth,
		data: RegisterData{
			HouseholdSize: "1",
			Ages:          []string{""},
		},
		errors: Errors{},
	}
}

// SetField handles email, password, confirmPassword, userName,
// householdSize and age-N inputs. Unknown names are ignored.
func (f *RegisterForm) SetField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case "email":
		f.data.Email = value
	case "password":
		f.data.Password = value
	case "confirmPassword":
		f.data.ConfirmPassword = value
	case "userName":
		f.data.UserName = value
	case "householdSize":
		f.data.HouseholdSize = value
		f.data.Ages = resizeAges(f.data.Ages, registerAgeSlots(value))
		f.clearAgeErrors()
	default:
		idx, ok := ageIndex(name, "age-")
		if !ok || idx >= len(f.data.Ages) {
			return
		}
		f.data.Ages = append([]string(nil), f.data.Ages...)
		f.data.Ages[idx] = value
		f.clearAgeErrors()
		f.formError = ""
		return
	}
	delete(f.errors, name)
	f.formError = ""
}

// registerAgeSlots is max(1, parsed) with unparseable input counting as 1,
// capped at validation.MaxHouseholdSize.
func registerAgeSlots(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, validation.MaxHouseholdSize)
}

func ageIndex(name, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func (f *RegisterForm) clearAgeErrors() {
	for k := range f.errors {
		if k == "ages" || strings.HasPrefix(k, "age-") {
			delete(f.errors, k)
		}
	}
}

// AddDietaryPreference accepts a catalog id or a custom label.
func (f *RegisterForm) AddDietaryPreference(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.DietaryPreferences = addPreference(f.data.DietaryPreferences, value)
}

func (f *RegisterForm) RemoveDietaryPreference(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.DietaryPreferences = removePreference(f.data.DietaryPreferences, value)
}

func (f *RegisterForm) request() api.RegisterRequest {
	size, _ := strconv.Atoi(strings.TrimSpace(f.data.HouseholdSize))
	return api.RegisterRequest{
		Email:              f.data.Email,
		Password:           f.data.Password,
		UserName:           f.data.UserName,
		HouseholdSize:      &size,
		Ages:               parseAges(f.data.Ages),
		DietaryPreferences: append([]string(nil), f.data.DietaryPreferences...),
	}
}

// Submit validates, registers and on success sets the redirect target.
func (f *RegisterForm) Submit(ctx context.Context) bool {
	f.mu.Lock()
	f.submitted = true
	f.formError = ""
	req := f.request()

	errs := Errors{}
	if err := validation.ValidateRegister(req); err != nil {
		if verr, ok := validation.As(err); ok {
			errs = fieldErrors(verr, "age-")
		}
	}
	if f.data.ConfirmPassword != f.data.Password {
		errs["confirmPassword"] = passwordMismatch
	}
	if len(errs) > 0 {
		for k, v := range errs {
			f.errors[k] = v
		}
		f.mu.Unlock()
		return false
	}
	f.loading = true
	f.mu.Unlock()

	_, err := f.auth.Register(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.formError = apiMessage(err, registerUnknownError)
		return false
	}
	f.redirectTo = RedirectLists
	return true
}

// Data returns a copy of the current inputs.
func (f *RegisterForm) Data() RegisterData {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.data
	d.Ages = append([]string(nil), f.data.Ages...)
	d.DietaryPreferences = append([]string(nil), f.data.DietaryPreferences...)
	return d
}

func (f *RegisterForm) VisibleErrors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.submitted {
		return Errors{}
	}
	return f.errors.clone()
}

func (f *RegisterForm) FormError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.formError
}

func (f *RegisterForm) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *RegisterForm) RedirectTo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redirectTo
}
