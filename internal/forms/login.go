package forms

import (
	"context"
	"sync"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"
)

const (
	LoginInvalidCredentials = "Invalid email or password."
	loginUnknownError       = "An unknown error occurred while logging in."
)

// LoginForm is the state of the sign-in form.
type LoginForm struct {
	auth Authenticator

	mu         sync.Mutex
	email      string
	password   string
	errors     Errors
	formError  string
	submitted  bool
	loading    bool
	redirectTo string
}

func NewLoginForm(auth Authenticator) *LoginForm {
	return &LoginForm{auth: auth, errors: Errors{}}
}

// SetField updates "email" or "password" and clears its error together with
// the form-level error.
func (f *LoginForm) SetField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "email":
		f.email = value
	case "password":
		f.password = value
	default:
		return
	}
	delete(f.errors, name)
	f.formError = ""
}

// Submit validates and, when valid, logs in. It returns true on success.
func (f *LoginForm) Submit(ctx context.Context) bool {
	f.mu.Lock()
	f.submitted = true
	f.formError = ""
	req := api.LoginRequest{Email: f.email, Password: f.password}
	if err := validation.ValidateLogin(req); err != nil {
		if verr, ok := validation.As(err); ok {
			for k, v := range fieldErrors(verr, "age_") {
				f.errors[k] = v
			}
		}
		f.mu.Unlock()
		return false
	}
	f.loading = true
	f.mu.Unlock()

	_, err := f.auth.Login(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.formError = loginErrorMessage(err)
		return false
	}
	f.redirectTo = RedirectLists
	return true
}

func loginErrorMessage(err error) string {
	if api.IsUnauthorized(err) {
		return LoginInvalidCredentials
	}
	return apiMessage(err, loginUnknownError)
}

// VisibleErrors returns field errors once a submit has been attempted.
func (f *LoginForm) VisibleErrors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.submitted {
		return Errors{}
	}
	return f.errors.clone()
}

func (f *LoginForm) FormError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.formError
}

func (f *LoginForm) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *LoginForm) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

func (f *LoginForm) RedirectTo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redirectTo
}

func (f *LoginForm) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}
