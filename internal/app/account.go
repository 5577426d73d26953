package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"ai-shopping-list/internal/forms"

	"github.com/dustin/go-humanize"
)

// RegisterInput carries the register command's flags.
type RegisterInput struct {
	Email              string
	Password           string
	ConfirmPassword    string
	UserName           string
	HouseholdSize      string
	Ages               []string
	DietaryPreferences []string
}

// ProfileInput changes only the fields that are set.
type ProfileInput struct {
	UserName           *string
	HouseholdSize      *string
	Ages               []string
	DietaryPreferences []string
	ReplaceDiet        bool
}

// formError folds a form's messages into one error.
func formError(formErr string, fieldErrs forms.Errors) error {
	var lines []string
	if formErr != "" {
		lines = append(lines, formErr)
	}
	for _, field := range slices.Sorted(maps.Keys(fieldErrs)) {
		lines = append(lines, fmt.Sprintf("%s: %s", field, fieldErrs[field]))
	}
	if len(lines) == 0 {
		return errors.New("request failed")
	}
	return errors.New(strings.Join(lines, "\n"))
}

func (a *App) Register(ctx context.Context, in RegisterInput) error {
	form := forms.NewRegisterForm(a.auth)
	form.SetField("email", in.Email)
	form.SetField("password", in.Password)
	form.SetField("confirmPassword", in.ConfirmPassword)
	form.SetField("userName", in.UserName)
	if in.HouseholdSize != "" {
		form.SetField("householdSize", in.HouseholdSize)
	}
	for i, age := range in.Ages {
		form.SetField("age-"+strconv.Itoa(i), age)
	}
	for _, p := range in.DietaryPreferences {
		form.AddDietaryPreference(p)
	}

	if !form.Submit(ctx) {
		return formError(form.FormError(), form.VisibleErrors())
	}
	a.printf("Welcome, %s! You are logged in.\n", in.UserName)
	return nil
}

func (a *App) Login(ctx context.Context, email, password string) error {
	form := forms.NewLoginForm(a.auth)
	form.SetField("email", email)
	form.SetField("password", password)
	if !form.Submit(ctx) {
		return formError(form.FormError(), form.VisibleErrors())
	}
	info, _ := a.auth.UserInfo()
	a.printf("Logged in as %s. Session expires %s.\n", info.UserName, humanize.Time(a.auth.ExpiresAt()))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	a.println("Logged out.")
	return nil
}

func (a *App) WhoAmI() error {
	info, ok := a.auth.UserInfo()
	if !ok {
		a.println("Not logged in.")
		return nil
	}
	a.printf("%s (user %d), session expires %s\n", info.UserName, info.UserID, humanize.Time(a.auth.ExpiresAt()))
	return nil
}

func (a *App) ShowProfile(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	form := forms.NewProfileForm(a.auth)
	if err := form.Load(ctx); err != nil {
		return a.apiError(ctx, err)
	}
	a.printProfile(form)
	return nil
}

func (a *App) UpdateProfile(ctx context.Context, in ProfileInput) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	form := forms.NewProfileForm(a.auth)
	if err := form.Load(ctx); err != nil {
		return a.apiError(ctx, err)
	}

	if in.UserName != nil {
		form.SetField("userName", *in.UserName)
	}
	if in.HouseholdSize != nil {
		form.SetField("householdSize", *in.HouseholdSize)
	}
	for i, age := range in.Ages {
		form.SetField("age_"+strconv.Itoa(i), age)
	}
	if in.ReplaceDiet {
		for _, p := range form.Data().DietaryPreferences {
			form.RemoveDietaryPreference(p)
		}
	}
	for _, p := range in.DietaryPreferences {
		form.AddDietaryPreference(p)
	}

	if !form.Submit(ctx) {
		if n := form.Notice(); n != nil {
			return fmt.Errorf("%s: %s", n.Title, n.Description)
		}
		return formError("", form.Errors())
	}
	a.println(forms.ProfileUpdated + ".")
	a.printProfile(form)
	return nil
}

func (a *App) printProfile(form *forms.ProfileForm) {
	d := form.Data()
	a.printf("Name:       %s\n", d.UserName)
	a.printf("Email:      %s\n", form.Email())
	if d.HouseholdSize == "" {
		a.printf("Household:  not set\n")
	} else {
		a.printf("Household:  %s", d.HouseholdSize)
		if len(d.Ages) > 0 {
			a.printf(" (ages %s)", strings.Join(d.Ages, ", "))
		}
		a.println()
	}
	labels := make([]string, 0, len(d.DietaryPreferences))
	for _, p := range d.DietaryPreferences {
		labels = append(labels, forms.DietaryLabel(p))
	}
	if len(labels) == 0 {
		labels = append(labels, "none")
	}
	a.printf("Diet:       %s\n", strings.Join(labels, ", "))
	a.printf("Lists:      %s\n", humanize.Comma(int64(form.ListsCount())))
}
