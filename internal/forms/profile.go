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
	ProfileUpdated      = "Profile updated"
	ProfileUpdateFailed = "Profile update failed"
	profileUnknownError = "An unexpected error occurred while updating the profile."
	profileFetchError   = "An unexpected error occurred while fetching the profile."
)

// Notice is a toast-level message for out-of-band results.
type Notice struct {
	Title       string
	Description string
	Error       bool
}

// ProfileData is a snapshot of the editable profile inputs.
type ProfileData struct {
	UserName           string
	HouseholdSize      string
	Ages               []string
	DietaryPreferences []string
}

// ProfileForm edits the signed-in user's profile. Unlike login and register,
// errors are visible as soon as Submit runs.
type ProfileForm struct {
	svc ProfileService

	mu         sync.Mutex
	profile    *api.UserProfileResponse
	data       ProfileData
	errors     Errors
	notice     *Notice
	fetchError string
	loading    bool
}

func NewProfileForm(svc ProfileService) *ProfileForm {
	return &ProfileForm{svc: svc, errors: Errors{}}
}

// Load fetches the profile and resets the inputs from it.
func (f *ProfileForm) Load(ctx context.Context) error {
	f.mu.Lock()
	f.loading = true
	f.fetchError = ""
	f.mu.Unlock()

	profile, err := f.svc.GetUserProfile(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.fetchError = apiMessage(err, profileFetchError)
		return err
	}
	f.setProfile(profile)
	return nil
}

func (f *ProfileForm) setProfile(p *api.UserProfileResponse) {
	f.profile = p
	f.data = ProfileData{
		UserName:           p.UserName,
		DietaryPreferences: append([]string(nil), p.DietaryPreferences...),
	}
	if p.HouseholdSize != nil {
		f.data.HouseholdSize = strconv.Itoa(*p.HouseholdSize)
	}
	f.data.Ages = make([]string, len(p.Ages))
	for i, a := range p.Ages {
		f.data.Ages[i] = strconv.Itoa(a)
	}
	f.errors = Errors{}
}

// SetField handles userName, householdSize and age_N inputs.
func (f *ProfileForm) SetField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case "userName":
		f.data.UserName = value
	case "householdSize":
		f.data.HouseholdSize = value
		f.data.Ages = resizeAges(f.data.Ages, profileAgeSlots(value))
	default:
		idx, ok := ageIndex(name, "age_")
		if !ok || idx >= len(f.data.Ages) {
			return
		}
		f.data.Ages = append([]string(nil), f.data.Ages...)
		f.data.Ages[idx] = value
	}
}

// profileAgeSlots is the parsed size, or 0 when blank or invalid, capped at
// validation.MaxHouseholdSize.
func profileAgeSlots(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, validation.MaxHouseholdSize)
}

func (f *ProfileForm) AddDietaryPreference(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.DietaryPreferences = addPreference(f.data.DietaryPreferences, value)
}

func (f *ProfileForm) RemoveDietaryPreference(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.DietaryPreferences = removePreference(f.data.DietaryPreferences, value)
}

// request sends household size and ages only when a size is entered.
func (f *ProfileForm) request() api.UpdateProfileRequest {
	req := api.UpdateProfileRequest{
		UserName:           f.data.UserName,
		DietaryPreferences: append([]string{}, f.data.DietaryPreferences...),
	}
	if strings.TrimSpace(f.data.HouseholdSize) != "" {
		size, _ := strconv.Atoi(strings.TrimSpace(f.data.HouseholdSize))
		req.HouseholdSize = &size
		req.Ages = parseAges(f.data.Ages)
	}
	return req
}

// Submit validates, updates and re-fetches the profile. It returns true
// when the update was accepted.
func (f *ProfileForm) Submit(ctx context.Context) bool {
	f.mu.Lock()
	f.notice = nil
	req := f.request()
	if err := validation.ValidateProfile(req); err != nil {
		if verr, ok := validation.As(err); ok {
			f.errors = fieldErrors(verr, "age_")
		}
		f.mu.Unlock()
		return false
	}
	f.errors = Errors{}
	f.loading = true
	f.mu.Unlock()

	err := f.svc.UpdateUserProfile(ctx, req)
	if err != nil {
		f.mu.Lock()
		f.loading = false
		f.notice = &Notice{Title: ProfileUpdateFailed, Description: noticeDescription(err), Error: true}
		f.mu.Unlock()
		return false
	}

	profile, ferr := f.svc.GetUserProfile(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	f.notice = &Notice{Title: ProfileUpdated}
	if ferr != nil {
		f.fetchError = apiMessage(ferr, profileFetchError)
		return true
	}
	f.setProfile(profile)
	return true
}

// noticeDescription prefers the first field reason of the error payload.
func noticeDescription(err error) string {
	if apiErr, ok := api.AsAPIError(err); ok {
		if reason := apiErr.FirstReason(); reason != "" {
			return reason
		}
	}
	return apiMessage(err, profileUnknownError)
}

func (f *ProfileForm) Data() ProfileData {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.data
	d.Ages = append([]string(nil), f.data.Ages...)
	d.DietaryPreferences = append([]string(nil), f.data.DietaryPreferences...)
	return d
}

// Email is read-only and comes from the last fetched profile.
func (f *ProfileForm) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		return ""
	}
	return f.profile.Email
}

func (f *ProfileForm) ListsCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		return 0
	}
	return f.profile.ListsCount
}

func (f *ProfileForm) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.clone()
}

// Notice returns the last toast, if any.
func (f *ProfileForm) Notice() *Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notice == nil {
		return nil
	}
	n := *f.notice
	return &n
}

func (f *ProfileForm) FetchError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchError
}

func (f *ProfileForm) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}
