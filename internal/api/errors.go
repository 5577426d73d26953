package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrUnauthorized matches any *APIError with status 401 under errors.Is.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any *APIError with status 404 under errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrNetwork matches transport failures where no response was received.
	ErrNetwork = errors.New("network error")
)

// Kind classifies an APIError.
type Kind int

const (
	KindNetwork Kind = iota
	KindAuthentication
	KindNotFound
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	default:
		return "api"
	}
}

const maxErrorTextLen = 300

// ErrorPayload is the body the server sends with a non-2xx response.
// Errors is either an object of field -> messages or an array of
// {field, reason} entries depending on the endpoint.
type ErrorPayload struct {
	Message string          `json:"message,omitempty"`
	Detail  string          `json:"detail,omitempty"`
	Title   string          `json:"title,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
}

// APIError is returned for every failed call. Status 0 means the request
// never produced a response.
type APIError struct {
	Status     int
	StatusText string
	Message    string
	Payload    ErrorPayload
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrNetwork:
		return e.Status == 0
	}
	return false
}

func (e *APIError) Kind() Kind {
	switch e.Status {
	case 0:
		return KindNetwork
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindAPI
	}
}

type fieldReason struct {
	Field        string `json:"field"`
	Name         string `json:"name"`
	PropertyName string `json:"propertyName"`
	Reason       string `json:"reason"`
	Message      string `json:"message"`
	ErrorMessage string `json:"errorMessage"`
}

func (f fieldReason) key() string {
	for _, k := range []string{f.Field, f.Name, f.PropertyName} {
		if k != "" {
			return k
		}
	}
	return ""
}

func (f fieldReason) text() string {
	for _, t := range []string{f.Reason, f.Message, f.ErrorMessage} {
		if t != "" {
			return t
		}
	}
	return ""
}

// FieldErrors flattens the payload's errors into field -> messages. Entries
// without a field name are collected under "".
func (e *APIError) FieldErrors() map[string][]string {
	raw := bytes.TrimSpace(e.Payload.Errors)
	if len(raw) == 0 {
		return nil
	}

	var byField map[string][]string
	if err := json.Unmarshal(raw, &byField); err == nil {
		return byField
	}

	var list []fieldReason
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make(map[string][]string)
	for _, item := range list {
		if t := item.text(); t != "" {
			out[item.key()] = append(out[item.key()], t)
		}
	}
	return out
}

// FirstReason returns the first server-supplied validation reason, or "".
func (e *APIError) FirstReason() string {
	raw := bytes.TrimSpace(e.Payload.Errors)
	if len(raw) == 0 {
		return ""
	}

	var list []fieldReason
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			return list[0].text()
		}
		return ""
	}

	fields := e.FieldErrors()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 {
			return fields[k][0]
		}
	}
	return ""
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsNetwork(err error) bool      { return errors.Is(err, ErrNetwork) }

func newNetworkError(err error) *APIError {
	return &APIError{
		Status:  0,
		Message: "Network error: unable to reach the server.",
		Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
	}
}

// newResponseError builds an APIError from a non-2xx response body.
func newResponseError(status int, contentType string, body []byte) *APIError {
	apiErr := &APIError{
		Status:     status,
		StatusText: http.StatusText(status),
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	trimmed := bytes.TrimSpace(body)

	switch {
	case len(trimmed) == 0:
		// no payload
	case mediaType == "text/html" || bytes.HasPrefix(trimmed, []byte("<")):
		apiErr.Payload = htmlPayload(trimmed)
	case mediaType == "text/plain":
		apiErr.Payload.Message = truncate(string(trimmed))
	default:
		if err := json.Unmarshal(trimmed, &apiErr.Payload); err != nil {
			apiErr.Payload = ErrorPayload{
				Message: fmt.Sprintf("Request failed with status %d and the response was not valid JSON.", status),
			}
		}
	}

	switch {
	case apiErr.Payload.Detail != "":
		apiErr.Message = apiErr.Payload.Detail
	case apiErr.Payload.Message != "":
		apiErr.Message = apiErr.Payload.Message
	default:
		apiErr.Message = strings.TrimSpace(fmt.Sprintf("HTTP Error: %d %s", status, apiErr.StatusText))
	}
	return apiErr
}

// htmlPayload reduces an HTML error page (proxy or server default page) to
// its visible text.
func htmlPayload(body []byte) ErrorPayload {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ErrorPayload{}
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, head").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	return ErrorPayload{Title: title, Message: truncate(text)}
}

// truncate cuts s to maxErrorTextLen runes.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxErrorTextLen {
		return s
	}
	return string(r[:maxErrorTextLen]) + "..."
}
