package metrics

import (
	"context"
	"net/http"
	"regexp"
	"time"
)

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// APIRecorder is implemented by Store.
type APIRecorder interface {
	RecordAPI(ctx context.Context, name string, status int, latency time.Duration)
}

// Transport records every round trip through Base.
type Transport struct {
	Base     http.RoundTripper
	Recorder APIRecorder
}

func NewTransport(base http.RoundTripper, rec APIRecorder) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Recorder: rec}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	t.Recorder.RecordAPI(req.Context(), RouteName(req.Method, req.URL.Path), status, time.Since(start))
	return resp, err
}

// RouteName collapses numeric path segments so /api/shoppinglists/42 and
// /api/shoppinglists/7 are counted together.
func RouteName(method, path string) string {
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return method + " " + path
}
