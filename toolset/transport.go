// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package toolset

import (
	"context"
	"net/http"
	"slices"
	"sync"
)

type (
	// roundTripper adds the transport headers to each request and reports
	// error statuses to the recorder carried by the request context.
	roundTripper struct {
		base   http.RoundTripper
		header http.Header
	}

	// statusRecorder keeps the last error status seen during one attempt.
	// The MCP client may issue several requests per call, some of them on
	// other goroutines.
	statusRecorder struct {
		mu   sync.Mutex
		code int
	}

	recorderKey struct{}
)

// NewHTTPClient returns a client that sends the parameters' headers with
// every request. When base is nil, a clone of http.DefaultTransport is used
// with the parameters' response header timeout.
func NewHTTPClient(
	params TransportParams,
	base http.RoundTripper,
) *http.Client {
	if base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = params.Timeout()
		base = t
	}
	return &http.Client{Transport: &roundTripper{
		base:   base,
		header: params.Header(),
	}}
}

func (t *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.header {
		req.Header[k] = slices.Clone(v)
	}

	res, err := t.base.RoundTrip(req)
	if res != nil {
		if rec, ok := req.Context().Value(recorderKey{}).(*statusRecorder); ok {
			rec.observe(res.StatusCode)
		}
	}
	return res, err
}

func withStatusRecorder(
	ctx context.Context,
) (context.Context, *statusRecorder) {
	rec := &statusRecorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

func (r *statusRecorder) observe(code int) {
	if code < http.StatusBadRequest {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

// StatusCode returns the last error status, or zero if there was none.
func (r *statusRecorder) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}
