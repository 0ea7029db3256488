// Package adapters implements the thin, per-vendor translators the
// orchestrator dispatches to through an integration.Envelope: one each
// for the ticket tracker, wiki, chat, code host, document store and web
// search backends. Per the specification, vendor field mapping is
// intentionally thin — the hard part lives in integration.Envelope and
// the orchestrator, not here.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fedquery/gateway/internal/tlsutil"
	"github.com/fedquery/gateway/types"
)

// httpBase is the shared HTTP plumbing every adapter embeds: building an
// authenticated request against the service's BaseURL, decoding a JSON
// response, and mapping transport/status failures into the envelope's
// error taxonomy. Grounded on the teacher's openaicompat provider, which
// does the same authenticated-request-plus-status-mapping dance against
// an OpenAI-compatible endpoint.
type httpBase struct {
	source  types.Source
	cfg     types.ServiceConfig
	client  *http.Client
}

func newHTTPBase(source types.Source, cfg types.ServiceConfig) httpBase {
	return httpBase{source: source, cfg: cfg, client: tlsutil.SecureHTTPClient(cfg.Timeout)}
}

func (b httpBase) Source() types.Source { return b.source }

func (b httpBase) Initialize(ctx context.Context) error {
	if b.cfg.BaseURL == "" {
		return types.NewError(types.ErrRequiresSetup, fmt.Sprintf("%s: base_url not configured", b.source)).WithSource(b.source)
	}
	return nil
}

func (b httpBase) Close() error { return nil }

// get issues an authenticated GET against path with the given query
// params, decoding the JSON response body into out.
func (b httpBase) get(ctx context.Context, path string, params map[string]string, out any) error {
	u := b.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.NewError(types.ErrTransport, "failed to build request").WithSource(b.source).WithCause(err)
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	return b.do(req, out)
}

// post issues an authenticated POST with a JSON-encoded body.
func (b httpBase) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return types.NewError(types.ErrInvalidInput, "failed to encode request body").WithSource(b.source).WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return types.NewError(types.ErrTransport, "failed to build request").WithSource(b.source).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}
	return b.do(req, out)
}

func (b httpBase) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return types.NewError(types.ErrTransport, "request failed").WithSource(b.source).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NewError(types.ErrTransport, "failed to read response body").WithSource(b.source).WithCause(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		err := types.NewError(types.ErrRateLimited, "upstream rate limited the request").WithSource(b.source)
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			err = err.WithRetryAfter(d)
		}
		return err
	}
	if resp.StatusCode >= 500 {
		return types.NewError(types.ErrUpstream5xx, "upstream server error: "+strconv.Itoa(resp.StatusCode)).WithSource(b.source)
	}
	if resp.StatusCode >= 400 {
		return types.NewError(types.ErrUpstream4xx, "upstream rejected request: "+strconv.Itoa(resp.StatusCode)).WithSource(b.source)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return types.NewError(types.ErrMalformed, "failed to decode upstream response").WithSource(b.source).WithCause(err)
	}
	return nil
}

// parseRetryAfter interprets an RFC 9110 Retry-After header, which is
// either a delay in seconds or an HTTP-date.
func parseRetryAfter(header string) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if when, err := http.ParseTime(header); err == nil {
		d := time.Until(when)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// limit clamps a SearchQuery's limit to a sane positive default.
func limit(q types.SearchQuery) int {
	if q.Limit <= 0 {
		return 10
	}
	return q.Limit
}
