// Package host is the small HTTP client the platform integrations share.
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/tidwall/gjson"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"
)

// Host talks to one platform API base URL.
type Host struct {
	Platform string
	BaseURL  string
	Client   *http.Client
}

func NewHost(platform, baseURL string, timeout time.Duration) *Host {
	return &Host{
		Platform: platform,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

// Response is a fully read platform reply.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Get extracts a field with a gjson path.
func (r *Response) Get(path string) gjson.Result { return gjson.GetBytes(r.Body, path) }

// URL joins a path onto the base URL. Absolute URLs are returned unchanged.
func (h *Host) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.BaseURL + "/" + strings.TrimLeft(path, "/")
}

// Encode turns a struct with `url` tags into a query string.
func Encode(params any) (string, error) {
	if params == nil {
		return "", nil
	}
	v, err := query.Values(params)
	if err != nil {
		return "", err
	}
	return v.Encode(), nil
}

// PostForm sends params as application/x-www-form-urlencoded.
func (h *Host) PostForm(ctx context.Context, op, path string, params any) (*Response, error) {
	form, err := Encode(params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: encode form: %w", h.Platform, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL(path), strings.NewReader(form))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")
	return h.Do(op, req)
}

// GetQuery issues a GET with params encoded into the query string.
func (h *Host) GetQuery(ctx context.Context, op, path string, params any) (*Response, error) {
	qs, err := Encode(params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: encode query: %w", h.Platform, op, err)
	}
	u := h.URL(path)
	if qs != "" {
		u += "?" + qs
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return h.Do(op, req)
}

// PostJSON sends body as JSON with a bearer token.
func (h *Host) PostJSON(ctx context.Context, op, path, bearer string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: encode body: %w", h.Platform, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL(path), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return h.Do(op, req)
}

// Do executes req and classifies the outcome. Transport failures become
// network errors (timeout when the deadline hit), non-2xx replies become
// rejected errors carrying a short message.
func (h *Host) Do(op string, req *http.Request) (*Response, error) {
	return h.DoWith(h.Client, op, req)
}

func (h *Host) DoWith(client *http.Client, op string, req *http.Request) (*Response, error) {
	lg := logger.GetLogger().WithField("platform", h.Platform).WithField("op", op)
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, model.NewTimeoutError(h.Platform, op, err.Error())
		}
		return nil, model.NewNetworkError(h.Platform, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewNetworkError(h.Platform, op, err)
	}
	out := &Response{StatusCode: resp.StatusCode, Body: body}
	if !out.OK() {
		lg.WithField("status", resp.StatusCode).WithField("body", logger.Preview(body)).Warn("platform request rejected")
		return out, model.NewRejectedError(h.Platform, op, resp.StatusCode, ErrorMessage(body))
	}
	lg.WithField("status", resp.StatusCode).Debug("platform request ok")
	return out, nil
}

// ErrorMessage picks a short human readable reason out of an error body.
func ErrorMessage(body []byte) string {
	for _, path := range []string{"error.message", "error_description", "error_message", "error.code", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
			return truncate(r.String(), 200)
		}
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
