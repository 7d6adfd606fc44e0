package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is the single failure shape for any non-2xx backend answer.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return e.Body
}

// Record is one backend record. On list responses the id is the mapping key and is
// copied in by the client; on single-record responses it comes from the body.
type Record[F any] struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdat"`
	UpdatedAt string `json:"updatedat"`
	Fields    F      `json:"fields"`
}

// Client dispatches verbs against the record REST surface. Authentication rides on
// whatever session the supplied http.Client carries (usually a cookie jar).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = Host
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Do sends one request. A nil body sends no payload; out may be nil to discard the
// response body.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Collection binds the client to one application (record collection) with field set F.
type Collection[F any] struct {
	c     *Client
	appID string
}

func NewCollection[F any](c *Client, appID string) *Collection[F] {
	return &Collection[F]{c: c, appID: appID}
}

func (col *Collection[F]) AppID() string { return col.appID }

func (col *Collection[F]) path(id string) string {
	if id == "" {
		return "/apps/" + col.appID + "/records"
	}
	return "/apps/" + col.appID + "/records/" + id
}

type fieldsBody[F any] struct {
	Fields F `json:"fields"`
}

// List fetches all records. The backend keys records by id; the result carries the id
// on each record. Order is not significant.
func (col *Collection[F]) List(ctx context.Context) ([]Record[F], error) {
	var raw map[string]Record[F]
	if err := col.c.Do(ctx, http.MethodGet, col.path(""), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]Record[F], 0, len(raw))
	for id, rec := range raw {
		rec.ID = id
		out = append(out, rec)
	}
	return out, nil
}

func (col *Collection[F]) Get(ctx context.Context, id string) (Record[F], error) {
	var rec Record[F]
	if err := col.c.Do(ctx, http.MethodGet, col.path(id), nil, &rec); err != nil {
		return Record[F]{}, err
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// Create posts a new record. Zero fields are omitted by the field set's json tags.
func (col *Collection[F]) Create(ctx context.Context, fields F) (Record[F], error) {
	var rec Record[F]
	err := col.c.Do(ctx, http.MethodPost, col.path(""), fieldsBody[F]{Fields: fields}, &rec)
	return rec, err
}

// Update patches only the fields present in the encoded field set.
func (col *Collection[F]) Update(ctx context.Context, id string, fields F) (Record[F], error) {
	var rec Record[F]
	err := col.c.Do(ctx, http.MethodPatch, col.path(id), fieldsBody[F]{Fields: fields}, &rec)
	if err == nil && rec.ID == "" {
		rec.ID = id
	}
	return rec, err
}

// Delete treats any 2xx answer as success, including an already-deleted record.
func (col *Collection[F]) Delete(ctx context.Context, id string) error {
	return col.c.Do(ctx, http.MethodDelete, col.path(id), nil, nil)
}
