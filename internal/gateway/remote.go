package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// envelope is the shape of every remote response.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	token  string
}

type remoteClient struct {
	baseURL    string
	httpClient *http.Client
}

func newRemoteClient(baseURL string, client *http.Client) *remoteClient {
	return &remoteClient{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: client}
}

// do performs req and returns the envelope's data. Transport failures map to
// KindRemoteUnreachable, unparsable bodies to KindMalformedResponse, 401 to
// KindUnauthorized and any other well-formed failure to KindRemoteRejected.
func (c *remoteClient) do(ctx context.Context, op string, req request) (json.RawMessage, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, &Error{Kind: KindInvalid, Op: op, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Op: op, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindRemoteUnreachable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindRemoteUnreachable, Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		if err == nil {
			err = fmt.Errorf("missing success flag")
		}
		return nil, &Error{Kind: KindMalformedResponse, Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &Error{Kind: KindUnauthorized, Op: op, Status: resp.StatusCode, Message: env.message(resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !*env.Success {
		return nil, &Error{Kind: KindRemoteRejected, Op: op, Status: resp.StatusCode, Message: env.message(resp.StatusCode)}
	}
	return env.Data, nil
}

func (e envelope) message(status int) string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return http.StatusText(status)
	}
}

// decodeData unmarshals envelope data into out.
func decodeData(op string, data json.RawMessage, out any) error {
	if len(data) == 0 || string(data) == "null" {
		return &Error{Kind: KindMalformedResponse, Op: op, Message: "response has no data"}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	return nil
}

// decodeList reads {"<key>": [...], "pagination": {...}}. Missing pagination
// is derived from the query and the number of items returned.
func decodeList[T any](op string, data json.RawMessage, key string, q ListQuery) ([]T, *Pagination, error) {
	var payload map[string]json.RawMessage
	if err := decodeData(op, data, &payload); err != nil {
		return nil, nil, err
	}

	rawItems, ok := payload[key]
	if !ok {
		return nil, nil, &Error{Kind: KindMalformedResponse, Op: op, Message: fmt.Sprintf("missing %q collection", key)}
	}
	items := []T{}
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, nil, &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if items == nil {
		items = []T{}
	}

	q = q.normalized()
	if rawPage, ok := payload["pagination"]; ok {
		var p Pagination
		if err := json.Unmarshal(rawPage, &p); err == nil && p.Limit > 0 {
			return items, &p, nil
		}
	}
	return items, newPagination(q.Page, q.Limit, (q.Page-1)*q.Limit+len(items)), nil
}

func (q ListQuery) values() url.Values {
	q = q.normalized()
	v := url.Values{}
	v.Set("page", fmt.Sprint(q.Page))
	v.Set("limit", fmt.Sprint(q.Limit))
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	return v
}
