package jules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gosuda/vigil/internal/remote"
)

const (
	defaultTimeout = 30 * time.Second

	// Default call budget. Every remote call waits on the limiter, so the
	// budget holds across discovery, sync, and interventions combined.
	defaultRatePerSec = 2
	defaultBurst      = 5
)

// Client talks to the Jules session API. All calls pass through a shared
// rate limiter; blocking on the limiter respects ctx cancellation.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
}

// Compile-time interface check.
var _ remote.SessionService = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithRateLimit overrides the remote call budget.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSec), burst) }
}

// New creates a Client for the given API base URL (e.g.
// "https://jules.googleapis.com/v1alpha") authenticating with apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSec), defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

type wireSession struct {
	Name       string    `json:"name"`
	ID         string    `json:"id,omitempty"`
	Title      string    `json:"title,omitempty"`
	State      string    `json:"state,omitempty"`
	URL        string    `json:"url,omitempty"`
	CreateTime time.Time `json:"createTime,omitzero"`
	UpdateTime time.Time `json:"updateTime,omitzero"`
}

func (w wireSession) toSession() remote.Session {
	id := w.ID
	if id == "" {
		id = remote.ActivityKey(w.Name) // last path segment
	}

	return remote.Session{
		ID:         id,
		Name:       w.Name,
		Title:      w.Title,
		State:      w.State,
		URL:        w.URL,
		CreateTime: w.CreateTime,
		UpdateTime: w.UpdateTime,
	}
}

type wireActivity struct {
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CreateTime    time.Time `json:"createTime,omitzero"`
	AgentMessaged *struct {
		Message string `json:"message,omitempty"`
	} `json:"agentMessaged,omitempty"`
	ProgressUpdated *struct {
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
	} `json:"progressUpdated,omitempty"`
}

func (w wireActivity) toActivity(raw map[string]any) remote.Activity {
	a := remote.Activity{
		Name:        w.Name,
		Description: w.Description,
		CreateTime:  w.CreateTime,
		Raw:         raw,
	}
	if w.AgentMessaged != nil {
		a.AgentMessage = w.AgentMessaged.Message
	}
	if a.Description == "" && w.ProgressUpdated != nil {
		a.Description = strings.TrimSpace(w.ProgressUpdated.Title + ": " + w.ProgressUpdated.Description)
		a.Description = strings.TrimSuffix(a.Description, ":")
	}
	if a.Description == "" && a.AgentMessage != "" {
		a.Description = a.AgentMessage
	}

	return a
}

// ListSessions fetches a single page of sessions, most recently updated
// first. It never follows page tokens; one page per call is the budget.
func (c *Client) ListSessions(ctx context.Context, pageSize int) ([]remote.Session, error) {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}

	var out struct {
		Sessions []wireSession `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions", q, nil, &out); err != nil {
		return nil, fmt.Errorf("jules.Client.ListSessions: %w", err)
	}

	sessions := make([]remote.Session, 0, len(out.Sessions))
	for _, ws := range out.Sessions {
		sessions = append(sessions, ws.toSession())
	}

	return sessions, nil
}

// GetSession fetches the current remote state of one session.
func (c *Client) GetSession(ctx context.Context, id string) (*remote.Session, error) {
	var out wireSession
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("jules.Client.GetSession: %w", err)
	}

	s := out.toSession()

	return &s, nil
}

// ListActivities fetches a single page of the session's activity feed,
// newest first.
func (c *Client) ListActivities(ctx context.Context, sessionID string, pageSize int) ([]remote.Activity, error) {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}

	var out struct {
		Activities []json.RawMessage `json:"activities"`
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/activities"
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, fmt.Errorf("jules.Client.ListActivities: %w", err)
	}

	activities := make([]remote.Activity, 0, len(out.Activities))
	for _, item := range out.Activities {
		var wa wireActivity
		if err := json.Unmarshal(item, &wa); err != nil {
			return nil, fmt.Errorf("jules.Client.ListActivities: decode activity: %w", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, fmt.Errorf("jules.Client.ListActivities: decode activity: %w", err)
		}
		activities = append(activities, wa.toActivity(raw))
	}

	return activities, nil
}

// SendMessage relays a user message into the session.
func (c *Client) SendMessage(ctx context.Context, sessionID, text string) error {
	body := map[string]string{"prompt": text}
	path := "/sessions/" + url.PathEscape(sessionID) + ":sendMessage"
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("jules.Client.SendMessage: %w", err)
	}

	return nil
}

// ApprovePlan approves the session's pending plan.
func (c *Client) ApprovePlan(ctx context.Context, sessionID string) error {
	path := "/sessions/" + url.PathEscape(sessionID) + ":approvePlan"
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, nil); err != nil {
		return fmt.Errorf("jules.Client.ApprovePlan: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// apiError builds an error carrying the status line so callers can classify
// it. The structured error message is appended when the body has one.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return fmt.Errorf("unexpected status %s: %s", resp.Status, body.Error.Message)
	}

	return fmt.Errorf("unexpected status %s", resp.Status)
}
