package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/intervene"
)

// ErrEmptyReply is returned when the advisor answers with no reply text.
var ErrEmptyReply = errors.New("advisor: empty reply") //nolint:gochecknoglobals // sentinel error

// Client asks an external advisor service to draft intervention replies.
// The service receives the stuck question plus the session's context and
// returns free-form reply text; any failure here makes the dispatcher fall
// back to its local rules.
type Client struct {
	url   string
	httpc *http.Client
}

// Compile-time interface check.
var _ intervene.Advisor = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:   url,
		httpc: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Question string                `json:"question"`
	Context  domain.SessionContext `json:"context"`
}

type generateResponse struct {
	Reply string `json:"reply"`
}

// Generate requests a reply for the question.
func (c *Client) Generate(ctx context.Context, question string, sctx domain.SessionContext) (string, error) {
	payload, err := json.Marshal(generateRequest{Question: question, Context: sctx})
	if err != nil {
		return "", fmt.Errorf("advisor.Client.Generate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("advisor.Client.Generate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor.Client.Generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("advisor.Client.Generate: unexpected status %s: %s", resp.Status, body)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("advisor.Client.Generate: decode response: %w", err)
	}
	if out.Reply == "" {
		return "", fmt.Errorf("advisor.Client.Generate: %w", ErrEmptyReply)
	}

	return out.Reply, nil
}
