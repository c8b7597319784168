package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

const apiPrefix = "api/v1"

// Client talks to the authority over its JSON API. The bearer token of the
// acting user is taken from the request context, falling back to Token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	logger     *slog.Logger
}

var _ Authority = (*Client)(nil)

func NewClient(cfg internal.AuthorityConfig, lg *slog.Logger) *Client {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Client{
		BaseURL:    cfg.BaseURL,
		Token:      cfg.Token,
		HTTPClient: &http.Client{Timeout: cfg.TimeoutOrDefault()},
		logger:     lg,
	}
}

func (c *Client) FetchResolution(ctx context.Context, publicID string) (*resolution.Resolution, error) {
	var resp resolution.Resolution
	if err := c.do(ctx, http.MethodGet, resolutionPath(publicID, ""), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchCurrentUser resolves the principal behind the bearer token.
func (c *Client) FetchCurrentUser(ctx context.Context) (*user.User, error) {
	var resp user.User
	if err := c.do(ctx, http.MethodGet, "users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FetchInteractions(ctx context.Context, publicID string) (*InteractionsPage, error) {
	var resp InteractionsPage
	if err := c.do(ctx, http.MethodGet, resolutionPath(publicID, "interactions"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FetchProgress(ctx context.Context, publicID string) ([]interaction.ProgressUpdate, error) {
	var resp struct {
		Items []interaction.ProgressUpdate `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, resolutionPath(publicID, "progress"), nil, &resp)
	return resp.Items, err
}

func (c *Client) FetchTimeline(ctx context.Context, publicID string) ([]timeline.Event, error) {
	var resp struct {
		Items []timeline.Event `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, resolutionPath(publicID, "timeline"), nil, &resp)
	return resp.Items, err
}

func (c *Client) PostInteraction(ctx context.Context, publicID string, req PostInteractionRequest) (*interaction.Interaction, error) {
	if req.Mentions == nil {
		req.Mentions = []int64{}
	}
	var resp interaction.Interaction
	if err := c.do(ctx, http.MethodPost, resolutionPath(publicID, "interactions"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PostProgress(ctx context.Context, publicID string, req PostProgressRequest) (*interaction.ProgressUpdate, error) {
	var resp interaction.ProgressUpdate
	if err := c.do(ctx, http.MethodPost, resolutionPath(publicID, "progress"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Transition(ctx context.Context, publicID string, req resolution.Request) (*resolution.Resolution, error) {
	var resp resolution.Resolution
	if err := c.do(ctx, http.MethodPost, resolutionPath(publicID, "transitions"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CheckHierarchy(ctx context.Context, userID int64, supervisorIDs []int64) (bool, error) {
	var resp HierarchyCheckResponse
	body := HierarchyCheckRequest{UserID: userID, SupervisorIDs: supervisorIDs}
	if err := c.do(ctx, http.MethodPost, "hierarchy/check", body, &resp); err != nil {
		return false, err
	}
	return resp.IsSubordinate, nil
}

func (c *Client) CreateResolution(ctx context.Context, req CreateResolutionRequest) (*resolution.Resolution, error) {
	var resp resolution.Resolution
	if err := c.do(ctx, http.MethodPost, "resolutions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: internal.DefaultAuthorityTimeout}
	}
	target := c.base() + "/" + apiPrefix + "/" + strings.TrimLeft(endpoint, "/")

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.WarnContext(ctx, "authority unreachable", "method", method, "endpoint", endpoint, "error", err)
		return internal.NewTransientError("the server could not be reached, please try again", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		appErr := internal.NewAppErrorFromResponse(resp.StatusCode, b)
		c.logger.DebugContext(ctx, "authority rejected request",
			"method", method,
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"code", appErr.Code,
		)
		return appErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return internal.NewBadResponseError(err)
		}
	}
	return nil
}

func (c *Client) token(ctx context.Context) string {
	if token := internal.TokenFromContext(ctx); token != "" {
		return token
	}
	return c.Token
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func resolutionPath(publicID, sub string) string {
	p := "resolutions/" + url.PathEscape(publicID)
	if sub != "" {
		p += "/" + sub
	}
	return p
}
