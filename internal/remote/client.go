package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"empdesk/internal/config"
	"empdesk/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// StatusError is a non-2xx reply from the backend. Delivery failures of
// this type are transient from the queue's point of view: the attempt is
// recorded and the action retried on a later drain.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

// Client speaks to the HR backend. The backend deduplicates on the
// client-generated record IDs, so retried submissions of the same payload
// are safe (at-least-once delivery).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewClient(cfg config.RemoteConfig, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger,
	}
}

func (c *Client) SubmitPunch(ctx context.Context, punch models.PunchRecord) error {
	return c.post(ctx, "/api/attendance/punch", punch, nil)
}

func (c *Client) SubmitLeave(ctx context.Context, leave models.LeaveRequest) error {
	return c.post(ctx, "/api/leave/apply", leave, nil)
}

func (c *Client) SubmitMood(ctx context.Context, entry models.MoodEntry) error {
	return c.post(ctx, "/api/mood/checkin", entry, nil)
}

func (c *Client) SubmitTicket(ctx context.Context, ticket models.Ticket) error {
	return c.post(ctx, "/api/ticket/create", ticket, nil)
}

// FetchPayslip pulls one month's payslip for the local read cache.
func (c *Client) FetchPayslip(ctx context.Context, year, month int) (*models.Payslip, error) {
	var slip models.Payslip
	if err := c.get(ctx, fmt.Sprintf("/api/payslip/%d/%d", year, month), &slip); err != nil {
		return nil, err
	}
	return &slip, nil
}

// Ping reports reachability. Any HTTP reply counts as online; only a
// transport error means the backend cannot be reached.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Remote rejected request")
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return nil
}
