package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
)

const logModule = "GEMINI"

type Config struct {
	BaseURL           string
	Model             string
	SystemPrompt      string
	RequestTimeout    time.Duration
	PollInterval      time.Duration
	MaxPollAttempts   int
	MaxTokensPerChunk int
	MaxOverlapTokens  int
	HTTPClient        *http.Client
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = "gemini-3-flash-preview"
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = 60
	}
	if c.MaxTokensPerChunk <= 0 {
		c.MaxTokensPerChunk = 200
	}
	if c.MaxOverlapTokens <= 0 {
		c.MaxOverlapTokens = 20
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	return c
}

// KeyProvider is consulted on every call so a changed credential applies
// to the next request.
type KeyProvider func() string

type Client struct {
	cfg    Config
	keys   KeyProvider
	logger logger.ILogger
}

func NewClient(cfg Config, keys KeyProvider, log logger.ILogger) *Client {
	return &Client{
		cfg:    cfg.withDefaults(),
		keys:   keys,
		logger: log,
	}
}

func (c *Client) PollInterval() time.Duration {
	return c.cfg.PollInterval
}

func (c *Client) MaxPollAttempts() int {
	return c.cfg.MaxPollAttempts
}

func (c *Client) apiKey() (string, error) {
	if c.keys == nil {
		return "", apperror.New(apperror.KindCredential, "Gemini API key is not configured")
	}
	key := strings.TrimSpace(c.keys())
	if key == "" {
		return "", apperror.New(apperror.KindCredential, "Gemini API key is not configured")
	}
	return key, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in any, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperror.Wrap(apperror.KindValidation, err, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}
	return c.do(ctx, method, path, query, body, "application/json", nil, out)
}

// do sends one request under its own deadline and decodes a JSON response.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body io.Reader,
	contentType string,
	headers map[string]string,
	out any,
) error {
	key, err := c.apiKey()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "invalid request")
	}
	req.Header.Set("x-goog-api-key", key)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return transportError(err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Warn(logModule, "Gemini API returned an error", map[string]interface{}{
			"method": method,
			"path":   path,
			"status": res.StatusCode,
		})
		return statusError(res.StatusCode, resBody)
	}

	if out == nil || len(resBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "invalid response from Gemini API")
	}
	return nil
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.KindTimeout, err, "Gemini request timeout")
	}
	return apperror.Wrap(apperror.KindNetwork, err, "NetworkError: Gemini request failed")
}

func statusError(status int, body []byte) error {
	var parsed apiError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		msg = parsed.Error.Message
	}
	cause := fmt.Errorf("status %d: %s", status, msg)

	var kind apperror.Kind
	switch {
	case status == http.StatusBadRequest && strings.Contains(msg, "API key"):
		kind = apperror.KindCredential
	case status == http.StatusBadRequest:
		kind = apperror.KindValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = apperror.KindForbidden
	case status == http.StatusNotFound:
		kind = apperror.KindNotFound
	case status == http.StatusRequestTimeout:
		kind = apperror.KindTimeout
	case status == http.StatusTooManyRequests:
		kind = apperror.KindRateLimited
	case status >= 500:
		kind = apperror.KindServer
	default:
		kind = apperror.KindUnknown
	}
	return apperror.Wrap(kind, cause, "Gemini API error")
}

func contextError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.KindTimeout, err, message)
	}
	return apperror.Wrap(apperror.KindUnknown, err, message)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
