// Package reverie implements speech synthesis on the Reverie TTS API.
package reverie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agrivaani/agrivaani"
)

const defaultURL = "https://revapi.reverieinc.com/"

// Config holds the provider credential pair and endpoint.
type Config struct {
	APIKey string
	AppID  string
	URL    string
}

// Client calls the Reverie TTS API. A single failed attempt is surfaced
// immediately; there are no retries.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Client) { t.client = c }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Client) { t.logger = l }
}

// New creates a Reverie TTS client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	c := &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// Synthesize converts text to audio in the given language. The speaker
// identity is derived from the language code ("hi" speaks as "hi_female").
// Missing credentials fail before any provider call is made.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, agrivaani.NewValidationError("text is required")
	}
	if c.cfg.APIKey == "" {
		return nil, agrivaani.NewConfigurationError("Reverie API key is not configured")
	}
	if c.cfg.AppID == "" {
		return nil, agrivaani.NewConfigurationError("Reverie app ID is not configured")
	}

	if language == "" {
		language = "en"
	}
	speaker := language + "_female"

	body, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("REV-API-KEY", c.cfg.APIKey)
	req.Header.Set("REV-APP-ID", c.cfg.AppID)
	req.Header.Set("REV-APPNAME", "tts")
	req.Header.Set("speaker", speaker)

	c.logger.Debug("synthesizing speech",
		slog.String("language", language),
		slog.String("speaker", speaker),
		slog.Int("text_len", len(text)),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, agrivaani.NewUpstreamError("calling TTS provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, agrivaani.NewUpstreamStatusError(resp.StatusCode,
			fmt.Sprintf("TTS failed for language %q: %s", language, strings.TrimSpace(string(detail))))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, agrivaani.NewUpstreamError("reading TTS response", err)
	}
	if len(audio) == 0 {
		return nil, agrivaani.NewUpstreamError("empty audio received from TTS provider", nil)
	}

	c.logger.Debug("synthesis complete",
		slog.String("language", language),
		slog.Int("bytes", len(audio)),
	)
	return audio, nil
}
