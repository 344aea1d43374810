// Package genai is a small client for a Gemini-style generateContent API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the hosted API.
const (
	DefaultEndpoint   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "gemini-2.0-flash"
	DefaultImageModel = "gemini-2.0-flash-preview-image-generation"
	DefaultTimeout    = 20 * time.Second
	DefaultGame       = "Bubble Popper"
)

var (
	// ErrNoAPIKey is returned when the client has no credentials.
	ErrNoAPIKey = errors.New("no api key configured")
	// ErrNoImage is returned when an image request produced no image.
	ErrNoImage = errors.New("no pixel art was generated")
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("empty model response")
)

// Config configures a Client.
type Config struct {
	Endpoint   string
	Model      string
	ImageModel string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls generateContent.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a client with defaults filled in.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: client}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generate(ctx context.Context, model string, req generateRequest) ([]part, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.Endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var payload generateResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		if payload.Error != nil && payload.Error.Message != "" {
			return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, payload.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	var parts []part
	for _, cand := range payload.Candidates {
		parts = append(parts, cand.Content.Parts...)
	}
	return parts, nil
}
