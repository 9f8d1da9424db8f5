package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"memegen/internal/domain"
	"memegen/internal/infra"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-image-preview"

	modalityImage = "IMAGE"
	modalityText  = "TEXT"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client sends image edit requests to the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client. A nil HTTP client is replaced with one
// that has no overall timeout.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("genai: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate sends the encoded image and the instruction in a single attempt and
// returns the first inline image of the response.
func (c *Client) Generate(ctx context.Context, payload domain.EncodedPayload, instruction string) (domain.GeneratedImage, error) {
	req := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: payload.MediaType, Data: payload.Data}},
				{Text: instruction},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{modalityImage, modalityText},
		},
	}

	var resp geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)), req, &resp); err != nil {
		return domain.GeneratedImage{}, err
	}

	img, err := extractImage(resp)
	if err != nil {
		evt := c.logger.Warn().Err(err).Str("model", c.model)
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			evt = evt.Str("block_reason", resp.PromptFeedback.BlockReason)
		}
		if len(resp.Candidates) > 0 {
			evt = evt.Str("finish_reason", resp.Candidates[0].FinishReason)
		}
		evt.Msg("genai: response carried no image")
		return domain.GeneratedImage{}, err
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("mime_type", img.MediaType).
		Int("bytes", len(img.Data)).
		Msg("genai: generated image")
	return img, nil
}

// extractImage scans the first candidate's parts in order. Parts whose inline
// data cannot be decoded are skipped.
func extractImage(resp geminiGenerateContentResponse) (domain.GeneratedImage, error) {
	if len(resp.Candidates) == 0 {
		return domain.GeneratedImage{}, domain.ErrNoImageProduced
	}
	parts := resp.Candidates[0].Content.Parts
	for _, part := range parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil || len(data) == 0 {
			continue
		}
		mediaType := part.InlineData.MimeType
		if mediaType == "" {
			mediaType = http.DetectContentType(data)
		}
		return domain.GeneratedImage{Data: data, MediaType: domain.NormalizeMediaType(mediaType)}, nil
	}

	var text strings.Builder
	for _, part := range parts {
		text.WriteString(part.Text)
	}
	if text.Len() > 0 {
		return domain.GeneratedImage{}, &domain.ServiceRefusedError{Text: text.String()}
	}
	return domain.GeneratedImage{}, domain.ErrNoImageProduced
}

func (c *Client) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ServiceUnavailableError{Cause: fmt.Errorf("invoke gemini: %w", redactKey(err, c.apiKey))}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return &domain.ServiceUnavailableError{StatusCode: resp.StatusCode, Cause: errors.New(apiErr.Error.Message)}
		}
		if msg := strings.TrimSpace(string(data)); msg != "" {
			return &domain.ServiceUnavailableError{StatusCode: resp.StatusCode, Cause: errors.New(msg)}
		}
		return &domain.ServiceUnavailableError{StatusCode: resp.StatusCode, Cause: errors.New(resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ServiceUnavailableError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("decode gemini response: %w", err)}
	}
	return nil
}

// redactKey keeps the API key out of transport errors, which embed the URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED"),
		Err: urlErr.Err,
	}
}
