package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"memegen/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    "https://gemini.test/v1beta/",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

var testPayload = domain.EncodedPayload{Data: base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), MediaType: "image/jpeg"}

func TestGenerateBuildsRequest(t *testing.T) {
	var captured geminiGenerateContentRequest
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1beta/models/"+DefaultModel+":generateContent" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatalf("missing api key in query: %s", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		img := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"`+img+`"}}]}}]}`), nil
	})

	if _, err := client.Generate(context.Background(), testPayload, "make it fun"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents: %+v", captured.Contents)
	}
	parts := captured.Contents[0].Parts
	if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/jpeg" || parts[0].InlineData.Data != testPayload.Data {
		t.Fatalf("image part = %+v", parts[0])
	}
	if parts[1].Text != "make it fun" {
		t.Fatalf("text part = %q", parts[1].Text)
	}
	mods := captured.GenerationConfig.ResponseModalities
	if len(mods) != 2 || mods[0] != "IMAGE" || mods[1] != "TEXT" {
		t.Fatalf("responseModalities = %v", mods)
	}
}

func TestGenerateResponses(t *testing.T) {
	first := base64.StdEncoding.EncodeToString([]byte("first-image"))
	second := base64.StdEncoding.EncodeToString([]byte("second-image"))

	tests := []struct {
		name      string
		status    int
		body      string
		wantData  string
		wantErr   error
		wantText  string
		wantCode  int
		transport error
	}{
		{
			name:     "image ignores text",
			status:   http.StatusOK,
			body:     `{"candidates":[{"content":{"parts":[{"text":"here you go"},{"inlineData":{"mimeType":"image/png","data":"` + first + `"}},{"inlineData":{"mimeType":"image/png","data":"` + second + `"}}]}}]}`,
			wantData: "first-image",
		},
		{
			name:     "text only is a refusal",
			status:   http.StatusOK,
			body:     `{"candidates":[{"content":{"parts":[{"text":"I can't edit photos of real people."}]}}]}`,
			wantErr:  domain.ErrServiceRefused,
			wantText: "I can't edit photos of real people.",
		},
		{
			name:     "whitespace text is still a refusal",
			status:   http.StatusOK,
			body:     `{"candidates":[{"content":{"parts":[{"text":" \n"}]}}]}`,
			wantErr:  domain.ErrServiceRefused,
			wantText: " \n",
		},
		{
			name:    "no parts",
			status:  http.StatusOK,
			body:    `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
			wantErr: domain.ErrNoImageProduced,
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantErr: domain.ErrNoImageProduced,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantErr:  domain.ErrServiceUnavailable,
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:     "bad key plain body",
			status:   http.StatusForbidden,
			body:     `forbidden`,
			wantErr:  domain.ErrServiceUnavailable,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `{"candidates":`,
			wantErr:  domain.ErrServiceUnavailable,
			wantCode: http.StatusOK,
		},
		{
			name:      "transport failure",
			transport: errors.New("connection reset"),
			wantErr:   domain.ErrServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
				if tc.transport != nil {
					return nil, tc.transport
				}
				return jsonResponse(tc.status, tc.body), nil
			})
			img, err := client.Generate(context.Background(), testPayload, "instruction")
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Generate returned error: %v", err)
				}
				if !bytes.Equal(img.Data, []byte(tc.wantData)) {
					t.Fatalf("Data = %q, want %q", img.Data, tc.wantData)
				}
				if img.MediaType != "image/png" {
					t.Fatalf("MediaType = %q", img.MediaType)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantText != "" {
				var refused *domain.ServiceRefusedError
				if !errors.As(err, &refused) || refused.Text != tc.wantText {
					t.Fatalf("refusal text = %+v, want %q", refused, tc.wantText)
				}
			}
			if tc.wantCode != 0 {
				var unavailable *domain.ServiceUnavailableError
				if !errors.As(err, &unavailable) || unavailable.StatusCode != tc.wantCode {
					t.Fatalf("status code = %+v, want %d", unavailable, tc.wantCode)
				}
			}
		})
	}
}

func TestTransportErrorDoesNotLeakKey(t *testing.T) {
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: no route to host")
	})
	_, err := client.Generate(context.Background(), testPayload, "instruction")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
