package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL, APIKey: "test-key"})
}

func TestDailyChallenge(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"challenge\":\"Catch 30 calm orbs\",\"suggestedGame\":\"\"}"}]}}]}`))
	})
	out, err := c.DailyChallenge(context.Background(), ChallengeInput{PlayHistory: "Bubble Popper, Catch the Calm"})
	if err != nil {
		t.Fatalf("daily challenge: %v", err)
	}
	if gotPath != "/models/"+DefaultModel+":generateContent" || gotKey != "test-key" {
		t.Fatalf("unexpected request %s key=%q", gotPath, gotKey)
	}
	if !strings.Contains(gotReq.Contents[0].Parts[0].Text, "Bubble Popper, Catch the Calm") {
		t.Fatalf("expected history in prompt")
	}
	if out.Challenge != "Catch 30 calm orbs" {
		t.Fatalf("unexpected challenge: %+v", out)
	}
	if out.SuggestedGame != "Catch the Calm" {
		t.Fatalf("expected most recent game as suggestion, got %q", out.SuggestedGame)
	}
}

func TestDailyChallengeErrors(t *testing.T) {
	if _, err := New(Config{}).DailyChallenge(context.Background(), ChallengeInput{}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	})
	_, err := c.DailyChallenge(context.Background(), ChallengeInput{})
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestSuggestGame(t *testing.T) {
	if got := SuggestGame(""); got != DefaultGame {
		t.Fatalf("expected default game, got %q", got)
	}
	if got := SuggestGame("Color Fade, Memory Flip, "); got != "Memory Flip" {
		t.Fatalf("expected last non-empty entry, got %q", got)
	}
}

func TestTransformDoodle(t *testing.T) {
	var gotReq generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`))
	})
	out, err := c.TransformDoodle(context.Background(), "data:image/png;base64,eHl6")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out != "data:image/png;base64,QUJD" {
		t.Fatalf("unexpected data uri: %s", out)
	}
	in := gotReq.Contents[0].Parts[0].InlineData
	if in == nil || in.MimeType != "image/png" || in.Data != "eHl6" {
		t.Fatalf("expected doodle as inline data, got %+v", in)
	}
	if got := gotReq.GenerationConfig.ResponseModalities; len(got) != 2 {
		t.Fatalf("expected text and image modalities, got %v", got)
	}
}

func TestTransformDoodleNoImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
	})
	if _, err := c.TransformDoodle(context.Background(), "data:image/png;base64,eHl6"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if _, err := c.TransformDoodle(context.Background(), "not a uri"); err == nil {
		t.Fatalf("expected invalid doodle to fail")
	}
}
