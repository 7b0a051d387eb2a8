package amplify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StoryCurator/internal/config"
	"StoryCurator/internal/domain"
)

func TestAmplifyPostsContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/amplify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		content, _ := body["content"].(map[string]any)
		if body["source"] != source || content["title"] != "Leeds supper club" || content["customMessage"] != "Come through" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"amplificationId":"amp-42"}`))
	}))
	defer srv.Close()

	id, err := NewClient(config.ServiceConfig{URL: srv.URL}, time.Second).Amplify(context.Background(),
		domain.ShareContent{ID: "a1", Title: "Leeds supper club"},
		domain.AmplificationRequest{Platforms: []string{"instagram"}, CustomMessage: "Come through"})
	if err != nil {
		t.Fatalf("Amplify: %v", err)
	}
	if id != "amp-42" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestAmplifyGeneratesIDWhenMissing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(config.ServiceConfig{URL: srv.URL}, time.Second)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	id, err := c.Amplify(context.Background(), domain.ShareContent{}, domain.AmplificationRequest{})
	if err != nil {
		t.Fatalf("Amplify: %v", err)
	}
	if id != "amp-1700000000000" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestAmplifyFailsOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(config.ServiceConfig{URL: srv.URL}, time.Second).Amplify(context.Background(), domain.ShareContent{}, domain.AmplificationRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}
