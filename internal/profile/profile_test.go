package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blinklabs-io/nft-indexer/internal/config"
	"github.com/blinklabs-io/nft-indexer/internal/errs"
)

func TestGetByHandleReturnsNormalizedProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("screen_name") != "alice" {
			t.Fatalf("unexpected screen_name: %s", r.URL.Query().Get("screen_name"))
		}
		json.NewEncoder(w).Encode(map[string]string{
			"screen_name":             "alice",
			"name":                    "Alice",
			"profile_image_url_https": "https://example.com/alice.png",
		})
	}))
	defer srv.Close()

	client := NewClient(config.ProfileConfig{BaseUrl: srv.URL, BearerToken: "token"})
	p, err := client.GetByHandle(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Handle != "alice" || p.Name != "Alice" || p.AvatarUrl != "https://example.com/alice.png" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestGetByHandleNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(config.ProfileConfig{BaseUrl: srv.URL})
	client.http.SetRetryCount(0)
	_, err := client.GetByHandle(context.Background(), "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByHandleUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(config.ProfileConfig{BaseUrl: srv.URL})
	client.http.SetRetryCount(0)
	_, err := client.GetByHandle(context.Background(), "alice")
	if !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
