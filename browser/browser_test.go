package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rewritebot/types"
)

func TestHTTPBrowserFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("missing user agent, got %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("<html><body><p>hallo</p></body></html>"))
		case "/moved":
			http.Redirect(w, r, "/ok", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	b := NewHTTP(5*time.Second, "test-agent")
	defer b.Close()

	page, err := b.Fetch(context.Background(), srv.URL+"/moved")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(page.HTML, "hallo") || page.FinalURL != srv.URL+"/ok" {
		t.Fatalf("unexpected page: %+v", page)
	}

	_, err = b.Fetch(context.Background(), srv.URL+"/missing")
	var fe *types.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 FetchError, got %v", err)
	}
	if fe.Temporary() {
		t.Fatalf("404 should not be temporary")
	}
}

func TestHTTPBrowserNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(time.Second, "").Fetch(context.Background(), url)
	var fe *types.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 0 || !fe.Temporary() {
		t.Fatalf("expected temporary FetchError, got %v", err)
	}
}
