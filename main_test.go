package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REWRITE_API_KEY", "GROQ_API_KEY", "GROC_API_KEY", "COHERE_API_KEY",
		"STORE", "PROJECT_ID", "FIREBASE_PROJECT_ID", "DEDUP_INDEX",
		"POLICY_FILE", "KAFKA_BROKERS", "DRY_RUN", "ARTICLE_LIMIT",
	} {
		t.Setenv(k, "")
	}
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFailsOnInvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("REWRITE_API_KEY", "key")

	if code := run(0, false, ""); code != 1 {
		t.Fatalf("missing store: exit %d", code)
	}

	t.Setenv("STORE", "memory://")
	bad := writePolicy(t, "sources: [")
	if code := run(0, false, bad); code != 1 {
		t.Fatalf("broken policy: exit %d", code)
	}
}

func TestRunDryRun(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory://")
	t.Setenv("MIN_BODY_CHARS", "50")

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
<item><title>Zwembad open</title><link>%s/artikel/1</link></item></channel></rss>`, srv.URL)
	})
	mux.HandleFunc("/artikel/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Zwembad open</title></head><body><article><h1>Zwembad open</h1>
<p>Het nieuwe zwembad in Zwolle opent maandag de deuren voor het publiek. Er is een glijbaan en een wedstrijdbad.</p>
<p>Ook is er een apart peuterbad voor de kleinsten, en het restaurant serveert de hele dag koffie en taart.</p>
</article></body></html>`)
	})

	policy := writePolicy(t, fmt.Sprintf("sources:\n  - name: test\n    url: %s/feed\n    kind: rss\n", srv.URL))
	if code := run(1, true, policy); code != 0 {
		t.Fatalf("dry run: exit %d", code)
	}
}
