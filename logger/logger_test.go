package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug().Msg("hidden")
	log.Info().Str("stage", "fetch").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written without debug flag: %s", out)
	}
	if !strings.Contains(out, `"stage":"fetch"`) {
		t.Fatalf("expected JSON field in output: %s", out)
	}

	buf.Reset()
	log = New(&buf, true)
	log.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug line missing with debug flag: %s", buf.String())
	}
}
