package validator

import (
	"errors"
	"strings"
	"testing"

	"rewritebot/types"
)

var para = "<p>" + strings.Repeat("De politie heeft dinsdag een verdachte aangehouden. ", 8) + "</p>"

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		html       string
		wantReason string
	}{
		{"valid", "Titel", "<h2>Kop</h2>" + para, ""},
		{"empty title", "  ", "<h2>Kop</h2>" + para, "empty title"},
		{"no heading", "Titel", para, "no heading element"},
		{"no paragraph", "Titel", "<h2>Kop</h2><div>" + strings.Repeat("tekst ", 80) + "</div>", "no paragraph element"},
		{"too short", "Titel", "<h2>Kop</h2><p>Kort.</p>", "body too short"},
		{"empty", "Titel", "", "no heading element"},
		{"too short once script is gone", "Titel",
			"<h2>Kop</h2><p>Kort.</p><script>" + strings.Repeat("alert(1);", 60) + "</script>", "body too short"},
		{"heading only inside script", "Titel", "<script><h2>x</h2></script>" + para, "no heading element"},
	}
	v := New(300)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.title, tt.html)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vf *types.ValidationFailure
			if !errors.As(err, &vf) {
				t.Fatalf("expected ValidationFailure, got %v", err)
			}
			if !strings.Contains(vf.Error(), tt.wantReason) {
				t.Fatalf("reasons %v do not mention %q", vf.Reasons, tt.wantReason)
			}
			if kind, _ := types.KindOf(err); kind != types.KindValidation {
				t.Fatalf("kind = %q", kind)
			}
		})
	}
}

func TestValidateStripsInjection(t *testing.T) {
	in := `<h2 onclick="steal()">Kop</h2>` +
		`<p onmouseover="x()">` + strings.Repeat("Rustige tekst over de wijkagent. ", 12) + `</p>` +
		`<p><a href=" JavaScript:alert(1)">klik</a> <a href="https://politie.nl">ok</a></p>` +
		`<iframe src="https://evil.example"></iframe><style>p{}</style><script>alert(1)</script>`

	res, err := New(300).Validate("Titel", in)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, bad := range []string{"onclick", "onmouseover", "javascript", "iframe", "<style", "<script", "alert"} {
		if strings.Contains(strings.ToLower(res.HTML), bad) {
			t.Errorf("sanitized html still contains %q:\n%s", bad, res.HTML)
		}
	}
	if !strings.Contains(res.HTML, `href="https://politie.nl"`) {
		t.Errorf("safe link removed: %s", res.HTML)
	}
	if res.Stripped != 6 {
		t.Errorf("stripped = %d, want 6", res.Stripped)
	}
}
