package types

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// trackingParams are dropped from URLs before they are compared.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"mc_cid": true,
	"mc_eid": true,
	"igshid": true,
	"ref":    true,
}

// GenerateID creates a short, stable ID by hashing the provided string input
func GenerateID(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// NormalizeURL canonicalizes a source URL:
// - lowercase scheme and host
// - remove fragment and tracking query params (utm_*, fbclid, gclid, ...)
// - remove trailing slash
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return strings.TrimRight(u.String(), "/")
}

// NormalizeText lowercases and collapses whitespace.
func NormalizeText(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}

// ContentHash is the SHA-256 hex digest of the normalized body text.
func ContentHash(body string) string {
	h := sha256.Sum256([]byte(NormalizeText(body)))
	return hex.EncodeToString(h[:])
}
