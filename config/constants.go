package config

import "time"

// Rewriting service defaults
const (
	DefaultProvider    = "openai"
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "mixtral-8x7b-32768"
	DefaultCohereModel = "command-r-plus"
	DefaultStyle       = "Normal"
	DefaultLanguage    = "Dutch"
)

// Run defaults
const (
	DefaultArticleLimit      = 3
	DefaultScrapeInterval    = "0 */6 * * *"
	DefaultRunBudget         = 10 * time.Minute
	DefaultLockTTL           = 30 * time.Minute
	DefaultStoreFailureLimit = 3
)

// Content thresholds
const (
	// DefaultMinBodyChars is the extracted body length below which a page is not an article
	DefaultMinBodyChars = 200

	// DefaultMinRewriteChars is the plain-text length a rewrite must reach
	DefaultMinRewriteChars = 300

	// DefaultMaxInputChars bounds the body sent to the rewriting service
	DefaultMaxInputChars = 6000
)

// Retry defaults: 1s, 2s, 4s, 8s
const (
	DefaultRetryAttempts  = 4
	DefaultRetryBaseDelay = time.Second
	DefaultRetryMaxDelay  = 8 * time.Second
)

// Fetch defaults
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (compatible; rewritebot/1.0; +https://politie-forum.nl)"
)

const (
	DefaultSiteBaseURL = "https://politie-forum.nl"
	DefaultKafkaTopic  = "articles-rewritten"
	DefaultPolicyFile  = "policy.yaml"
	DefaultDedupIndex  = "sqlite://dedup.db"
)
