package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingAPIKey = errors.New("missing rewrite service API key (REWRITE_API_KEY, GROQ_API_KEY or COHERE_API_KEY)")
	ErrMissingStore  = errors.New("missing store identifier (STORE or PROJECT_ID)")
)

// Config is the full run configuration. Env vars win over defaults; the
// policy file supplies sources, keyword sets and thresholds.
type Config struct {
	APIKey   string
	Provider string
	BaseURL  string
	Model    string
	Style    string
	Language string

	Store              string
	ServiceAccountPath string
	DedupIndex         string
	SiteBaseURL        string

	ArticleLimit      int
	ScrapeInterval    string
	Debug             bool
	DryRun            bool
	RunBudget         time.Duration
	Pace              time.Duration
	LockTTL           time.Duration
	StoreFailureLimit int

	MinBodyChars    int
	MinRewriteChars int
	MaxInputChars   int
	Retry           RetryConfig

	Browser      string
	UserAgent    string
	FetchTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	PolicyFile string
	Policy     *Policy
}

// RetryConfig feeds retry.Policy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Load reads .env (if present) and the environment, then the policy file.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:   firstEnv("REWRITE_API_KEY", "GROQ_API_KEY", "GROC_API_KEY", "COHERE_API_KEY"),
		Provider: strings.ToLower(GetEnvOrDefault("REWRITE_PROVIDER", DefaultProvider)),
		BaseURL:  GetEnvOrDefault("REWRITE_BASE_URL", DefaultBaseURL),
		Model:    os.Getenv("REWRITE_MODEL"),
		Style:    GetEnvOrDefault("REWRITE_STYLE", DefaultStyle),
		Language: GetEnvOrDefault("REWRITE_LANGUAGE", DefaultLanguage),

		Store:              storeFromEnv(),
		ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		DedupIndex:         os.Getenv("DEDUP_INDEX"),
		SiteBaseURL:        strings.TrimRight(GetEnvOrDefault("SITE_BASE_URL", DefaultSiteBaseURL), "/"),

		ArticleLimit:      envInt("ARTICLE_LIMIT", DefaultArticleLimit),
		ScrapeInterval:    GetEnvOrDefault("SCRAPE_INTERVAL", DefaultScrapeInterval),
		Debug:             envBool("DEBUG", false),
		DryRun:            envBool("DRY_RUN", false),
		RunBudget:         envDuration("RUN_BUDGET", DefaultRunBudget),
		Pace:              envDuration("PACE", 0),
		LockTTL:           envDuration("LOCK_TTL", DefaultLockTTL),
		StoreFailureLimit: envInt("STORE_FAILURE_LIMIT", DefaultStoreFailureLimit),

		MinBodyChars:    envInt("MIN_BODY_CHARS", DefaultMinBodyChars),
		MinRewriteChars: envInt("MIN_REWRITE_CHARS", DefaultMinRewriteChars),
		MaxInputChars:   envInt("MAX_INPUT_CHARS", DefaultMaxInputChars),
		Retry: RetryConfig{
			MaxAttempts: envInt("RETRY_MAX_ATTEMPTS", DefaultRetryAttempts),
			BaseDelay:   envDuration("RETRY_BASE_DELAY", DefaultRetryBaseDelay),
			MaxDelay:    envDuration("RETRY_MAX_DELAY", DefaultRetryMaxDelay),
		},

		Browser:      strings.ToLower(GetEnvOrDefault("BROWSER", "http")),
		UserAgent:    GetEnvOrDefault("USER_AGENT", DefaultUserAgent),
		FetchTimeout: envDuration("FETCH_TIMEOUT", DefaultFetchTimeout),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   GetEnvOrDefault("KAFKA_TOPIC", DefaultKafkaTopic),

		PolicyFile: GetEnvOrDefault("POLICY_FILE", DefaultPolicyFile),
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}
	if cfg.DedupIndex == "" {
		cfg.DedupIndex = defaultIndex(cfg.Store)
	}

	policy, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy
	return cfg, nil
}

// Validate reports configuration errors that make a run impossible.
func (c *Config) Validate() error {
	if c.APIKey == "" && !c.DryRun {
		return ErrMissingAPIKey
	}
	if c.Store == "" {
		return ErrMissingStore
	}
	switch c.Provider {
	case "openai", "cohere":
	default:
		return fmt.Errorf("unknown REWRITE_PROVIDER %q (want openai or cohere)", c.Provider)
	}
	switch c.Browser {
	case "http", "chrome":
	default:
		return fmt.Errorf("unknown BROWSER %q (want http or chrome)", c.Browser)
	}
	if c.ArticleLimit <= 0 {
		return fmt.Errorf("ARTICLE_LIMIT must be positive, got %d", c.ArticleLimit)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("invalid retry delays: base %s, max %s", c.Retry.BaseDelay, c.Retry.MaxDelay)
	}
	if c.RunBudget <= 0 {
		return fmt.Errorf("RUN_BUDGET must be positive, got %s", c.RunBudget)
	}
	if _, err := NextRun(c.ScrapeInterval, time.Now()); err != nil {
		return err
	}
	if c.Policy == nil || len(c.Policy.Sources) == 0 {
		return errors.New("no sources configured")
	}
	return nil
}

// GetEnvOrDefault returns the env var or def when unset or blank.
func GetEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// storeFromEnv accepts a full STORE url or a bare Firebase project id.
func storeFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("STORE")); v != "" {
		return v
	}
	if id := firstEnv("PROJECT_ID", "FIREBASE_PROJECT_ID"); id != "" {
		return "firestore://" + id
	}
	return ""
}

func defaultModel(provider string) string {
	if provider == "cohere" {
		return DefaultCohereModel
	}
	return DefaultModel
}

// defaultIndex shares the sqlite file with the store. A memory store gets a
// memory index; anything else a local sqlite file.
func defaultIndex(store string) string {
	switch {
	case strings.HasPrefix(store, "sqlite://"):
		return store
	case strings.HasPrefix(store, "memory://"):
		return "memory://"
	}
	return DefaultDedupIndex
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// envDuration accepts Go durations ("90s") or plain seconds ("90").
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
