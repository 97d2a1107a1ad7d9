// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// KeywordPlaceholder marks where the search keyword goes in a source's search path.
const KeywordPlaceholder = "{keyword}"

// ErrInvalid wraps every validation failure returned by Load and Validate.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	Keywords []string `yaml:"keywords"`

	//Paths
	OutputDir string `yaml:"output_dir"`
	LogDir    string `yaml:"log_dir"`

	//Pacing
	DelayBetweenSources  time.Duration `yaml:"delay_between_sources"`
	DelayBetweenKeywords time.Duration `yaml:"delay_between_keywords"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`

	//Runs on this cron spec when set (e.g. "@every 6h")
	Schedule string `yaml:"schedule"`

	UserAgent string         `yaml:"user_agent"`
	Browser   BrowserConfig  `yaml:"browser"`
	Sources   []SourceConfig `yaml:"sources"`
}

type BrowserConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Headless    bool          `yaml:"headless"`
	CookiesPath string        `yaml:"cookies_path"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// SourceConfig describes one job board. Selectors are CSS selectors evaluated
// against a single listing card.
type SourceConfig struct {
	Name            string            `yaml:"name"`
	Enabled         bool              `yaml:"enabled"`
	BaseURL         string            `yaml:"base_url"`
	SearchPath      string            `yaml:"search_path"`
	RequiresBrowser bool              `yaml:"requires_browser"`
	CompanyDirect   bool              `yaml:"company_direct"`
	Headers         map[string]string `yaml:"headers"`
	Selectors       Selectors         `yaml:"selectors"`
}

type Selectors struct {
	Listing  string `yaml:"listing"`
	Title    string `yaml:"title"`
	Company  string `yaml:"company"`
	Link     string `yaml:"link"`
	Location string `yaml:"location"`
	Date     string `yaml:"date"`
}

// Load reads .env, the YAML file at path and the environment overrides, in
// that order. A missing file means defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		//defaults only
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", ErrInvalid, err)
		}
		c.TelegramChatID = id
	}

	if dir := os.Getenv("JOBS_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if dir := os.Getenv("JOBS_LOG_DIR"); dir != "" {
		c.LogDir = dir
	}
	return nil
}

// Validate checks the configuration and fills in zero-valued paths.
func (c *Config) Validate() error {
	var errs []error

	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.DelayBetweenSources < 0 || c.DelayBetweenKeywords < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}

	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, fmt.Errorf("keywords[%d] is empty", i))
		}
	}

	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("at least one source is required"))
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if err := src.validate(); err != nil {
			errs = append(errs, fmt.Errorf("sources[%d]: %w", i, err))
			continue
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name))
		}
		seen[key] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (s SourceConfig) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: base_url %q is not an absolute URL", s.Name, s.BaseURL)
	}
	if !strings.Contains(s.SearchPath, KeywordPlaceholder) {
		return fmt.Errorf("%s: search_path must contain %s", s.Name, KeywordPlaceholder)
	}

	required := []struct {
		field string
		value string
	}{
		{"listing", s.Selectors.Listing},
		{"title", s.Selectors.Title},
		{"company", s.Selectors.Company},
		{"link", s.Selectors.Link},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing selectors: %s", s.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Source returns the source with the given name, case-insensitively.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if strings.EqualFold(src.Name, name) {
			return src, true
		}
	}
	return SourceConfig{}, false
}

// NotificationsEnabled reports whether Telegram credentials are present.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
