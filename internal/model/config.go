package model

import "time"

// Config is the complete runtime configuration, layered from defaults, the
// config file, CITECHECK_* environment variables, and CLI flags.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	FactCheck   FactCheckConfig   `yaml:"factcheck" mapstructure:"factcheck"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// HTTPConfig controls outbound source fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`             // per-attempt fetch timeout
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	HostRPS      float64       `yaml:"host_rps" mapstructure:"host_rps"` // per-host request rate
	HostBurst    int           `yaml:"host_burst" mapstructure:"host_burst"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ConcurrencyConfig bounds the three independent pools. Caps bound outbound
// connection count and external-API cost, not correctness.
type ConcurrencyConfig struct {
	FetchWorkers  int `yaml:"fetch_workers" mapstructure:"fetch_workers"`   // source fetches
	VerifyWorkers int `yaml:"verify_workers" mapstructure:"verify_workers"` // verification model calls
	EnrichWorkers int `yaml:"enrich_workers" mapstructure:"enrich_workers"` // each enrichment pool
}

// LLMConfig configures the judgment capability endpoint.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// FactCheckConfig configures fact-check aggregation. APIKey enables the
// claims-search index; absence skips that evidence source.
type FactCheckConfig struct {
	APIKey        string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	MaxSites      int           `yaml:"max_sites" mapstructure:"max_sites"` // search-capable catalog entries queried per claim
	SiteWorkers   int           `yaml:"site_workers" mapstructure:"site_workers"`
	SiteTimeout   time.Duration `yaml:"site_timeout" mapstructure:"site_timeout"`
	CacheTTL      time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestDeadline time.Duration `yaml:"request_deadline" mapstructure:"request_deadline"` // whole-pipeline budget
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			MaxBodyBytes: 2_000_000,
			MaxRedirects: 5,
			MaxRetries:   3,
			HostRPS:      2,
			HostBurst:    4,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers:  5,
			VerifyWorkers: 3,
			EnrichWorkers: 2,
		},
		LLM: LLMConfig{
			Model:      "gpt-4o-mini",
			Timeout:    60 * time.Second,
			MaxRetries: 5,
			MaxTokens:  8192,
		},
		FactCheck: FactCheckConfig{
			MaxSites:      5,
			SiteWorkers:   3,
			SiteTimeout:   8 * time.Second,
			CacheTTL:      10 * time.Minute,
			RespectRobots: true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			RequestDeadline: 2 * time.Minute,
		},
	}
}
