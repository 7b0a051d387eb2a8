package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "STORY_CURATOR_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	ivorURLEnv      = "IVOR_URL"
	eventsURLEnv    = "EVENTS_API_URL"
	eventsAPIKeyEnv = "EVENTS_API_KEY"
	amplifyURLEnv   = "AMPLIFY_URL"
	natsURLEnv      = "NATS_URL"
	httpAddrEnv     = "HTTP_ADDR"
	logLevelEnv     = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	HTTP       HTTPConfig       `yaml:"http"`
	Capture    CaptureConfig    `yaml:"capture"`
	Governance GovernanceConfig `yaml:"governance"`
	Curation   CurationConfig   `yaml:"curation"`
	Services   ServicesConfig   `yaml:"services"`
	Broker     BrokerConfig     `yaml:"broker"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the content database. UseInMemory swaps every
// repository for its in-process implementation.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn"`
	UseInMemory bool   `yaml:"useInMemory"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	// PublicURL prefixes share links handed to social platforms.
	PublicURL string `yaml:"publicURL"`
}

// CaptureConfig tunes the story capture queue.
type CaptureConfig struct {
	AutoPublishThreshold float64       `yaml:"autoPublishThreshold"`
	AutoFeatureThreshold float64       `yaml:"autoFeatureThreshold"`
	RequireUserConsent   bool          `yaml:"requireUserConsent"`
	BatchSize            int           `yaml:"batchSize"`
	Interval             time.Duration `yaml:"interval"`
	MaxQueueSize         int           `yaml:"maxQueueSize"`
	MaxAttempts          int           `yaml:"maxAttempts"`
	ConsentTTL           time.Duration `yaml:"consentTTL"`
}

// GovernanceConfig tunes validation voting and the featuring pass.
type GovernanceConfig struct {
	AutoApproveScore float64       `yaml:"autoApproveScore"`
	VotingPeriod     time.Duration `yaml:"votingPeriod"`
	Quorum           int           `yaml:"quorum"`
	CurationLimit    int           `yaml:"curationLimit"`
	MinFeatureVotes  int           `yaml:"minFeatureVotes"`
	MinFeatureScore  float64       `yaml:"minFeatureScore"`
	RequiredTags     []string      `yaml:"requiredTags"`
}

// CurationConfig tunes the rule engine sessions.
type CurationConfig struct {
	Interval            time.Duration `yaml:"interval"`
	MaxFeatured         int           `yaml:"maxFeatured"`
	ScoreFloor          float64       `yaml:"scoreFloor"`
	GeographicDiversity bool          `yaml:"geographicDiversity"`
}

// ServicesConfig lists the external HTTP collaborators.
type ServicesConfig struct {
	IVOR    ServiceConfig `yaml:"ivor"`
	Events  ServiceConfig `yaml:"events"`
	Amplify ServiceConfig `yaml:"amplify"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServiceConfig is one endpoint; an empty URL disables the client.
type ServiceConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

// BrokerConfig wires the NATS event publisher; an empty URL disables it.
type BrokerConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
	Source        string `yaml:"source"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return load(os.Getenv)
}

// LoadFrom is Load with an explicit YAML path; an empty path defers to the environment.
func LoadFrom(path string) Config {
	return load(func(key string) string {
		if key == configPathEnv && path != "" {
			return path
		}
		return os.Getenv(key)
	})
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	for _, svc := range []*ServiceConfig{&c.Services.IVOR, &c.Services.Events, &c.Services.Amplify} {
		if svc.APIKey != "" {
			svc.APIKey = "***"
		}
	}
	if c.Database.DSN != "" {
		c.Database.DSN = "***"
	}
	return c
}

func load(getenv func(string) string) Config {
	cfg := defaultConfig()

	if path := getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := parse(raw, cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides(getenv)
	cfg.normalize()
	return cfg
}

// parse decodes raw on top of base, so keys missing from the file keep their base value.
func parse(raw []byte, base Config) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if v := getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
		c.Database.UseInMemory = false
	}
	if v := getenv(ivorURLEnv); v != "" {
		c.Services.IVOR.URL = v
	}
	if v := getenv(eventsURLEnv); v != "" {
		c.Services.Events.URL = v
	}
	if v := getenv(eventsAPIKeyEnv); v != "" {
		c.Services.Events.APIKey = v
	}
	if v := getenv(amplifyURLEnv); v != "" {
		c.Services.Amplify.URL = v
	}
	if v := getenv(natsURLEnv); v != "" {
		c.Broker.URL = v
	}
	if v := getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// normalize replaces values that would stall the pipeline with defaults.
func (c *Config) normalize() {
	def := defaultConfig()

	if c.Capture.BatchSize <= 0 {
		log.Printf("config: capture.batchSize %d invalid, using %d", c.Capture.BatchSize, def.Capture.BatchSize)
		c.Capture.BatchSize = def.Capture.BatchSize
	}
	if c.Capture.Interval <= 0 {
		c.Capture.Interval = def.Capture.Interval
	}
	if c.Capture.MaxQueueSize <= 0 {
		c.Capture.MaxQueueSize = def.Capture.MaxQueueSize
	}
	if c.Capture.MaxAttempts <= 0 {
		c.Capture.MaxAttempts = def.Capture.MaxAttempts
	}
	if c.Capture.ConsentTTL <= 0 {
		c.Capture.ConsentTTL = def.Capture.ConsentTTL
	}
	if c.Governance.VotingPeriod <= 0 {
		c.Governance.VotingPeriod = def.Governance.VotingPeriod
	}
	if c.Governance.Quorum <= 0 {
		c.Governance.Quorum = def.Governance.Quorum
	}
	if c.Governance.CurationLimit <= 0 {
		c.Governance.CurationLimit = def.Governance.CurationLimit
	}
	if len(c.Governance.RequiredTags) == 0 {
		c.Governance.RequiredTags = def.Governance.RequiredTags
	}
	if c.Curation.Interval <= 0 {
		c.Curation.Interval = def.Curation.Interval
	}
	if c.Curation.MaxFeatured <= 0 {
		c.Curation.MaxFeatured = def.Curation.MaxFeatured
	}
	if c.Services.Timeout <= 0 {
		c.Services.Timeout = def.Services.Timeout
	}
	c.Broker.SubjectPrefix = strings.TrimSuffix(c.Broker.SubjectPrefix, ".")
	if c.Database.DSN == "" {
		c.Database.UseInMemory = true
	}
}

// Default returns the built-in configuration without reading files or the environment.
func Default() Config {
	cfg := defaultConfig()
	cfg.normalize()
	return cfg
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{DSN: "", UseInMemory: true},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			PublicURL:      "https://blkout.org",
		},
		Capture: CaptureConfig{
			AutoPublishThreshold: 4.0,
			AutoFeatureThreshold: 4.5,
			RequireUserConsent:   true,
			BatchSize:            10,
			Interval:             5 * time.Minute,
			MaxQueueSize:         1000,
			MaxAttempts:          5,
			ConsentTTL:           14 * 24 * time.Hour,
		},
		Governance: GovernanceConfig{
			AutoApproveScore: 4.0,
			VotingPeriod:     7 * 24 * time.Hour,
			Quorum:           3,
			CurationLimit:    20,
			MinFeatureVotes:  3,
			MinFeatureScore:  4.0,
			RequiredTags:     []string{"BlackQueer", "CommunityPower"},
		},
		Curation: CurationConfig{
			Interval:            24 * time.Hour,
			MaxFeatured:         8,
			ScoreFloor:          5.0,
			GeographicDiversity: true,
		},
		Services: ServicesConfig{
			Timeout: 15 * time.Second,
		},
		Broker: BrokerConfig{
			SubjectPrefix: "storycurator",
			Source:        "story-curator",
		},
	}
}
