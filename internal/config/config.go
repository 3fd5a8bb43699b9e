package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type StoreConfig struct {
	Backend    string `toml:"backend"` // sqlite | memgraph | memory
	SQLitePath string `toml:"sqlite_path"`
	PageSize   int    `toml:"page_size"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// MatchingConfig holds the classifier thresholds. The defaults are the
// empirically chosen values the directory has always used.
type MatchingConfig struct {
	SimilarityThreshold  float64 `toml:"similarity_threshold"`
	ContainmentRatio     float64 `toml:"containment_ratio"`
	FirstNameMaxDistance int     `toml:"first_name_max_distance"`
	LastNameMaxDistance  int     `toml:"last_name_max_distance"`
}

type ScoringConfig struct {
	ExactName         int `toml:"exact_name"`
	NormalizedName    int `toml:"normalized_name"`
	SameState         int `toml:"same_state"`
	SameConference    int `toml:"same_conference"`
	SameDivision      int `toml:"same_division"`
	SimilarityWeight  int `toml:"similarity_weight"`
	ContactExactField int `toml:"contact_exact_field"`
	ContactNearField  int `toml:"contact_near_field"`
	ContactInitial    int `toml:"contact_initial"`
}

type GenerationConfig struct {
	Workers        int    `toml:"workers"`
	MaxComparisons int    `toml:"max_comparisons"`
	Blocking       string `toml:"blocking"` // none | state | phonetic
}

type ServerConfig struct {
	Port           string `toml:"port"`
	RequestTimeout string `toml:"request_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Store      StoreConfig      `toml:"store"`
	Memgraph   MemgraphConfig   `toml:"memgraph"`
	Matching   MatchingConfig   `toml:"matching"`
	Scoring    ScoringConfig    `toml:"scoring"`
	Generation GenerationConfig `toml:"generation"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    "sqlite",
			SQLitePath: "data/roster.db",
			PageSize:   500,
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Matching: MatchingConfig{
			SimilarityThreshold:  0.90,
			ContainmentRatio:     0.60,
			FirstNameMaxDistance: 2,
			LastNameMaxDistance:  1,
		},
		Scoring: ScoringConfig{
			ExactName:         100,
			NormalizedName:    90,
			SameState:         20,
			SameConference:    15,
			SameDivision:      10,
			SimilarityWeight:  50,
			ContactExactField: 50,
			ContactNearField:  30,
			ContactInitial:    10,
		},
		Generation: GenerationConfig{
			Workers:  4,
			Blocking: "none",
		},
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML file on top of Default, so a partial file only
// overrides the keys it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overrides config with environment variables when present.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ROSTER_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("ROSTER_SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("ROSTER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Generation.Workers = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "memgraph", "memory":
	default:
		return fmt.Errorf("unsupported store backend: %q", c.Store.Backend)
	}
	if c.Store.Backend == "sqlite" && c.Store.SQLitePath == "" {
		return errors.New("store.sqlite_path is required for the sqlite backend")
	}
	if c.Store.PageSize < 0 {
		return fmt.Errorf("store.page_size must not be negative, got %d", c.Store.PageSize)
	}

	m := c.Matching
	if m.SimilarityThreshold <= 0 || m.SimilarityThreshold > 1 {
		return fmt.Errorf("matching.similarity_threshold must be in (0, 1], got %v", m.SimilarityThreshold)
	}
	if m.ContainmentRatio <= 0 || m.ContainmentRatio > 1 {
		return fmt.Errorf("matching.containment_ratio must be in (0, 1], got %v", m.ContainmentRatio)
	}
	if m.FirstNameMaxDistance < 0 || m.LastNameMaxDistance < 0 {
		return errors.New("matching name distances must not be negative")
	}

	switch c.Generation.Blocking {
	case "", "none", "state", "phonetic":
	default:
		return fmt.Errorf("unsupported generation.blocking: %q", c.Generation.Blocking)
	}
	if c.Generation.MaxComparisons < 0 {
		return errors.New("generation.max_comparisons must not be negative")
	}

	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	return nil
}

// RequestTimeout parses server.request_timeout; empty means no timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Server.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.request_timeout %q: %w", c.Server.RequestTimeout, err)
	}
	return d, nil
}
