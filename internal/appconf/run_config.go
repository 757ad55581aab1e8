package appconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SegmentsConfig locates the river segment layer.
type SegmentsConfig struct {
	Path             string  `yaml:"path" validate:"required"`
	IDProperty       string  `yaml:"id_property"`
	NextDownProperty string  `yaml:"next_down_property"`
	Precision        float64 `yaml:"precision" validate:"gte=0"`
}

// UTMConfig is the projected CRS every coordinate of a run shares.
type UTMConfig struct {
	Zone     int  `yaml:"zone" validate:"gte=1,lte=60"`
	Northern bool `yaml:"northern"`
}

// HydatConfig locates the HYDAT SQLite archive.
type HydatConfig struct {
	Path     string `yaml:"path" validate:"required"`
	Driver   string `yaml:"driver" validate:"omitempty,oneof=sqlite sqlite3"`
	Province string `yaml:"province" validate:"omitempty,len=2"`
	// ActiveOnly keeps stations whose HYD_STATUS is active.
	ActiveOnly bool `yaml:"active_only"`
}

// PwqmnConfig locates the PWQMN station and sample tables.
type PwqmnConfig struct {
	Stations string `yaml:"stations" validate:"required"`
	Samples  string `yaml:"samples"`
	// PeriodStart and PeriodEnd (YYYY-MM-DD) restrict the samples counted.
	PeriodStart string `yaml:"period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd   string `yaml:"period_end" validate:"omitempty,datetime=2006-01-02"`
}

// MatchingConfig holds the matcher bounds. Zero distances and depths mean
// unbounded; a negative on-segment threshold means max_distance.
type MatchingConfig struct {
	OriginPrefix       string  `yaml:"origin_prefix" validate:"required"`
	CandidatePrefix    string  `yaml:"candidate_prefix" validate:"required,nefield=OriginPrefix"`
	MaxDistance        float64 `yaml:"max_distance" validate:"gte=0"`
	MaxDepth           int     `yaml:"max_depth" validate:"gte=0"`
	OnSegmentThreshold float64 `yaml:"on_segment_threshold"`
	SnapMaxDistance    float64 `yaml:"snap_max_distance" validate:"gte=0"`
	Workers            int     `yaml:"workers" validate:"gte=0"`
	IntegrityThreshold float64 `yaml:"integrity_threshold" validate:"gte=0,lte=1"`
}

// OutputConfig lists the files a run writes.
type OutputConfig struct {
	CSV     string `yaml:"csv"`
	GeoJSON string `yaml:"geojson"`
	// WGS84 converts GeoJSON paths back to longitude/latitude.
	WGS84 bool `yaml:"wgs84"`
}

// ServerConfig configures the optional read-only HTTP API.
type ServerConfig struct {
	Enabled   bool `yaml:"enabled"`
	Port      int  `yaml:"port" validate:"gte=1,lte=65535"`
	RateLimit int  `yaml:"rate_limit" validate:"gte=1"`
	CacheSize int  `yaml:"cache_size" validate:"gte=0"`
}

// RunConfig is the YAML description of a matching run.
type RunConfig struct {
	Env      string         `yaml:"env" validate:"oneof=development test production"`
	Verbose  bool           `yaml:"verbose"`
	Segments SegmentsConfig `yaml:"segments"`
	UTM      UTMConfig      `yaml:"utm"`
	Hydat    HydatConfig    `yaml:"hydat"`
	Pwqmn    PwqmnConfig    `yaml:"pwqmn"`
	Matching MatchingConfig `yaml:"matching"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
}

// LoadFromFile reads, defaults and validates a run configuration.
func LoadFromFile(path string) (*RunConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *RunConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Segments.IDProperty == "" {
		c.Segments.IDProperty = "id"
	}
	if c.Segments.NextDownProperty == "" {
		c.Segments.NextDownProperty = "next_down"
	}
	if c.Hydat.Driver == "" {
		c.Hydat.Driver = "sqlite"
	}
	if c.Matching.OriginPrefix == "" {
		c.Matching.OriginPrefix = "hydat"
	}
	if c.Matching.CandidatePrefix == "" {
		c.Matching.CandidatePrefix = "pwqmn"
	}
	if c.Matching.OnSegmentThreshold == 0 {
		c.Matching.OnSegmentThreshold = -1
	}
	if c.Matching.IntegrityThreshold == 0 {
		c.Matching.IntegrityThreshold = 0.95
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 100
	}
	if c.Server.CacheSize == 0 {
		c.Server.CacheSize = 256
	}
}

func (c *RunConfig) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	for name, p := range map[string]string{
		"segments.path":  c.Segments.Path,
		"hydat.path":     c.Hydat.Path,
		"pwqmn.stations": c.Pwqmn.Stations,
		"pwqmn.samples":  c.Pwqmn.Samples,
		"output.csv":     c.Output.CSV,
		"output.geojson": c.Output.GeoJSON,
	} {
		if err := checkPath(p); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Pwqmn.PeriodStart != "" && c.Pwqmn.PeriodEnd != "" && c.Pwqmn.PeriodEnd < c.Pwqmn.PeriodStart {
		return errors.New("pwqmn.period_end must not precede pwqmn.period_start")
	}
	return nil
}

func checkPath(p string) error {
	if p == "" || p == ":memory:" {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(p), "file://") {
		return errors.New("file:// URLs are not allowed")
	}
	if !filepath.IsAbs(p) && strings.HasPrefix(filepath.Clean(p), "..") {
		return errors.New("path must not traverse above the working directory")
	}
	return nil
}

// ToAppConfig extracts the process-level settings.
func (c *RunConfig) ToAppConfig() Config {
	return Config{
		Port:      c.Server.Port,
		Env:       EnvFlagToEnvironment(c.Env),
		Verbose:   c.Verbose,
		RateLimit: c.Server.RateLimit,
		CacheSize: c.Server.CacheSize,
	}
}
