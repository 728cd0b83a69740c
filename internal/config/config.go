// Package config loads the application configuration from defaults, a TOML
// file and SHOP_TIMELINE_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/belphemur/shop-timeline/internal/timeline"
)

// EnvPrefix is the prefix of every environment override. Nested keys use a
// double underscore: SHOP_TIMELINE_TIMELINE__COLUMN_WIDTH=120.
const EnvPrefix = "SHOP_TIMELINE_"

// Config holds the application configuration
type Config struct {
	App       AppConfig      `koanf:"app"`
	Service   ServiceConfig  `koanf:"service"`
	Timeline  TimelineConfig `koanf:"timeline"`
	Buffers   BucketCounts   `koanf:"buffers"`
	Expansion BucketCounts   `koanf:"expansion"`

	location *time.Location
}

// AppConfig holds the HTTP listener settings
type AppConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ServiceConfig holds the service configuration
type ServiceConfig struct {
	StateFile   string `koanf:"state_file"`
	LogLevel    string `koanf:"log_level"`
	Development bool   `koanf:"development"`
	// DataFile is an optional sample-data document imported on startup when the board is empty
	DataFile string `koanf:"data_file"`
}

// TimelineConfig holds the grid geometry and calendar settings
type TimelineConfig struct {
	ColumnWidth          int            `koanf:"column_width"`
	RowHeight            int            `koanf:"row_height"`
	MinBarWidth          int            `koanf:"min_bar_width"`
	EdgeThresholdColumns int            `koanf:"edge_threshold_columns"`
	PageSize             int            `koanf:"page_size"`
	TimeZone             string         `koanf:"time_zone"`
	DefaultScale         timeline.Scale `koanf:"default_scale"`

	// The left panel shrinks on narrow viewports
	LeftPanelWidth        int `koanf:"left_panel_width"`
	LeftPanelWidthCompact int `koanf:"left_panel_width_compact"`
	CompactBreakpoint     int `koanf:"compact_breakpoint"`
}

// BucketCounts is a number of months, weeks and days
type BucketCounts struct {
	Months int `koanf:"months"`
	Weeks  int `koanf:"weeks"`
	Days   int `koanf:"days"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.port":             8080,
		"app.shutdown_timeout": "10s",

		"service.state_file":  "data/shop-timeline.db",
		"service.log_level":   "info",
		"service.development": false,

		"timeline.column_width":             timeline.DefaultColumnWidth,
		"timeline.row_height":               48,
		"timeline.min_bar_width":            timeline.DefaultMinBarWidth,
		"timeline.edge_threshold_columns":   8,
		"timeline.page_size":                50,
		"timeline.time_zone":                "UTC",
		"timeline.default_scale":            string(timeline.ScaleMonth),
		"timeline.left_panel_width":         382,
		"timeline.left_panel_width_compact": 230,
		"timeline.compact_breakpoint":       768,

		"buffers.months": 24,
		"buffers.weeks":  26,
		"buffers.days":   30,

		"expansion.months": 6,
		"expansion.weeks":  12,
		"expansion.days":   60,
	}
}

// Load reads the configuration file and environment variables. An empty path
// skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// PORT is honoured for container platforms that inject it
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("PORT must be a valid number: %w", err)
		}
		if err := k.Set("app.port", p); err != nil {
			return nil, err
		}
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToScaleHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if path != "" && cfg.Service.StateFile != "" && !filepath.IsAbs(cfg.Service.StateFile) {
		configDir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config directory: %w", err)
		}
		cfg.Service.StateFile = filepath.Join(configDir, "..", cfg.Service.StateFile)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// stringToScaleHookFunc decodes case-insensitive scale names
func stringToScaleHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(timeline.Scale("")) {
			return data, nil
		}
		return timeline.ParseScale(reflect.ValueOf(data).String())
	}
}

// validate checks if the configuration is valid and resolves the time zone
func validate(cfg *Config) error {
	var result *multierror.Error

	if cfg.App.Port < 1 || cfg.App.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("app.port must be between 1 and 65535, got %d", cfg.App.Port))
	}
	if cfg.Service.StateFile == "" {
		result = multierror.Append(result, errors.New("service.state_file is required"))
	}

	positive := map[string]int{
		"timeline.column_width":     cfg.Timeline.ColumnWidth,
		"timeline.row_height":       cfg.Timeline.RowHeight,
		"timeline.page_size":        cfg.Timeline.PageSize,
		"timeline.left_panel_width": cfg.Timeline.LeftPanelWidth,
		"expansion.months":          cfg.Expansion.Months,
		"expansion.weeks":           cfg.Expansion.Weeks,
		"expansion.days":            cfg.Expansion.Days,
	}
	for _, name := range slices.Sorted(maps.Keys(positive)) {
		if positive[name] < 1 {
			result = multierror.Append(result, fmt.Errorf("%s must be positive", name))
		}
	}

	nonNegative := map[string]int{
		"timeline.min_bar_width":          cfg.Timeline.MinBarWidth,
		"timeline.edge_threshold_columns": cfg.Timeline.EdgeThresholdColumns,
		"buffers.months":                  cfg.Buffers.Months,
		"buffers.weeks":                   cfg.Buffers.Weeks,
		"buffers.days":                    cfg.Buffers.Days,
	}
	for _, name := range slices.Sorted(maps.Keys(nonNegative)) {
		if nonNegative[name] < 0 {
			result = multierror.Append(result, fmt.Errorf("%s must not be negative", name))
		}
	}

	if cfg.Timeline.MinBarWidth > cfg.Timeline.ColumnWidth {
		result = multierror.Append(result, errors.New("timeline.min_bar_width cannot exceed timeline.column_width"))
	}

	loc, err := time.LoadLocation(cfg.Timeline.TimeZone)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid timeline.time_zone %q: %w", cfg.Timeline.TimeZone, err))
	}
	cfg.location = loc

	return result.ErrorOrNil()
}

// Location is the time zone all bucket arithmetic runs in
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Policy builds the date-range policy from the buffer and expansion settings
func (c *Config) Policy() timeline.Policy {
	return timeline.Policy{
		Location:  c.Location(),
		Buffers:   timeline.Buffers{Months: c.Buffers.Months, Weeks: c.Buffers.Weeks, Days: c.Buffers.Days},
		Expansion: timeline.Expansion{Months: c.Expansion.Months, Weeks: c.Expansion.Weeks, Days: c.Expansion.Days},
	}
}

// Mapper builds the pixel mapper from the grid geometry
func (c *Config) Mapper() timeline.Mapper {
	return timeline.Mapper{ColumnWidth: c.Timeline.ColumnWidth, MinBarWidth: c.Timeline.MinBarWidth}
}

// LeftPanelWidthFor returns the width of the work-center column for a viewport width
func (t TimelineConfig) LeftPanelWidthFor(viewportWidth int) int {
	if viewportWidth <= t.CompactBreakpoint {
		return t.LeftPanelWidthCompact
	}
	return t.LeftPanelWidth
}
