// Package config loads layered CLI configuration: built-in defaults, an
// optional YAML file, CRITPATH_* environment variables and command flags,
// each layer overriding the one before.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/logging"
	"github.com/joshharrison/critpath/internal/validation"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. CRITPATH_SCHEDULE_START.
	EnvPrefix = "CRITPATH"
	// FileName is the config file base name searched for when --config is unset.
	FileName = "critpath"
)

// Config is the resolved CLI configuration.
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar" json:"calendar"`
	Schedule ScheduleConfig `mapstructure:"schedule" json:"schedule"`
	Log      logging.Config `mapstructure:"log" json:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" json:"-"`
}

// CalendarConfig selects the working-week policy. Zero defers to the
// project file.
type CalendarConfig struct {
	WorkingDaysPerWeek int `mapstructure:"working_days_per_week" json:"working_days_per_week" validate:"min=0"`
}

// ScheduleConfig holds scheduling defaults. An empty Start defers to the
// project file.
type ScheduleConfig struct {
	Start  string `mapstructure:"start" json:"start" validate:"omitempty,datetime=2006-01-02"`
	Strict bool   `mapstructure:"strict" json:"strict"`
	Float  string `mapstructure:"float" json:"float" validate:"omitempty,oneof=inclusive exclusive"`
}

// flagKeys maps command flag names onto config keys.
var flagKeys = map[string]string{
	"days-per-week": "calendar.working_days_per_week",
	"start":         "schedule.start",
	"strict":        "schedule.strict",
	"float":         "schedule.float",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"no-color":      "log.no_color",
}

type loaderConfig struct {
	file        string
	searchPaths []string
	flags       *pflag.FlagSet
}

// Option configures Load.
type Option func(*loaderConfig)

// WithFile reads an explicit config file. A missing explicit file is an error.
func WithFile(path string) Option {
	return func(lc *loaderConfig) { lc.file = path }
}

// WithSearchPaths replaces the directories searched for critpath.yaml.
func WithSearchPaths(dirs ...string) Option {
	return func(lc *loaderConfig) { lc.searchPaths = dirs }
}

// WithFlags binds the known flags present in fs. Only flags the user set
// override lower layers.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(lc *loaderConfig) { lc.flags = fs }
}

// DefaultSearchPaths returns the working directory and $HOME/.config/critpath.
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "critpath"))
	}
	return paths
}

// Load resolves the configuration and validates it.
func Load(opts ...Option) (*Config, error) {
	lc := loaderConfig{searchPaths: DefaultSearchPaths()}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	setDefaults(v)

	// 1. Config file
	if lc.file != "" {
		v.SetConfigFile(lc.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", lc.file, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, p := range lc.searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// 2. Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Flags
	if lc.flags != nil {
		for name, key := range flagKeys {
			f := lc.flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("calendar.working_days_per_week", 0)
	v.SetDefault("schedule.start", "")
	v.SetDefault("schedule.strict", false)
	v.SetDefault("schedule.float", cpm.InclusiveFloat.String())
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", logging.FormatConsole)
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", false)
}

// Validate checks field constraints and the logging section.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// FloatCounting returns the parsed schedule.float value.
func (c *Config) FloatCounting() cpm.FloatCounting {
	f, _ := cpm.ParseFloatCounting(c.Schedule.Float) // checked by Validate
	return f
}

// ProjectDefaults supplies the schedule settings a project file carries.
type ProjectDefaults interface {
	StartDate() (time.Time, error)
	Calendar() calendar.Policy
}

// Options merges the configuration with project-file values into scheduler
// options. Configured values win; the project fills the gaps.
func (c *Config) Options(project ProjectDefaults) (cpm.Options, error) {
	opts := cpm.Options{
		Calendar: calendar.Policy(c.Calendar.WorkingDaysPerWeek),
		Float:    c.FloatCounting(),
		Strict:   c.Schedule.Strict,
	}
	if opts.Calendar == 0 {
		opts.Calendar = project.Calendar()
	}

	var err error
	if c.Schedule.Start != "" {
		opts.ProjectStart, err = calendar.ParseDate(c.Schedule.Start)
	} else {
		opts.ProjectStart, err = project.StartDate()
	}
	if err != nil {
		return cpm.Options{}, err
	}
	return opts, nil
}
