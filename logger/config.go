package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/philipp01105/krait/filter"
	"github.com/philipp01105/krait/formatter"
	"github.com/philipp01105/krait/handler"
	"github.com/philipp01105/krait/handler/consolehandler"
	"github.com/philipp01105/krait/handler/filehandler"
)

// EnvPrefix prefixes environment overrides, e.g. KRAIT_LEVEL=debug.
const EnvPrefix = "KRAIT"

const (
	// DefaultQueueCapacity applies to handlers whose queue_capacity is unset.
	DefaultQueueCapacity = 1000
	// DefaultBlockTimeout applies to handlers whose block_timeout is unset.
	// A zero block_timeout fails a full enqueue at once; a negative one
	// waits without bound.
	DefaultBlockTimeout = 100 * time.Millisecond
)

// Config describes the process-wide logging setup.
type Config struct {
	Level    string          `mapstructure:"level" validate:"omitempty,level"`
	Caller   bool            `mapstructure:"caller"`
	Handlers []HandlerConfig `mapstructure:"handlers" validate:"dive"`
}

// HandlerConfig describes one destination.
type HandlerConfig struct {
	Type           string        `mapstructure:"type" validate:"required,oneof=file console"`
	Path           string        `mapstructure:"path" validate:"required_if=Type file"`
	Level          string        `mapstructure:"level" validate:"omitempty,level"`
	Format         string        `mapstructure:"format" validate:"omitempty,formatter"`
	Color          bool          `mapstructure:"color"`
	Async          *bool         `mapstructure:"async"`
	QueueCapacity  *int          `mapstructure:"queue_capacity" validate:"omitempty,min=0"`
	Backpressure   string        `mapstructure:"backpressure" validate:"omitempty,oneof=block drop_newest drop_oldest"`
	BlockTimeout   *time.Duration `mapstructure:"block_timeout"`
	DrainTimeout   time.Duration `mapstructure:"drain_timeout" validate:"min=0"`
	MaxSize        int64         `mapstructure:"max_size" validate:"min=0"`
	MaxBackups     int           `mapstructure:"max_backups" validate:"min=0"`
	MaxAge         time.Duration `mapstructure:"max_age" validate:"min=0"`
	RotateInterval time.Duration `mapstructure:"rotate_interval" validate:"min=0"`
	Filters        []string      `mapstructure:"filters"`
	Stream         string        `mapstructure:"stream" validate:"omitempty,oneof=stdout stderr"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("level", func(fl validator.FieldLevel) bool {
			_, err := LookupLevel(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("formatter", func(fl validator.FieldLevel) bool {
			return slices.Contains(formatter.Names(), fl.Field().String())
		})
	})
	return validate
}

// Validate checks c against the field constraints and the filter names.
func (c Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	for i, hc := range c.Handlers {
		if _, err := filter.ParseAll(hc.Filters); err != nil {
			return fmt.Errorf("invalid logging config: handlers[%d]: %w", i, err)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("level", "info")
	v.SetDefault("caller", false)
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding logging config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML (or any viper-supported) file. Environment
// variables with the KRAIT_ prefix override top-level keys.
func LoadConfig(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading logging config %s: %w", path, err)
	}
	return decode(v)
}

// ParseConfig reads configuration in the given format ("yaml", "json",
// "toml") from r.
func ParseConfig(r io.Reader, format string) (Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return Config{}, fmt.Errorf("reading logging config: %w", err)
	}
	return decode(v)
}

// Build creates the handler described by c. Several handlers are
// combined with a MultiHandler.
func (c Config) Build() (handler.Handler, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(c.Handlers) == 0 {
		return buildHandler(HandlerConfig{Type: "console"})
	}

	handlers := make([]handler.Handler, 0, len(c.Handlers))
	for i, hc := range c.Handlers {
		h, err := buildHandler(hc)
		if err != nil {
			var closeErr error
			for _, built := range handlers {
				closeErr = multierr.Append(closeErr, built.Close())
			}
			return nil, multierr.Append(fmt.Errorf("handlers[%d]: %w", i, err), closeErr)
		}
		handlers = append(handlers, h)
	}
	if len(handlers) == 1 {
		return handlers[0], nil
	}
	return handler.NewMultiHandler(handlers...), nil
}

func buildHandler(hc HandlerConfig) (handler.Handler, error) {
	f, err := formatter.New(hc.Format, formatter.Config{Color: hc.Color})
	if err != nil {
		return nil, err
	}
	policy, err := handler.ParseOverflowPolicy(hc.Backpressure)
	if err != nil {
		return nil, err
	}
	async := hc.Async == nil || *hc.Async
	capacity := DefaultQueueCapacity
	if hc.QueueCapacity != nil {
		capacity = *hc.QueueCapacity
	}
	blockTimeout := DefaultBlockTimeout
	if hc.BlockTimeout != nil {
		blockTimeout = *hc.BlockTimeout
	}

	var h handler.Handler
	switch hc.Type {
	case "file":
		h, err = filehandler.NewFileHandler(filehandler.FileConfig{
			Filename:       hc.Path,
			Formatter:      f,
			Async:          async,
			QueueCapacity:  capacity,
			DefaultPolicy:  policy,
			BlockTimeout:   blockTimeout,
			DrainTimeout:   hc.DrainTimeout,
			MaxSize:        hc.MaxSize,
			MaxAge:         hc.MaxAge,
			MaxBackups:     hc.MaxBackups,
			RotateInterval: hc.RotateInterval,
		})
		if err != nil {
			return nil, err
		}
	case "console":
		var w io.Writer = os.Stdout
		if hc.Stream == "stderr" {
			w = os.Stderr
		}
		h = consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
			Writer:        w,
			Formatter:     f,
			Async:         async,
			QueueCapacity: capacity,
			DefaultPolicy: policy,
			BlockTimeout:  blockTimeout,
			DrainTimeout:  hc.DrainTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown handler type %q", hc.Type)
	}

	filters, err := filter.ParseAll(hc.Filters)
	if err != nil {
		h.Close()
		return nil, err
	}
	if hc.Level != "" {
		lvl, _ := LookupLevel(hc.Level)
		filters = append(filter.Chain{filter.MinLevel(lvl)}, filters...)
	}
	if len(filters) > 0 {
		h = handler.WithFilters(h, filters...)
	}
	return h, nil
}

// Configure builds the handlers described by cfg and installs them as
// the process-wide handler. The replaced handler is flushed and closed.
func Configure(cfg Config) error {
	h, err := cfg.Build()
	if err != nil {
		return err
	}
	level := InfoLevel
	if cfg.Level != "" {
		level, _ = LookupLevel(cfg.Level)
	}
	SetLevel(level)
	SetCaller(cfg.Caller)

	if old := SetHandler(h); old != nil {
		return old.Close()
	}
	return nil
}

// ConfigureFromFile loads path and applies it with Configure.
func ConfigureFromFile(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	return Configure(cfg)
}

// ErrNoConfigFile is returned by WatchConfig when path does not exist.
var ErrNoConfigFile = errors.New("logging config file not found")

// WatchConfig applies path now and again whenever it changes on disk.
// Reload failures keep the running configuration and are passed to
// onError, which may be nil.
func WatchConfig(path string, onError func(error)) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNoConfigFile, path)
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading logging config %s: %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return err
	}
	if err := Configure(cfg); err != nil {
		return err
	}

	var mu sync.Mutex
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		cfg, err := decode(v)
		if err == nil {
			err = Configure(cfg)
		}
		if err != nil && onError != nil {
			onError(fmt.Errorf("reloading %s: %w", e.Name, err))
		}
	})
	v.WatchConfig()
	return nil
}
