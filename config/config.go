package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/internal/httputil"
	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/normalize"
	"github.com/erraggy/dtoapi/schema"
)

// FileName is the configuration file looked up in the working directory,
// without extension.
const FileName = "dtoapi"

// EnvPrefix prefixes environment overrides: DTOAPI_SERVER_ADDR overrides
// server.addr.
const EnvPrefix = "DTOAPI"

// Config is the process configuration.
type Config struct {
	// DefaultResponses is the global default response tier, keyed by status.
	DefaultResponses map[string]meta.DefaultResponse `mapstructure:"default_responses"`
	Normalizer       NormalizerConfig                `mapstructure:"normalizer"`
	Schema           SchemaConfig                    `mapstructure:"schema"`
	OpenAPI          OpenAPIConfig                   `mapstructure:"openapi"`
	Server           ServerConfig                    `mapstructure:"server"`
	Log              LogConfig                       `mapstructure:"log"`
}

// NormalizerConfig holds the normalizer defaults.
type NormalizerConfig struct {
	Deep        bool   `mapstructure:"deep"`
	MaxDepth    int    `mapstructure:"max_depth"`
	IncludeNull bool   `mapstructure:"include_null"`
	DateFormat  string `mapstructure:"date_format"`
	MaxTraverse int    `mapstructure:"max_traverse"`
	ShapeLists  bool   `mapstructure:"shape_lists"`
}

// SchemaConfig selects the component naming. Template, when set, takes
// precedence over Naming.
type SchemaConfig struct {
	Naming   string `mapstructure:"naming"`
	Template string `mapstructure:"template"`
}

// OpenAPIConfig describes the assembled document and binds operations to
// HTTP routes.
type OpenAPIConfig struct {
	Title       string            `mapstructure:"title"`
	Version     string            `mapstructure:"version"`
	Description string            `mapstructure:"description"`
	Tags        map[string]string `mapstructure:"tags"`
	Routes      []Route           `mapstructure:"routes"`
}

// Route binds an operation to a method and path.
type Route struct {
	Method    string `mapstructure:"method"`
	Path      string `mapstructure:"path"`
	Operation string `mapstructure:"operation"`
}

// ServerConfig configures the document server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration from path, or from dtoapi.yaml in the
// working directory when path is empty. A missing default file is not an
// error. Environment variables prefixed with DTOAPI_ override scalar keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading %s: %w", describe(path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &dtoerrors.ConfigError{Option: "config", Value: describe(path), Message: "cannot decode", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("normalizer.deep", true)
	v.SetDefault("normalizer.max_depth", normalize.DefaultMaxDepth)
	v.SetDefault("normalizer.include_null", true)
	v.SetDefault("normalizer.date_format", normalize.DefaultDateFormat)
	v.SetDefault("normalizer.max_traverse", normalize.DefaultMaxTraverse)
	v.SetDefault("normalizer.shape_lists", true)
	v.SetDefault("schema.naming", "type-only")
	v.SetDefault("schema.template", "")
	v.SetDefault("openapi.title", "API")
	v.SetDefault("openapi.version", "1.0.0")
	v.SetDefault("openapi.description", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func describe(path string) string {
	if path == "" {
		return FileName + ".yaml"
	}
	return path
}

// Validate checks every value and joins all problems found.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Defaults(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SchemaOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.Normalizer.MaxDepth < 0 {
		errs = append(errs, &dtoerrors.ConfigError{Option: "normalizer.max_depth", Value: c.Normalizer.MaxDepth, Message: "must not be negative"})
	}
	if c.Normalizer.MaxTraverse < 0 {
		errs = append(errs, &dtoerrors.ConfigError{Option: "normalizer.max_traverse", Value: c.Normalizer.MaxTraverse, Message: "must not be negative"})
	}
	if c.Normalizer.DateFormat == "" {
		errs = append(errs, &dtoerrors.ConfigError{Option: "normalizer.date_format", Message: "must not be empty"})
	}
	for i, r := range c.OpenAPI.Routes {
		option := fmt.Sprintf("openapi.routes[%d]", i)
		if _, ok := httputil.NormalizeMethod(r.Method); !ok {
			errs = append(errs, &dtoerrors.ConfigError{Option: option + ".method", Value: r.Method, Message: "unsupported HTTP method"})
		}
		if r.Operation == "" {
			errs = append(errs, &dtoerrors.ConfigError{Option: option + ".operation", Message: "must not be empty"})
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, &dtoerrors.ConfigError{Option: "log.format", Value: c.Log.Format, Message: "expected text or json"})
	}
	return errors.Join(errs...)
}

// Defaults returns the global default response tier keyed by status code.
func (c *Config) Defaults() (map[int]meta.DefaultResponse, error) {
	out := make(map[int]meta.DefaultResponse, len(c.DefaultResponses))
	for _, key := range slices.Sorted(maps.Keys(c.DefaultResponses)) {
		option := "default_responses." + key
		status, err := strconv.Atoi(key)
		if err != nil || !httputil.ValidStatusCode(status) {
			return nil, &dtoerrors.ConfigError{Option: option, Value: key, Message: "expected an HTTP status code", Cause: err}
		}
		def := c.DefaultResponses[key]
		if def.ContentType != "" && !httputil.IsValidMediaType(def.ContentType) {
			return nil, &dtoerrors.ConfigError{Option: option + ".content_type", Value: def.ContentType, Message: "invalid media type"}
		}
		out[status] = def
	}
	return out, nil
}

// NormalizerOptions returns the configured normalizer defaults.
func (c *Config) NormalizerOptions() []normalize.Option {
	n := c.Normalizer
	return []normalize.Option{
		normalize.WithDeep(n.Deep),
		normalize.WithMaxDepth(n.MaxDepth),
		normalize.WithIncludeNull(n.IncludeNull),
		normalize.WithDateFormat(n.DateFormat),
		normalize.WithMaxTraverse(n.MaxTraverse),
		normalize.WithShapeLists(n.ShapeLists),
	}
}

// SchemaOptions returns the factory options selecting the configured
// naming.
func (c *Config) SchemaOptions() ([]schema.Option, error) {
	if c.Schema.Template != "" {
		namer, err := schema.NewTemplateNamer(c.Schema.Template)
		if err != nil {
			return nil, &dtoerrors.ConfigError{Option: "schema.template", Value: c.Schema.Template, Message: "invalid naming template", Cause: err}
		}
		return []schema.Option{schema.WithNamer(namer)}, nil
	}
	strategy, err := schema.ParseNamingStrategy(c.Schema.Naming)
	if err != nil {
		return nil, err
	}
	return []schema.Option{schema.WithNaming(strategy)}, nil
}

// Logger builds a slog logger writing to w at the configured level and
// format.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, &dtoerrors.ConfigError{Option: "log.level", Value: s, Message: "expected debug, info, warn or error", Cause: err}
	}
	return level, nil
}
