package commands

import (
	"fmt"
	"maps"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/config"
	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/normalize"
	"github.com/erraggy/dtoapi/response"
	"github.com/erraggy/dtoapi/schema"
	"github.com/erraggy/dtoapi/validate"
)

// engine holds the configured components for one command run.
type engine struct {
	cfg    *config.Config
	logger meta.Logger
	// metrics collects the derivation counters of the schema factory and
	// the response resolver.
	metrics *prometheus.Registry

	decls     *meta.Declarations
	registry  *schema.Registry
	resolver  *response.Resolver
	validator *validate.Validator
}

// loadConfig reads the configuration and builds the process logger.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, meta.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	l, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, meta.NewSlogAdapter(l), nil
}

// newEngine loads the configuration and the declaration file at path and
// wires the engines over them. Default responses from the configuration
// override the declaration file's defaults for the same status.
func newEngine(cmd *cobra.Command, flags *rootFlags, path string) (*engine, error) {
	cfg, logger, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	decls, err := meta.LoadDeclarations(path)
	if err != nil {
		return nil, fmt.Errorf("loading declarations: %w", err)
	}
	defaults, err := cfg.Defaults()
	if err != nil {
		return nil, err
	}
	merged := decls.DefaultResponses()
	if merged == nil {
		merged = make(map[int]meta.DefaultResponse, len(defaults))
	}
	maps.Copy(merged, defaults)

	schemaOpts, err := cfg.SchemaOptions()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	schemaOpts = append(schemaOpts, schema.WithLogger(logger), schema.WithRegisterer(reg))
	factory := schema.NewFactory(decls, schemaOpts...)

	return &engine{
		cfg:       cfg,
		logger:    logger,
		metrics:   reg,
		decls:     decls,
		registry:  schema.NewRegistry(factory, schema.WithLogger(logger)),
		resolver:  response.New(decls, merged, response.WithLogger(logger), response.WithRegisterer(reg)),
		validator: validate.New(decls, validate.WithLogger(logger)),
	}, nil
}

// newNormalizer returns a normalizer with the configured defaults.
func newNormalizer(cfg *config.Config, logger meta.Logger) *normalize.Normalizer {
	return normalize.New(append(cfg.NormalizerOptions(), normalize.WithLogger(logger))...)
}
