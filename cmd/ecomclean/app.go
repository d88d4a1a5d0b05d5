// cmd/ecomclean/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/ecom-eda/pkg/cleaner"
	"github.com/David-Botos/ecom-eda/pkg/config"
	"github.com/David-Botos/ecom-eda/pkg/connector"
	"github.com/David-Botos/ecom-eda/pkg/converter"
	"github.com/David-Botos/ecom-eda/pkg/export"
	"github.com/David-Botos/ecom-eda/pkg/model"
	"github.com/David-Botos/ecom-eda/pkg/reader"
	"github.com/David-Botos/ecom-eda/pkg/session"
)

// app carries what a single command invocation needs
type app struct {
	flags    *rootFlags
	cfg      *config.Config
	logger   *zap.Logger
	factory  *connector.ConnectorFactory
	registry *prometheus.Registry
	metrics  *cleaner.Metrics
	postgres *connector.PostgresConnector
}

func newApp(flags *rootFlags) (*app, error) {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := cleaner.NewMetrics(registry, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		flags:    flags,
		cfg:      cfg,
		logger:   logger,
		factory:  connector.NewConnectorFactory(cfg, logger),
		registry: registry,
		metrics:  metrics,
	}, nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

func (a *app) close() {
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			a.logger.Warn("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}
	if a.flags.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.flags.metricsFile, a.registry); err != nil {
			a.logger.Warn("Failed to write metrics file",
				zap.String("path", a.flags.metricsFile),
				zap.Error(err))
		}
	}
	a.metrics.LogSummary()
	_ = a.logger.Sync()
}

// postgresDB opens the PostgreSQL connection on first use
func (a *app) postgresDB(ctx context.Context) (*connector.PostgresConnector, error) {
	if a.postgres != nil {
		return a.postgres, nil
	}
	pg, err := a.factory.CreatePostgresConnector(ctx)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchemas(a.cfg.AuditSchema, a.cfg.ExportSchema); err != nil {
		pg.Close()
		return nil, err
	}
	a.postgres = pg
	return pg, nil
}

// readInput loads the raw table from the file argument or from Snowflake
func (a *app) readInput(ctx context.Context, args []string) (model.RawTable, error) {
	if a.flags.snowflakeTable == "" {
		return reader.ReadCSVFile(args[0], reader.CSVOptions{
			Delimiter: a.cfg.CSVDelimiter,
			MaxRows:   a.cfg.CSVMaxRows,
		})
	}

	sf, err := a.factory.CreateSnowflakeConnector(ctx)
	if err != nil {
		return model.RawTable{}, err
	}
	defer sf.Close()

	src, err := reader.NewSnowflakeSource(sf, a.flags.snowflakeTable, a.cfg.Snowflake.OrderColumn, a.logger)
	if err != nil {
		return model.RawTable{}, err
	}
	return src.Read(ctx)
}

// load reads the input and cleans it into a session
func (a *app) load(ctx context.Context, args []string) (*session.Dataset, error) {
	table, err := a.readInput(ctx, args)
	if err != nil {
		return nil, err
	}

	opts := []cleaner.Option{
		cleaner.WithMetrics(a.metrics),
		cleaner.WithConverter(converter.NewTypeConverter(a.logger)),
	}
	if a.flags.audit {
		pg, err := a.postgresDB(ctx)
		if err != nil {
			return nil, err
		}
		recorder, err := cleaner.NewPostgresRecorder(ctx, pg.DB(), a.cfg.AuditSchema, a.logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cleaner.WithRecorder(recorder))
	}

	dc, err := cleaner.NewDataCleaner(a.logger, opts...)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(dc, a.logger)
	if err != nil {
		return nil, err
	}

	ds, err := sess.Load(ctx, table)
	var schemaErr *model.SchemaError
	if errors.As(err, &schemaErr) {
		return nil, describeSchemaError(table.Source, schemaErr)
	}
	return ds, err
}

// describeSchemaError tells the user which columns to add
func describeSchemaError(source string, err *model.SchemaError) error {
	return fmt.Errorf("%s cannot be cleaned: %w; the file must provide the columns %s",
		source, err, strings.Join(model.RequiredColumns, ", "))
}

// exportDataset writes the cleaned records to PostgreSQL and verifies them
func (a *app) exportDataset(ctx context.Context, ds *session.Dataset) (*export.Result, error) {
	pg, err := a.postgresDB(ctx)
	if err != nil {
		return nil, err
	}
	verifier, err := export.NewVerifier(pg.DB(), 1e-6, a.logger)
	if err != nil {
		return nil, err
	}
	exporter, err := export.NewExporter(
		pg,
		verifier,
		converter.NewTypeConverter(a.logger),
		a.cfg.ExportSchema,
		a.cfg.ExportTable,
		a.cfg.ExportBatchSize,
		a.logger,
	)
	if err != nil {
		return nil, err
	}
	return exporter.Export(ctx, ds.RunID(), ds.Records())
}
