package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"can-monitor/internal/can"
	"can-monitor/internal/config"
	"can-monitor/internal/database"
	"can-monitor/internal/database/capture"
	"can-monitor/internal/database/clickhouse"
	"can-monitor/internal/database/influxdb"
	"can-monitor/internal/display"
	"can-monitor/internal/errors"
	"can-monitor/internal/keyboard"
	"can-monitor/internal/logging"
	"can-monitor/internal/monitor"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// sources are the frame sources of one session.
type sources struct {
	primary  can.FrameSource
	fallback func() can.FrameSource
	hints    []string
}

// stdin is watched for ESC and switched to raw mode when it is a terminal.
var stdin = os.Stdin

type sourceFactory func(cfg *config.Config, logger *zap.Logger) (sources, error)

// runSession sets up the terminal, logging and recorders, then runs the
// monitor until it stops.
func runSession(cmd *cobra.Command, cfg *config.Config, build sourceFactory) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	terminal := cmd.OutOrStdout()
	stdout, stderr := terminal, cmd.ErrOrStderr()
	if restore, ok := keyboard.MakeRaw(stdin); ok {
		defer restore()
		stdout, stderr = keyboard.RawOutput(stdout), keyboard.RawOutput(stderr)
		var cancel context.CancelFunc
		ctx, cancel = keyboard.Watch(ctx, stdin)
		defer cancel()
	}

	logger, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid log level", "Use debug, info, warn or error")
	}
	defer func() { _ = logger.Sync() }()

	srcs, err := build(cfg, logger)
	if err != nil {
		return err
	}

	writers, err := openRecorders(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.CloseAll(writers); err != nil {
			logger.Warn("failed to close recorders", zap.Error(err))
		}
	}()

	printer := display.NewPrinter(stdout, display.WithProfileOf(terminal))
	printer.Banner(fmt.Sprintf("CAN Monitor %s", formatVersion(version)))

	m := monitor.New(monitor.Options{
		Primary:      srcs.primary,
		Fallback:     srcs.fallback,
		Hints:        srcs.hints,
		Printer:      printer,
		Writers:      writers,
		Filter:       cfg.CANFilters,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	})

	runErr := m.Run(ctx)

	var frames uint64
	if agg := m.Stats(); agg != nil {
		frames = agg.Total()
	}
	logger.Debug("session finished", zap.Stringer("state", m.State()), zap.Uint64("frames", frames))

	return sessionError(runErr, frames)
}

// sessionError turns a monitor error into the error reported to the user.
func sessionError(err error, frames uint64) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, can.ErrUnavailable):
		return errors.WrapWithCode(err, errors.ErrSource,
			"Cannot open the frame source",
			"Check that the file or device exists and is readable")
	default:
		return errors.WrapWithCode(err, errors.ErrSource,
			fmt.Sprintf("CAN monitoring stopped on a source fault after %d frames", frames),
			"Check the CAN interface and driver, or run with --simulate")
	}
}

// openRecorders creates and starts every enabled recorder. On failure the
// recorders opened so far are closed again.
func openRecorders(cfg *config.Config, logger *zap.Logger) ([]database.Writer, error) {
	var writers []database.Writer

	fail := func(err error, message, suggestion string) ([]database.Writer, error) {
		err = multierr.Append(err, database.CloseAll(writers))
		return nil, errors.WrapWithCode(err, errors.ErrRecorder, message, suggestion)
	}

	if cfg.CaptureFile != "" {
		w, err := capture.Create(cfg.CaptureFile, logger)
		if err != nil {
			return fail(err, "Cannot create capture file "+cfg.CaptureFile, "Check that the directory exists and is writable")
		}
		writers = append(writers, w)
	}

	if cfg.ClickHouseEnabled {
		w, err := clickhouse.New(clickhouse.Config{
			Host:       cfg.ClickHouseHost,
			Port:       cfg.ClickHousePort,
			Database:   cfg.ClickHouseDatabase,
			Username:   cfg.ClickHouseUsername,
			Password:   cfg.ClickHousePassword,
			Table:      cfg.ClickHouseTable,
			StatsTable: cfg.ClickHouseStatsTable,
		}, cfg.BatchSize, logger)
		if err != nil {
			return fail(err, "Cannot connect to ClickHouse", "Check CLICKHOUSE_HOST, CLICKHOUSE_PORT and credentials, or set CLICKHOUSE_ENABLED=false")
		}
		writers = append(writers, w)
	}

	if cfg.InfluxDBEnabled {
		w, err := influxdb.New(influxdb.Config{
			URL:      cfg.InfluxDBURL,
			Token:    cfg.InfluxDBToken,
			Database: cfg.InfluxDBDatabase,
		}, cfg.BatchSize, logger)
		if err != nil {
			return fail(err, "Cannot create InfluxDB client", "Check INFLUXDB_URL and INFLUXDB_TOKEN, or set INFLUXDB_ENABLED=false")
		}
		writers = append(writers, w)
	}

	for _, w := range writers {
		w.Start()
	}
	return writers, nil
}
