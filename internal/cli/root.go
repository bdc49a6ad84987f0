package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"can-monitor/internal/can"
	"can-monitor/internal/config"
	"can-monitor/internal/display"
	"can-monitor/internal/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Global and monitor flags
var (
	envFileFlag  string
	simulateFlag bool
)

// rootCmd monitors a CAN bus
var rootCmd = &cobra.Command{
	Use:   "can-monitor",
	Short: "Live CAN bus monitor with demo fallback",
	Long: `Print every frame seen on a CAN bus, interpret known identifiers and
report throughput every few seconds.

The frame source is SocketCAN on Linux and the Vector XL driver on Windows.
When no hardware can be opened the monitor switches to simulated traffic.
Press ESC or Ctrl+C to stop.

Examples:
  can-monitor
  can-monitor --interface can0 --filter 123,456
  can-monitor --simulate --seed 42
  can-monitor --capture session.cbor`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFileFlag, cmd.Flags())
		if err != nil {
			return err
		}
		if simulateFlag {
			cfg.Source = config.SourceSimulated
		}
		return runSession(cmd, cfg, liveSources)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFileFlag, "env", config.DefaultEnvFile, "Path to .env configuration file")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	f := rootCmd.Flags()
	f.StringP("interface", "i", "", "SocketCAN interface (default vcan0)")
	f.String("source", "", "Frame source: auto, socketcan, vector or simulated")
	f.BoolVar(&simulateFlag, "simulate", false, "Skip hardware and run the traffic simulator")
	f.String("filter", "", "Comma-separated hex CAN IDs to show, e.g. 123,456")
	f.String("capture", "", "Record frames to a CBOR capture file")
	f.Uint64("seed", 0, "Simulator seed (0 picks one from the clock)")
	f.Duration("fetch-timeout", 0, "Longest wait for one frame (default 20ms)")
}

// liveSources builds the hardware source with a simulator fallback.
func liveSources(cfg *config.Config, logger *zap.Logger) (sources, error) {
	primary, hints, err := hardwareSource(cfg, logger)
	if err != nil {
		return sources{}, err
	}
	return sources{
		primary:  primary,
		fallback: simulator(cfg),
		hints:    hints,
	}, nil
}

// hardwareSource returns nil when the configuration asks for simulation.
func hardwareSource(cfg *config.Config, logger *zap.Logger) (can.FrameSource, []string, error) {
	kind := cfg.Source
	switch kind {
	case config.SourceSimulated:
		return nil, nil, nil
	case config.SourceAuto:
		kind = can.DefaultDriverKind()
	}

	drv, err := can.NewDriver(can.DriverConfig{
		Kind:      kind,
		Interface: cfg.CANInterface,
		Filters:   cfg.CANFilters,
	})
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig, "Unsupported frame source", "Use auto, socketcan, vector or simulated")
	}

	channel := can.Channel{
		HWType:    cfg.VectorHWType,
		HWIndex:   cfg.VectorHWIndex,
		HWChannel: cfg.VectorHWChannel,
	}

	if kind == can.DriverVector {
		return can.NewHardwareSource(drv, "vector", channel, logger), display.VectorHints, nil
	}
	return can.NewHardwareSource(drv, cfg.CANInterface, channel, logger), display.SocketCANHints(cfg.CANInterface), nil
}

func simulator(cfg *config.Config) func() can.FrameSource {
	return func() can.FrameSource {
		return can.NewSimulatedSource(can.WithSeed(cfg.SimSeed))
	}
}

// Execute runs the root command and exits with the status of its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report prints err and returns the exit status for it.
func report(w io.Writer, err error) int {
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		fmt.Fprint(w, structured.Error())
	} else {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return errors.ExitStatus(err)
}
