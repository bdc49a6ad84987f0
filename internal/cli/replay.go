package cli

import (
	"path/filepath"

	"can-monitor/internal/can"
	"can-monitor/internal/config"
	"can-monitor/internal/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replaySpeedFlag float64

// replayCmd plays back a capture file
var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Play back a recorded capture file",
	Long: `Play back frames recorded with --capture through the same display,
interpretation and statistics as a live session.

Frames are paced by their recorded timestamps divided by --speed. A speed of
0 plays the file as fast as it can be read. Replay never falls back to the
simulator.

Examples:
  can-monitor replay session.cbor
  can-monitor replay session.cbor --speed 4
  can-monitor replay session.cbor --speed 0 --filter 100`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFileFlag, cmd.Flags())
		if err != nil {
			return err
		}
		path := args[0]

		if replaySpeedFlag < 0 {
			return errors.New(errors.ErrConfig, "Invalid --speed", "Use 0 for no pacing or a positive factor")
		}
		if cfg.CaptureFile != "" && samePath(cfg.CaptureFile, path) {
			return errors.New(errors.ErrConfig,
				"Capture file is the file being replayed",
				"Unset "+config.KeyCaptureFile+" or pick another --capture path")
		}

		return runSession(cmd, cfg, func(*config.Config, *zap.Logger) (sources, error) {
			return sources{primary: can.NewReplaySource(path, replaySpeedFlag, nil)}, nil
		})
	},
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func init() {
	replayCmd.Flags().Float64Var(&replaySpeedFlag, "speed", 1.0, "Playback speed factor, 0 for unpaced")
	replayCmd.Flags().String("filter", "", "Comma-separated hex CAN IDs to show")
	replayCmd.Flags().String("capture", "", "Re-record the replayed frames to another capture file")
	rootCmd.AddCommand(replayCmd)
}
