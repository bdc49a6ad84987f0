package cli

import (
	"context"
	"time"

	"can-monitor/internal/can"
	"can-monitor/internal/config"
	"can-monitor/internal/display"
	"can-monitor/internal/errors"
	"github.com/spf13/cobra"
)

const linkTimeout = 5 * time.Second

// linkCmd shows SocketCAN link details
var linkCmd = &cobra.Command{
	Use:   "link [interface]",
	Short: "Show state and counters of a SocketCAN link",
	Long: `Show the state, bitrate, bus state and traffic counters of a SocketCAN
interface as reported by iproute2.

The interface defaults to CAN_INTERFACE.

Examples:
  can-monitor link
  can-monitor link can1`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFileFlag, cmd.Flags())
		if err != nil {
			return err
		}

		iface := cfg.CANInterface
		if len(args) == 1 {
			iface = args[0]
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), linkTimeout)
		defer cancel()

		stats, err := can.ReadLinkStats(ctx, iface)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrSource,
				"Cannot read link details of "+iface,
				"Link details need Linux with iproute2 and an existing CAN interface")
		}

		display.NewPrinter(cmd.OutOrStdout()).Link(stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}
