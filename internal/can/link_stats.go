package can

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"can-monitor/internal/models"
)

var (
	flagsPattern       = regexp.MustCompile(`<([^>]*)>`)
	mtuPattern         = regexp.MustCompile(`mtu (\d+)`)
	qlenPattern        = regexp.MustCompile(`qlen (\d+)`)
	bitratePattern     = regexp.MustCompile(`bitrate (\d+)`)
	samplePointPattern = regexp.MustCompile(`sample-point ([\d.]+)`)
	busStatePattern    = regexp.MustCompile(`state ([A-Z-]+)`)
	berrPattern        = regexp.MustCompile(`berr-counter tx (\d+) rx (\d+)`)
	restartPattern     = regexp.MustCompile(`restart-ms (\d+)`)
)

// ReadLinkStats runs `ip -details -statistics link show` for iface.
func ReadLinkStats(ctx context.Context, iface string) (models.LinkStats, error) {
	cmd := exec.CommandContext(ctx, "ip", "-details", "-statistics", "link", "show", iface)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return models.LinkStats{}, fmt.Errorf("failed to execute ip command: %w (output: %s)",
			err, strings.TrimSpace(string(output)))
	}

	stats, err := parseIPOutput(string(output))
	if err != nil {
		return models.LinkStats{}, err
	}
	stats.Interface = iface
	stats.Timestamp = time.Now()
	return stats, nil
}

// parseIPOutput parses the text output of the ip command.
func parseIPOutput(output string) (models.LinkStats, error) {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) == 0 || !flagsPattern.MatchString(lines[0]) {
		return models.LinkStats{}, fmt.Errorf("unrecognized ip link output")
	}

	stats := models.LinkStats{State: "DOWN"}

	header := lines[0]
	if m := flagsPattern.FindStringSubmatch(header); len(m) > 1 {
		for _, flag := range strings.Split(m[1], ",") {
			if flag == "UP" {
				stats.State = "UP"
			}
		}
	}
	if m := mtuPattern.FindStringSubmatch(header); len(m) > 1 {
		stats.MTU, _ = strconv.Atoi(m[1])
	}
	if m := qlenPattern.FindStringSubmatch(header); len(m) > 1 {
		stats.QueueLength, _ = strconv.Atoi(m[1])
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		next := func() []string {
			if i+1 < len(lines) {
				return strings.Fields(lines[i+1])
			}
			return nil
		}

		switch {
		case fields[0] == "can":
			// can <LOOPBACK> state ERROR-ACTIVE (berr-counter tx 0 rx 0) restart-ms 0
			if m := flagsPattern.FindStringSubmatch(line); len(m) > 1 {
				stats.ControllerMode = m[1]
			}
			if m := busStatePattern.FindStringSubmatch(line); len(m) > 1 {
				stats.BusState = m[1]
			}
			if m := berrPattern.FindStringSubmatch(line); len(m) > 2 {
				stats.TXErrorCounter, _ = strconv.Atoi(m[1])
				stats.RXErrorCounter, _ = strconv.Atoi(m[2])
			}
			if m := restartPattern.FindStringSubmatch(line); len(m) > 1 {
				stats.RestartMS, _ = strconv.Atoi(m[1])
			}

		case fields[0] == "bitrate":
			if m := bitratePattern.FindStringSubmatch(line); len(m) > 1 {
				stats.Bitrate, _ = strconv.Atoi(m[1])
			}
			if m := samplePointPattern.FindStringSubmatch(line); len(m) > 1 {
				sp, _ := strconv.ParseFloat(m[1], 64)
				stats.SamplePoint = fmt.Sprintf("%.1f%%", sp*100)
			}

		case fields[0] == "re-started":
			// re-started bus-errors arbit-lost error-warn error-pass bus-off
			if v := parseCounters(next(), 6); v != nil {
				stats.BusOffRestarts = v[0]
				stats.BusErrors = v[1]
				stats.ArbitrationLost = v[2]
				stats.ErrorWarning = v[3]
				stats.ErrorPassive = v[4]
				stats.BusOff = v[5]
				i++
			}

		case fields[0] == "RX:":
			// RX: bytes packets errors dropped missed mcast
			if v := parseCounters(next(), 4); v != nil {
				stats.RXBytes, stats.RXPackets, stats.RXErrors, stats.RXDropped = v[0], v[1], v[2], v[3]
				i++
			}

		case fields[0] == "TX:":
			if v := parseCounters(next(), 4); v != nil {
				stats.TXBytes, stats.TXPackets, stats.TXErrors, stats.TXDropped = v[0], v[1], v[2], v[3]
				i++
			}
		}
	}

	return stats, nil
}

// parseCounters parses the first n fields as unsigned counters.
func parseCounters(fields []string, n int) []uint64 {
	if len(fields) < n {
		return nil
	}
	values := make([]uint64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return nil
		}
		values[i] = v
	}
	return values
}
