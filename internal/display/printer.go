// Package display renders monitor output as plain console lines.
package display

import (
	"fmt"
	"io"
	"strings"

	"can-monitor/internal/decoder"
	"can-monitor/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// TimeLayout is the timestamp layout of a frame line.
const TimeLayout = "15:04:05.000"

const (
	banner = "=============================================="
	rule   = "----------------------------------------"
)

// Mode selects the header and stop notice wording.
type Mode int

const (
	ModeLive Mode = iota
	ModeSimulated
	ModeReplay
)

// Printer writes monitor output. Styles degrade to plain text when the
// writer is not a color terminal.
type Printer struct {
	w io.Writer

	title  lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	strong lipgloss.Style
}

// Option adjusts the renderer of a Printer.
type Option func(*lipgloss.Renderer)

// WithColorProfile fixes the color profile instead of detecting it from the
// printer's writer.
func WithColorProfile(p termenv.Profile) Option {
	return func(r *lipgloss.Renderer) { r.SetColorProfile(p) }
}

// WithProfileOf detects the color profile from terminal. Use it when the
// printer's writer wraps a terminal without exposing its file descriptor.
func WithProfileOf(terminal io.Writer) Option {
	return WithColorProfile(lipgloss.NewRenderer(terminal).ColorProfile())
}

// NewPrinter creates a printer bound to w.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	r := lipgloss.NewRenderer(w)
	for _, opt := range opts {
		opt(r)
	}
	return &Printer{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		good:   r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		strong: r.NewStyle().Bold(true),
	}
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

// Banner prints the program header.
func (p *Printer) Banner(title string) {
	p.line(p.muted.Render(banner))
	p.line(p.title.Render(title))
	p.line(p.muted.Render(banner))
	p.line("")
}

// Connecting announces an open attempt.
func (p *Printer) Connecting(source string) {
	p.line(fmt.Sprintf("Connecting to %s...", source))
}

// Connected reports an opened hardware source and its channel mask.
func (p *Printer) Connected(source string, channelMask uint64) {
	p.line(p.good.Render(fmt.Sprintf("%s connected successfully!", source)))
	if channelMask != 0 {
		p.line(fmt.Sprintf("Found CAN channels: 0x%X", channelMask))
	}
	p.line("")
}

// Fallback explains why hardware could not be used.
func (p *Printer) Fallback(source string, reason error, hints []string) {
	p.line(p.warn.Render(fmt.Sprintf("Failed to open %s!", source)))
	if reason != nil {
		p.line("   " + p.muted.Render(reason.Error()))
	}
	if len(hints) > 0 {
		p.line("Possible solutions:")
		for _, h := range hints {
			p.line("   • " + h)
		}
	}
	p.line("")
	p.line("Running in Demo Mode instead...")
	p.line("")
}

// Running prints the header above the frame lines.
func (p *Printer) Running(mode Mode) {
	switch mode {
	case ModeSimulated:
		p.line(p.title.Render("SIMULATION MODE - CAN Traffic Demo"))
		p.line("   Realistic automotive data patterns")
		p.line("   Press [ESC] to stop")
		p.line("")
		p.line("Simulated CAN Messages:")
	case ModeReplay:
		p.line("Replaying captured CAN traffic...")
		p.line("Press [ESC] to stop")
		p.line("")
		p.line("Replayed CAN Messages:")
	default:
		p.line("Starting CAN message monitoring...")
		p.line("Press [ESC] to stop")
		p.line("")
		p.line("Live CAN Messages:")
	}
	p.line(p.muted.Render(rule))
}

// Frame prints one frame line.
func (p *Printer) Frame(msg models.CANMessage) {
	p.line(FormatFrame(msg))
}

// Interpretation prints the decoded meaning of a frame, if there is one.
func (p *Printer) Interpretation(r decoder.Reading) {
	if text := r.Describe(); text != "" {
		p.line("   " + text)
	}
}

// Statistics prints a throughput block.
func (p *Printer) Statistics(s models.StatsSnapshot) {
	p.line("")
	p.line(p.strong.Render(FormatStatistics(s)))
	p.line(p.muted.Render(rule))
}

// Stopped prints the notice shown when the user ends the session.
func (p *Printer) Stopped(mode Mode) {
	switch mode {
	case ModeSimulated:
		p.line("\nDemo stopped by user")
	case ModeReplay:
		p.line("\nReplay stopped by user")
	default:
		p.line("\nMonitoring stopped by user")
	}
}

// Finished prints the notice shown when a replay runs out of frames.
func (p *Printer) Finished() {
	p.line("\nReplay finished")
}

// FormatFrame renders `[HH:MM:SS.mmm] 0xIII: [B1 B2] (DLC=n)`.
func FormatFrame(msg models.CANMessage) string {
	payload := msg.Frame.Payload()
	hex := make([]string, len(payload))
	for i, b := range payload {
		hex[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("[%s] 0x%03X: [%s] (DLC=%d)",
		msg.Timestamp.Format(TimeLayout), msg.Frame.ID, strings.Join(hex, " "), msg.Frame.Len())
}

// FormatStatistics renders the statistics line of a snapshot.
func FormatStatistics(s models.StatsSnapshot) string {
	return fmt.Sprintf("Statistics: %d messages total, %.1f msg/sec", s.TotalMessages, s.MessagesPerSecond)
}
