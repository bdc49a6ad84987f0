// Package keyboard turns key presses on the controlling terminal into
// context cancellation.
package keyboard

import (
	"bytes"
	"context"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	keyEscape = 0x1b
	keyCtrlC  = 0x03
)

// MakeRaw puts f into raw mode when it is a terminal. ok is false, and
// restore nil, when f is not a terminal or raw mode is refused.
func MakeRaw(f *os.File) (restore func(), ok bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, false
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, false
	}
	return func() { _ = term.Restore(fd, state) }, true
}

// Watch returns a context that is cancelled when ESC or Ctrl+C is read
// from r, or when parent is done. The reader goroutine exits at the first
// stop key or read error. A Read that is already blocked is not interrupted,
// so the goroutine can outlive the returned context until r yields data or
// fails; callers reading a terminal are expected to exit soon after.
func Watch(parent context.Context, r io.Reader) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go watch(ctx, r, cancel)
	return ctx, cancel
}

func watch(ctx context.Context, r io.Reader, cancel context.CancelFunc) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if bytes.IndexByte(buf[:n], keyEscape) >= 0 || bytes.IndexByte(buf[:n], keyCtrlC) >= 0 {
			cancel()
			return
		}
		if err != nil || ctx.Err() != nil {
			return
		}
	}
}

// IsTerminal reports whether w is backed by a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// RawOutput wraps w in a CRLFWriter when w is a terminal sharing the raw
// mode of stdin. Redirected output is returned unchanged.
func RawOutput(w io.Writer) io.Writer {
	if !IsTerminal(w) {
		return w
	}
	return CRLFWriter{W: w}
}

// CRLFWriter translates "\n" to "\r\n". A raw terminal does not return the
// carriage on its own.
type CRLFWriter struct {
	W io.Writer
}

func (c CRLFWriter) Write(p []byte) (int, error) {
	if _, err := c.W.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
