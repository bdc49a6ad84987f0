package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []Code{ErrConfig, ErrSource, ErrRecorder}

	seen := make(map[Code]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
		absent   []string
	}{
		{
			name:     "message only",
			err:      New(ErrConfig, "Invalid CAN_SOURCE", ""),
			contains: []string{"✗ Invalid CAN_SOURCE\n"},
			absent:   []string{"\n\n"},
		},
		{
			name: "with cause and suggestion",
			err: WrapWithCode(errors.New("dial tcp: connection refused"), ErrRecorder,
				"Cannot connect to ClickHouse", "Check CLICKHOUSE_HOST and CLICKHOUSE_PORT"),
			contains: []string{
				"✗ Cannot connect to ClickHouse",
				"  dial tcp: connection refused",
				"  Check CLICKHOUSE_HOST and CLICKHOUSE_PORT",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, msg, s)
			}
			assert.True(t, strings.HasPrefix(msg, "✗ "))
		})
	}
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("source fault")
	err := WrapWithCode(fmt.Errorf("can0: %w", sentinel), ErrSource, "Monitoring stopped", "")

	assert.ErrorIs(t, err, sentinel)

	var target *Error
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &target)
	assert.Equal(t, ErrSource, target.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "bad", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.True(t, IsCode(fmt.Errorf("wrapped: %w", err), ErrConfig))
	assert.False(t, IsCode(err, ErrSource))
	assert.False(t, IsCode(errors.New("plain"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitOK},
		{name: "config", err: New(ErrConfig, "Invalid CAN_FILTERS", ""), want: ExitUsage},
		{name: "wrapped config", err: fmt.Errorf("load: %w", New(ErrConfig, "bad", "")), want: ExitUsage},
		{name: "source fault", err: WrapWithCode(errors.New("bus off"), ErrSource, "Monitoring stopped", ""), want: ExitFailure},
		{name: "recorder", err: New(ErrRecorder, "Cannot connect to ClickHouse", ""), want: ExitFailure},
		{name: "command line", err: errors.New(`unknown flag: --bogus`), want: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitStatus(tt.err))
		})
	}
}
