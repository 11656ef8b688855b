package recovery

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestRecoverToError(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)

	err := RecoverToError(logger, "Read", func() error { panic("boom") })
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if !strings.Contains(err.Error(), "Read") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected operation and panic value in %q", err)
	}
	if !strings.Contains(buf.String(), "operation=Read") {
		t.Errorf("expected the panic to be logged, got %q", buf.String())
	}

	sentinel := errors.New("plain")
	if err := RecoverToError(logger, "Read", func() error { return sentinel }); err != sentinel {
		t.Errorf("expected the function's own error, got %v", err)
	}
}

func TestRecoverToValue(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)

	v, err := RecoverToValue(logger, "CreateView", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("expected 7, got %d, %v", v, err)
	}

	v, err = RecoverToValue(logger, "CreateView", func() (int, error) {
		var m map[string]int
		m["x"] = 1
		return 1, nil
	})
	if !errors.Is(err, ErrPanic) || v != 0 {
		t.Errorf("expected zero value and ErrPanic, got %d, %v", v, err)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	Recover(newLogger(&buf), "Release", func() { panic("release failed") })
	if !strings.Contains(buf.String(), "release failed") {
		t.Errorf("expected the panic to be logged, got %q", buf.String())
	}
}
