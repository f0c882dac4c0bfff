package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Rendering SVG...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.SetMessage("Rendering PNG...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()
	s.Stop()

	out := buf.String()
	for _, want := range []string{"Rendering SVG...", "Rendering PNG..."} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("line not cleared: %q", out)
	}
	if s.Cancelled() {
		t.Error("Cancelled = true after a regular Stop")
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Connecting to archive...")
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("unstarted spinner wrote %q", buf.String())
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx, cancel
		}},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), spinnerInterval/2)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()

			var buf bytes.Buffer
			s := newSpinner(ctx, &buf, "Archiving tracing (3 trees)...")
			s.Start()
			time.Sleep(2 * spinnerInterval)
			if !s.Cancelled() {
				t.Error("Cancelled = false after the context ended")
			}
			s.Stop()
		})
	}
}

func TestSpinnerStopWithMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Archiving...")
	s.Start()
	s.StopWithSuccess("Archived %s", "tracing")

	s = newSpinner(context.Background(), &buf, "Archiving...")
	s.Start()
	s.StopWithError("Archiving %s failed", "tracing")
}
