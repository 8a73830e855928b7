package logging

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestSetupDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, true)
	slog.Debug("tracing enabled")
	if buf.Len() == 0 {
		t.Error("debug record not written with debug=true")
	}
}

func TestSetupQuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, false)
	slog.Info("routine noise")
	if buf.Len() != 0 {
		t.Errorf("info record written with debug=false: %q", buf.String())
	}
}
