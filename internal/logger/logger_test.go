package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	prod, err := New("prod")
	if err != nil {
		t.Fatalf("prod logger: %v", err)
	}
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("prod logger should not log debug")
	}

	dev, err := New("dev")
	if err != nil {
		t.Fatalf("dev logger: %v", err)
	}
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("dev logger should log debug")
	}
}
