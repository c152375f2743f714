package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevel(t *testing.T) {
	if New(false).Core().Enabled(zap.DebugLevel) {
		t.Error("debug enabled without -debug")
	}
	if !New(true).Core().Enabled(zap.DebugLevel) {
		t.Error("debug disabled with -debug")
	}
	if !New(false).Core().Enabled(zap.InfoLevel) {
		t.Error("info disabled")
	}
}
