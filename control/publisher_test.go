package control

import (
	"testing"
	"time"

	"github.com/e7canasta/orion-blockrt/scheduler"
)

func TestNewTelemetryDefaultsStatsInterval(t *testing.T) {
	tel := NewTelemetry("tcp://localhost:1883", "orion-blockrt", "telemetry/stats", 0, 0)
	if tel.statsEvery != 5*time.Second {
		t.Fatalf("statsEvery = %v, want 5s default", tel.statsEvery)
	}
}

func TestPublishSnapshotRejectsWhenDisconnected(t *testing.T) {
	tel := NewTelemetry("tcp://localhost:1883", "orion-blockrt", "telemetry/stats", 0, time.Second)
	stats := []scheduler.BlockStats{{Name: "src", ItemsProduced: 10}}
	if err := tel.PublishSnapshot(stats); err == nil {
		t.Fatal("PublishSnapshot should fail before Connect is ever called")
	}
	_, errs := tel.Stats()
	if errs != 1 {
		t.Fatalf("errors = %d, want 1", errs)
	}
}
