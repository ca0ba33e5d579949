package alerter

import (
	"strings"
	"testing"
	"time"

	"AppPulse/internal/agent"
	"AppPulse/internal/config"
)

type fakeNotifier struct {
	subjects []string
	bodies   []string
}

func (f *fakeNotifier) Send(subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func newTestAlerter(t *testing.T, registry *agent.Registry, notifier *fakeNotifier) *Alerter {
	t.Helper()
	cfg := &config.AlerterConfig{
		Enabled:       true,
		CheckInterval: "1h",
		Rules: []config.AlerterRule{
			{StorageName: "http", MaxErrorRate: 0.1},
		},
	}
	a, err := NewAlerter(cfg, registry, notifier)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}
	return a
}

func TestAlerterTriggersOnErrorRate(t *testing.T) {
	registry := agent.NewRegistry("testapp")
	for i := 0; i < 8; i++ {
		registry.RecordRequest("http", time.Millisecond)
	}
	registry.RecordError("http")
	registry.RecordError("http")

	notifier := &fakeNotifier{}
	a := newTestAlerter(t, registry, notifier)
	a.evaluateAllRules()

	if len(notifier.bodies) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.bodies))
	}
	if !strings.Contains(notifier.bodies[0], "http") {
		t.Errorf("Notification body should name the counter: %s", notifier.bodies[0])
	}
}

func TestAlerterQuietBelowThreshold(t *testing.T) {
	registry := agent.NewRegistry("testapp")
	for i := 0; i < 100; i++ {
		registry.RecordRequest("http", time.Millisecond)
	}
	registry.RecordError("http")

	notifier := &fakeNotifier{}
	a := newTestAlerter(t, registry, notifier)
	a.evaluateAllRules()

	if len(notifier.bodies) != 0 {
		t.Errorf("Expected no notification below the threshold, got %d", len(notifier.bodies))
	}
}

func TestAlerterIgnoresIdleCounters(t *testing.T) {
	registry := agent.NewRegistry("testapp")

	notifier := &fakeNotifier{}
	a := newTestAlerter(t, registry, notifier)
	a.evaluateAllRules()

	if len(notifier.bodies) != 0 {
		t.Errorf("Expected no notification for idle counters, got %d", len(notifier.bodies))
	}
}

func TestNewAlerterInvalidInterval(t *testing.T) {
	cfg := &config.AlerterConfig{CheckInterval: "whenever"}
	if _, err := NewAlerter(cfg, agent.NewRegistry("testapp"), nil); err == nil {
		t.Error("Expected an error for an invalid check_interval")
	}
}
