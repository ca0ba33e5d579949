// Package alerter periodically evaluates counter error rates against
// configured thresholds and notifies when a threshold is exceeded.
package alerter

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"AppPulse/internal/agent"
	"AppPulse/internal/config"
	"AppPulse/internal/model"
)

// Alerter is responsible for evaluating counter snapshots against
// predefined rules and triggering notifications if rules are violated.
type Alerter struct {
	registry      *agent.Registry
	rules         []config.AlerterRule
	notifier      model.Notifier
	checkInterval time.Duration
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, registry *agent.Registry, notifier model.Notifier) (*Alerter, error) {
	interval, err := time.ParseDuration(cfg.CheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid check_interval for alerter: %w", err)
	}

	return &Alerter{
		registry:      registry,
		rules:         cfg.Rules,
		notifier:      notifier,
		checkInterval: interval,
		stopChan:      make(chan struct{}),
	}, nil
}

// Start begins the periodic evaluation of alert rules.
func (a *Alerter) Start() {
	log.Println("Alerter started")

	a.wg.Add(1)
	defer a.wg.Done()

	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.evaluateAllRules()
		case <-a.stopChan:
			return
		}
	}
}

// Stop gracefully stops the alerter's evaluation loop.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.stopChan)
	a.wg.Wait()
	a.evaluateAllRules()
}

// evaluateAllRules checks every rule against the current counter state and
// sends one consolidated notification for all violations.
func (a *Alerter) evaluateAllRules() {
	messages := a.violations()
	if len(messages) == 0 {
		return
	}

	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(messages))

	body := "<h1>AppPulse Alert Summary</h1>" +
		"<p>The following alerts were triggered during the last check:</p><hr>" +
		strings.Join(messages, "<hr>")

	if a.notifier != nil {
		subject := fmt.Sprintf("AppPulse Alert Summary (%d Triggered)", len(messages))
		if err := a.notifier.Send(subject, body); err != nil {
			log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
		} else {
			log.Printf("INFO: Consolidated alert notification sent successfully.")
		}
	}
}

// violations returns one message per rule whose error-rate threshold is
// currently exceeded.
func (a *Alerter) violations() []string {
	var messages []string
	for _, rule := range a.rules {
		snap := a.registry.Counter(rule.StorageName).Snapshot()
		total := snap.Requests + snap.Errors
		if total == 0 {
			continue
		}
		rate := float64(snap.Errors) / float64(total)
		if rate > rule.MaxErrorRate {
			messages = append(messages, fmt.Sprintf(
				"<p>Counter <b>%s</b> of application <b>%s</b>: error rate %.2f%% exceeds threshold %.2f%% (%d errors / %d calls)</p>",
				rule.StorageName, snap.Application, rate*100, rule.MaxErrorRate*100, snap.Errors, total))
		}
	}
	return messages
}
