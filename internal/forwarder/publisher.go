// Package forwarder moves counter snapshot batches between the agent and
// the collector over NATS, encoded as JSON.
package forwarder

import (
	"encoding/json"
	"log"

	"AppPulse/internal/config"
	"AppPulse/internal/model"

	"github.com/nats-io/nats.go"
)

// Publisher is responsible for publishing snapshot batches to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Write serializes a snapshot batch to JSON and publishes it to the
// configured NATS subject. It implements model.Writer.
func (p *Publisher) Write(batch model.SnapshotBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
