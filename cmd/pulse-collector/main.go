package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"AppPulse/internal/config"
	"AppPulse/internal/forwarder"
	"AppPulse/internal/model"
	"AppPulse/internal/sink"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting pulse-collector...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect the ClickHouse sink
	writer, err := sink.NewClickHouseWriter(cfg.Collector.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to create ClickHouse writer: %v", err)
	}
	defer writer.Close()

	// 3. Subscribe to the snapshot bus
	sub, err := forwarder.NewSubscriber(cfg.Collector.NATS)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.Start(func(batch model.SnapshotBatch) {
		if batch.System != nil {
			log.Printf("Application '%s': cpu=%.1f%% rss=%d goroutines=%d",
				batch.Application, batch.System.CPUPercent, batch.System.RSSBytes, batch.System.Goroutines)
		}
		if err := writer.Write(batch); err != nil {
			log.Printf("Error writing snapshot batch for '%s': %v", batch.Application, err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	// 4. Wait for a shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping collector...")
}
