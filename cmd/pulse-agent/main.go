package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AppPulse/internal/agent"
	"AppPulse/internal/alerter"
	"AppPulse/internal/config"
	"AppPulse/internal/notification"

	"github.com/gorilla/mux"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting pulse-agent...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Create and start the agent
	ag, err := agent.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create agent: %v", err)
	}
	if err := ag.Start(); err != nil {
		log.Fatalf("Failed to start agent: %v", err)
	}

	// 3. Start the alerter when enabled
	var alrt *alerter.Alerter
	if cfg.Alerter.Enabled {
		notifier := notification.NewEmailNotifier(cfg.SMTP)
		alrt, err = alerter.NewAlerter(&cfg.Alerter, ag.Registry(), notifier)
		if err != nil {
			log.Fatalf("Failed to create alerter: %v", err)
		}
		go alrt.Start()
	}

	// 4. Expose the recording and inspection API
	r := mux.NewRouter()
	handler := &agentHandler{registry: ag.Registry()}
	r.HandleFunc("/api/v1/record", handler.recordHandler).Methods("POST")
	r.HandleFunc("/api/v1/counters", handler.countersHandler).Methods("GET")

	server := &http.Server{
		Addr:    cfg.Agent.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("Agent API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// 5. Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping agent...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if alrt != nil {
		alrt.Stop()
	}
	ag.Stop()
	log.Println("Shutdown complete.")
}

// agentHandler holds the dependencies for the agent's HTTP handlers.
type agentHandler struct {
	registry *agent.Registry
}

// recordRequest is the payload accepted by the record endpoint.
type recordRequest struct {
	StorageName string `json:"storage_name"`
	DurationMs  int64  `json:"duration_ms"`
	Error       bool   `json:"error"`
}

// recordHandler records one request or error on the named counter.
func (h *agentHandler) recordHandler(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}
	if req.StorageName == "" {
		http.Error(w, "storage_name is required", http.StatusBadRequest)
		return
	}

	if req.Error {
		h.registry.RecordError(req.StorageName)
	} else {
		h.registry.RecordRequest(req.StorageName, time.Duration(req.DurationMs)*time.Millisecond)
	}
	w.WriteHeader(http.StatusNoContent)
}

// countersHandler returns the current snapshot of every counter.
func (h *agentHandler) countersHandler(w http.ResponseWriter, r *http.Request) {
	snapshots := h.registry.Snapshots()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		log.Printf("Error encoding counters response: %v", err)
	}
}
