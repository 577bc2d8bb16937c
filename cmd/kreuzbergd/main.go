// Command kreuzbergd is a minimal illustrative HTTP front door over the
// kreuzberg engine: three routes forwarding JSON to the public API. It is
// not part of the core extraction system, just a runnable entry point.
package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kreuzberg/kreuzberg-go"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/obslog"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/svcconfig"
)

type extractRequest struct {
	Content  []byte                    `json:"content"`
	MimeHint string                    `json:"mime_hint"`
	Config   *kconfig.ExtractionConfig `json:"config"`
}

type batchExtractRequest struct {
	Items  []kreuzberg.BytesItem     `json:"items"`
	Config *kconfig.ExtractionConfig `json:"config"`
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := obslog.New("kreuzbergd", cfg.Environment == "development")
	engine, err := kreuzberg.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/v1/extract", func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, err := engine.ExtractBytes(r.Context(), req.Content, req.MimeHint, req.Config)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, result)
	})

	mux.HandleFunc("/v1/extract/batch", func(w http.ResponseWriter, r *http.Request) {
		var req batchExtractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		results := engine.BatchExtractBytes(r.Context(), req.Items, req.Config)
		writeJSON(w, results)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":8080"
	logger.Info("kreuzbergd listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("kreuzbergd: failed to encode response: %v", err)
	}
}
