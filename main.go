package main

import (
	"log"
	"net/http"
	"time"

	"github.com/serroba/crdt-docs/internal/acl"
	"github.com/serroba/crdt-docs/internal/api"
	"github.com/serroba/crdt-docs/internal/collab"
	"github.com/serroba/crdt-docs/internal/config"
	"github.com/serroba/crdt-docs/internal/storage"
	"github.com/serroba/crdt-docs/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Initialize stores
	var store storage.Store
	if cfg.SQLitePath != "" {
		sqliteStore, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("SQLite error: %v", err)
		}

		defer func() {
			if err := sqliteStore.Close(); err != nil {
				log.Printf("Failed to close store: %v", err)
			}
		}()

		store = sqliteStore

		log.Printf("Using SQLite store at %s", cfg.SQLitePath)
	} else {
		store = storage.NewMemoryStore()

		log.Printf("Using in-memory store")
	}

	permStore := acl.NewMemoryStore()

	// Initialize WebSocket hub
	hub := ws.NewHub()

	// Initialize session manager
	manager := collab.NewManager(collab.ManagerConfig{
		Store:          store,
		PermStore:      permStore,
		Hub:            hub,
		SnapshotPolicy: storage.NewSnapshotPolicy(cfg.SnapshotThreshold),
	})

	defer func() {
		if err := manager.CloseAll(); err != nil {
			log.Printf("Failed to close sessions: %v", err)
		}
	}()

	// Initialize API server
	server := api.NewServer(api.ServerConfig{
		Manager:   manager,
		Store:     store,
		PermStore: permStore,
		Hub:       hub,
	})

	// Configure HTTP server with timeouts
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.ListenAddr)

	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
