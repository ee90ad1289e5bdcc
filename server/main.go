package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gravity-artillery/duel"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "", "Path to a static client directory (empty: API only)")
	seed := flag.Uint64("seed", 0, "Field seed for the first room, incremented per room (0: random)")
	bodies := flag.Int("bodies", 0, "Gravity bodies per field (0: default)")
	lives := flag.Int("lives", 0, "Starting lives per planet (0: default)")
	reveal := flag.Duration("reveal", RevealDelay, "Delay clients wait before showing a round winner")
	flag.Parse()

	cfg := duel.DefaultConfig()
	if *bodies > 0 {
		cfg.BodyCount = *bodies
	}
	if *lives > 0 {
		cfg.StartingLives = *lives
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	RevealDelay = *reveal

	hub := NewHub(cfg, *seed)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Printf("Server starting on %s", *addr)
		if *clientDir != "" {
			log.Printf("Serving client files from %s", *clientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	hub.Shutdown()
}
