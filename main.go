package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"mixaudit/app"
	"mixaudit/internal/config"
	"mixaudit/internal/logging"
	"mixaudit/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfgFile := flag.String("config", "", "path to an analysis profile (yaml)")
	addr := flag.String("addr", "", "listen address, overrides the configured one")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Init(cfg.Logs.Verbose, cfg.Logs.Dir)

	service := app.NewAnalysisService(cfg.Analysis.MaxConcurrentRuns)
	server, err := ui.NewServer(cfg, service)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	listenAddr := cfg.Server.WebAddr
	if *addr != "" {
		listenAddr = *addr
	}
	log.Printf("Starting web interface on %s", listenAddr)
	if err := server.Start(listenAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
