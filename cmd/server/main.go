// Package main is the entry point for the fractune API server
package main

import (
	"flag"
	"log"

	"github.com/getsentry/sentry-go"
	"github.com/james-see/fractune/internal/app"
	"github.com/james-see/fractune/internal/config"
	"github.com/james-see/fractune/pkg/api"
	"github.com/james-see/fractune/pkg/engine"
	"github.com/joho/godotenv"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	flush := app.InitSentry(cfg, releaseVersion)
	defer flush()

	repo, err := app.OpenRepository(cfg)
	if err != nil {
		sentry.CaptureException(err)
		flush()
		log.Fatal("Failed to open repository: ", err)
	}

	log.Printf("Starting fractune API server on port %s", cfg.Port)
	log.Printf("Swagger docs available at http://localhost:%s/swagger/index.html", cfg.Port)

	if err := api.NewServer(cfg, engine.New(engine.DefaultConfig()), repo).Run(); err != nil {
		sentry.CaptureException(err)
		flush()
		log.Fatal("Server error: ", err)
	}
}
