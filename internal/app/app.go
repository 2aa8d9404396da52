// Package app wires configuration, error reporting and storage for the
// fractune binaries.
package app

import (
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/james-see/fractune/internal/config"
	"github.com/james-see/fractune/pkg/store"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry initializes Sentry when a DSN is configured. The returned
// function flushes pending events and is safe to call either way.
func InitSentry(cfg *config.Config, release string) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "fractune@" + release,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            !cfg.IsProduction(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
			}
			return event
		},
	}); err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return func() {}
	}
	log.Printf("Sentry initialized (environment: %s, release: %s)", cfg.Environment, release)
	return func() { sentry.Flush(sentryFlushTimeout) }
}

// OpenRepository returns the PostgreSQL repository when DATABASE_URL is set
// and the in-memory repository otherwise
func OpenRepository(cfg *config.Config) (store.Repository, error) {
	if !cfg.UsesDatabase() {
		return store.NewMemoryRepository(), nil
	}
	db, err := store.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}
	return store.NewGormRepository(db), nil
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
