// praxisd is the competency training daemon: it owns the session store, the
// AI provider connection, and the background scheduler that advances training
// sessions, and serves metrics and health over HTTP.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praxislabs/praxis/internal/agents"
	"github.com/praxislabs/praxis/internal/cache"
	"github.com/praxislabs/praxis/internal/config"
	"github.com/praxislabs/praxis/internal/database"
	"github.com/praxislabs/praxis/internal/events"
	"github.com/praxislabs/praxis/internal/grading"
	"github.com/praxislabs/praxis/internal/knowledge"
	"github.com/praxislabs/praxis/internal/metrics"
	"github.com/praxislabs/praxis/internal/provider"
	"github.com/praxislabs/praxis/internal/question"
	"github.com/praxislabs/praxis/internal/scheduler"
	"github.com/praxislabs/praxis/internal/training"
	"github.com/praxislabs/praxis/pkg/models"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("praxisd v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", *configPath, err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	m := metrics.New()

	backend, closeCache, err := openCache(cfg)
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}
	defer closeCache()

	directory := buildDirectory(cfg, backend, m)

	registry := provider.NewRegistry(m)
	if err := registry.Register(&provider.Config{
		ID:       cfg.Provider.ID,
		Name:     cfg.Provider.Name,
		Type:     cfg.Provider.Type,
		Endpoint: cfg.Provider.Endpoint,
		APIKey:   cfg.Provider.APIKey,
		Model:    cfg.Provider.Model,
	}); err != nil {
		log.Fatalf("failed to register provider: %v", err)
	}
	prov, err := registry.Get(cfg.Provider.ID)
	if err != nil {
		log.Fatalf("failed to resolve provider: %v", err)
	}

	sink := events.NewFanout()
	if cfg.NATS.Enabled {
		natsSink, err := events.NewNatsSink(events.NatsConfig{
			URL:        cfg.NATS.URL,
			StreamName: cfg.NATS.Stream,
			Timeout:    10 * time.Second,
		})
		if err != nil {
			log.Printf("Warning: NATS sink unavailable, events stay local: %v", err)
		} else {
			sink.Add(natsSink)
			defer natsSink.Close()
		}
	}

	orchestrator := training.NewOrchestrator(
		db,
		directory,
		question.NewGenerator(prov, m),
		grading.NewEngine(grading.NewProviderRubric(prov), m),
		knowledge.NewStore(db),
		training.NewAutoAnswerSource(cfg.Training.AutoAccuracy, time.Now().UnixNano()),
		sink,
		m,
		training.Config{
			PassingScores:  cfg.Training.PassingScores,
			QuestionCounts: cfg.Training.QuestionCounts,
		},
	)

	sched := scheduler.New(db, orchestrator, directory, knowledge.NewStore(db), scheduler.Config{
		Interval:      cfg.Scheduler.Interval.Std(),
		PhaseDuration: cfg.Scheduler.PhaseDuration.Std(),
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
		AllowAll:      cfg.Scheduler.AllowAll,
	}, nil, m)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(runCtx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"version":   version,
			"scheduler": sched.Describe(),
		})
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("praxisd v%s listening on %s", version, httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Printf("praxisd stopped")
}

func openDatabase(cfg *config.Config) (*database.Database, error) {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.DSN != "" {
			return database.NewPostgres(cfg.Database.DSN)
		}
		return database.NewFromEnv()
	default:
		return database.New(cfg.Database.Path)
	}
}

func openCache(cfg *config.Config) (cache.Backend, func(), error) {
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cache.DefaultConfig())
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { rc.Close() }, nil
	}
	c := cache.New(cache.DefaultConfig())
	return c, func() { c.Close() }, nil
}

func buildDirectory(cfg *config.Config, backend cache.Backend, m *metrics.Metrics) agents.Directory {
	roster := agents.NewStaticDirectory()
	for _, a := range cfg.Agents {
		roster.Add(&models.Agent{ID: a.ID, Name: a.Name, Role: a.Role, Status: "idle"})
	}
	return agents.NewCachedDirectory(roster, backend, 5*time.Minute, m)
}
