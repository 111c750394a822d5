// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the scadabind main function that starts the data
// source manager, the binding dispatcher and the management API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
	bindingapi "github.com/absmach/scadabind/binding/api"
	bindinghttp "github.com/absmach/scadabind/binding/api/http"
	bindingtracing "github.com/absmach/scadabind/binding/tracing"
	"github.com/absmach/scadabind/forwarder"
	fwtracing "github.com/absmach/scadabind/forwarder/tracing"
	"github.com/absmach/scadabind/internal"
	"github.com/absmach/scadabind/internal/clients/jaeger"
	"github.com/absmach/scadabind/internal/env"
	"github.com/absmach/scadabind/internal/server"
	httpserver "github.com/absmach/scadabind/internal/server/http"
	sblog "github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/normalizer"
	normalizerapi "github.com/absmach/scadabind/normalizer/api"
	"github.com/absmach/scadabind/pkg/ulid"
	"github.com/absmach/scadabind/pkg/uuid"
	"github.com/absmach/scadabind/sources"
	sourcesapi "github.com/absmach/scadabind/sources/api"
	sourceshttp "github.com/absmach/scadabind/sources/api/http"
	sourcestracing "github.com/absmach/scadabind/sources/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	svcName        = "scadabind"
	envPrefix      = "SCADA_"
	envPrefixHTTP  = "SCADA_HTTP_"
	defSvcHTTPPort = "9030"
)

type config struct {
	LogLevel    string        `env:"LOG_LEVEL"    envDefault:"info"`
	SourcesFile string        `env:"SOURCES_FILE" envDefault:"sources.toml"`
	NodesFile   string        `env:"NODES_FILE"   envDefault:""`
	NatsURL     string        `env:"NATS_URL"     envDefault:""`
	NatsSubject string        `env:"NATS_SUBJECT" envDefault:"scada.raw"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	InstanceID  string        `env:"INSTANCE_ID"  envDefault:""`
	JaegerURL   url.URL       `env:"JAEGER_URL"   envDefault:""`
	TraceRatio  float64       `env:"JAEGER_TRACE_RATIO" envDefault:"1.0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}

	logger, err := sblog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err)
	}

	if cfg.InstanceID == "" {
		if cfg.InstanceID, err = uuid.New().ID(); err != nil {
			logger.Fatal(fmt.Sprintf("failed to generate instanceID: %s", err))
		}
	}

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Fatal(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
	}

	tracer, shutdown, err := jaeger.Tracer(ctx, svcName, cfg.JaegerURL, cfg.InstanceID, cfg.TraceRatio)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to init Jaeger: %s", err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error(fmt.Sprintf("error shutting down tracer provider: %v", err))
		}
	}()

	norm := newNormalizer(logger)
	svc := newSourcesService(norm, &http.Client{Timeout: cfg.HTTPTimeout}, tracer, logger)

	store := binding.NewNodeStore()
	if cfg.NodesFile != "" {
		if err := store.Load(cfg.NodesFile); err != nil {
			logger.Fatal(fmt.Sprintf("failed to load nodes: %s", err))
		}
		logger.Info(fmt.Sprintf("Loaded %d nodes from %s", len(store.Nodes()), cfg.NodesFile))
	}
	bsvc := newBindingService(store, tracer, logger)

	unsubscribe := svc.OnData(func(sourceID string, payload any) {
		if _, err := bsvc.Dispatch(ctx, sourceID, payload); err != nil {
			logger.Warn(fmt.Sprintf("Failed to dispatch payload of data source %s: %s", sourceID, err))
		}
	})
	defer unsubscribe()

	if cfg.NatsURL != "" {
		nc, err := forwarder.Connect(cfg.NatsURL)
		if err != nil {
			logger.Fatal(fmt.Sprintf("failed to connect to NATS: %s", err))
		}
		defer nc.Close()

		fw := forwarder.New(nc, cfg.NatsSubject, ulid.New())
		fwsvc := fwtracing.New(tracer, fw, cfg.NatsSubject)
		defer svc.OnData(forwarder.Forward(fwsvc, logger))()
		logger.Info(fmt.Sprintf("Forwarding raw payloads to %s under %s", cfg.NatsURL, cfg.NatsSubject))
	}

	if err := loadSources(ctx, cfg.SourcesFile, svc, logger); err != nil {
		logger.Fatal(fmt.Sprintf("failed to load data sources: %s", err))
	}

	mux := chi.NewRouter()
	mux.Get("/health", scadabind.Health(svcName, cfg.InstanceID))
	mux.Handle("/metrics", promhttp.Handler())
	sourceshttp.MakeHandler(svc, mux, logger)
	bindinghttp.MakeHandler(bsvc, mux, logger)

	hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, mux, logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}

	if err := svc.DisconnectAll(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("failed to disconnect data sources: %s", err))
	}
}

func newNormalizer(logger sblog.Logger) normalizer.Service {
	norm := normalizer.New()
	norm = normalizerapi.LoggingMiddleware(norm, logger)
	counter, latency := internal.MakeMetrics(svcName, "normalizer")
	return normalizerapi.MetricsMiddleware(norm, counter, latency)
}

func newSourcesService(norm normalizer.Service, client *http.Client, tracer trace.Tracer, logger sblog.Logger) sources.Service {
	factory := sources.NewConnectorFactory(uuid.New(), client)
	svc := sources.New(factory, norm, uuid.New(), logger)
	svc = sourcestracing.New(svc, tracer)
	svc = sourcesapi.LoggingMiddleware(svc, logger)
	counter, latency := internal.MakeMetrics(svcName, "sources")
	return sourcesapi.MetricsMiddleware(svc, counter, latency)
}

func newBindingService(store binding.Store, tracer trace.Tracer, logger sblog.Logger) binding.Service {
	svc := binding.New(store)
	svc = bindingtracing.New(svc, tracer)
	svc = bindingapi.LoggingMiddleware(svc, logger)
	counter, latency := internal.MakeMetrics(svcName, "binding")
	return bindingapi.MetricsMiddleware(svc, counter, latency)
}

func loadSources(ctx context.Context, path string, svc sources.Service, logger sblog.Logger) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn(fmt.Sprintf("Data sources file %s not found, starting without sources", path))
		return nil
	}
	f, err := sources.LoadFile(path)
	if err != nil {
		return err
	}
	if err := f.Apply(ctx, svc); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Loaded %d data sources from %s", len(f.Sources), path))
	return nil
}
