package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/leofalp/crewgraph/core/client"
	"github.com/leofalp/crewgraph/core/client/middleware"
	"github.com/leofalp/crewgraph/patterns/crew"
	"github.com/leofalp/crewgraph/providers/ai/registry"
	redislock "github.com/leofalp/crewgraph/providers/locker/redis"
	"github.com/leofalp/crewgraph/providers/observability"
	"github.com/leofalp/crewgraph/providers/observability/promobs"
	"github.com/leofalp/crewgraph/providers/observability/slogobs"
	"github.com/leofalp/crewgraph/providers/store/file"
)

// requestTimeout bounds a single LLM HTTP call, retries excluded.
const requestTimeout = 3 * time.Minute

// registryResolver resolves capability identifiers through the LLM registry.
// Every resolved capability is a client with retry, timeout and logging
// middlewares.
type registryResolver struct {
	registry *registry.Registry
	logs     *slogobs.Observer
	observer observability.Provider
}

func newResolver(logs *slogobs.Observer, observer observability.Provider) (*registryResolver, error) {
	llms, err := registry.Load(registryPath)
	if err != nil {
		return nil, err
	}
	return &registryResolver{registry: llms, logs: logs, observer: observer}, nil
}

func (r *registryResolver) Resolve(identifier string) (crew.Capability, error) {
	provider, config, err := r.registry.Build(identifier)
	if err != nil {
		return nil, err
	}

	logLevel := middleware.LogLevelStandard
	if verboseLLM {
		logLevel = middleware.LogLevelVerbose
	}

	opts := []client.Option{
		client.WithObserver(r.observer),
		client.WithMiddleware(
			middleware.NewLoggingMiddleware(r.logs.Logger(), logLevel),
			middleware.NewRetryMiddleware(middleware.RetryConfig{}),
			middleware.NewTimeoutMiddleware(requestTimeout),
		),
	}
	if config.Model != "" {
		opts = append(opts, client.WithDefaultModel(config.Model))
	}
	if config.Temperature > 0 {
		opts = append(opts, client.WithTemperature(config.Temperature))
	}

	llm, err := client.New(provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("building client for %q: %w", identifier, err)
	}
	return crew.NewClientCapability(llm), nil
}

// newObserver returns the log observer, wrapped with Prometheus metrics served
// on metricsAddr when it is set.
func newObserver(logs *slogobs.Observer, metricsAddr string) observability.Provider {
	if metricsAddr == "" {
		return logs
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := promobs.New(metrics, logs, promobs.WithNamespace("crewgraph"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return observer
}

// summaryLockOptions adds a redis-backed summary lock when redisAddr is set, so
// several crewgraph processes sharing a document folder summarize each document
// once.
func summaryLockOptions(redisAddr string) []crew.SummaryOption {
	if redisAddr == "" {
		return nil
	}
	backend := redis.NewClient(&redis.Options{Addr: redisAddr})
	return []crew.SummaryOption{crew.WithLocker(redislock.NewLocker(backend, "crewgraph:"), 0)}
}

// readRequest loads a diagram from path, or from the diagram store when path is
// not a file. A diagram file may carry "llm" and "followup" next to its nodes
// and links.
func readRequest(path string) (crew.RunRequest, error) {
	var request crew.RunRequest

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &request); err != nil {
			return request, fmt.Errorf("decoding %s: %w", path, err)
		}
		return request, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return request, err
	}

	store, err := diagramStore()
	if err != nil {
		return request, err
	}
	graph, err := store.Get(path)
	if err != nil {
		return request, fmt.Errorf("%s is neither a file nor a stored diagram: %w", path, err)
	}
	request.Graph = graph
	return request, nil
}

func diagramStore() (*file.Store[crew.Graph], error) {
	return file.New[crew.Graph](diagramsDir)
}
