package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anatolykoptev/go-vk/crawl"
)

var (
	// apiCallsTotal counts VK API calls by method and result (ok, error, rate_limited).
	apiCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkcrawl_api_calls_total",
		Help: "VK API calls by method and result",
	}, []string{"method", "result"})

	crawlNodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkcrawl_nodes_total",
		Help: "Crawled nodes by outcome",
	}, []string{"outcome"})

	crawlEdgesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vkcrawl_edges_total",
		Help: "Edge upserts written to the graph store",
	})
)

func apiResult(success, rateLimited bool) string {
	switch {
	case success:
		return "ok"
	case rateLimited:
		return "rate_limited"
	}
	return "error"
}

// observeSummary folds a finished crawl into the crawl counters.
func observeSummary(sum *crawl.Summary) {
	crawlNodesTotal.WithLabelValues("processed").Add(float64(sum.Processed))
	crawlNodesTotal.WithLabelValues("depth_capped").Add(float64(sum.DepthCapped))
	for _, sk := range sum.Skipped {
		crawlNodesTotal.WithLabelValues(sk.Reason).Inc()
	}
	crawlEdgesTotal.Add(float64(sum.Edges))
}

// serveMetrics exposes /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		slog.Info("metrics listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server", slog.Any("error", err))
		}
	}()
}
