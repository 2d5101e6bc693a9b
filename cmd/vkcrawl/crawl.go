package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/crawl"
	"github.com/anatolykoptev/go-vk/snapshot"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <user> [token] [output_dir]",
	Short: "Crawl outward from a user (numeric id or screen name)",
	Long: `Crawl fetches the user's profile, followers and subscriptions, writes them
to the graph store and repeats breadth-first for followers and subscribed
users up to --depth hops. token may be a comma-separated list; when omitted
it is taken from VK_TOKEN or the config file.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.Int("depth", 1, "maximum BFS depth; the root is depth 0")
	f.Duration("interval", 0, "minimum delay between API calls (default 330ms)")
	f.Int("followers-limit", 0, "followers fetched per user (default 1000)")
	f.Int("subscriptions-limit", 0, "subscriptions fetched per user (default 200)")
	f.Bool("mirror-followers", false, "also write FOLLOWED_BY edges from each user to its followers")
	f.Bool("snapshot-all", false, "write a JSON snapshot for every crawled user, not only the root")
	f.Bool("no-snapshot", false, "do not write JSON snapshots")
	f.Int("retries", 0, "retries for network failures per API call")
	f.Bool("jitter", false, "add randomized delay on top of --interval")
	f.String("proxy", "", "HTTP/SOCKS proxy URL")
	f.String("metrics-addr", "", "serve Prometheus /metrics on this address while crawling")
	addStoreFlags(crawlCmd)
}

func applyCrawlFlags(cmd *cobra.Command, args []string) {
	f := cmd.Flags()
	if len(args) > 1 {
		cfg.API.Tokens = args[1]
	}
	if len(args) > 2 {
		cfg.Crawl.OutputDir = args[2]
	}
	if f.Changed("depth") {
		cfg.Crawl.Depth, _ = f.GetInt("depth")
	}
	if f.Changed("interval") {
		cfg.API.Interval, _ = f.GetDuration("interval")
	}
	if f.Changed("followers-limit") {
		cfg.API.FollowersLimit, _ = f.GetInt("followers-limit")
	}
	if f.Changed("subscriptions-limit") {
		cfg.API.SubscriptionsLimit, _ = f.GetInt("subscriptions-limit")
	}
	if f.Changed("retries") {
		cfg.API.Retries, _ = f.GetInt("retries")
	}
	if f.Changed("proxy") {
		cfg.API.Proxy, _ = f.GetString("proxy")
	}
	for name, dst := range map[string]*bool{
		"mirror-followers": &cfg.Crawl.MirrorFollowers,
		"snapshot-all":     &cfg.Crawl.SnapshotAll,
		"no-snapshot":      &cfg.Crawl.NoSnapshot,
		"jitter":           &cfg.API.Jitter,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}
	applyStoreFlags(cmd, &cfg.Store)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	applyCrawlFlags(cmd, args)

	tokens := vk.ParseTokens(cfg.API.Tokens)
	if len(tokens) == 0 {
		return errors.New("no access token: pass it as the second argument, set VK_TOKEN or api.tokens")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		serveMetrics(ctx, addr)
	}

	stats := newCallStats()
	client, err := vk.NewClient(vk.ClientConfig{
		Tokens:      tokens,
		BaseURL:     cfg.API.BaseURL,
		Proxy:       cfg.API.Proxy,
		MinInterval: cfg.API.Interval,
		Jitter:      cfg.API.Jitter,
		MetricsHook: stats.record,
	})
	if err != nil {
		return err
	}

	root, err := client.GetUser(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}
	slog.Info("root resolved", slog.String("ref", args[0]), slog.Int64("id", int64(root.ID)), slog.String("name", root.DisplayName))

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close(context.WithoutCancel(ctx))
		return err
	}

	crawlCfg := crawl.Config{
		MaxDepth:        cfg.Crawl.Depth,
		MirrorFollowers: cfg.Crawl.MirrorFollowers,
		SnapshotAll:     cfg.Crawl.SnapshotAll,
	}
	if !cfg.Crawl.NoSnapshot {
		w, err := snapshot.New(cfg.Crawl.OutputDir)
		if err != nil {
			store.Close(context.WithoutCancel(ctx))
			return err
		}
		crawlCfg.Snapshot = w
	}

	asm := vk.NewAssembler(client, vk.AssemblerConfig{
		FollowersLimit:     cfg.API.FollowersLimit,
		SubscriptionsLimit: cfg.API.SubscriptionsLimit,
		Retries:            cfg.API.Retries,
	})

	// The crawler owns the store from here on and closes it.
	sum, err := crawl.New(asm, store, crawlCfg).Run(ctx, root.ID)
	stats.log()
	if sum != nil {
		observeSummary(sum)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(sum); encErr != nil {
			return encErr
		}
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("crawl interrupted; partial results were written")
		return nil
	}
	return err
}

// callStats aggregates MetricsHook callbacks per API method for the final
// log lines and feeds the Prometheus counters.
type callStats struct {
	mu      sync.Mutex
	started time.Time
	methods map[string]*methodStats
}

type methodStats struct {
	calls, ok, rateLimited int
}

func newCallStats() *callStats {
	return &callStats{started: time.Now(), methods: make(map[string]*methodStats)}
}

func (s *callStats) record(method string, success, rateLimited bool) {
	apiCallsTotal.WithLabelValues(method, apiResult(success, rateLimited)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[method]
	if !ok {
		m = &methodStats{}
		s.methods[method] = m
	}
	m.calls++
	if success {
		m.ok++
	}
	if rateLimited {
		m.rateLimited++
	}
}

func (s *callStats) log() {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := s.methods[name]
		slog.Info("api calls",
			slog.String("method", name),
			slog.Int("calls", m.calls),
			slog.Int("ok", m.ok),
			slog.Int("rate_limited", m.rateLimited))
	}
	slog.Info("api elapsed", slog.Duration("elapsed", time.Since(s.started)))
}
