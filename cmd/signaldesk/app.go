package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/jmoiron/sqlx"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/otcflow/signaldesk/internal/application"
	"github.com/otcflow/signaldesk/internal/cache"
	"github.com/otcflow/signaldesk/internal/calendar"
	"github.com/otcflow/signaldesk/internal/chat"
	"github.com/otcflow/signaldesk/internal/domain"
	httpapi "github.com/otcflow/signaldesk/internal/interfaces/http"
	"github.com/otcflow/signaldesk/internal/metrics"
	"github.com/otcflow/signaldesk/internal/news"
	"github.com/otcflow/signaldesk/internal/notify"
	"github.com/otcflow/signaldesk/internal/parser"
	"github.com/otcflow/signaldesk/internal/reconcile"
	"github.com/otcflow/signaldesk/internal/score"
	"github.com/otcflow/signaldesk/internal/stats"
	"github.com/otcflow/signaldesk/internal/store"
	"github.com/otcflow/signaldesk/internal/store/postgres"
)

// app holds the wired component graph for one command invocation.
type app struct {
	cfg       *application.Config
	metrics   *metrics.Registry
	scorer    *application.Scorer
	provider  *application.SnapshotProvider
	refresher *calendar.Refresher
	signalLog store.SignalLog
	notifier  notify.Notifier
	db        *sqlx.DB
	redis     *redis.Client
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func loadConfig(cmd *cobra.Command) (*application.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *application.Config
	if path == "" {
		cfg = application.DefaultConfig()
	} else {
		var err error
		cfg, err = application.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		cfg.LogLevel = override
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	return cfg, nil
}

// buildApp wires the graph. The stats snapshot comes from --stats-file; live
// sheet and chat transports are deployment concerns plugged in elsewhere.
func buildApp(cmd *cobra.Command, cfg *application.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.NewRegistry(), notifier: notify.LogNotifier{}}

	var snapCache cache.Cache
	var state calendar.StateStore
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		snapCache = cache.NewRedis(a.redis)
		state = calendar.NewRedisState(a.redis, "")
	} else {
		snapCache = cache.NewMemory()
		state = calendar.NewMemoryState()
	}

	statsPath, _ := cmd.Flags().GetString("stats-file")
	if statsPath == "" {
		return nil, errors.New("no stats source configured: pass --stats-file")
	}
	a.provider = application.NewSnapshotProvider(stats.FileSource{Path: statsPath}, snapCache, cfg.SnapshotTTL())

	matcher := news.NewMatcher(cfg.ImpactWindows())
	engine := score.NewEngine(cfg.Scoring, matcher)
	a.scorer = application.NewScorer(engine, matcher, a.provider,
		cfg.Thresholds, cfg.AllowPartialSnapshot, a.metrics)

	a.refresher = calendar.NewRefresher(application.StatsCalendarSource{Provider: a.provider}, state)

	if cfg.Postgres.DSN != "" {
		db, err := sqlx.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.db = db
		pg := postgres.NewLog(db, cfg.PostgresTimeout())
		if err := pg.EnsureSchema(context.Background()); err != nil {
			a.Close()
			return nil, err
		}
		a.signalLog = pg
		log.Info().Msg("canonical log backed by postgres")
	} else {
		a.signalLog = store.NewMemoryLog()
		log.Warn().Msg("no postgres dsn configured, canonical log is in-memory")
	}

	return a, nil
}

func (a *app) newPipeline(stream chat.Stream) *application.Pipeline {
	writer := reconcile.NewWriter(a.signalLog, a.cfg.WriterConfig())
	pruner := reconcile.NewPruner(a.signalLog, a.cfg.RetentionCap)
	return application.NewPipeline(stream, parser.New(), a.signalLog,
		writer, pruner, a.cfg.FetchLimit, a.metrics)
}

func replayStream(cmd *cobra.Command) (*chat.ReplayStream, error) {
	path, _ := cmd.Flags().GetString("chat-replay")
	if path == "" {
		return nil, errors.New("no chat source configured: pass --chat-replay")
	}
	msgs, err := chat.LoadMessages(path)
	if err != nil {
		return nil, err
	}
	return &chat.ReplayStream{Messages: msgs}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	stream, err := replayStream(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	summary, err := a.newPipeline(stream).RunPass(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("pass %s: %d messages, %d candidates, %d writes applied, %d rows pruned\n",
		summary.Plan.PassID, summary.Messages, summary.Candidates, summary.Applied, summary.Pruned)
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	stream, err := replayStream(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	srv := httpapi.NewServer(serverConfig(cfg), a.scorer, a.metrics)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}()
	defer srv.Shutdown(context.Background())

	mon := application.NewMonitor(stream, parser.New(), a.scorer, a.newPipeline(stream),
		a.refresher, a.notifier, cfg.PostSignalDelay())

	err = mon.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("monitor stopped")
		return nil
	}
	return err
}

func runScore(cmd *cobra.Command, args []string) error {
	asset, _ := cmd.Flags().GetString("asset")
	timeStr, _ := cmd.Flags().GetString("time")
	if asset == "" || timeStr == "" {
		return errors.New("both --asset and --time are required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	res, err := a.scorer.Score(ctx, asset, timeStr)
	if err != nil {
		return err
	}

	raw, err := a.provider.Raw(ctx)
	var nearby []domain.NewsEvent
	if err == nil {
		nearby = a.scorer.NearbyNews(news.ParseRows(raw.NewsRows), res.Time, 3)
	}
	fmt.Print(notify.FormatReport(notify.Report{Result: res, NearbyNews: nearby}))
	return nil
}

func runCalendarRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	events, fetched, err := a.refresher.RefreshIfStale(ctx)
	if err != nil {
		return err
	}
	if !fetched {
		fmt.Println("calendar already refreshed today")
		return nil
	}
	fmt.Printf("calendar refreshed: %d events\n", len(events))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	srv := httpapi.NewServer(serverConfig(cfg), a.scorer, a.metrics)
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()
	return srv.Start()
}

func serverConfig(cfg *application.Config) httpapi.ServerConfig {
	sc := httpapi.DefaultServerConfig()
	if cfg.HTTP.Listen != "" {
		sc.Listen = cfg.HTTP.Listen
	}
	return sc
}
