package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/completion"
	"github.com/example/lessontrack/internal/platform/analytics"
	"github.com/example/lessontrack/internal/platform/auth"
	"github.com/example/lessontrack/internal/platform/config"
	"github.com/example/lessontrack/internal/platform/db"
	"github.com/example/lessontrack/internal/platform/httpserver"
	"github.com/example/lessontrack/internal/platform/logging"
	"github.com/example/lessontrack/internal/platform/natsconn"
	"github.com/example/lessontrack/internal/platform/run"
	"github.com/example/lessontrack/internal/platform/signing"
	"github.com/example/lessontrack/internal/progress"
	"github.com/example/lessontrack/internal/reset"
	"github.com/example/lessontrack/internal/resource"
	"github.com/example/lessontrack/internal/track"
	"github.com/example/lessontrack/internal/videoapi"
	"github.com/example/lessontrack/internal/webservice"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		return start(ctx, cfg, log)
	})
	run.Exit(code)
}

func start(ctx context.Context, cfg config.AppConfig, log *zap.Logger) error {
	pool, err := db.Open(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	signer := signing.New(cfg.Platform.Secret, cfg.ServiceName)
	videos := videoapi.New(cfg.Platform.BaseURL, cfg.Platform.APIKey, cfg.Platform.Origin, signer)

	catalog := resource.NewPostgresCatalog(pool, videos)
	ledger := track.NewPostgresLedger(pool)

	var host completion.Host
	if cfg.Host.BaseURL != "" {
		host = completion.NewHTTPHost(cfg.Host.BaseURL, cfg.Host.Token)
	} else {
		log.Warn("HOST_API_URL not set, using in-memory completion host")
		host = completion.NewInMemoryHost()
	}
	bridge := completion.NewBridge(host, log)

	sync := progress.NewSynchronizer(catalog, ledger, videos, host, bridge, log)

	// NATS is optional: without it, reset events go unconsumed and
	// analytics events are dropped.
	var publisher *analytics.Publisher
	if strings.TrimSpace(os.Getenv("NATS_URL")) != "" {
		nc, err := natsconn.Connect(natsconn.Options{Name: cfg.ServiceName})
		if err != nil {
			return err
		}
		defer nc.Close()

		js, err := nc.JetStream()
		if err != nil {
			return err
		}
		publisher = analytics.New(js, log)

		observer := reset.NewObserver(ledger, cfg.ClearWatchedOnReset, log)
		reset.StartConsumer(ctx, nc, observer, log)
	} else {
		log.Warn("NATS_URL not set, reset consumer and analytics disabled")
	}

	router := chi.NewRouter()
	httpserver.SetupRouter(router, cfg.HTTP.AllowedOrigins)
	webservice.Mount(router, webservice.Deps{
		Sync:      sync,
		Ledger:    ledger,
		Analytics: publisher,
		Verifier:  auth.JWTVerifier{Secret: []byte(cfg.AuthSecret)},
		Log:       log,
	})

	srv := httpserver.New(httpserver.Options{
		Addr:        cfg.HTTP.Addr,
		ServiceName: cfg.ServiceName,
		Logger:      log,
		Router:      router,
	})

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, log)
	}()

	return srv.Start()
}

func shutdownHTTP(srv *httpserver.Server, log *zap.Logger) {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(c); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
