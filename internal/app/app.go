package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/auxroom/server/internal/controller"
	pubsubRedis "github.com/auxroom/server/internal/pubsub/redis"
	"github.com/auxroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/auxroom/server/internal/repository/room/redis"
	"github.com/auxroom/server/internal/service/poller"
	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/internal/upstream/spotify"
	"github.com/auxroom/server/pkg/ctxlogger"
	"github.com/auxroom/server/pkg/randstr"
	"github.com/auxroom/server/pkg/redisclient"
)

type AppConfig struct {
	Host                string `json:"host"`
	Port                int    `json:"port"`
	LogLevel            string `json:"log_level"`
	PollIntervalMs      int    `json:"poll_interval_ms"`
	ReconcileIntervalMs int    `json:"reconcile_interval_ms"`
	SeekToleranceMs     int    `json:"seek_tolerance_ms"`
	ErrorThreshold      int    `json:"error_threshold"`
	PlaybackTTLSec      int    `json:"playback_ttl_sec"`
	SendTimeoutMs       int    `json:"send_timeout_ms"`
	RedisHost           string `json:"redis_host"`
	RedisPort           int    `json:"redis_port"`
	RedisPassword       string `json:"-"`
	SpotifyApiUrl       string `json:"spotify_api_url"`
	SpotifyAccountsUrl  string `json:"spotify_accounts_url"`
	SpotifyClientId     string `json:"spotify_client_id"`
	SpotifyClientSecret string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.PollIntervalMs < 100 {
		return fmt.Errorf("poll interval must be at least 100ms")
	}
	if cfg.ReconcileIntervalMs < cfg.PollIntervalMs {
		return fmt.Errorf("reconcile interval must not be shorter than the poll interval")
	}
	if cfg.ErrorThreshold < 1 {
		return fmt.Errorf("error threshold must be greater than 0")
	}
	if cfg.PlaybackTTLSec < 1 {
		return fmt.Errorf("playback ttl must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	clock := clockwork.NewRealClock()

	roomRepo := roomRedis.NewRepo(rc,
		24*time.Hour,
		time.Duration(cfg.PlaybackTTLSec)*time.Second,
		5*time.Minute,
		logger,
	)
	connectionRepo := inmemory.NewRepo(logger)
	ps := pubsubRedis.NewPubSub(rc, logger)
	upstream := spotify.NewClient(&spotify.Config{
		ApiBaseUrl:      cfg.SpotifyApiUrl,
		AccountsBaseUrl: cfg.SpotifyAccountsUrl,
		ClientId:        cfg.SpotifyClientId,
		ClientSecret:    cfg.SpotifyClientSecret,
		RequestTimeout:  time.Duration(cfg.PollIntervalMs) * time.Millisecond,
	})

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	generator := randstr.New(letterBytes)

	roomService := room.NewService(roomRepo, connectionRepo, ps, generator, clock,
		time.Duration(cfg.SendTimeoutMs)*time.Millisecond, logger)

	supervisor := poller.NewSupervisor(poller.Config{
		PollInterval:      time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		ReconcileInterval: time.Duration(cfg.ReconcileIntervalMs) * time.Millisecond,
		SeekTolerance:     time.Duration(cfg.SeekToleranceMs) * time.Millisecond,
		ErrorThreshold:    cfg.ErrorThreshold,
	}, roomRepo, upstream, ps, clock, logger)

	ctrl := controller.NewController(roomService, supervisor, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	supervisorCtx, stopSupervisor := context.WithCancel(ctx)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(supervisorCtx)
	}()

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		// stop polling before the listener so viewers don't receive
		// events from a server that is already refusing connections
		stopSupervisor()
		<-supervisorDone

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
