package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/bizpilot/go-auth-client/authapi"
	"github.com/bizpilot/go-auth-client/connect/relay"
	"github.com/bizpilot/go-auth-client/graph"
	"github.com/bizpilot/go-auth-client/internal/config"
	applog "github.com/bizpilot/go-auth-client/internal/log"
	"github.com/bizpilot/go-auth-client/internal/metrics"
	"github.com/bizpilot/go-auth-client/server"
	"github.com/bizpilot/go-auth-client/session"
	"github.com/bizpilot/go-auth-client/session/storage"
	"github.com/bizpilot/go-auth-client/session/storage/filestore"
	"github.com/bizpilot/go-auth-client/session/storage/redisstore"
)

func main() {
	for {
		if err := run(); err != nil {
			zlog.Fatal().Err(err).Msg("error running connectd")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	zlog.Info().Msg("connectd stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := applog.New(c.GetEnv())
	zlog.Logger = logger
	displayAppname(c.GetAppName())

	repo, err := buildStorage(c)
	if err != nil {
		return fmt.Errorf("buildStorage: %w", err)
	}

	collector := metrics.NewCollector()

	authClient := authapi.NewClient(c.GetAuthBaseURL(),
		authapi.WithRequestTimeout(c.GetAuthRequestTimeout()),
	)
	store, err := session.NewStore(authClient, repo,
		session.WithLogger(logger),
		session.WithOpRecorder(collector),
		session.WithLogoutNotifyTimeout(c.GetLogoutNotifyTimeout()),
	)
	if err != nil {
		return fmt.Errorf("session.NewStore: %w", err)
	}

	ctx := context.Background()
	if err := store.Hydrate(ctx); err != nil {
		logger.Warn().Err(err).Msg("session hydration had storage errors, starting logged out")
	}

	graphClient := graph.NewClient(
		c.GetGraphBaseURL(),
		graph.WithRequestsPerSecond(c.GetGraphRequestsPerSecond()),
		graph.WithLatencyRecorder(collector),
	)
	// The channel is both sides of the relay: callbacks send into it, the
	// dashboard drains it through the events route.
	channel := relay.NewChannel(c.GetAllowedOrigin(), 16)

	srv, err := server.New(c, store, graphClient, channel, channel, collector)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildStorage(c config.Config) (storage.Repo, error) {
	switch c.GetStorageBackend() {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		return redisstore.New(client), nil
	default:
		key, err := snapshotKey(c)
		if err != nil {
			return nil, err
		}
		return filestore.New(c.GetDataFolder(), key)
	}
}

// snapshotKey returns the configured sealing key, or generates one and
// persists it beside the snapshot so the session survives restarts.
func snapshotKey(c config.Config) ([]byte, error) {
	if configured := c.GetSnapshotKey(); configured != "" {
		key, err := hex.DecodeString(configured)
		if err != nil {
			return nil, fmt.Errorf("SNAPSHOT_KEY is not valid hex: %w", err)
		}
		return key, nil
	}

	keyPath := filepath.Join(c.GetDataFolder(), "snapshot.key")
	if raw, err := os.ReadFile(keyPath); err == nil {
		return hex.DecodeString(string(raw))
	}

	key, err := filestore.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.GetDataFolder(), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func listenAndServe(httpServer *http.Server) {
	zlog.Info().Str("addr", httpServer.Addr).Msg("connectd listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Error().Err(err).Msg("ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
