// voiceloop-agent runs the session worker: it joins the configured room,
// serves one conversational session per connection, and reconnects when
// the session ends. Configuration is re-read from disk before every
// session so control-service updates take effect without a restart.
//
// Usage:
//
//	voiceloop-agent --config config.yaml
//
// Required environment: LIVEKIT_API_KEY, LIVEKIT_API_SECRET. LIVEKIT_URL
// defaults to ws://localhost:7880.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/agent"
	"github.com/BaSui01/voiceloop/config"
	"github.com/BaSui01/voiceloop/internal/cli"
	"github.com/BaSui01/voiceloop/internal/metrics"
	"github.com/BaSui01/voiceloop/internal/rtc"
)

const agentIdentity = "voiceloop-agent"

// reconnectDelay spaces out rejoin attempts after a session ends or
// fails, so a dead LiveKit server does not spin the loop.
const reconnectDelay = 2 * time.Second

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	fs := flag.NewFlagSet("voiceloop-agent", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	logFormat := fs.String("log-format", "json", "Log format: json or console")
	fs.Parse(os.Args[1:])

	logger := cli.InitLogger(*logFormat)
	defer logger.Sync()

	logger.Info("starting voiceloop-agent",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	apiKey := os.Getenv("LIVEKIT_API_KEY")
	apiSecret := os.Getenv("LIVEKIT_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		logger.Fatal("LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
	}
	serverURL := cli.EnvOr("LIVEKIT_URL", "ws://localhost:7880")

	collector := metrics.NewCollector("voiceloop_agent", nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := runSession(ctx, *configPath, serverURL, apiKey, apiSecret, collector, logger); err != nil {
			logger.Error("session failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("voiceloop-agent stopped")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// runSession serves one complete session: re-read config, join the room,
// run until the connection drops or the process is told to stop.
func runSession(ctx context.Context, configPath, serverURL, apiKey, apiSecret string, collector *metrics.Collector, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	room, err := rtc.Connect(ctx, rtc.Config{
		URL:       serverURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		RoomName:  cfg.App.RoomName,
		Identity:  agentIdentity,
	}, logger)
	if err != nil {
		return err
	}
	defer room.Close(context.Background())

	session, err := agent.NewSession(ctx, room, *cfg, collector, logger)
	if err != nil {
		return err
	}

	mode := "voice"
	if session.TextOnly() {
		mode = "text_only"
	}
	collector.SessionStarted(mode)
	defer collector.SessionEnded()

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Close()

	select {
	case <-ctx.Done():
	case <-room.Disconnected():
		logger.Info("room disconnected, session over")
	}
	return nil
}
