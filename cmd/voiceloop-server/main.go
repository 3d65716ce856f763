// voiceloop-server runs the control and token service: token minting,
// runtime configuration endpoints, TTS status, metrics, and the static
// frontend.
//
// Usage:
//
//	voiceloop-server --config config.yaml --addr :8081 --static frontend/dist
//
// Required environment: LIVEKIT_API_KEY, LIVEKIT_API_SECRET. LIVEKIT_URL
// defaults to ws://localhost:7880.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/api/handlers"
	"github.com/BaSui01/voiceloop/config"
	"github.com/BaSui01/voiceloop/internal/cli"
	"github.com/BaSui01/voiceloop/internal/metrics"
	"github.com/BaSui01/voiceloop/internal/server"
)

// agentIdentity names the agent participant dispatched into each room.
const agentIdentity = "voiceloop-agent"

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	fs := flag.NewFlagSet("voiceloop-server", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	addr := fs.String("addr", ":8081", "HTTP listen address")
	staticDir := fs.String("static", "frontend/dist", "Static asset directory")
	logFormat := fs.String("log-format", "json", "Log format: json or console")
	fs.Parse(os.Args[1:])

	logger := cli.InitLogger(*logFormat)
	defer logger.Sync()

	logger.Info("starting voiceloop-server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	apiKey := os.Getenv("LIVEKIT_API_KEY")
	apiSecret := os.Getenv("LIVEKIT_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		logger.Fatal("LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
	}
	serverURL := cli.EnvOr("LIVEKIT_URL", "ws://localhost:7880")

	store, err := config.NewStore(*configPath, logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	collector := metrics.NewCollector("voiceloop", nil, logger)

	tokenHandler := handlers.NewTokenHandler(apiKey, apiSecret, serverURL, agentIdentity, store, logger)
	configHandler := handlers.NewConfigHandler(store, logger)
	statusHandler := handlers.NewTTSStatusHandler(store, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /api/token", countTokens(collector, tokenHandler))
	mux.HandleFunc("GET /api/config", configHandler.Get)
	mux.HandleFunc("POST /api/config/model", configHandler.SetModel)
	mux.HandleFunc("POST /api/config/voice", configHandler.SetVoice)
	mux.Handle("GET /api/tts/status", statusHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/", http.FileServer(http.Dir(*staticDir)))

	handler := Chain(mux,
		Recovery(logger),
		RequestLogger(logger),
		CORS(),
		Metrics(collector),
	)

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = *addr

	manager := server.NewManager(handler, serverConfig, logger)
	if err := manager.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	manager.WaitForShutdown()
	logger.Info("voiceloop-server stopped")
}
