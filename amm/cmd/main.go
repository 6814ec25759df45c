package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/config"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/factory"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/index"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/router"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/rpc"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	rpc.SetLogger(log)
	pair.SetLogger(log)
	factory.SetLogger(log)
	router.SetLogger(log)
}

func main() {
	configRPC := flag.String("config-rpc", "", "config file for the server, AMM_* env variables when empty")
	configGlobal := flag.String("config-global", "./global-config.toml", "protocol config file")
	dataDir := flag.String("data-dir", "", "ledger directory, overrides data_dir from the server config")
	flag.Parse()

	var rpcPath *string
	if *configRPC != "" {
		rpcPath = configRPC
	}
	serverCfg, err := config.LoadServerConfig(rpcPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load server config")
	}
	if *dataDir != "" {
		serverCfg.DataDir = *dataDir
	}

	global, err := config.NewDefaultGlobalConfigLoader().Load(*configGlobal)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load global config")
	}
	log.Info().
		Str("global_config", *configGlobal).
		Str("factory", global.Config.InfinityFactory).
		Int("denoms", len(global.Config.MinPrices)).
		Int("royalties", len(global.Royalties)).
		Msg("Starting NFT AMM")

	var l *ledger.LevelDB
	if serverCfg.DataDir == "" {
		log.Warn().Msg("No data directory set, ledger is kept in memory")
		l, err = ledger.NewMemLevelDB()
	} else {
		l, err = ledger.OpenLevelDB(serverCfg.DataDir)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close ledger")
		}
	}()

	royalties, err := royalty.NewStatic(global.Royalties)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build royalty registry")
	}
	idx := index.New()
	pairs := pair.NewService(l, global.Config, royalties, idx)
	fct, err := factory.New(l, global.Config, pairs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create factory")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := rpc.NewServer(ctx, buildServerConfig(serverCfg), rpc.Services{
		Factory: fct,
		Pairs:   pairs,
		Router:  router.NewRouter(l, pairs, idx),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// buildServerConfig converts the loaded ServerConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.ServerConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
	}
	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "spectra-nft-amm"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "0.1.0"),
			Environment:     defaultString(cfg.Environment, "LOCAL"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}
	return serverConfig
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
