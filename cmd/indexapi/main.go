package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rewritebot/api"
	"rewritebot/config"
	"rewritebot/deduplication"
	"rewritebot/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	port := flag.String("port", config.GetEnvOrDefault("PORT", "8080"), "HTTP API port")
	index := flag.String("index", "", "dedup index url (overrides DEDUP_INDEX)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.Default(false)
		log.Fatal().Err(err).Msg("load config")
	}
	log := logger.Default(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if *index != "" {
		cfg.DedupIndex = *index
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, _, err := deduplication.Open(ctx, cfg.DedupIndex)
	if err != nil {
		log.Fatal().Err(err).Str("index", cfg.DedupIndex).Msg("open dedup index")
	}
	dedup := deduplication.NewDeduplicator(idx)
	defer dedup.Close()

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           api.NewRouter(dedup),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("index", cfg.DedupIndex).Msg("index api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}
