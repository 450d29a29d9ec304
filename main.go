package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"rewritebot/config"
	"rewritebot/logger"
	"rewritebot/orchestrator"
)

func main() {
	limit := flag.Int("limit", 0, "maximum articles to attempt this run (overrides ARTICLE_LIMIT)")
	dryRun := flag.Bool("dry-run", false, "run the pipeline without writing or recording anything")
	policyPath := flag.String("policy", "", "YAML policy file (overrides POLICY_FILE)")
	flag.Parse()

	os.Exit(run(*limit, *dryRun, *policyPath))
}

func run(limit int, dryRun bool, policyPath string) int {
	cfg, err := config.Load()
	if err != nil {
		log := logger.Default(false)
		log.Error().Err(err).Msg("load config")
		return 1
	}
	log := logger.Default(cfg.Debug)
	if policyPath != "" {
		p, err := config.LoadPolicy(policyPath)
		if err != nil {
			log.Error().Err(err).Msg("load policy")
			return 1
		}
		cfg.PolicyFile, cfg.Policy = policyPath, p
	}
	if limit > 0 {
		cfg.ArticleLimit = limit
	}
	if dryRun {
		cfg.DryRun = true
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, closeAll, err := orchestrator.FromConfig(ctx, cfg, os.Stderr, log)
	if err != nil {
		log.Error().Err(err).Msg("setup failed")
		return 1
	}
	defer func() {
		if err := closeAll(); err != nil {
			log.Warn().Err(err).Msg("cleanup")
		}
	}()

	if _, err := orch.RunOnce(ctx); err != nil {
		return 1
	}
	return 0
}
