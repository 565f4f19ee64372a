package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adaeze/reposcout/internal/adapters/database"
	"github.com/adaeze/reposcout/internal/adapters/search"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/internal/infrastructure/clients/postgres"
	tsclient "github.com/adaeze/reposcout/internal/infrastructure/clients/typesense"
	"github.com/adaeze/reposcout/internal/infrastructure/observability"
	"github.com/adaeze/reposcout/pkg/config"
)

const indexBatchSize = 500

func main() {
	var intervalFlag string
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger("reposcout-indexer", cfg.Server.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Str("interval", intervalValue).Err(err).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		log.Info().Dur("interval", interval).Msg("reindex complete, waiting for next run")
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	typesenseConn, err := tsclient.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	store := database.NewRepositoryAdapter(pgClient)
	index := search.NewTypesenseAdapter(typesenseConn)

	if err := index.InitSchema(ctx); err != nil {
		return err
	}

	indexed := 0
	for offset := 0; ; offset += indexBatchSize {
		repos, err := store.List(ctx, repositories.RepositoryFilter{Limit: indexBatchSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(repos) == 0 {
			break
		}

		for _, repo := range repos {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := index.Index(ctx, repo); err != nil {
				log.Warn().Err(err).Str("repository", repo.FullName).Msg("failed to index repository")
				continue
			}
			indexed++
		}
	}

	log.Info().Int("indexed", indexed).Msg("reindex run finished")
	return nil
}
