package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/adaeze/reposcout/internal/adapters/database"
	"github.com/adaeze/reposcout/internal/adapters/search"
	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/infrastructure/clients/postgres"
	"github.com/adaeze/reposcout/internal/infrastructure/clients/typesense"
	"github.com/adaeze/reposcout/pkg/config"
)

// Seeds the repository catalog with a small fixture set so the API and
// dashboard have data to work with in development. Run with RESET_DB=true to
// truncate first.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var index *search.TypesenseAdapter
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err != nil {
		log.Printf("Typesense unavailable, seeding database only: %v", err)
	} else {
		index = search.NewTypesenseAdapter(tsClient)
		if err := index.InitSchema(context.Background()); err != nil {
			log.Printf("Failed to init search schema: %v", err)
			index = nil
		}
	}

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating repositories before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE repositories`); err != nil {
			log.Fatalf("Failed to truncate: %v", err)
		}
	}

	store := database.NewRepositoryAdapter(pgClient)
	now := time.Now().UTC()

	for _, repo := range fixtureRepositories(now) {
		if err := store.Upsert(ctx, repo); err != nil {
			log.Fatalf("Failed to upsert %s: %v", repo.FullName, err)
		}
		if index != nil {
			if err := index.Index(ctx, repo); err != nil {
				log.Printf("Failed to index %s: %v", repo.FullName, err)
			}
		}
		log.Printf("Seeded %s", repo.FullName)
	}

	log.Println("Seeding complete")
}

func fixtureRepositories(now time.Time) []*entities.Repository {
	specs := []struct {
		fullName    string
		owner       string
		name        string
		description string
		language    string
		topics      []string
		stars       int
		forks       int
	}{
		{"grafana/grafana", "grafana", "grafana", "The open and composable observability platform", "TypeScript", []string{"monitoring", "metrics", "observability"}, 62000, 12000},
		{"prometheus/prometheus", "prometheus", "prometheus", "The Prometheus monitoring system and time series database", "Go", []string{"monitoring", "metrics", "tsdb"}, 54000, 9000},
		{"redis/go-redis", "redis", "go-redis", "Redis Go client", "Go", []string{"redis", "client", "cache"}, 20000, 2400},
		{"typesense/typesense", "typesense", "typesense", "Open source search engine", "C++", []string{"search", "typo-tolerance"}, 20000, 600},
		{"rs/zerolog", "rs", "zerolog", "Zero allocation JSON logger", "Go", []string{"logging", "json"}, 10000, 570},
		{"hashicorp/terraform", "hashicorp", "terraform", "Infrastructure as code tool", "Go", []string{"infrastructure", "cloud"}, 42000, 9700},
	}

	repos := make([]*entities.Repository, 0, len(specs))
	for i, s := range specs {
		repos = append(repos, &entities.Repository{
			ID:          uuid.NewString(),
			FullName:    s.fullName,
			Owner:       s.owner,
			Name:        s.name,
			Description: s.description,
			Language:    s.language,
			Topics:      s.topics,
			Stars:       s.stars,
			Forks:       s.forks,
			UpdatedAt:   now.Add(-time.Duration(i) * 24 * time.Hour),
			CreatedAt:   now.Add(-time.Duration(i+1) * 365 * 24 * time.Hour),
		})
	}
	return repos
}
