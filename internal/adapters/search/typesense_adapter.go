package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	tsclient "github.com/adaeze/reposcout/internal/infrastructure/clients/typesense"
)

const collectionName = "repositories"

// TypesenseAdapter implements repository search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements RepositoryIndex
var _ repositories.RepositoryIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "full_name", Type: "string"},
			{Name: "owner", Type: "string", Facet: pointer.True()},
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "language", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "topics", Type: "string[]", Optional: pointer.True()},
			{Name: "stars", Type: "int32", Facet: pointer.True()},
			{Name: "forks", Type: "int32"},
			{Name: "is_archived", Type: "bool"},
			{Name: "pushed_at", Type: "int64"},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("stars"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a repository document
func (a *TypesenseAdapter) Index(ctx context.Context, repo *entities.Repository) error {
	document := map[string]interface{}{
		"id":          repo.ID,
		"full_name":   repo.FullName,
		"owner":       repo.Owner,
		"name":        repo.Name,
		"description": repo.Description,
		"language":    repo.Language,
		"topics":      repo.Topics,
		"stars":       repo.Stars,
		"forks":       repo.Forks,
		"is_archived": repo.IsArchived,
		"pushed_at":   repo.PushedAt.Unix(),
		"updated_at":  repo.UpdatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index repository: %w", err)
	}

	return nil
}

// Delete removes a repository from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete repository from index: %w", err)
	}
	return nil
}

// Search queries the repository index
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Repository, int, error) {
	query := params.Query
	if strings.TrimSpace(query) == "" {
		query = "*"
	}

	perPage := params.Limit
	if perPage <= 0 {
		perPage = 30
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("full_name,name,description,topics"),
		Page:    pointer.Int(params.Offset/perPage + 1),
		PerPage: pointer.Int(perPage),
	}

	filterBy := buildFilter(params)
	if filterBy != "" {
		searchParams.FilterBy = pointer.String(filterBy)
	}
	if sortBy := buildSort(params); sortBy != "" {
		searchParams.SortBy = pointer.String(sortBy)
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search repositories: %w", err)
	}

	repos := []*entities.Repository{}
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			repos = append(repos, documentToRepository(*hit.Document))
		}
	}

	total := 0
	if result.Found != nil {
		total = *result.Found
	}

	return repos, total, nil
}

func buildFilter(params repositories.SearchParams) string {
	parts := []string{"is_archived:=false"}
	if params.Language != "" {
		parts = append(parts, fmt.Sprintf("language:=%s", params.Language))
	}
	if params.MinStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:>=%d", params.MinStars))
	}
	return strings.Join(parts, " && ")
}

func buildSort(params repositories.SearchParams) string {
	field := ""
	switch params.Sort {
	case "stars":
		field = "stars"
	case "forks":
		field = "forks"
	case "updated":
		field = "updated_at"
	default:
		return ""
	}

	order := "desc"
	if params.Order == "asc" {
		order = "asc"
	}
	return field + ":" + order
}

// documentToRepository reconstructs an entity from a Typesense document.
// Typesense returns map[string]interface{}, so every field is cast safely.
func documentToRepository(doc map[string]interface{}) *entities.Repository {
	repo := &entities.Repository{}

	if v, ok := doc["id"].(string); ok {
		repo.ID = v
	}
	if v, ok := doc["full_name"].(string); ok {
		repo.FullName = v
	}
	if v, ok := doc["owner"].(string); ok {
		repo.Owner = v
	}
	if v, ok := doc["name"].(string); ok {
		repo.Name = v
	}
	if v, ok := doc["description"].(string); ok {
		repo.Description = v
	}
	if v, ok := doc["language"].(string); ok {
		repo.Language = v
	}
	if v, ok := doc["topics"].([]interface{}); ok {
		for _, t := range v {
			if s, ok := t.(string); ok {
				repo.Topics = append(repo.Topics, s)
			}
		}
	}
	if v, ok := doc["stars"].(float64); ok {
		repo.Stars = int(v)
	}
	if v, ok := doc["forks"].(float64); ok {
		repo.Forks = int(v)
	}
	if v, ok := doc["is_archived"].(bool); ok {
		repo.IsArchived = v
	}

	return repo
}
