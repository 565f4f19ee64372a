package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adaeze/reposcout/internal/domain/repositories"
)

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, "is_archived:=false", buildFilter(repositories.SearchParams{}))

	assert.Equal(t, "is_archived:=false && language:=Go",
		buildFilter(repositories.SearchParams{Language: "Go"}))

	assert.Equal(t, "is_archived:=false && language:=Go && stars:>=100",
		buildFilter(repositories.SearchParams{Language: "Go", MinStars: 100}))
}

func TestBuildSort(t *testing.T) {
	assert.Empty(t, buildSort(repositories.SearchParams{}), "relevance order needs no sort clause")
	assert.Empty(t, buildSort(repositories.SearchParams{Sort: "bogus"}))

	assert.Equal(t, "stars:desc", buildSort(repositories.SearchParams{Sort: "stars"}))
	assert.Equal(t, "stars:asc", buildSort(repositories.SearchParams{Sort: "stars", Order: "asc"}))
	assert.Equal(t, "updated_at:desc", buildSort(repositories.SearchParams{Sort: "updated"}))
	assert.Equal(t, "forks:desc", buildSort(repositories.SearchParams{Sort: "forks", Order: "sideways"}))
}

func TestDocumentToRepository(t *testing.T) {
	doc := map[string]interface{}{
		"id":          "repo-1",
		"full_name":   "rs/zerolog",
		"owner":       "rs",
		"name":        "zerolog",
		"description": "Zero allocation JSON logger",
		"language":    "Go",
		"topics":      []interface{}{"logging", "json", 42},
		"stars":       float64(10000),
		"forks":       float64(570),
		"is_archived": false,
	}

	repo := documentToRepository(doc)
	assert.Equal(t, "repo-1", repo.ID)
	assert.Equal(t, "rs/zerolog", repo.FullName)
	assert.Equal(t, "Go", repo.Language)
	assert.Equal(t, []string{"logging", "json"}, repo.Topics, "non-string topics are skipped")
	assert.Equal(t, 10000, repo.Stars)
	assert.False(t, repo.IsArchived)
}

func TestDocumentToRepositoryIgnoresWrongTypes(t *testing.T) {
	repo := documentToRepository(map[string]interface{}{
		"id":    42,
		"stars": "lots",
	})
	assert.Empty(t, repo.ID)
	assert.Zero(t, repo.Stars)
}
