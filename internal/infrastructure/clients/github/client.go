package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/pkg/config"
)

// Client is the upstream GitHub search API client, used as a fallback when
// the local index cannot serve a query.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new GitHub API client
func NewClient(cfg *config.GitHubConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type searchResponse struct {
	TotalCount int              `json:"total_count"`
	Items      []repositoryItem `json:"items"`
}

type repositoryItem struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	OpenIssues  int      `json:"open_issues_count"`
	HTMLURL     string   `json:"html_url"`
	Archived    bool     `json:"archived"`
	PushedAt    string   `json:"pushed_at"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// SearchRepositories queries the GitHub repository search endpoint
func (c *Client) SearchRepositories(ctx context.Context, params repositories.SearchParams) ([]*entities.Repository, int, error) {
	q := buildQualifiedQuery(params)

	values := url.Values{}
	values.Set("q", q)
	values.Set("per_page", strconv.Itoa(params.Limit))
	if params.Limit > 0 {
		values.Set("page", strconv.Itoa(params.Offset/params.Limit+1))
	}
	if params.Sort != "" {
		values.Set("sort", params.Sort)
	}
	if params.Order != "" {
		values.Set("order", params.Order)
	}

	endpoint := fmt.Sprintf("%s/search/repositories?%s", c.baseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, 0, fmt.Errorf("github search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("failed to decode github response: %w", err)
	}

	repos := make([]*entities.Repository, 0, len(payload.Items))
	for _, item := range payload.Items {
		repos = append(repos, itemToRepository(item))
	}

	return repos, payload.TotalCount, nil
}

// buildQualifiedQuery folds structured filters into GitHub's qualifier syntax
func buildQualifiedQuery(params repositories.SearchParams) string {
	parts := []string{strings.TrimSpace(params.Query)}
	if params.Language != "" {
		parts = append(parts, "language:"+params.Language)
	}
	if params.MinStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:>=%d", params.MinStars))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func itemToRepository(item repositoryItem) *entities.Repository {
	repo := &entities.Repository{
		ID:          strconv.FormatInt(item.ID, 10),
		FullName:    item.FullName,
		Owner:       item.Owner.Login,
		Name:        item.Name,
		Description: item.Description,
		Language:    item.Language,
		Topics:      item.Topics,
		Stars:       item.Stars,
		Forks:       item.Forks,
		OpenIssues:  item.OpenIssues,
		URL:         item.HTMLURL,
		IsArchived:  item.Archived,
	}

	if t, err := time.Parse(time.RFC3339, item.PushedAt); err == nil {
		repo.PushedAt = t
	}
	if t, err := time.Parse(time.RFC3339, item.CreatedAt); err == nil {
		repo.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, item.UpdatedAt); err == nil {
		repo.UpdatedAt = t
	}

	return repo
}
