// Package ghost publishes itineraries to a Ghost blog through the Admin API.
package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-trip-planner/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Post is a post as returned by the Ghost Admin API.
type Post struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// PostsResponse is the top-level structure of the Ghost API response for posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
}

// Draft is an itinerary ready to be posted.
type Draft struct {
	Title    string
	Markdown string
	Tags     []string
	Publish  bool
}

// Client is an interface for the Ghost Admin API.
type Client interface {
	CreatePost(ctx context.Context, draft Draft) (*Post, error)
}

// ghostClient is the concrete implementation of the Ghost API client.
type ghostClient struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
}

// NewClient creates a new Ghost API client.
func NewClient(cfg config.GhostConfig) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		adminKey:   cfg.AdminKey,
	}
}

type tag struct {
	Name string `json:"name"`
}

type newPost struct {
	Title     string `json:"title"`
	Mobiledoc string `json:"mobiledoc"`
	Status    string `json:"status"`
	Tags      []tag  `json:"tags,omitempty"`
}

// CreatePost creates a post whose body is a single markdown card, so the
// itinerary keeps its formatting without an HTML conversion step.
func (c *ghostClient) CreatePost(ctx context.Context, draft Draft) (*Post, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	doc, err := markdownMobiledoc(draft.Markdown)
	if err != nil {
		return nil, err
	}

	post := newPost{
		Title:     draft.Title,
		Mobiledoc: doc,
		Status:    "draft",
	}
	if draft.Publish {
		post.Status = "published"
	}
	for _, name := range draft.Tags {
		post.Tags = append(post.Tags, tag{Name: name})
	}

	body, err := json.Marshal(map[string][]newPost{"posts": {post}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}
	url := fmt.Sprintf("%s/ghost/api/v3/admin/posts/", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("admin api error: status %d, body: %v", resp.StatusCode, errResp)
	}

	var response PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Posts) == 0 {
		return nil, fmt.Errorf("no post returned from api")
	}

	return &response.Posts[0], nil
}

func markdownMobiledoc(markdown string) (string, error) {
	doc := map[string]interface{}{
		"version":  "0.3.1",
		"atoms":    []interface{}{},
		"markups":  []interface{}{},
		"cards":    [][]interface{}{{"markdown", map[string]string{"markdown": markdown}}},
		"sections": [][]int{{10, 0}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to build mobiledoc: %w", err)
	}
	return string(data), nil
}

// createAdminToken generates a short-lived JWT for the Admin API.
func (c *ghostClient) createAdminToken() (string, error) {
	keyParts := strings.Split(c.adminKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	id := keyParts[0]
	secretHex := keyParts[1]

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/v3/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
