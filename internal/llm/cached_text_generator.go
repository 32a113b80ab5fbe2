package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// CachedTextGenerator wraps a TextGenerator and replays stored replies for
// prompts it has already seen. The cache is persisted to a JSON file.
type CachedTextGenerator struct {
	realGen       TextGenerator
	cache         map[string]ContentResponse
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedTextGenerator creates a CachedTextGenerator, loading any existing cache file.
func NewCachedTextGenerator(realGen TextGenerator, cacheFilePath string) (*CachedTextGenerator, error) {
	c := &CachedTextGenerator{
		realGen:       realGen,
		cache:         make(map[string]ContentResponse),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	return c, nil
}

func cacheKey(prompt string, tools []Tool) string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, string(t))
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(strings.Join(names, ",")))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// SupportsTool reports the tools of the wrapped generator.
func (c *CachedTextGenerator) SupportsTool(t Tool) bool {
	return SupportsTool(c.realGen, t)
}

// GenerateContent returns a cached reply when present. Otherwise it calls the
// real generator and caches successful replies. Cached replies report zero usage.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt string, tools ...Tool) (ContentResponse, error) {
	key := cacheKey(prompt, tools)

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return ContentResponse{Content: cached.Content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt, tools...)
	if err != nil {
		return ContentResponse{}, err
	}

	c.mu.Lock()
	c.cache[key] = resp
	c.mu.Unlock()

	return resp, nil
}

// Len returns the number of cached replies.
func (c *CachedTextGenerator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedTextGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	return nil
}
