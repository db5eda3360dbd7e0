package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// NewsItem is one kid-suitable headline used to flavor a feed post.
type NewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	SourceName  string `json:"source_name"`
}

// bannedTokens is a coarse word filter applied before the LLM rewrite.
// It only removes obviously unsuitable headlines; the generation prompt is
// the real safety layer.
var bannedTokens = []string{
	"shooting", "killed", "murder", "war", "attack", "abuse",
	"assault", "bomb", "terror", "rape", "suicide", "hostage",
}

// NewsClient fetches kid-suitable headlines from NewsAPI.org.
type NewsClient struct {
	apiKey string
	http   *http.Client
	cache  Cache
}

// NewNewsClient creates a NewsClient. An empty apiKey disables fetching:
// every lookup returns nil.
func NewNewsClient(apiKey string, cache Cache) *NewsClient {
	return &NewsClient{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 5 * time.Second},
		cache:  cache,
	}
}

// ForTopic returns one headline roughly related to topic, or nil when the
// client is disabled, nothing suitable was found, or the API failed. A nil
// result is never an error for the caller; the post just loses its news
// flavor.
func (c *NewsClient) ForTopic(ctx context.Context, topic string) *NewsItem {
	if c.apiKey == "" {
		return nil
	}

	cacheKey := "news:" + strings.ToLower(topic)
	if cached, ok := c.cache.Get(ctx, cacheKey); ok {
		var item NewsItem
		if err := json.Unmarshal([]byte(cached), &item); err == nil {
			return &item
		}
	}

	item := c.fetchEverything(ctx, topic)
	if item == nil {
		item = c.fetchTopHeadlines(ctx, categoryForTopic(topic))
	}
	if item == nil {
		return nil
	}

	if data, err := json.Marshal(item); err == nil {
		c.cache.Set(ctx, cacheKey, string(data), 24*time.Hour)
	}
	return item
}

func (c *NewsClient) fetchEverything(ctx context.Context, topic string) *NewsItem {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("language", "en")
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", "10")
	return c.fetch(ctx, "https://newsapi.org/v2/everything?"+q.Encode())
}

func (c *NewsClient) fetchTopHeadlines(ctx context.Context, category string) *NewsItem {
	q := url.Values{}
	q.Set("category", category)
	q.Set("language", "en")
	q.Set("pageSize", "10")
	return c.fetch(ctx, "https://newsapi.org/v2/top-headlines?"+q.Encode())
}

func (c *NewsClient) fetch(ctx context.Context, rawURL string) *NewsItem {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("news request failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("news request returned non-200")
		return nil
	}

	var body struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}

	for _, a := range body.Articles {
		if a.Title == "" || looksUnsuitable(a.Title) || looksUnsuitable(a.Description) {
			continue
		}
		return &NewsItem{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
		}
	}
	return nil
}

func looksUnsuitable(text string) bool {
	low := strings.ToLower(text)
	for _, tok := range bannedTokens {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}

// categoryForTopic roughly maps a topic label to a NewsAPI category for the
// top-headlines fallback.
func categoryForTopic(topic string) string {
	t := strings.ToLower(topic)
	containsAny := func(keys ...string) bool {
		for _, k := range keys {
			if strings.Contains(t, k) {
				return true
			}
		}
		return false
	}
	switch {
	case containsAny("space", "planet", "nasa", "astronomy"):
		return "science"
	case containsAny("game", "gaming", "console", "playstation", "xbox", "nintendo"):
		return "technology"
	case containsAny("robot", "ai", "coding", "computer"):
		return "technology"
	case containsAny("animal", "nature", "environment", "climate"):
		return "science"
	case containsAny("health", "medicine", "fitness"):
		return "health"
	default:
		return "science"
	}
}

// Summary renders the item for prompt embedding.
func (n *NewsItem) Summary() string {
	if n.Description == "" {
		return fmt.Sprintf("%s (%s)", n.Title, n.SourceName)
	}
	return fmt.Sprintf("%s. %s (%s)", n.Title, n.Description, n.SourceName)
}
