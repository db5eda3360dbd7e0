package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// ImageClient looks up safe stock photos on Pixabay to attach to feed posts.
type ImageClient struct {
	apiKey string
	http   *http.Client
	cache  Cache
}

// NewImageClient creates an ImageClient. An empty apiKey disables lookups.
func NewImageClient(apiKey string, cache Cache) *ImageClient {
	return &ImageClient{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 5 * time.Second},
		cache:  cache,
	}
}

// URLForTopic returns an image URL for topic, or "" when the client is
// disabled or the lookup failed. Failures are never surfaced to the caller;
// the post simply ships without an image.
func (c *ImageClient) URLForTopic(ctx context.Context, topic string) string {
	if c.apiKey == "" {
		return ""
	}

	cacheKey := "img:" + topic
	if cached, ok := c.cache.Get(ctx, cacheKey); ok {
		return cached
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", topic)
	q.Set("safesearch", "true")
	q.Set("image_type", "photo")
	q.Set("per_page", "3")
	q.Set("order", "popular")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://pixabay.com/api/?"+q.Encode(), nil)
	if err != nil {
		return ""
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("image search failed")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("image search returned non-200")
		return ""
	}

	var body struct {
		Hits []struct {
			WebformatURL  string `json:"webformatURL"`
			LargeImageURL string `json:"largeImageURL"`
			PreviewURL    string `json:"previewURL"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}

	for _, hit := range body.Hits {
		imgURL := hit.WebformatURL
		if imgURL == "" {
			imgURL = hit.LargeImageURL
		}
		if imgURL == "" {
			imgURL = hit.PreviewURL
		}
		if imgURL != "" {
			c.cache.Set(ctx, cacheKey, imgURL, 24*time.Hour)
			return imgURL
		}
	}
	return ""
}
