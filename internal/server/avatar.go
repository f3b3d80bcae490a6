package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

// AvatarResolver turns a user into a fetchable profile photo URL.
// The bot package implements it against the Telegram file API.
type AvatarResolver interface {
	AvatarURL(ctx context.Context, userID int64) (string, error)
}

type avatarEntry struct {
	url       string
	fetchedAt time.Time
}

// AvatarCache caches resolved avatar URLs with a TTL. Avatars are the
// only cached data; economic state is always read from storage.
type AvatarCache struct {
	resolver AvatarResolver
	cache    *lru.Cache
	ttl      time.Duration
	client   *http.Client
}

// NewAvatarCache creates a bounded avatar cache in front of a resolver.
func NewAvatarCache(resolver AvatarResolver, size int, ttl time.Duration) *AvatarCache {
	if size <= 0 {
		size = 512
	}
	cache, _ := lru.New(size)
	return &AvatarCache{
		resolver: resolver,
		cache:    cache,
		ttl:      ttl,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// URL resolves a user's avatar URL, serving from cache while fresh.
func (c *AvatarCache) URL(ctx context.Context, userID int64) (string, error) {
	if v, ok := c.cache.Get(userID); ok {
		entry := v.(avatarEntry)
		if time.Since(entry.fetchedAt) < c.ttl {
			return entry.url, nil
		}
	}

	url, err := c.resolver.AvatarURL(ctx, userID)
	if err != nil {
		return "", err
	}
	c.cache.Add(userID, avatarEntry{url: url, fetchedAt: time.Now()})
	return url, nil
}

// handleAvatar proxies the profile photo bytes. Telegram file URLs
// embed the bot token, so they are never handed to the client.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}
	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	url, err := s.avatars.URL(r.Context(), userID)
	if err != nil || url == "" {
		http.NotFound(w, r)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	resp, err := s.avatars.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msg("avatar fetch failed")
		http.NotFound(w, r)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Debug().Err(err).Msg("avatar stream interrupted")
	}
}
