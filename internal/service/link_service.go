package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"linkcycle/internal/config"
	"linkcycle/internal/model"
	"linkcycle/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix = "link:"
	cacheTTL       = 1 * time.Hour
	cacheTimeout   = 2 * time.Second
)

// Allocator produces candidate short codes.
type Allocator interface {
	Next() (string, error)
}

// LinkService orchestrates the code lifecycle: allocation, redirects,
// admin mutations and reclamation. Redis, when configured, is a
// read-through cache on the resolve path only; the database stays the
// single source of truth.
type LinkService struct {
	store  *store.Store
	alloc  Allocator
	cache  *redis.Client
	cfg    *config.Shortener
	logger *zap.SugaredLogger
}

// NewLinkService wires the service. cache may be nil.
func NewLinkService(st *store.Store, alloc Allocator, cache *redis.Client, cfg *config.Shortener, logger *zap.SugaredLogger) *LinkService {
	return &LinkService{
		store:  st,
		alloc:  alloc,
		cache:  cache,
		cfg:    cfg,
		logger: logger.Named("links"),
	}
}

// ShortenResult is the outcome of a successful shorten call.
type ShortenResult struct {
	Code           string `json:"code"`
	ShortURL       string `json:"short_url"`
	InactivityDays int    `json:"inactivity_days"`
}

// Resolution is what the redirect layer needs to route a visitor.
type Resolution struct {
	TargetURL string
	Monetize  bool
}

type cacheEntry struct {
	TargetURL string `json:"target_url"`
	Monetize  bool   `json:"monetize"`
}

// Shorten validates rawURL and allocates a code for it. Reclaimed
// codes are reused before new ones are minted. Each shorten mints its
// own code; the same URL shortened twice gets two codes.
func (s *LinkService) Shorten(ctx context.Context, rawURL string, monetize bool) (*ShortenResult, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.RecycleOldestInactive(target, monetize)
	if err == nil {
		s.logger.Infow("recycled code", "code", rec.Code)
		return s.result(rec), nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code, err := s.alloc.Next()
		if err != nil {
			return nil, err
		}
		rec, err := s.store.CreateActive(code, target, monetize)
		if err == nil {
			return s.result(rec), nil
		}
		if !store.IsConflict(err) {
			return nil, err
		}
	}
	s.logger.Warnw("allocation exhausted", "attempts", s.cfg.MaxAttempts)
	return nil, ErrAllocationExhausted
}

// Resolve looks up a live code, records the visit and returns the
// routing decision. Absent and reclaimed codes are indistinguishable:
// both report store.ErrNotFound.
func (s *LinkService) Resolve(ctx context.Context, code string) (*Resolution, error) {
	if entry, ok := s.cacheGet(ctx, code); ok {
		err := s.store.RecordAccess(code)
		if err == nil {
			return &Resolution{TargetURL: entry.TargetURL, Monetize: entry.Monetize}, nil
		}
		// Cache outlived the record; drop the stale entry.
		s.cacheDel(ctx, code)
		if !store.IsNotFound(err) {
			return nil, err
		}
		return nil, store.ErrNotFound
	}

	rec, err := s.store.GetActive(code)
	if err != nil {
		return nil, err
	}
	if err := s.store.RecordAccess(code); err != nil {
		// Swept between lookup and access; report it gone.
		return nil, err
	}
	s.cacheSet(ctx, rec)
	return &Resolution{TargetURL: rec.TargetURL, Monetize: rec.Monetize}, nil
}

// Sweep reclaims every code idle past the configured threshold and
// evicts their cache entries.
func (s *LinkService) Sweep(ctx context.Context) (int, error) {
	reclaimed, err := s.store.Sweep(s.cfg.InactivityThreshold())
	for _, code := range reclaimed {
		s.cacheDel(ctx, code)
	}
	if err != nil {
		return len(reclaimed), err
	}
	if len(reclaimed) > 0 {
		s.logger.Infow("sweep reclaimed codes", "count", len(reclaimed))
	}
	return len(reclaimed), nil
}

// SetNeverExpires toggles reclamation exemption for a live code.
func (s *LinkService) SetNeverExpires(ctx context.Context, code string, value bool) error {
	return s.store.SetNeverExpires(code, value)
}

// SetMonetize toggles interstitial routing for a live code.
func (s *LinkService) SetMonetize(ctx context.Context, code string, value bool) error {
	if err := s.store.SetMonetize(code, value); err != nil {
		return err
	}
	s.cacheDel(ctx, code)
	return nil
}

// Deactivate retires a code, freeing it for reuse.
func (s *LinkService) Deactivate(ctx context.Context, code string) error {
	if err := s.store.Deactivate(code); err != nil {
		return err
	}
	s.cacheDel(ctx, code)
	return nil
}

// ListAll returns every record for the admin listing.
func (s *LinkService) ListAll() ([]model.LinkRecord, error) {
	return s.store.ListAll()
}

// GetStats returns table-wide counters.
func (s *LinkService) GetStats() (*store.Stats, error) {
	return s.store.GetStats()
}

// ShortURL builds the public URL for a code from the configured base.
func (s *LinkService) ShortURL(code string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + code
}

func (s *LinkService) result(rec *model.LinkRecord) *ShortenResult {
	return &ShortenResult{
		Code:           rec.Code,
		ShortURL:       s.ShortURL(rec.Code),
		InactivityDays: s.cfg.InactivityDays,
	}
}

func (s *LinkService) cacheGet(ctx context.Context, code string) (*cacheEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	val, err := s.cache.Get(ctx, cacheKeyPrefix+code).Result()
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (s *LinkService) cacheSet(ctx context.Context, rec *model.LinkRecord) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cacheEntry{TargetURL: rec.TargetURL, Monetize: rec.Monetize})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	s.cache.Set(ctx, cacheKeyPrefix+rec.Code, data, cacheTTL)
}

func (s *LinkService) cacheDel(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	s.cache.Del(ctx, cacheKeyPrefix+code)
}

// normalizeURL validates that raw is an absolute http(s) URL. Input
// that looks like a bare domain gets one shot with https:// prefixed.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if isHTTPURL(raw) {
		return raw, nil
	}
	if !strings.Contains(raw, "://") && strings.Contains(raw, ".") && !strings.Contains(raw, " ") {
		candidate := "https://" + raw
		if isHTTPURL(candidate) {
			return candidate, nil
		}
	}
	return "", ErrInvalidURL
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
