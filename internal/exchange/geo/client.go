// Package geo resolves place names to coordinates through an HTTP geocoder.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"go.uber.org/zap"
)

// Cache stores resolved coordinates between calls.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Config struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxElapsed time.Duration `yaml:"max_elapsed"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type Client struct {
	cfg    Config
	http   *http.Client
	cache  Cache
	logger *zap.Logger
}

func NewClient(cfg Config, cache Cache, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * 24 * time.Hour
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger.Named("geocoder"),
	}
}

type response struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

func cacheKey(query string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(query))
}

// Geocode returns the coordinates of the best match for the query.
func (c *Client) Geocode(ctx context.Context, query string) (models.Point, error) {
	key := cacheKey(query)
	if c.cache != nil {
		if v, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("Geocode cache read failed", zap.Error(err))
		} else if ok {
			if p, err := parsePoint(v, ","); err == nil {
				return p, nil
			}
		}
	}

	var point models.Point
	op := func() error {
		p, err := c.request(ctx, query)
		if err != nil {
			return err
		}
		point = p
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.cfg.MaxElapsed
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Geocoder request failed, retrying",
			zap.String("query", query),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return models.Point{}, err
	}

	if c.cache != nil {
		value := strconv.FormatFloat(point.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(point.Lon, 'f', -1, 64)
		if err := c.cache.Set(ctx, key, value, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("Geocode cache write failed", zap.Error(err))
		}
	}
	return point, nil
}

func (c *Client) request(ctx context.Context, query string) (models.Point, error) {
	params := url.Values{}
	params.Set("apikey", c.cfg.APIKey)
	params.Set("format", "json")
	params.Set("geocode", query)
	params.Set("results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/1.x/?"+params.Encode(), nil)
	if err != nil {
		return models.Point{}, backoff.Permanent(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Point{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return models.Point{}, fmt.Errorf("geocoder returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return models.Point{}, backoff.Permanent(fmt.Errorf("geocoder returned %d", resp.StatusCode))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Point{}, backoff.Permanent(fmt.Errorf("decode geocoder response: %w", err))
	}
	members := body.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return models.Point{}, backoff.Permanent(fmt.Errorf("%w: no geocoder match for %q", e.ErrNotFound, query))
	}
	// pos is "longitude latitude"
	p, err := parsePoint(members[0].GeoObject.Point.Pos, " ")
	if err != nil {
		return models.Point{}, backoff.Permanent(err)
	}
	p.Lat, p.Lon = p.Lon, p.Lat
	return p, nil
}

func parsePoint(s, sep string) (models.Point, error) {
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) != 2 {
		return models.Point{}, fmt.Errorf("malformed position %q", s)
	}
	a, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return models.Point{}, err
	}
	b, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.Point{}, err
	}
	return models.Point{Lat: a, Lon: b}, nil
}
