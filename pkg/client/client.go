// Package client talks to the Profile Store API: profiles, app settings,
// segments, segment evaluation and the task scheduler. Idempotent reads
// (settings, segments) are cached.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	profiles "github.com/goliatone/go-profiles"
	"github.com/goliatone/go-profiles/pkg/activity"
	"github.com/goliatone/go-profiles/pkg/cache"
	"github.com/goliatone/go-profiles/pkg/cache/boltcache"
	"github.com/goliatone/go-profiles/pkg/config"
)

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		if transport != nil {
			c.transport = transport
		}
	}
}

// WithCache replaces the cache used for settings and segments.
func WithCache(store cache.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.cache = store
		}
	}
}

// WithLogger sets the logger. Output is discarded by default.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithEmitter publishes activity events after successful mutations.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(c *Client) {
		c.emitter = emitter
	}
}

// WithProfileOptions applies opts to every profile the client builds.
func WithProfileOptions(opts ...profiles.Option) Option {
	return func(c *Client) {
		c.profileOpts = append(c.profileOpts, opts...)
	}
}

// WithConcurrency bounds the number of parallel requests in LoadProfiles.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Client is safe for concurrent use. The profiles it returns are not.
type Client struct {
	cfg          config.Config
	transport    Transport
	cache        cache.Store
	cacheAllowed atomic.Bool
	log          logrus.FieldLogger
	emitter      *activity.Emitter
	profileOpts  []profiles.Option
	concurrency  int
	closer       io.Closer
}

// New validates cfg and builds a client. When cfg.CachePath is set and no
// cache was supplied, reads are cached in a bbolt file; call Close to release
// it.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:         cfg,
		log:         discardLogger(),
		concurrency: 4,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(cfg.Timeout)
	}
	if c.cache == nil {
		store, closer, err := defaultCache(cfg, c.log)
		if err != nil {
			return nil, err
		}
		c.cache = store
		c.closer = closer
	}
	c.cacheAllowed.Store(!cfg.NoCache)
	return c, nil
}

func defaultCache(cfg config.Config, log logrus.FieldLogger) (cache.Store, io.Closer, error) {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	if cfg.CachePath == "" {
		return cache.NewMemory(cache.WithTTL(ttl)), nil, nil
	}
	store, err := boltcache.Open(cfg.CachePath, boltcache.WithTTL(ttl), boltcache.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// Close releases the persistent cache when the client opened one.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Config returns a copy of the client configuration.
func (c *Client) Config() config.Config {
	return c.cfg
}

// SetCacheAllowed toggles caching of settings and segments.
func (c *Client) SetCacheAllowed(allowed bool) {
	c.cacheAllowed.Store(allowed)
}

// IsCacheAllowed reports whether reads are cached.
func (c *Client) IsCacheAllowed() bool {
	return c.cacheAllowed.Load()
}

// ClearCache drops every cached read.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

func (c *Client) cacheKey(kind string) string {
	return fmt.Sprintf("%s-%s-%s-%s", kind, c.cfg.GroupID, c.cfg.BucketName, c.cfg.AppName)
}

func (c *Client) cached(key string) (any, bool) {
	if !c.IsCacheAllowed() {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Client) store(key string, value any) {
	if c.IsCacheAllowed() {
		c.cache.Set(key, value)
	}
}

// call sends a JSON request and checks the reply. expected lists the
// accepted HTTP status codes. Bodies carrying their own statusCode are
// checked against the same list. GET replies must have a body.
func (c *Client) call(ctx context.Context, method, url string, payload any, expected ...int) ([]byte, error) {
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}
	req := Request{Method: method, URL: url}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "client: encode request")
		}
		req.Body = body
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	entry := c.log.WithFields(logrus.Fields{
		"method":      method,
		"url":         redact(url),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("profile store request failed")
		return nil, err
	}
	entry.WithField("status", resp.StatusCode).Debug("profile store request")

	if err := checkResponse(method, resp, expected); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type statusBody struct {
	StatusCode *int   `json:"statusCode"`
	Message    string `json:"message"`
}

func checkResponse(method string, resp Response, expected []int) error {
	var status statusBody
	hasBody := len(resp.Body) > 0
	if hasBody {
		// not every body is an object; only objects can carry a status
		_ = json.Unmarshal(resp.Body, &status)
	}
	if !slices.Contains(expected, resp.StatusCode) {
		message := status.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{StatusCode: resp.StatusCode, Message: message}
	}
	if status.StatusCode != nil && !slices.Contains(expected, *status.StatusCode) {
		return &RemoteError{StatusCode: *status.StatusCode, Message: status.Message}
	}
	if !hasBody && method == http.MethodGet {
		return ErrEmptyResponse
	}
	return nil
}

func (c *Client) emit(ctx context.Context, event activity.Event) {
	if !c.emitter.Enabled() {
		return
	}
	if err := c.emitter.Emit(ctx, event); err != nil {
		c.log.WithError(err).WithField("verb", event.Verb).Warn("activity hook failed")
	}
}

func (c *Client) eventInput(profileID string) activity.ProfileEventInput {
	return activity.ProfileEventInput{
		TenantID:   c.cfg.GroupID,
		Bucket:     c.cfg.BucketName,
		CollectApp: c.cfg.AppName,
		ProfileID:  profileID,
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
