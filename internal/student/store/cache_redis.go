package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"registrar/internal/student/metrics"
	"registrar/internal/student/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
)

const (
	keyPrefixID        = "student:id:"
	keyPrefixMatricula = "student:matricula:"
	defaultCacheTTL    = 5 * time.Minute
	sharedLoadTimeout  = 10 * time.Second
)

// Backend is the store a CachedStore reads through to.
type Backend interface {
	Save(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	FindByMatricula(ctx context.Context, matricula string) (*models.Student, error)
	FindAll(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

// Cache is the subset of the go-redis client used by CachedStore.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedStore decorates a Backend with a Redis read-through cache for single
// student lookups. FindAll always goes to the backend. Cache failures are
// logged and the backend answers instead. After repeated failures a circuit
// breaker stops touching Redis until a trial call succeeds.
//
// Two rules keep an Update visible once it returns:
//   - a read-through result is written back only if no invalidation happened
//     while it was loading (gen);
//   - keys whose Del failed are remembered (stale) and never served from
//     Redis until a retried Del succeeds.
type CachedStore struct {
	inner   Backend
	cache   Cache
	ttl     time.Duration
	group   singleflight.Group
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics

	genMu sync.RWMutex
	gen   uint64

	staleMu sync.Mutex
	stale   map[string]struct{}
}

type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) { c.logger = logger }
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedStore) { c.metrics = m }
}

func WithCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedStore) { c.breaker = b }
}

func NewCached(inner Backend, cache Cache, ttl time.Duration, opts ...CacheOption) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &CachedStore{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		breaker: circuit.New("student-cache"),
		logger:  slog.Default(),
		stale:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cachedStudent is the JSON form kept in Redis.
type cachedStudent struct {
	ID        string  `json:"id"`
	Matricula string  `json:"matricula"`
	Nome      string  `json:"nome"`
	Idade     int     `json:"idade"`
	Email     *string `json:"email,omitempty"`
}

func encodeStudent(s *models.Student) ([]byte, error) {
	return json.Marshal(cachedStudent{
		ID:        s.ID().String(),
		Matricula: s.Matricula(),
		Nome:      s.Name(),
		Idade:     s.Age(),
		Email:     s.Email(),
	})
}

func decodeStudent(data []byte) (*models.Student, error) {
	var c cachedStudent
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cached student: %w", err)
	}
	studentID, err := id.ParseStudentID(c.ID)
	if err != nil {
		return nil, fmt.Errorf("decode cached student id: %w", err)
	}
	return models.ReconstituteStudent(studentID, c.Matricula, c.Nome, c.Idade, c.Email), nil
}

// Save writes to the backend first, then primes both lookup keys.
func (c *CachedStore) Save(ctx context.Context, student *models.Student) error {
	if err := c.inner.Save(ctx, student); err != nil {
		return err
	}
	c.populate(ctx, student)
	return nil
}

func (c *CachedStore) FindByID(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	return c.readThrough(ctx, keyPrefixID+studentID.String(), func(ctx context.Context) (*models.Student, error) {
		return c.inner.FindByID(ctx, studentID)
	})
}

func (c *CachedStore) FindByMatricula(ctx context.Context, matricula string) (*models.Student, error) {
	return c.readThrough(ctx, keyPrefixMatricula+matricula, func(ctx context.Context) (*models.Student, error) {
		return c.inner.FindByMatricula(ctx, matricula)
	})
}

func (c *CachedStore) FindAll(ctx context.Context) ([]*models.Student, error) {
	return c.inner.FindAll(ctx)
}

// Update writes to the backend and then drops the cached entries.
func (c *CachedStore) Update(ctx context.Context, student *models.Student) error {
	if err := c.inner.Update(ctx, student); err != nil {
		return err
	}
	c.invalidate(ctx, student)
	return nil
}

func (c *CachedStore) readThrough(ctx context.Context, key string, load func(context.Context) (*models.Student, error)) (*models.Student, error) {
	if !c.breaker.Allow() || !c.clearStale(ctx, key) {
		c.recordLookup("bypass")
		return load(ctx)
	}

	data, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.cacheSucceeded(ctx)
		st, decodeErr := decodeStudent(data)
		if decodeErr == nil {
			c.recordLookup("hit")
			return st, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key, "error", decodeErr)
		c.recordLookup("error")
	case errors.Is(err, redis.Nil):
		c.cacheSucceeded(ctx)
		c.recordLookup("miss")
	default:
		c.cacheFailed(ctx, err)
		c.logger.WarnContext(ctx, "student cache read failed", "key", key, "error", err)
		c.recordLookup("error")
	}

	// The shared load outlives any single caller so one cancelled request
	// cannot fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		gen := c.generation()
		st, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.populateIfCurrent(loadCtx, st, gen)
		return st, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Every waiter on the same key shares the value, so hand out private copies.
		return res.Val.(*models.Student).Clone(), nil
	}
}

func (c *CachedStore) generation() uint64 {
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	return c.gen
}

// populateIfCurrent holds the read lock across the write so an invalidation
// either happens before the check (and the write is skipped) or waits for
// the write and then deletes it.
func (c *CachedStore) populateIfCurrent(ctx context.Context, student *models.Student, gen uint64) {
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	if c.gen != gen {
		return
	}
	c.populate(ctx, student)
}

func (c *CachedStore) populate(ctx context.Context, student *models.Student) {
	if c.breaker.IsOpen() {
		return
	}
	data, err := encodeStudent(student)
	if err != nil {
		c.logger.WarnContext(ctx, "encode student for cache failed", "student_id", student.ID().String(), "error", err)
		return
	}
	for _, key := range cacheKeys(student) {
		if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.cacheFailed(ctx, err)
			c.logger.WarnContext(ctx, "student cache write failed", "key", key, "error", err)
			return
		}
	}
}

func (c *CachedStore) invalidate(ctx context.Context, student *models.Student) {
	c.genMu.Lock()
	c.gen++
	c.genMu.Unlock()

	keys := cacheKeys(student)
	if err := c.cache.Del(ctx, keys...).Err(); err != nil {
		c.cacheFailed(ctx, err)
		c.markStale(keys)
		c.logger.WarnContext(ctx, "student cache invalidation failed", "student_id", student.ID().String(), "error", err)
	}
}

func (c *CachedStore) markStale(keys []string) {
	c.staleMu.Lock()
	defer c.staleMu.Unlock()
	for _, k := range keys {
		c.stale[k] = struct{}{}
	}
}

// clearStale retries a failed invalidation for key. It reports whether
// Redis may be read for key.
func (c *CachedStore) clearStale(ctx context.Context, key string) bool {
	c.staleMu.Lock()
	defer c.staleMu.Unlock()
	if _, ok := c.stale[key]; !ok {
		return true
	}
	if err := c.cache.Del(ctx, key).Err(); err != nil {
		c.cacheFailed(ctx, err)
		return false
	}
	delete(c.stale, key)
	return true
}

func (c *CachedStore) cacheSucceeded(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "student cache circuit closed")
	}
}

func (c *CachedStore) cacheFailed(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "student cache circuit opened, reading from backend", "error", err)
	}
}

func (c *CachedStore) recordLookup(result string) {
	if c.metrics != nil {
		c.metrics.IncrementCacheLookup(result)
	}
}

func cacheKeys(student *models.Student) []string {
	return []string{
		keyPrefixID + student.ID().String(),
		keyPrefixMatricula + student.Matricula(),
	}
}
