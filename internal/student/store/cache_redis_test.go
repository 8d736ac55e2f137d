package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"registrar/internal/student/metrics"
	"registrar/internal/student/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/sentinel"
)

// fakeCache is an in-process stand-in for the go-redis client.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failAll error
	failDel error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStringResult("", f.failAll)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStatusResult("", f.failAll)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	if f.failDel != nil {
		return redis.NewIntResult(0, f.failDel)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeCache) setFailures(all, del error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = all
	f.failDel = del
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// countingBackend counts lookups that reach the wrapped store.
type countingBackend struct {
	*InMemory
	mu    sync.Mutex
	byID  int
	byMat int
}

func (b *countingBackend) FindByID(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	b.mu.Lock()
	b.byID++
	b.mu.Unlock()
	return b.InMemory.FindByID(ctx, studentID)
}

func (b *countingBackend) FindByMatricula(ctx context.Context, matricula string) (*models.Student, error) {
	b.mu.Lock()
	b.byMat++
	b.mu.Unlock()
	return b.InMemory.FindByMatricula(ctx, matricula)
}

// gatedBackend holds the first FindByID after it has read the row, until
// release is closed. It lets tests interleave writes with a slow load.
type gatedBackend struct {
	*InMemory
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{
		InMemory: NewInMemory(),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (b *gatedBackend) FindByID(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	st, err := b.InMemory.FindByID(ctx, studentID)
	gate := false
	b.once.Do(func() { gate = true })
	if gate {
		close(b.started)
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return st, err
}

type CachedStoreSuite struct {
	suite.Suite
	ctx     context.Context
	cache   *fakeCache
	backend *countingBackend
	metrics *metrics.Metrics
	store   *CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = newFakeCache()
	s.backend = &countingBackend{InMemory: NewInMemory()}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = NewCached(s.backend, s.cache, time.Minute,
		WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCacheMetrics(s.metrics),
	)
}

func (s *CachedStoreSuite) newStudent(matricula string, email *string) *models.Student {
	st, err := models.NewStudent("Ana", 20, email, models.FixedMatricula(matricula))
	s.Require().NoError(err)
	return st
}

func (s *CachedStoreSuite) TestSavePrimesBothKeys() {
	st := s.newStudent("123456", nil)
	s.Require().NoError(s.store.Save(s.ctx, st))

	s.True(s.cache.has(keyPrefixID + st.ID().String()))
	s.True(s.cache.has(keyPrefixMatricula + "123456"))
	s.Equal(time.Minute, s.cache.ttls[keyPrefixID+st.ID().String()])

	found, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal(st.ID(), found.ID())
	s.Equal(0, s.backend.byID, "primed lookup must not reach the backend")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("hit")))
}

func (s *CachedStoreSuite) TestMissReadsThroughAndPopulates() {
	st := s.newStudent("222222", strPtr("x@y.com"))
	s.Require().NoError(s.backend.InMemory.Save(s.ctx, st))

	found, err := s.store.FindByMatricula(s.ctx, "222222")
	s.Require().NoError(err)
	s.Equal("x@y.com", *found.Email())
	s.Equal(1, s.backend.byMat)

	_, err = s.store.FindByMatricula(s.ctx, "222222")
	s.Require().NoError(err)
	s.Equal(1, s.backend.byMat, "second lookup is served from cache")

	_, err = s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal(0, s.backend.byID, "read-through populated the ID key too")
}

func (s *CachedStoreSuite) TestNotFoundIsNotCached() {
	_, err := s.store.FindByMatricula(s.ctx, "999999")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.False(s.cache.has(keyPrefixMatricula + "999999"))
}

func (s *CachedStoreSuite) TestUpdateInvalidates() {
	st := s.newStudent("333333", nil)
	s.Require().NoError(s.store.Save(s.ctx, st))

	st.SetEmail("new@x.com")
	s.Require().NoError(s.store.Update(s.ctx, st))
	s.False(s.cache.has(keyPrefixID + st.ID().String()))
	s.False(s.cache.has(keyPrefixMatricula + "333333"))

	found, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal("new@x.com", *found.Email())
}

func (s *CachedStoreSuite) TestUpdateOfUnknownStudentFails() {
	ghost := s.newStudent("444444", nil)
	s.Require().ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestCacheOutageDegradesToBackend() {
	st := s.newStudent("555555", nil)
	s.Require().NoError(s.backend.InMemory.Save(s.ctx, st))
	s.cache.failAll = errors.New("connection refused")

	found, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal(st.ID(), found.ID())

	other := s.newStudent("666666", nil)
	s.Require().NoError(s.store.Save(s.ctx, other))
	other.SetEmail("z@z.com")
	s.Require().NoError(s.store.Update(s.ctx, other))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("error")))
}

func (s *CachedStoreSuite) TestCorruptEntryFallsBack() {
	st := s.newStudent("777777", nil)
	s.Require().NoError(s.backend.InMemory.Save(s.ctx, st))
	s.cache.data[keyPrefixID+st.ID().String()] = "{garbage"

	found, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal(st.ID(), found.ID())
	s.Equal(1, s.backend.byID)
}

func (s *CachedStoreSuite) TestFindAllBypassesCache() {
	s.Require().NoError(s.store.Save(s.ctx, s.newStudent("888888", nil)))
	s.cache.failAll = errors.New("down")

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *CachedStoreSuite) TestReturnedStudentsAreIndependent() {
	st := s.newStudent("909090", strPtr("a@a.com"))
	s.Require().NoError(s.backend.InMemory.Save(s.ctx, st))

	a, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	a.SetEmail("changed@a.com")

	b, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal("a@a.com", *b.Email())
}

func (s *CachedStoreSuite) TestOpenBreakerSkipsRedis() {
	s.store = NewCached(s.backend, s.cache, time.Minute,
		WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCacheMetrics(s.metrics),
		WithCacheBreaker(circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))),
	)
	st := s.newStudent("313131", nil)
	s.Require().NoError(s.backend.InMemory.Save(s.ctx, st))
	s.cache.failAll = errors.New("connection refused")

	_, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)

	s.cache.failAll = nil
	found, err := s.store.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal(st.ID(), found.ID())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("bypass")))
	s.False(s.cache.has(keyPrefixID+st.ID().String()), "open breaker must not write to redis")
}

func (s *CachedStoreSuite) TestFailedInvalidationIsNotServed() {
	s.Run("Del fails once", func() {
		s.SetupTest()
		st := s.newStudent("414141", strPtr("old@x.com"))
		s.Require().NoError(s.store.Save(s.ctx, st))

		s.cache.setFailures(nil, errors.New("connection reset"))
		st.SetEmail("new@x.com")
		s.Require().NoError(s.store.Update(s.ctx, st))
		s.cache.setFailures(nil, nil)

		found, err := s.store.FindByID(s.ctx, st.ID())
		s.Require().NoError(err)
		s.Equal("new@x.com", *found.Email())

		byMat, err := s.store.FindByMatricula(s.ctx, "414141")
		s.Require().NoError(err)
		s.Equal("new@x.com", *byMat.Email())
	})

	s.Run("Redis down during update then back", func() {
		s.SetupTest()
		st := s.newStudent("424242", strPtr("old@x.com"))
		s.Require().NoError(s.store.Save(s.ctx, st))

		s.cache.setFailures(errors.New("connection refused"), nil)
		st.SetEmail("new@x.com")
		s.Require().NoError(s.store.Update(s.ctx, st))
		s.cache.setFailures(nil, nil)

		found, err := s.store.FindByID(s.ctx, st.ID())
		s.Require().NoError(err)
		s.Equal("new@x.com", *found.Email())
	})

	s.Run("Del keeps failing", func() {
		s.SetupTest()
		st := s.newStudent("434343", strPtr("old@x.com"))
		s.Require().NoError(s.store.Save(s.ctx, st))

		s.cache.setFailures(nil, errors.New("READONLY replica"))
		st.SetEmail("new@x.com")
		s.Require().NoError(s.store.Update(s.ctx, st))

		found, err := s.store.FindByID(s.ctx, st.ID())
		s.Require().NoError(err)
		s.Equal("new@x.com", *found.Email())
		s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("bypass")))
	})
}

func (s *CachedStoreSuite) TestLoadRacingUpdateDoesNotRepopulate() {
	backend := newGatedBackend()
	cached := NewCached(backend, s.cache, time.Minute,
		WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	st := s.newStudent("454545", strPtr("old@x.com"))
	s.Require().NoError(backend.InMemory.Save(s.ctx, st))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cached.FindByID(s.ctx, st.ID())
	}()
	<-backend.started

	st.SetEmail("new@x.com")
	s.Require().NoError(cached.Update(s.ctx, st))
	close(backend.release)
	<-done

	s.False(s.cache.has(keyPrefixID+st.ID().String()), "a load that raced an update must not be cached")
	found, err := cached.FindByID(s.ctx, st.ID())
	s.Require().NoError(err)
	s.Equal("new@x.com", *found.Email())
}

func (s *CachedStoreSuite) TestCancelledCallerDoesNotFailSharedLoad() {
	backend := newGatedBackend()
	cached := NewCached(backend, s.cache, time.Minute,
		WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	st := s.newStudent("464646", nil)
	s.Require().NoError(backend.InMemory.Save(s.ctx, st))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.FindByID(firstCtx, st.ID())
		firstErr <- err
	}()
	<-backend.started

	type result struct {
		st  *models.Student
		err error
	}
	second := make(chan result, 1)
	go func() {
		found, err := cached.FindByID(context.Background(), st.ID())
		second <- result{found, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	s.ErrorIs(<-firstErr, context.Canceled)

	close(backend.release)
	got := <-second
	s.Require().NoError(got.err)
	s.Equal(st.ID(), got.st.ID())
}
