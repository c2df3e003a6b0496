package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// StaticQuestionBank is a bank backed by an in-memory slice (useful for tests/demos).
type StaticQuestionBank struct {
	questions []domain.Question
}

func NewStaticQuestionBank(questions []domain.Question) *StaticQuestionBank {
	return &StaticQuestionBank{questions: questions}
}

func (b *StaticQuestionBank) Subjects(_ context.Context) ([]string, error) {
	return distinct(b.questions, func(q domain.Question) (string, bool) { return q.Subject, true }), nil
}

func (b *StaticQuestionBank) Chapters(_ context.Context, subject string) ([]string, error) {
	return distinct(b.questions, func(q domain.Question) (string, bool) { return q.Chapter, q.Subject == subject }), nil
}

func (b *StaticQuestionBank) Questions(_ context.Context, subject, chapter string) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range b.questions {
		if q.Subject == subject && q.Chapter == chapter {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return out, nil
}

func distinct(questions []domain.Question, pick func(domain.Question) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, q := range questions {
		v, ok := pick(q)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CachedQuestionBank caches question sets with TTL to avoid repeated DB hits. Subject and
// chapter listings are passed straight through.
type CachedQuestionBank struct {
	bank  app.QuestionBank
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedQuestionBank(bank app.QuestionBank, ttl time.Duration) *CachedQuestionBank {
	return &CachedQuestionBank{
		bank:  bank,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedSet),
	}
}

func (c *CachedQuestionBank) Subjects(ctx context.Context) ([]string, error) {
	return c.bank.Subjects(ctx)
}

func (c *CachedQuestionBank) Chapters(ctx context.Context, subject string) ([]string, error) {
	return c.bank.Chapters(ctx, subject)
}

func (c *CachedQuestionBank) Questions(ctx context.Context, subject, chapter string) ([]domain.Question, error) {
	key := subject + "\x00" + chapter
	if qs, ok := c.lookup(key); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if qs, ok := c.lookup(key); ok {
			return qs, nil
		}
		qs, err := c.bank.Questions(ctx, subject, chapter)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = cachedSet{questions: qs, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CachedQuestionBank) lookup(key string) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (c *CachedQuestionBank) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
