package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// CachedQuestionBank caches question sets in Redis and falls back to the wrapped bank on a miss.
// Each set is stored as a JSON array under quiz:bank:{subject}:{chapter}; listings are passed
// straight through.
type CachedQuestionBank struct {
	client *redis.Client
	bank   app.QuestionBank
	ttl    time.Duration
	log    logrus.FieldLogger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewCachedQuestionBank(client *redis.Client, bank app.QuestionBank, ttl time.Duration, logger logrus.FieldLogger) *CachedQuestionBank {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedQuestionBank{
		client: client,
		bank:   bank,
		ttl:    ttl,
		log:    logger.WithField("component", "redis-bank"),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedQuestionBank) Subjects(ctx context.Context) ([]string, error) {
	return c.bank.Subjects(ctx)
}

func (c *CachedQuestionBank) Chapters(ctx context.Context, subject string) ([]string, error) {
	return c.bank.Chapters(ctx, subject)
}

func (c *CachedQuestionBank) Questions(ctx context.Context, subject, chapter string) ([]domain.Question, error) {
	key := bankKey(subject, chapter)
	if qs, ok := c.lookup(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := c.lookup(ctx, key); ok {
			return qs, nil
		}
		qs, err := c.bank.Questions(ctx, subject, chapter)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, qs)
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached set so the next read goes to the backing bank.
func (c *CachedQuestionBank) Invalidate(ctx context.Context, subject, chapter string) error {
	return c.client.Del(ctx, bankKey(subject, chapter)).Err()
}

func (c *CachedQuestionBank) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Warn("read cached questions")
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	return qs, true
}

func (c *CachedQuestionBank) store(ctx context.Context, key string, qs []domain.Question) {
	raw, err := json.Marshal(qs)
	if err != nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, raw, 0)
	if ttl := c.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache questions")
	}
}

func (c *CachedQuestionBank) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func bankKey(subject, chapter string) string {
	return "quiz:bank:" + subject + ":" + chapter
}
