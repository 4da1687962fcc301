// Package jitter добавляет случайность в интервалы повторов,
// чтобы клиенты не повторяли запросы синхронно.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает d, увеличенную на случайную долю в диапазоне [0, jitterFactor).
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	j := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(j)
}

// ExponentialBackoff считает задержку перед попыткой attempt (с нуля):
// base * 2^attempt, не больше max, плюс джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, jitterFactor)
}

// Policy описывает параметры повторов.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// Retry вызывает fn до Attempts раз с экспоненциальной задержкой между попытками.
// Возвращает последнюю ошибку fn либо ошибку контекста.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(ExponentialBackoff(p.Base, p.Max, attempt, DefaultJitter)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
