package closer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloser_LIFO(t *testing.T) {
	c := NewCloser(0)
	var order []string

	c.AddFunc("db", func() error { order = append(order, "db"); return nil })
	c.AddFunc("redis", func() error { order = append(order, "redis"); return nil })
	c.AddFunc("http", func() error { order = append(order, "http"); return nil })

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "redis", "db"}, order)
}

func TestCloser_CollectsErrors(t *testing.T) {
	c := NewCloser(0)
	c.AddFunc("broken", func() error { return errors.New("boom") })
	c.AddFunc("ok", func() error { return nil })

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
}

func TestCloser_CloseOnce(t *testing.T) {
	c := NewCloser(0)
	calls := 0
	c.AddFunc("x", func() error { calls++; return nil })

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestCloser_ForcedAfterTimeout(t *testing.T) {
	c := NewCloser(50 * time.Millisecond)
	c.Add("slow", func(context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return errors.New("late")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted")
	assert.Contains(t, err.Error(), "[FORCED] slow")
}
