package identifier

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saleNumberPattern = regexp.MustCompile(`^V\d{6}-[0-9A-Z]{6}$`)

func TestSaleNumberGenerator_Format(t *testing.T) {
	g := NewSaleNumberGenerator("")
	g.now = func() time.Time { return time.Date(2024, 10, 18, 9, 0, 0, 0, time.UTC) }

	n, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Regexp(t, saleNumberPattern, n)
	assert.Equal(t, "V241018-", n[:8])
}

func TestSaleNumberGenerator_RetriesOnCollision(t *testing.T) {
	g := NewSaleNumberGenerator("")
	suffixes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	g.random = func() (string, error) {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s, nil
	}
	g.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

	seen := map[string]bool{"V240102-AAAAAA": true}
	var calls int
	n, err := g.Generate(context.Background(), func(_ context.Context, c string) (bool, error) {
		calls++
		return seen[c], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "V240102-BBBBBB", n)
	assert.Equal(t, 3, calls)
}

func TestSaleNumberGenerator_GivesUp(t *testing.T) {
	g := NewSaleNumberGenerator("")
	var calls int
	_, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, DefaultMaxAttempts, calls)

	boom := errors.New("db down")
	_, err = g.Generate(context.Background(), func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestSaleNumberGenerator_CustomPrefix(t *testing.T) {
	g := NewSaleNumberGenerator("SOL")
	g.now = func() time.Time { return time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) }

	n, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Regexp(t, `^SOL250309-[0-9A-Z]{6}$`, n)
}
