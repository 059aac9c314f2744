// Package identifier produces short human-facing codes on top of TypeIDs.
package identifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.jetify.com/typeid/v2"
)

const (
	// DefaultSaleNumberPrefix starts every sale number unless configured otherwise
	DefaultSaleNumberPrefix = "V"
	// DefaultMaxAttempts bounds collision retries
	DefaultMaxAttempts = 5

	suffixLength = 6
	typeIDPrefix = "sale"
)

// ErrExhausted is returned when every candidate collided
var ErrExhausted = fmt.Errorf("identifier: no free sale number after %d attempts", DefaultMaxAttempts)

// SaleNumberGenerator builds numbers like V241018-7QK2M9: the date plus the
// random tail of a UUIDv7 TypeID in Crockford base32.
type SaleNumberGenerator struct {
	prefix      string
	maxAttempts int
	now         func() time.Time
	random      func() (string, error)
}

// NewSaleNumberGenerator creates a generator with the default retry budget.
// An empty prefix falls back to DefaultSaleNumberPrefix.
func NewSaleNumberGenerator(prefix string) *SaleNumberGenerator {
	if prefix == "" {
		prefix = DefaultSaleNumberPrefix
	}
	return &SaleNumberGenerator{
		prefix:      prefix,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		random:      randomSuffix,
	}
}

// Generate returns the first candidate the exists callback reports as free
func (g *SaleNumberGenerator) Generate(ctx context.Context, exists func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		suffix, err := g.random()
		if err != nil {
			return "", err
		}
		candidate := g.prefix + g.now().Format("060102") + "-" + suffix
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("identifier: check %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func randomSuffix() (string, error) {
	tid, err := typeid.Generate(typeIDPrefix)
	if err != nil {
		return "", fmt.Errorf("identifier: generate typeid: %w", err)
	}
	s := tid.String()
	// The tail of a UUIDv7 suffix is random; the head is the timestamp
	return strings.ToUpper(s[len(s)-suffixLength:]), nil
}
