package services

import (
	"crypto/rand"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = 10

// Option customizes a service.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	random     io.Reader
	now        func() time.Time
	events     EventPublisher
	bcryptCost int
}

func buildOptions(opts []Option) options {
	o := options{
		logger:     zap.NewNop(),
		random:     rand.Reader,
		now:        time.Now,
		bcryptCost: defaultBcryptCost,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRandom replaces the source used for identifiers and access tokens.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.random = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEventPublisher installs a publisher for thought events.
func WithEventPublisher(events EventPublisher) Option {
	return func(o *options) {
		o.events = events
	}
}

// WithBcryptCost sets the password hashing work factor. Values outside
// bcrypt's accepted range fall back to the default.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			o.bcryptCost = cost
		}
	}
}
