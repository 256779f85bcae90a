package outbox

import (
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

func logrusNop() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type RelayOptions struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxAttempts     int
	MaxBackoff      time.Duration
	JitterMax       time.Duration
	LockTTL         time.Duration
	DispatchTimeout time.Duration
	SingleActive    bool

	Logger *logrus.Logger
	Rand   *rand.Rand
}

func (o *RelayOptions) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 25
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Minute
	}
	if o.JitterMax < 0 {
		o.JitterMax = 0
	}
	if o.LockTTL <= 0 {
		o.LockTTL = time.Minute
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = 30 * time.Second
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
}
