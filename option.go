package soltip

import (
	"time"

	"github.com/soltip/soltip/ledger"
	"github.com/soltip/soltip/logger"
	"github.com/soltip/soltip/metrics"
	"github.com/soltip/soltip/profile"
)

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		s.rec = r
	}
}

// WithLedger injects a ledger client, replacing the default RPC
// client. Tests use this to run against a fake chain.
func WithLedger(c ledger.Client) Option {
	return func(s *Service) {
		s.chain = c
	}
}

// WithProfileStore injects an already-open profile store.
func WithProfileStore(store *profile.Store) Option {
	return func(s *Service) {
		s.profiles = store
	}
}

// WithConfirmTimeout bounds the confirmation wait.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.cfg.ConfirmTimeout = d
	}
}
