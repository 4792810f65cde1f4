// Package soltip implements the payment-session core of a mobile
// tipping app: tip-link encoding, the wallet authorization session,
// and the build-sign-submit-confirm pipeline against a Solana cluster.
package soltip

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/soltip/soltip/config"
	"github.com/soltip/soltip/ledger"
	"github.com/soltip/soltip/logger"
	"github.com/soltip/soltip/metrics"
	"github.com/soltip/soltip/paylink"
	"github.com/soltip/soltip/profile"
	"github.com/soltip/soltip/submission"
	"github.com/soltip/soltip/txbuild"
	"github.com/soltip/soltip/types"
	"github.com/soltip/soltip/wallet"
)

// Service is the single injected object screens share: it owns the
// wallet session, the ledger client, the codec and the submission
// pipeline. Construct it once at process start and pass it down.
type Service struct {
	cfg      *types.Config
	log      logger.Logger
	rec      metrics.Recorder
	codec    *paylink.Codec
	chain    ledger.Client
	sessions *wallet.SessionManager
	submit   *submission.SubmissionService
	profiles *profile.Store
	validate *validator.Validate
}

// New wires a Service against the given signing-application
// transactor. A nil cfg uses the soltip.app defaults.
func New(cfg *types.Config, transactor wallet.Transactor, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = types.DefaultConfig()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		log:      logger.NoopLogger{},
		rec:      metrics.NoopRecorder{},
		codec:    paylink.NewCodec(cfg.LinkHost, cfg.LinkScheme),
		validate: validator.New(),
	}
	if cfg.EnableMetrics {
		s.rec = metrics.NewPrometheusRecorder()
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chain == nil {
		s.chain = ledger.NewRPCClient(cfg.Cluster, cfg.RPCURL)
	}
	if s.profiles == nil && cfg.ProfileDBPath != "" {
		store, err := profile.NewStore(cfg.ProfileDBPath)
		if err != nil {
			return nil, &types.TipError{
				Code:    types.ErrCodeConfig,
				Message: "failed to open profile store",
				Err:     err,
			}
		}
		s.profiles = store
	}

	s.sessions = wallet.NewSessionManager(transactor, cfg.Identity, cfg.Cluster, s.log, s.rec)
	builder := txbuild.NewBuilder(s.chain, s.log)
	s.submit = submission.NewSubmissionService(s.sessions, s.chain, builder, cfg.ConfirmTimeout, s.log, s.rec)

	return s, nil
}

// Connect authorizes a wallet session.
func (s *Service) Connect(ctx context.Context) error {
	return s.sessions.Connect(ctx)
}

// Disconnect revokes and clears the wallet session.
func (s *Service) Disconnect(ctx context.Context) error {
	return s.sessions.Disconnect(ctx)
}

// CurrentAccount returns the authorized account snapshot, or nil.
func (s *Service) CurrentAccount() *types.Account {
	return s.sessions.CurrentAccount()
}

// SessionState returns the wallet session lifecycle state.
func (s *Service) SessionState() types.SessionState {
	return s.sessions.State()
}

// SendTip runs one submission attempt and returns its terminal
// outcome. Validation failures, a missing session and a pending
// submission surface as errors before anything touches the network.
func (s *Service) SendTip(ctx context.Context, req types.PaymentRequest, intent types.PaymentIntent) (*types.TransactionOutcome, error) {
	if err := s.validate.Struct(&req); err != nil {
		return nil, &types.TipError{
			Code:    types.ErrCodeValidation,
			Message: "invalid payment request",
			Err:     err,
		}
	}
	if err := s.validate.Struct(&intent); err != nil {
		return nil, &types.TipError{
			Code:    types.ErrCodeValidation,
			Message: "invalid payment intent",
			Err:     err,
		}
	}
	return s.submit.Submit(ctx, req, intent)
}

// TipLink renders the connected creator's shareable tip link, merging
// the stored display profile when one exists.
func (s *Service) TipLink() (string, error) {
	account := s.sessions.CurrentAccount()
	if account == nil {
		return "", &types.TipError{
			Code:    types.ErrCodeNotConnected,
			Message: "connect a wallet before sharing a tip link",
		}
	}

	req := types.PaymentRequest{Address: account.Address, Name: account.Label}
	if s.profiles != nil {
		if p, err := s.profiles.Get(account.Address); err == nil && p != nil {
			req.Name = p.Name
			req.Bio = p.Bio
			req.Avatar = p.AvatarURI
		}
	}

	return s.codec.Encode(req), nil
}

// EncodeRequest renders an arbitrary payment request as a tip link.
func (s *Service) EncodeRequest(req types.PaymentRequest) string {
	return s.codec.Encode(req)
}

// ParseTipLink decodes a scanned or linked payload.
func (s *Service) ParseTipLink(payload string) (types.PaymentRequest, error) {
	return s.codec.Decode(payload)
}

// Balance reads the connected account's lamport balance.
func (s *Service) Balance(ctx context.Context) (uint64, error) {
	account := s.sessions.CurrentAccount()
	if account == nil {
		return 0, &types.TipError{
			Code:    types.ErrCodeNotConnected,
			Message: "connect a wallet to read a balance",
		}
	}
	key, err := account.PublicKey()
	if err != nil {
		return 0, err
	}
	return s.chain.Balance(ctx, key)
}

// Profile returns the stored display profile for the connected
// account, or nil when none exists.
func (s *Service) Profile() (*profile.Profile, error) {
	account, err := s.requireProfileAccount()
	if err != nil {
		return nil, err
	}
	return s.profiles.Get(account.Address)
}

// SaveProfile stores the display profile for the connected account.
func (s *Service) SaveProfile(name, bio, avatarURI string) error {
	account, err := s.requireProfileAccount()
	if err != nil {
		return err
	}
	return s.profiles.Put(&profile.Profile{
		Address:   account.Address,
		Name:      name,
		Bio:       bio,
		AvatarURI: avatarURI,
	})
}

func (s *Service) requireProfileAccount() (*types.Account, error) {
	if s.profiles == nil {
		return nil, &types.TipError{
			Code:    types.ErrCodeConfig,
			Message: "profile store is not configured",
		}
	}
	account := s.sessions.CurrentAccount()
	if account == nil {
		return nil, &types.TipError{
			Code:    types.ErrCodeNotConnected,
			Message: "connect a wallet to use profiles",
		}
	}
	return account, nil
}

// Close releases the ledger client and the profile store.
func (s *Service) Close() {
	s.chain.Close()
	if s.profiles != nil {
		_ = s.profiles.Close()
	}
}

// Version of the soltip library.
const Version = "1.0.0"
