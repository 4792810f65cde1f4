package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/soltip/soltip/logger"
	"github.com/soltip/soltip/metrics"
	"github.com/soltip/soltip/types"
)

// SessionManager owns the relationship with the external signing
// application: a state machine over unauthorized -> authorizing ->
// authorized -> deauthorizing. The auth token is held here and nowhere
// else; authToken is present iff account is present.
type SessionManager struct {
	transactor Transactor
	identity   types.AppIdentity
	cluster    types.Cluster
	log        logger.Logger
	rec        metrics.Recorder

	// exchangeMu serializes every exchange with the signing
	// application. Connect, Disconnect and WithSession all funnel
	// through it, so at most one exchange is open system-wide.
	exchangeMu sync.Mutex

	// mu guards the state fields below.
	mu        sync.Mutex
	state     types.SessionState
	account   *types.Account
	authToken string
}

// NewSessionManager wires a session manager against a transactor. The
// logger and recorder may be nil.
func NewSessionManager(transactor Transactor, identity types.AppIdentity, cluster types.Cluster, log logger.Logger, rec metrics.Recorder) *SessionManager {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &SessionManager{
		transactor: transactor,
		identity:   identity,
		cluster:    cluster,
		log:        log,
		rec:        rec,
		state:      types.SessionUnauthorized,
	}
}

// State returns the current lifecycle state.
func (m *SessionManager) State() types.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentAccount is a non-blocking read of the authorized account, or
// nil when there is none.
func (m *SessionManager) CurrentAccount() *types.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != types.SessionAuthorized || m.account == nil {
		return nil
	}
	snapshot := *m.account
	return &snapshot
}

// Connect requests authorization for the configured app identity and
// cluster. Valid only from the unauthorized state; a concurrent
// Connect while one is authorizing is rejected immediately. On any
// failure the state returns to unauthorized and no account is held.
func (m *SessionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case types.SessionAuthorized:
		m.mu.Unlock()
		return ErrAlreadyAuthorized
	case types.SessionAuthorizing, types.SessionDeauthorizing:
		m.mu.Unlock()
		return ErrAuthorizationInFlight
	}
	m.state = types.SessionAuthorizing
	m.mu.Unlock()

	exchangeID := uuid.NewString()
	m.log.Debug("wallet authorize exchange opening", map[string]any{
		"exchange_id": exchangeID,
		"cluster":     m.cluster.String(),
	})

	var result AuthorizeResult
	err := m.withExchange(ctx, func(ctx context.Context, w Wallet) error {
		res, err := w.Authorize(ctx, AuthorizeRequest{
			Cluster:  m.cluster,
			Identity: m.identity,
		})
		if err != nil {
			return err
		}
		if len(res.Accounts) == 0 {
			return ErrNoAccounts
		}
		result = res
		return nil
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = types.SessionUnauthorized
		m.account = nil
		m.authToken = ""
		m.log.Warn("wallet authorization failed", map[string]any{
			"exchange_id": exchangeID,
			"error":       err.Error(),
		})
		m.rec.IncCounter("session_connect", map[string]string{"status": "failed"})
		return err
	}

	account := result.Accounts[0]
	m.state = types.SessionAuthorized
	m.account = &account
	m.authToken = result.AuthToken
	m.log.Info("wallet authorized", map[string]any{
		"exchange_id": exchangeID,
		"address":     account.Address,
		"label":       account.Label,
	})
	m.rec.IncCounter("session_connect", map[string]string{"status": "authorized"})
	return nil
}

// Disconnect presents the held credential for revocation, then clears
// local state unconditionally. A failed revocation is logged but never
// leaves the manager believing it is still connected.
func (m *SessionManager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	if m.state != types.SessionAuthorized {
		m.mu.Unlock()
		return ErrNotConnected
	}
	token := m.authToken
	m.state = types.SessionDeauthorizing
	m.mu.Unlock()

	err := m.withExchange(ctx, func(ctx context.Context, w Wallet) error {
		return w.Deauthorize(ctx, token)
	})
	if err != nil {
		m.log.Warn("wallet deauthorization failed, clearing local session anyway", map[string]any{
			"error": err.Error(),
		})
	}

	m.mu.Lock()
	m.state = types.SessionUnauthorized
	m.account = nil
	m.authToken = ""
	m.mu.Unlock()

	m.rec.IncCounter("session_disconnect", map[string]string{"status": "cleared"})
	return nil
}

// WithSession opens one scoped exchange for an authorized caller and
// passes the wallet handle plus the account snapshot to fn. This is
// the single integration point the submission pipeline uses.
func (m *SessionManager) WithSession(ctx context.Context, fn SessionFunc) error {
	m.mu.Lock()
	if m.state != types.SessionAuthorized || m.account == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	account := *m.account
	m.mu.Unlock()

	return m.withExchange(ctx, func(ctx context.Context, w Wallet) error {
		return fn(ctx, w, account)
	})
}

// withExchange holds the exclusive exchange slot for the duration of
// one Transact call. The transactor owns opening and closing the
// channel; the deferred unlock keeps the slot leak-free even when fn
// panics.
func (m *SessionManager) withExchange(ctx context.Context, fn func(ctx context.Context, w Wallet) error) error {
	m.exchangeMu.Lock()
	defer m.exchangeMu.Unlock()
	return m.transactor.Transact(ctx, fn)
}
