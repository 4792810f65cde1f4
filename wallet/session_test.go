package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltip/soltip/types"
)

type fakeWallet struct {
	authorizeErr   error
	deauthorizeErr error
	accounts       []types.Account
	authToken      string

	authorizeCalls   int
	deauthorizeCalls int
	deauthorizedWith string
}

func (f *fakeWallet) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error) {
	f.authorizeCalls++
	if f.authorizeErr != nil {
		return AuthorizeResult{}, f.authorizeErr
	}
	return AuthorizeResult{Accounts: f.accounts, AuthToken: f.authToken}, nil
}

func (f *fakeWallet) Deauthorize(ctx context.Context, authToken string) error {
	f.deauthorizeCalls++
	f.deauthorizedWith = authToken
	return f.deauthorizeErr
}

func (f *fakeWallet) SignTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	return txs, nil
}

func (f *fakeWallet) SignAndSend(ctx context.Context, txs []*solana.Transaction) ([]solana.Signature, error) {
	return make([]solana.Signature, len(txs)), nil
}

// fakeTransactor hands the fake wallet to fn and tracks that every
// exchange it opens is closed again.
type fakeTransactor struct {
	wallet *fakeWallet

	mu          sync.Mutex
	open        bool
	opened      int
	closed      int
	gate        chan struct{} // when set, Transact blocks until the gate closes
	transactErr error
}

func (f *fakeTransactor) Transact(ctx context.Context, fn func(ctx context.Context, w Wallet) error) error {
	if f.transactErr != nil {
		return f.transactErr
	}

	f.mu.Lock()
	if f.open {
		f.mu.Unlock()
		panic("second exchange opened while one is active")
	}
	f.open = true
	f.opened++
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.open = false
		f.closed++
		f.mu.Unlock()
	}()

	if f.gate != nil {
		<-f.gate
	}
	return fn(ctx, f.wallet)
}

func testAccount() types.Account {
	return types.Account{
		Address: "EAx3oF6kmpAa6aR9G6LjhuWoqKJLpYsufSDoGp2dDWkh",
		Label:   "Test Wallet",
	}
}

func newTestManager(w *fakeWallet) (*SessionManager, *fakeTransactor) {
	tr := &fakeTransactor{wallet: w}
	m := NewSessionManager(tr, types.AppIdentity{Name: "SolTip", URI: "https://soltip.app"}, types.ClusterDevnet, nil, nil)
	return m, tr
}

func TestConnectAuthorizes(t *testing.T) {
	w := &fakeWallet{accounts: []types.Account{testAccount()}, authToken: "token-1"}
	m, tr := newTestManager(w)

	require.Nil(t, m.CurrentAccount())
	require.Equal(t, types.SessionUnauthorized, m.State())

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, types.SessionAuthorized, m.State())
	acc := m.CurrentAccount()
	require.NotNil(t, acc)
	assert.Equal(t, testAccount().Address, acc.Address)
	assert.Equal(t, 1, w.authorizeCalls)
	assert.Equal(t, tr.opened, tr.closed)
}

func TestConnectFailureReturnsToUnauthorized(t *testing.T) {
	w := &fakeWallet{authorizeErr: ErrUserDeclined}
	m, tr := newTestManager(w)

	err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUserDeclined)
	assert.Equal(t, types.SessionUnauthorized, m.State())
	assert.Nil(t, m.CurrentAccount())
	assert.Equal(t, tr.opened, tr.closed, "exchange must be closed on failure")
}

func TestConnectEmptyAccountList(t *testing.T) {
	w := &fakeWallet{authToken: "token-1"}
	m, _ := newTestManager(w)

	err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoAccounts)
	assert.Equal(t, types.SessionUnauthorized, m.State())
}

func TestConnectWhileAuthorized(t *testing.T) {
	w := &fakeWallet{accounts: []types.Account{testAccount()}, authToken: "token-1"}
	m, _ := newTestManager(w)

	require.NoError(t, m.Connect(context.Background()))
	assert.ErrorIs(t, m.Connect(context.Background()), ErrAlreadyAuthorized)
	assert.Equal(t, 1, w.authorizeCalls)
}

func TestConcurrentConnectRejected(t *testing.T) {
	w := &fakeWallet{accounts: []types.Account{testAccount()}, authToken: "token-1"}
	tr := &fakeTransactor{wallet: w, gate: make(chan struct{})}
	m := NewSessionManager(tr, types.AppIdentity{Name: "SolTip", URI: "https://soltip.app"}, types.ClusterDevnet, nil, nil)

	first := make(chan error, 1)
	go func() { first <- m.Connect(context.Background()) }()

	// Wait for the first attempt to reach the authorizing state.
	require.Eventually(t, func() bool {
		return m.State() == types.SessionAuthorizing
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, m.Connect(context.Background()), ErrAuthorizationInFlight)

	close(tr.gate)
	require.NoError(t, <-first)
	assert.Equal(t, 1, w.authorizeCalls)
}

func TestDisconnectClearsState(t *testing.T) {
	w := &fakeWallet{accounts: []types.Account{testAccount()}, authToken: "token-1"}
	m, _ := newTestManager(w)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Disconnect(context.Background()))

	assert.Equal(t, types.SessionUnauthorized, m.State())
	assert.Nil(t, m.CurrentAccount())
	assert.Equal(t, "token-1", w.deauthorizedWith)
}

func TestDisconnectClearsStateWhenRevocationFails(t *testing.T) {
	w := &fakeWallet{
		accounts:       []types.Account{testAccount()},
		authToken:      "token-1",
		deauthorizeErr: errors.New("rpc unreachable"),
	}
	m, _ := newTestManager(w)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Disconnect(context.Background()))

	assert.Equal(t, types.SessionUnauthorized, m.State())
	assert.Nil(t, m.CurrentAccount(), "local state must clear even when revocation fails")
}

func TestDisconnectWithoutSession(t *testing.T) {
	w := &fakeWallet{}
	m, _ := newTestManager(w)

	assert.ErrorIs(t, m.Disconnect(context.Background()), ErrNotConnected)
}

func TestWithSessionRequiresAuthorization(t *testing.T) {
	w := &fakeWallet{}
	m, _ := newTestManager(w)

	err := m.WithSession(context.Background(), func(ctx context.Context, wl Wallet, account types.Account) error {
		t.Fatal("session func must not run without authorization")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestWithSessionPassesAccountSnapshot(t *testing.T) {
	w := &fakeWallet{accounts: []types.Account{testAccount()}, authToken: "token-1"}
	m, tr := newTestManager(w)

	require.NoError(t, m.Connect(context.Background()))

	var seen types.Account
	err := m.WithSession(context.Background(), func(ctx context.Context, wl Wallet, account types.Account) error {
		seen = account
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, testAccount(), seen)
	assert.Equal(t, tr.opened, tr.closed)
}

func TestWithSessionClosesExchangeOnError(t *testing.T) {
	w := &fakeWallet{accounts: []types.Account{testAccount()}, authToken: "token-1"}
	m, tr := newTestManager(w)

	require.NoError(t, m.Connect(context.Background()))

	boom := errors.New("boom")
	err := m.WithSession(context.Background(), func(ctx context.Context, wl Wallet, account types.Account) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, tr.opened, tr.closed)
}
