// Package wallet brokers all communication with the external signing
// application. The SessionManager owns the authorization lifecycle;
// every other component reaches the signer only through WithSession.
package wallet

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/soltip/soltip/types"
)

// Errors surfaced by the session manager and expected from Wallet
// implementations. SignTransactions and SignAndSend must return (or
// wrap) ErrUserDeclined when the user cancels and ErrSignerTimeout
// when the signing application is unresponsive, so the submission
// pipeline can tell the two apart from transport faults.
var (
	ErrNotConnected          = errors.New("wallet: no authorized session")
	ErrAlreadyAuthorized     = errors.New("wallet: session already authorized")
	ErrAuthorizationInFlight = errors.New("wallet: authorization already in flight")
	ErrUserDeclined          = errors.New("wallet: user declined")
	ErrSignerTimeout         = errors.New("wallet: signing application timed out")
	ErrNoAccounts            = errors.New("wallet: authorization returned no accounts")
)

// AuthorizeRequest asks the signing application to grant this app the
// use of one of its accounts on the given cluster.
type AuthorizeRequest struct {
	Cluster  types.Cluster
	Identity types.AppIdentity
}

// AuthorizeResult is the signing application's grant.
type AuthorizeResult struct {
	Accounts  []types.Account
	AuthToken string
}

// Wallet is the request/response contract of the signing application,
// valid only inside the scoped exchange that produced it.
type Wallet interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error)
	Deauthorize(ctx context.Context, authToken string) error
	SignTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error)
	SignAndSend(ctx context.Context, txs []*solana.Transaction) ([]solana.Signature, error)
}

// Transactor opens one scoped exchange with the signing application,
// hands the Wallet to fn, and guarantees the channel is closed on
// every exit path, success or failure.
type Transactor interface {
	Transact(ctx context.Context, fn func(ctx context.Context, w Wallet) error) error
}

// SessionFunc runs inside an authorized exchange. The account is a
// read-only snapshot; the credential itself never leaves the session
// manager.
type SessionFunc func(ctx context.Context, w Wallet, account types.Account) error
