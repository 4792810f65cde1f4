// Package ledger is the soltip view of the Solana RPC surface: the
// handful of calls the submission pipeline needs, behind an interface
// so tests can run against a fake chain.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrConfirmationTimeout is returned when a submitted transaction does
// not reach the requested commitment within the bounded wait.
var ErrConfirmationTimeout = errors.New("ledger: transaction not confirmed in time")

// ExecutionError reports a transaction that confirmed but whose
// instructions the ledger rejected.
type ExecutionError struct {
	TxErr interface{}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("ledger: transaction failed on-chain: %v", e.TxErr)
}

// Blockhash is the short-lived network-state anchor stamped on a
// transaction. It expires after a bounded window; callers must fetch
// it immediately before building and never reuse a stale one.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// SubmitOptions control preflight and commitment for a submission.
type SubmitOptions struct {
	SkipPreflight bool
	Commitment    rpc.CommitmentType
}

// Client is the ledger contract consumed by the pipeline and the
// transaction builder.
type Client interface {
	// Balance returns the account's lamport balance.
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// LatestBlockhash fetches a fresh network-state anchor.
	LatestBlockhash(ctx context.Context) (Blockhash, error)

	// MinimumBalanceForRentExemption returns the lamports a new
	// account of the given size must hold.
	MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)

	// Submit broadcasts a signed transaction.
	Submit(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (solana.Signature, error)

	// Confirm waits, bounded by ctx, until the signature reaches the
	// commitment. An on-chain execution failure surfaces as
	// *ExecutionError.
	Confirm(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error

	Close()
}
