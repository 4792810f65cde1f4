package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/soltip/soltip/types"
)

const statusPollInterval = 2 * time.Second

// RPCClient implements Client over the public JSON-RPC API.
type RPCClient struct {
	cluster types.Cluster
	rpcURL  string
	client  *rpc.Client
}

var _ Client = (*RPCClient)(nil)

// NewRPCClient dials the given endpoint, or the cluster's public
// endpoint when rpcURL is empty.
func NewRPCClient(cluster types.Cluster, rpcURL string) *RPCClient {
	if rpcURL == "" {
		rpcURL = cluster.RPCEndpoint()
	}
	return &RPCClient{
		cluster: cluster,
		rpcURL:  rpcURL,
		client:  rpc.New(rpcURL),
	}
}

func (c *RPCClient) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.client.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return Blockhash{}, err
	}
	return Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

func (c *RPCClient) MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	return c.client.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentConfirmed)
}

func (c *RPCClient) Submit(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (solana.Signature, error) {
	commitment := opts.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: commitment,
	})
}

// Confirm polls signature statuses until the requested commitment is
// reached or ctx expires. The poll loop lives here, inside the ledger
// client; callers see a single bounded wait.
func (c *RPCClient) Confirm(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		out, err := c.client.GetSignatureStatuses(ctx, false, sig)
		if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return &ExecutionError{TxErr: status.Err}
			}
			if reached(status.ConfirmationStatus, commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

func reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	if status == rpc.ConfirmationStatusFinalized {
		return true
	}
	if commitment == rpc.CommitmentFinalized {
		return false
	}
	if status == rpc.ConfirmationStatusConfirmed {
		return true
	}
	return commitment == rpc.CommitmentProcessed && status == rpc.ConfirmationStatusProcessed
}

func (c *RPCClient) Close() {}
