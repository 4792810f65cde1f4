package txbuild

import (
	"context"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltip/soltip/ledger"
)

type fakeChain struct {
	rent    uint64
	rentErr error
}

var _ ledger.Client = (*fakeChain)(nil)

func (f *fakeChain) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeChain) LatestBlockhash(ctx context.Context) (ledger.Blockhash, error) {
	return ledger.Blockhash{}, nil
}

func (f *fakeChain) MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	if f.rentErr != nil {
		return 0, f.rentErr
	}
	return f.rent, nil
}

func (f *fakeChain) Submit(ctx context.Context, tx *solana.Transaction, opts ledger.SubmitOptions) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (f *fakeChain) Confirm(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error {
	return nil
}

func (f *fakeChain) Close() {}

func testKeys(t *testing.T) (sender, recipient solana.PublicKey) {
	t.Helper()
	s, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	r, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return s.PublicKey(), r.PublicKey()
}

// findTransfer decodes the compiled message and returns the lamports
// of the first system-program transfer it finds.
func findTransfer(t *testing.T, tx *solana.Transaction) uint64 {
	t.Helper()

	data, err := tx.MarshalBinary()
	require.NoError(t, err)

	decoded, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
	require.NoError(t, err)

	for _, inst := range decoded.Message.Instructions {
		prog := decoded.Message.AccountKeys[inst.ProgramIDIndex]
		if !prog.Equals(solana.SystemProgramID) {
			continue
		}

		metas := make([]*solana.AccountMeta, len(inst.Accounts))
		for i, accIdx := range inst.Accounts {
			pub := decoded.Message.AccountKeys[accIdx]
			writable, err := decoded.Message.IsWritable(pub)
			require.NoError(t, err)
			metas[i] = &solana.AccountMeta{
				PublicKey:  pub,
				IsSigner:   decoded.Message.IsSigner(pub),
				IsWritable: writable,
			}
		}

		sysInst, err := system.DecodeInstruction(metas, inst.Data)
		if err != nil {
			continue
		}
		if transfer, ok := sysInst.Impl.(*system.Transfer); ok {
			return *transfer.Lamports
		}
	}

	t.Fatal("no system transfer instruction found")
	return 0
}

func TestBuildTipTransactionWithBadge(t *testing.T) {
	sender, recipient := testKeys(t)
	builder := NewBuilder(&fakeChain{rent: 1_461_600}, nil)

	tx, err := builder.BuildTipTransaction(context.Background(), sender, recipient, 250_000_000, solana.Hash{})
	require.NoError(t, err)

	// transfer + create mint + init mint + create ATA + mint to + memo
	assert.Len(t, tx.Message.Instructions, 6)
	assert.Equal(t, uint64(250_000_000), findTransfer(t, tx))
	assert.True(t, tx.Message.AccountKeys[0].Equals(sender), "sender must be fee payer")
}

func TestBuildTipTransactionBadgeFaultFallsBack(t *testing.T) {
	sender, recipient := testKeys(t)
	builder := NewBuilder(&fakeChain{rentErr: errors.New("rpc down")}, nil)

	tx, err := builder.BuildTipTransaction(context.Background(), sender, recipient, 100, solana.Hash{})
	require.NoError(t, err, "badge failure must never block the payment")

	assert.Len(t, tx.Message.Instructions, 1)
	assert.Equal(t, uint64(100), findTransfer(t, tx))
}

func TestTryBadgeMintSwallowsConstructionFaults(t *testing.T) {
	sender, _ := testKeys(t)
	builder := NewBuilder(&fakeChain{rentErr: errors.New("rpc down")}, nil)

	assert.Nil(t, builder.TryBadgeMint(context.Background(), sender))
}

func TestTryBadgeMintProducesCoSigner(t *testing.T) {
	sender, _ := testKeys(t)
	builder := NewBuilder(&fakeChain{rent: 1_461_600}, nil)

	badge := builder.TryBadgeMint(context.Background(), sender)
	require.NotNil(t, badge)
	assert.Len(t, badge.Instructions, 5)
	assert.False(t, badge.Mint.PublicKey().IsZero())
}

func TestTransferInstruction(t *testing.T) {
	sender, recipient := testKeys(t)

	tx, err := Build([]solana.Instruction{TransferInstruction(sender, recipient, 42)}, solana.Hash{}, sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), findTransfer(t, tx))
}
