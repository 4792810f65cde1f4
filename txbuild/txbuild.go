// Package txbuild constructs the fixed two-purpose tip transaction:
// one value transfer, plus a best-effort commemorative badge mint that
// is never allowed to block the payment.
package txbuild

import (
	"context"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/memo"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/soltip/soltip/ledger"
	"github.com/soltip/soltip/logger"
)

const (
	// badgeName rides in a memo next to the mint instructions. The
	// badge is decorative; there is no metadata account.
	badgeName = "SolTip Supporter"

	// SPL mint account size.
	mintAccountSize = 82
)

// BadgeMint is the optional collectible leg of a tip: the instructions
// to create and mint a one-of-one zero-decimal badge token, plus the
// generated mint key that must co-sign next to the wallet.
type BadgeMint struct {
	Instructions []solana.Instruction
	Mint         solana.PrivateKey
}

// Builder assembles unsigned tip transactions. It consults the ledger
// only for rent figures; fetching a fresh blockhash stays with the
// caller so a stale anchor can never be baked in here.
type Builder struct {
	chain ledger.Client
	log   logger.Logger
}

func NewBuilder(chain ledger.Client, log logger.Logger) *Builder {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Builder{chain: chain, log: log}
}

// TransferInstruction moves lamports from sender to recipient via the
// system program.
func TransferInstruction(sender, recipient solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, sender, recipient).Build()
}

// Build assembles an unsigned transaction with sender as fee payer,
// stamped with the given blockhash.
func Build(instructions []solana.Instruction, blockhash solana.Hash, feePayer solana.PublicKey) (*solana.Transaction, error) {
	return solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(feePayer))
}

// BuildTipTransaction builds the transfer and attempts the badge
// append. Any badge failure is logged and discarded; the returned
// transaction always carries at least the transfer instruction.
func (b *Builder) BuildTipTransaction(ctx context.Context, sender, recipient solana.PublicKey, lamports uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	transfer := TransferInstruction(sender, recipient, lamports)

	if badge := b.TryBadgeMint(ctx, sender); badge != nil {
		tx, err := b.assembleWithBadge(transfer, badge, blockhash, sender)
		if err == nil {
			return tx, nil
		}
		b.log.Warn("badge assembly failed, proceeding with transfer only", map[string]any{
			"error": err.Error(),
		})
	}

	return Build([]solana.Instruction{transfer}, blockhash, sender)
}

// TryBadgeMint generates a fresh one-time mint identity and the
// instruction set for a badge owned by the sender. It never fails past
// its boundary: every construction error is logged and swallowed, and
// the caller sees nil.
func (b *Builder) TryBadgeMint(ctx context.Context, sender solana.PublicKey) *BadgeMint {
	badge, err := b.badgeMint(ctx, sender)
	if err != nil {
		b.log.Warn("badge mint construction failed, proceeding with transfer only", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	return badge
}

func (b *Builder) badgeMint(ctx context.Context, sender solana.PublicKey) (*BadgeMint, error) {
	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	mintPub := mintKey.PublicKey()

	rent, err := b.chain.MinimumBalanceForRentExemption(ctx, mintAccountSize)
	if err != nil {
		return nil, err
	}

	ata, _, err := solana.FindAssociatedTokenAddress(sender, mintPub)
	if err != nil {
		return nil, err
	}

	createMint := system.NewCreateAccountInstruction(
		rent,
		mintAccountSize,
		token.ProgramID,
		sender,
		mintPub,
	).Build()

	initMint := token.NewInitializeMintInstruction(
		0,
		sender,
		sender,
		mintPub,
		solana.SysVarRentPubkey,
	).Build()

	createATA := associatedtokenaccount.NewCreateInstruction(
		sender,
		sender,
		mintPub,
	).Build()

	mintOne := token.NewMintToInstruction(
		1,
		mintPub,
		ata,
		sender,
		nil,
	).Build()

	tag := memo.NewMemoInstruction([]byte(badgeName), sender).Build()

	return &BadgeMint{
		Instructions: []solana.Instruction{createMint, initMint, createATA, mintOne, tag},
		Mint:         mintKey,
	}, nil
}

// assembleWithBadge appends the badge instructions and co-signs with
// the generated mint key. The wallet signature is collected later by
// the pipeline.
func (b *Builder) assembleWithBadge(transfer solana.Instruction, badge *BadgeMint, blockhash solana.Hash, sender solana.PublicKey) (*solana.Transaction, error) {
	instructions := append([]solana.Instruction{transfer}, badge.Instructions...)

	tx, err := Build(instructions, blockhash, sender)
	if err != nil {
		return nil, err
	}

	mintPub := badge.Mint.PublicKey()
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(mintPub) {
			k := badge.Mint
			return &k
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return tx, nil
}
