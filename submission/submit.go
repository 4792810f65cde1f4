// Package submission orchestrates one tip from validated intent to a
// single terminal outcome: acquire session, pre-check balance, build,
// sign, submit with preflight, confirm, classify.
package submission

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/soltip/soltip/ledger"
	"github.com/soltip/soltip/logger"
	"github.com/soltip/soltip/metrics"
	"github.com/soltip/soltip/txbuild"
	"github.com/soltip/soltip/types"
	"github.com/soltip/soltip/utils"
	"github.com/soltip/soltip/wallet"
)

// Sessions is the slice of the session manager the pipeline needs.
type Sessions interface {
	WithSession(ctx context.Context, fn wallet.SessionFunc) error
}

// SubmissionService runs the payment pipeline. One submission may be
// in flight at a time; a second Submit while one is pending is
// rejected immediately so repeated taps cannot double-spend.
type SubmissionService struct {
	sessions       Sessions
	chain          ledger.Client
	builder        *txbuild.Builder
	confirmTimeout time.Duration
	log            logger.Logger
	rec            metrics.Recorder

	inFlight atomic.Bool
}

func NewSubmissionService(sessions Sessions, chain ledger.Client, builder *txbuild.Builder, confirmTimeout time.Duration, log logger.Logger, rec metrics.Recorder) *SubmissionService {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 30 * time.Second
	}
	return &SubmissionService{
		sessions:       sessions,
		chain:          chain,
		builder:        builder,
		confirmTimeout: confirmTimeout,
		log:            log,
		rec:            rec,
	}
}

// Submit runs one submission attempt and produces exactly one
// terminal outcome. Precondition failures — bad intent, no session, a
// submission already pending — are returned as errors before anything
// touches the network; once the pipeline starts, every fault is
// classified into the outcome instead.
func (s *SubmissionService) Submit(ctx context.Context, req types.PaymentRequest, intent types.PaymentIntent) (*types.TransactionOutcome, error) {
	recipient, lamports, err := validate(req, intent)
	if err != nil {
		return nil, err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, &types.TipError{
			Code:    types.ErrCodeSubmissionInFlight,
			Message: "a submission is already in flight",
		}
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	var outcome *types.TransactionOutcome

	err = s.sessions.WithSession(ctx, func(ctx context.Context, w wallet.Wallet, account types.Account) error {
		outcome = s.run(ctx, w, account, recipient, lamports)
		return nil
	})
	if err != nil {
		if errors.Is(err, wallet.ErrNotConnected) {
			return nil, &types.TipError{
				Code:    types.ErrCodeNotConnected,
				Message: "connect a wallet before sending a tip",
				Err:     err,
			}
		}
		// The exchange itself failed before the pipeline could run.
		outcome = s.classify(err)
	}

	s.rec.IncCounter("submission_outcome", map[string]string{"status": string(outcome.Status)})
	s.rec.ObserveLatency("submission", time.Since(start), map[string]string{"status": string(outcome.Status)})
	return outcome, nil
}

// run executes the in-session part of the pipeline. All exchanges are
// sequential; no two network calls overlap within one submission.
func (s *SubmissionService) run(ctx context.Context, w wallet.Wallet, account types.Account, recipient solana.PublicKey, lamports uint64) *types.TransactionOutcome {
	sender, err := account.PublicKey()
	if err != nil {
		return failed("invalid sender account: " + err.Error())
	}

	balance, err := s.chain.Balance(ctx, sender)
	if err != nil {
		return s.classify(err)
	}
	if balance < lamports {
		s.log.Info("rejecting tip before signing, balance too low", map[string]any{
			"balance":  balance,
			"lamports": lamports,
		})
		return &types.TransactionOutcome{
			Status: types.OutcomeRejected,
			Reason: types.ReasonInsufficientFunds,
		}
	}

	// The anchor is short-lived; fetch it immediately before building.
	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return s.classify(err)
	}

	tx, err := s.builder.BuildTipTransaction(ctx, sender, recipient, lamports, blockhash.Hash)
	if err != nil {
		return failed("transaction build failed: " + err.Error())
	}

	signed, err := w.SignTransactions(ctx, []*solana.Transaction{tx})
	if err != nil {
		return s.classify(err)
	}
	if len(signed) == 0 {
		return failed("signing application returned no transactions")
	}

	sig, err := s.chain.Submit(ctx, signed[0], ledger.SubmitOptions{
		SkipPreflight: false,
		Commitment:    rpc.CommitmentConfirmed,
	})
	if err != nil {
		return s.classify(err)
	}
	if err := utils.ValidateSignature(sig.String()); err != nil {
		return failed("ledger returned an unusable signature: " + err.Error())
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	if err := s.chain.Confirm(confirmCtx, sig, rpc.CommitmentConfirmed); err != nil {
		var exec *ledger.ExecutionError
		if errors.As(err, &exec) {
			return &types.TransactionOutcome{
				Status:    types.OutcomeRejected,
				Signature: sig.String(),
				Reason:    types.ReasonExecutionError,
				Cause:     exec.Error(),
			}
		}
		if errors.Is(err, ledger.ErrConfirmationTimeout) {
			return &types.TransactionOutcome{
				Status:    types.OutcomeFailed,
				Signature: sig.String(),
				Cause:     "confirmation timed out",
			}
		}
		return s.classify(err)
	}

	s.log.Info("tip confirmed", map[string]any{
		"signature":  sig.String(),
		"amount_sol": utils.FormatAmountFromBigInt(new(big.Int).SetUint64(lamports), 9),
	})
	return &types.TransactionOutcome{
		Status:    types.OutcomeConfirmed,
		Signature: sig.String(),
	}
}

// validate runs the local checks. It makes no network calls.
func validate(req types.PaymentRequest, intent types.PaymentIntent) (solana.PublicKey, uint64, error) {
	if req.Address == "" {
		return solana.PublicKey{}, 0, &types.TipError{
			Code:    types.ErrCodeValidation,
			Message: "recipient address is missing",
		}
	}
	if err := utils.ValidateAddress(req.Address); err != nil {
		return solana.PublicKey{}, 0, &types.TipError{
			Code:    types.ErrCodeValidation,
			Message: "recipient address is not a valid public key",
			Err:     err,
		}
	}

	recipient, err := req.RecipientKey()
	if err != nil {
		return solana.PublicKey{}, 0, &types.TipError{
			Code:    types.ErrCodeValidation,
			Message: "recipient address is not a valid public key",
			Err:     err,
		}
	}

	lamports, err := intent.Lamports()
	if err != nil {
		return solana.PublicKey{}, 0, err
	}

	return recipient, lamports, nil
}

// classify folds a signer or transport fault into a terminal outcome.
func (s *SubmissionService) classify(err error) *types.TransactionOutcome {
	switch {
	case errors.Is(err, wallet.ErrUserDeclined):
		return &types.TransactionOutcome{Status: types.OutcomeCancelled}
	case errors.Is(err, wallet.ErrSignerTimeout):
		return failed("signing application timed out")
	default:
		return failed(err.Error())
	}
}

func failed(cause string) *types.TransactionOutcome {
	return &types.TransactionOutcome{
		Status: types.OutcomeFailed,
		Cause:  cause,
	}
}
