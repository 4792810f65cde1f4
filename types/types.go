package types

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/soltip/soltip/utils"
)

// LamportsPerSOL is the number of minor units in one SOL.
const LamportsPerSOL = 1_000_000_000

// solDecimals is the lamport precision of the native token.
const solDecimals = 9

// PaymentRequest identifies a creator who can receive tips. It is the
// decoded form of a scanned QR code or deep link and is immutable once
// created.
type PaymentRequest struct {
	// Base58 account identifier of the recipient.
	Address string `json:"address" validate:"required"`

	// Display name of the recipient.
	Name string `json:"name,omitempty"`

	// Short bio shown on the pay screen.
	Bio string `json:"bio,omitempty"`

	// Avatar image URI.
	Avatar string `json:"avatar,omitempty"`
}

// RecipientKey parses the recipient address into a public key.
func (r PaymentRequest) RecipientKey() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(r.Address)
}

// PaymentIntent is the per-submission value entered by the user. The
// amount is kept as the raw decimal string; conversion to lamports
// happens once, at validation time.
type PaymentIntent struct {
	// Amount in SOL, as entered (e.g. "0.1").
	Amount string `json:"amount" validate:"required"`

	// Optional free-text message. Decorative only, never placed
	// on-chain.
	Message string `json:"message,omitempty"`
}

// Lamports converts the major-unit amount to lamports, flooring any
// sub-lamport fraction. The amount must parse to a positive number,
// round down to at least one lamport, and fit in a uint64.
func (i PaymentIntent) Lamports() (uint64, error) {
	raw, err := utils.ParseAmountWithDecimals(i.Amount, solDecimals)
	if err != nil {
		return 0, &TipError{
			Code:    ErrCodeValidation,
			Message: "amount is not a valid number",
			Err:     err,
		}
	}

	if raw.Sign() <= 0 {
		return 0, &TipError{
			Code:    ErrCodeValidation,
			Message: "amount must round to at least one lamport",
		}
	}

	if !raw.IsUint64() {
		return 0, &TipError{
			Code:    ErrCodeValidation,
			Message: "amount exceeds the representable lamport range",
		}
	}

	return raw.Uint64(), nil
}

// Account is the wallet account snapshot handed out by the session
// manager. Other components never see the auth credential.
type Account struct {
	// Base58 public key of the account.
	Address string `json:"address"`

	// Human label reported by the signing application.
	Label string `json:"label,omitempty"`
}

// PublicKey parses the account address.
func (a Account) PublicKey() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(a.Address)
}

// SessionState is the wallet session lifecycle state.
type SessionState string

const (
	SessionUnauthorized  SessionState = "unauthorized"
	SessionAuthorizing   SessionState = "authorizing"
	SessionAuthorized    SessionState = "authorized"
	SessionDeauthorizing SessionState = "deauthorizing"
)

// AppIdentity is presented to the signing application during
// authorization.
type AppIdentity struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
	Icon string `json:"icon,omitempty"`
}

// OutcomeStatus classifies the terminal result of one submission.
type OutcomeStatus string

const (
	// The transaction confirmed cleanly.
	OutcomeConfirmed OutcomeStatus = "confirmed"

	// The ledger (or a local pre-check) rejected the payment.
	OutcomeRejected OutcomeStatus = "rejected"

	// The user declined in the signing application.
	OutcomeCancelled OutcomeStatus = "cancelled"

	// A transport fault or signer timeout stopped the submission.
	OutcomeFailed OutcomeStatus = "failed"
)

// Rejection reasons.
const (
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonExecutionError    = "onchain_execution_error"
)

// TransactionOutcome is produced exactly once per submission attempt.
// It is never persisted.
type TransactionOutcome struct {
	Status    OutcomeStatus `json:"status"`
	Signature string        `json:"signature,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Cause     string        `json:"cause,omitempty"`
}

// Confirmed reports whether the payment landed on-chain.
func (o *TransactionOutcome) Confirmed() bool {
	return o != nil && o.Status == OutcomeConfirmed
}

// Config carries global configuration for the soltip library.
type Config struct {
	// Target cluster. The signing application is asked to authorize
	// against the same cluster.
	Cluster Cluster `json:"cluster"`

	// RPC endpoint override. Defaults to the cluster's public
	// endpoint when empty.
	RPCURL string `json:"rpcUrl,omitempty"`

	// Identity presented to the signing application.
	Identity AppIdentity `json:"identity"`

	// Hostname marker recognized in tip links.
	LinkHost string `json:"linkHost"`

	// Custom scheme marker recognized in tip links.
	LinkScheme string `json:"linkScheme"`

	// Upper bound on the confirmation wait.
	ConfirmTimeout time.Duration `json:"confirmTimeout,omitempty"`

	// Path of the local profile database. Profiles are disabled when
	// empty.
	ProfileDBPath string `json:"profileDbPath,omitempty"`

	LogLevel      string `json:"logLevel,omitempty"`
	EnableMetrics bool   `json:"enableMetrics,omitempty"`
}

// DefaultConfig mirrors the soltip.app defaults.
func DefaultConfig() *Config {
	return &Config{
		Cluster: ClusterDevnet,
		Identity: AppIdentity{
			Name: "SolTip",
			URI:  "https://soltip.app",
			Icon: "favicon.ico",
		},
		LinkHost:       "soltip.app",
		LinkScheme:     "tipsol",
		ConfirmTimeout: 30 * time.Second,
		LogLevel:       "info",
	}
}
