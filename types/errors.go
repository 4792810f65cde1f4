package types

import "errors"

// TipError is the structured error surfaced across package boundaries.
type TipError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *TipError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TipError) Unwrap() error {
	return e.Err
}

// Error codes, in the order a submission can hit them.
const (
	// Bad amount or missing recipient. Detected locally, before any
	// network call.
	ErrCodeValidation = "VALIDATION_ERROR"

	// No authorized wallet session.
	ErrCodeNotConnected = "NOT_CONNECTED"

	// A submission is already pending; repeated taps must not
	// double-spend.
	ErrCodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"

	// Balance check failed before any signature was requested.
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"

	// The user declined in the signing application.
	ErrCodeSignerDeclined = "SIGNER_DECLINED"

	// The signing application was unresponsive past the bounded wait.
	ErrCodeSignerTimeout = "SIGNER_TIMEOUT"

	// Network or RPC fault.
	ErrCodeTransport = "TRANSPORT_ERROR"

	// The transaction confirmed but the ledger rejected the
	// instructions.
	ErrCodeOnChainExecution = "ONCHAIN_EXECUTION_ERROR"

	ErrCodeConfig = "CONFIG_ERROR"
)

// IsCode reports whether err is, or wraps, a TipError carrying the
// given code.
func IsCode(err error, code string) bool {
	var te *TipError
	return errors.As(err, &te) && te.Code == code
}
