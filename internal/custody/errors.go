package custody

import "errors"

// Transfer failures are terminal for the enclosing operation: nothing is
// retried and a partial transfer is never reported as success. Callers
// classify with errors.Is.
var (
	// ErrExternalCallReverted reports that the asset contract's mutating
	// call aborted instead of completing.
	ErrExternalCallReverted = errors.New("asset contract call reverted")

	// ErrTransferRejected reports that the asset contract completed the
	// call but did not affirm success: it returned an explicit false, or
	// returned no success indicator at all.
	ErrTransferRejected = errors.New("asset contract rejected transfer")

	// ErrBalanceMismatch reports that the observed balance change differs
	// from the requested quantity. It covers zero movement, partial
	// delivery (fee-taking tokens) and over-delivery alike.
	ErrBalanceMismatch = errors.New("balance delta does not match requested quantity")

	// ErrNativeTransferFailed reports that the native currency send
	// primitive failed.
	ErrNativeTransferFailed = errors.New("native currency transfer failed")
)

// Reason returns the short label for a transfer outcome, the vocabulary
// shared by the journal and the metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, ErrExternalCallReverted):
		return "reverted"
	case errors.Is(err, ErrTransferRejected):
		return "rejected"
	case errors.Is(err, ErrBalanceMismatch):
		return "balance_mismatch"
	case errors.Is(err, ErrNativeTransferFailed):
		return "native_transfer_failed"
	default:
		return "error"
	}
}
