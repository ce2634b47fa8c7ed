package confidential

import (
	"context"

	"github.com/tos-network/unocore/common"
)

// State is the BlockchainVerificationState seam from spec §4.2 and §9:
// the verifier is generic over an adapter that supplies and mutates
// per-account state, polymorphic over an embedder-chosen error type E.
// The verifier never constrains E beyond "it implements error".
type State[E error] interface {
	// PreVerifyTx is a host hook run before any other check: rate
	// limiting, banned-source checks, anything the embedder wants to
	// reject on before spending cycles on crypto.
	PreVerifyTx(ctx context.Context, tx *Transaction) (bool, E)

	GetAccountNonce(ctx context.Context, source common.Address) (uint64, E)
	UpdateAccountNonce(ctx context.Context, source common.Address, newNonce uint64) E

	// GetSenderBalance returns a mutable handle to the historical balance
	// at reference; mutations made through it are visible to subsequent
	// calls within the same batch.
	GetSenderBalance(ctx context.Context, source common.Address, asset common.Hash, reference Reference) (*Ciphertext, E)
	// GetReceiverBalance returns the current balance, created lazily at
	// zero if absent.
	GetReceiverBalance(ctx context.Context, dest common.Address, asset common.Hash) (*Ciphertext, E)

	AddSenderOutput(ctx context.Context, source common.Address, asset common.Hash, output Ciphertext) E

	GetMultiSigState(ctx context.Context, source common.Address) (*MultiSigPayload, E)
	SetMultiSigState(ctx context.Context, source common.Address, payload *MultiSigPayload) E
}

// isNilErr reports whether an adapter-typed error value is the "no error"
// case. Boxing into the plain error interface before comparing to nil is
// always legal, even though E is only constrained by the error interface
// and not by comparable.
func isNilErr[E error](e E) bool {
	var boxed error = e
	return boxed == nil
}
