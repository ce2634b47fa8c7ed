package confidential

import (
	"context"

	"github.com/gtank/merlin"
	"golang.org/x/crypto/sha3"

	"github.com/tos-network/unocore/common"
)

// PreVerifyResult is the per-tx output of pre-verification: the
// Fiat-Shamir transcript (already advanced through every sigma
// challenge, ready for the range-proof stage to keep appending into)
// and the value-commitment vector assembled in step 14.
type PreVerifyResult struct {
	Transcript  *merlin.Transcript
	Commitments [][2]CompressedPoint
}

// senderOutputCiphertext computes the sender-side output ciphertext for
// asset: the native-asset fee, plus every transfer and burn amount that
// spends that asset, summed homomorphically. Step 10 of PreVerify.
func senderOutputCiphertext[E error](tx *Transaction, asset common.Hash) (Ciphertext, error) {
	out := zeroCiphertext()
	var err error
	if asset == common.Hash(NativeAsset) {
		if out, err = addPublicScalar(out, tx.Fee); err != nil {
			return Ciphertext{}, wrapErr[E](KindProof, ErrProof)
		}
	}
	switch tx.PayloadKind {
	case PayloadTransfers:
		for _, t := range tx.Transfers {
			if t.Asset != asset {
				continue
			}
			if out, err = addCiphertexts(out, transferAsCiphertext(t)); err != nil {
				return Ciphertext{}, wrapErr[E](KindProof, ErrProof)
			}
		}
	case PayloadBurn:
		if tx.Burn.Asset == asset {
			if out, err = addPublicScalar(out, tx.Burn.Amount); err != nil {
				return Ciphertext{}, wrapErr[E](KindProof, ErrProof)
			}
		}
	}
	return out, nil
}

// validatePayload runs step 5's payload-specific bound checks.
func validatePayload[E error](tx *Transaction) error {
	switch tx.PayloadKind {
	case PayloadTransfers:
		count := len(tx.Transfers)
		if count == 0 || count > MaxTransferCount {
			return wrapErr[E](KindTransferCount, ErrTransferCount)
		}
		sum := 0
		for _, t := range tx.Transfers {
			if t.Destination == tx.Source {
				return wrapErr[E](KindSenderIsReceiver, ErrSenderIsReceiver)
			}
			if len(t.ExtraData) > ExtraDataLimitSize {
				return wrapErr[E](KindTransferExtraDataSize, ErrTransferExtraDataSize)
			}
			sum += len(t.ExtraData)
			if _, err := t.Commitment.Decompress(); err != nil {
				return wrapErr[E](KindProof, ErrProof)
			}
			if _, err := t.SenderHandle.Decompress(); err != nil {
				return wrapErr[E](KindProof, ErrProof)
			}
			if _, err := t.ReceiverHandle.Decompress(); err != nil {
				return wrapErr[E](KindProof, ErrProof)
			}
		}
		if sum > ExtraDataLimitSumSize {
			return wrapErr[E](KindTxExtraDataSize, ErrTxExtraDataSize)
		}
	case PayloadBurn:
		if tx.Burn.Amount == 0 {
			return wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
		}
		if tx.Burn.Amount > ^uint64(0)-tx.Fee {
			return wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
		}
	case PayloadMultiSig:
		mp := tx.MultiSigPayload
		if len(mp.Participants) > MaxMultiSigParticipants {
			return wrapErr[E](KindMultiSigParticipants, ErrMultiSigParticipants)
		}
		// threshold==0 with a non-empty participant list is the reset
		// case (spec §3): it is a format-valid payload whose acceptance
		// depends on whether the account already has a multisig config,
		// which this format-only gate cannot see — PreVerify's step 13
		// checks that against state once it has queried it.
		if mp.Threshold > 0 && int(mp.Threshold) > len(mp.Participants) {
			return wrapErr[E](KindMultiSigThreshold, ErrMultiSigThreshold)
		}
	default:
		return wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
	}
	return nil
}

// PreVerify runs the ordered stages of the transaction verifier against
// one transaction, folding every sigma proof into sigmaBatch and
// mutating state in place. It does not itself check sigmaBatch or the
// range proof — VerifyBatch does that once per batch.
func PreVerify[E error](ctx context.Context, tx *Transaction, state State[E], sigmaBatch *BatchCollector) (*PreVerifyResult, error) {
	// 1. Format gate.
	if tx.Version == V0 && (tx.MultiSig != nil || tx.PayloadKind == PayloadMultiSig) {
		return nil, wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
	}

	// 2. State hook.
	accepted, stErr := state.PreVerifyTx(ctx, tx)
	if !isNilErr(stErr) {
		return nil, stateErr[E](stErr)
	}
	if !accepted {
		return nil, wrapErr[E](KindRejectedByHost, ErrRejectedByHost)
	}

	// 3. Nonce.
	nonce, nErr := state.GetAccountNonce(ctx, tx.Source)
	if !isNilErr(nErr) {
		return nil, stateErr[E](nErr)
	}
	if nonce != tx.Nonce {
		return nil, invalidNonceErr[E](tx.Nonce, nonce)
	}
	if uErr := state.UpdateAccountNonce(ctx, tx.Source, nonce+1); !isNilErr(uErr) {
		return nil, stateErr[E](uErr)
	}

	// 4. Commitment-asset invariants.
	for asset := range tx.referencedAssets() {
		if tx.sourceCommitmentFor(asset) == nil {
			return nil, wrapErr[E](KindCommitments, ErrCommitments)
		}
	}
	seenAssets := make(map[common.Hash]struct{}, len(tx.SourceCommitments))
	for _, sc := range tx.SourceCommitments {
		if _, dup := seenAssets[sc.Asset]; dup {
			return nil, wrapErr[E](KindCommitments, ErrCommitments)
		}
		seenAssets[sc.Asset] = struct{}{}
	}

	// 5. Payload-specific validation.
	if err := validatePayload[E](tx); err != nil {
		return nil, err
	}

	// 6. Decompress source commitments and source public key.
	sourceKey := CompressedPoint(tx.Source)
	if _, err := sourceKey.Decompress(); err != nil {
		return nil, wrapErr[E](KindProof, ErrProof)
	}
	for i := range tx.SourceCommitments {
		if _, err := tx.SourceCommitments[i].NewCommitment.Decompress(); err != nil {
			return nil, wrapErr[E](KindProof, ErrProof)
		}
	}

	// 7. Transcript init.
	transcript := newTranscript()
	appendTxHeader(transcript, tx.Version, sourceKey, tx.Fee, tx.Nonce)

	// 8. Signature.
	if err := verifySchnorr(sourceKey, tx.signedBytes(), tx.Signature); err != nil {
		return nil, wrapErr[E](KindInvalidSignature, ErrInvalidSignature)
	}

	// 9. MultiSig verification.
	multisigCfg, msErr := state.GetMultiSigState(ctx, tx.Source)
	if !isNilErr(msErr) {
		return nil, stateErr[E](msErr)
	}
	if multisigCfg != nil && multisigCfg.Threshold > 0 {
		if int(multisigCfg.Threshold) > MaxMultiSigParticipants {
			return nil, wrapErr[E](KindMultiSigThreshold, ErrMultiSigThreshold)
		}
		if tx.MultiSig == nil || len(tx.MultiSig.Sigs) != int(multisigCfg.Threshold) {
			return nil, wrapErr[E](KindMultiSigParticipants, ErrMultiSigParticipants)
		}
		bodyBytes, err := tx.multiSigBodyBytes(len(tx.MultiSig.Sigs))
		if err != nil {
			return nil, wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
		}
		bodyHash := sha3.Sum256(bodyBytes)
		for _, sig := range tx.MultiSig.Sigs {
			if int(sig.ParticipantIndex) >= len(multisigCfg.Participants) {
				return nil, wrapErr[E](KindMultiSigParticipants, ErrMultiSigParticipants)
			}
			participantKey := CompressedPoint(multisigCfg.Participants[sig.ParticipantIndex])
			if err := verifySchnorr(participantKey, bodyHash[:], sig.Signature); err != nil {
				return nil, wrapErr[E](KindInvalidSignature, ErrInvalidSignature)
			}
		}
	} else if tx.MultiSig != nil {
		return nil, wrapErr[E](KindMultiSigNotConfigured, ErrMultiSigNotConfigured)
	}

	commitments := make([][2]CompressedPoint, 0, len(tx.SourceCommitments)+len(tx.Transfers))

	// 10. Per-commitment equality proof.
	for i := range tx.SourceCommitments {
		sc := &tx.SourceCommitments[i]
		outputCt, err := senderOutputCiphertext[E](tx, sc.Asset)
		if err != nil {
			return nil, err
		}
		balance, bErr := state.GetSenderBalance(ctx, tx.Source, sc.Asset, tx.Reference)
		if !isNilErr(bErr) {
			return nil, stateErr[E](bErr)
		}
		updated, err := subCiphertexts(*balance, outputCt)
		if err != nil {
			return nil, wrapErr[E](KindProof, ErrProof)
		}
		*balance = updated

		appendCommitmentEqDomain(transcript, sc.Asset, sc.NewCommitment)
		if err := sc.EqProof.PreVerify(sourceKey, updated, sc.NewCommitment, transcript, sigmaBatch); err != nil {
			return nil, wrapErr[E](KindGenericProof, err)
		}
		if oErr := state.AddSenderOutput(ctx, tx.Source, sc.Asset, outputCt); !isNilErr(oErr) {
			return nil, stateErr[E](oErr)
		}

		// Value-commitment pair: the new balance commitment must be
		// proven non-negative on its own, so the "old" slot is identity.
		commitments = append(commitments, [2]CompressedPoint{sc.NewCommitment, IdentityCompressed()})
	}

	// 11. Per-transfer validity proof and receiver update.
	if tx.PayloadKind == PayloadTransfers {
		for _, t := range tx.Transfers {
			receiverKey := CompressedPoint(t.Destination)
			if _, err := receiverKey.Decompress(); err != nil {
				return nil, wrapErr[E](KindProof, ErrProof)
			}
			recvBalance, rErr := state.GetReceiverBalance(ctx, t.Destination, t.Asset)
			if !isNilErr(rErr) {
				return nil, stateErr[E](rErr)
			}
			updated, err := addCiphertexts(*recvBalance, transferReceiverCiphertext(t))
			if err != nil {
				return nil, wrapErr[E](KindProof, ErrProof)
			}
			*recvBalance = updated

			appendTransferDomain(transcript, receiverKey, t.Commitment, t.SenderHandle, t.ReceiverHandle)
			if err := t.ValidityProof.PreVerify(t.Commitment, receiverKey, t.ReceiverHandle, sourceKey, t.SenderHandle, transcript, sigmaBatch); err != nil {
				return nil, wrapErr[E](KindGenericProof, err)
			}

			// Value-commitment pair: the transfer amount commitment is
			// proven non-negative on its own.
			commitments = append(commitments, [2]CompressedPoint{t.Commitment, IdentityCompressed()})
		}
	}

	// 12. Burn: symmetric bookkeeping credit to the burner's own balance.
	// See DESIGN.md for the resolved open question on this step.
	if tx.PayloadKind == PayloadBurn {
		recvBalance, rErr := state.GetReceiverBalance(ctx, tx.Source, tx.Burn.Asset)
		if !isNilErr(rErr) {
			return nil, stateErr[E](rErr)
		}
		updated, err := addPublicScalar(*recvBalance, tx.Burn.Amount)
		if err != nil {
			return nil, wrapErr[E](KindProof, ErrProof)
		}
		*recvBalance = updated
	}

	// 13. MultiSig config.
	if tx.PayloadKind == PayloadMultiSig {
		mp := tx.MultiSigPayload
		isReset := mp.Threshold == 0 && len(mp.Participants) != 0
		if isReset && multisigCfg == nil {
			return nil, wrapErr[E](KindMultiSigNotConfigured, ErrMultiSigNotConfigured)
		}
		participantKeys := make([]CompressedPoint, len(tx.MultiSigPayload.Participants))
		for i, p := range tx.MultiSigPayload.Participants {
			participantKeys[i] = CompressedPoint(p)
		}
		appendMultiSigDomain(transcript, tx.MultiSigPayload.Threshold, participantKeys)
		payload := tx.MultiSigPayload
		if sErr := state.SetMultiSigState(ctx, tx.Source, &payload); !isNilErr(sErr) {
			return nil, stateErr[E](sErr)
		}
	}

	// 14. Value-commitment vector assembly: pad to the next power of two.
	commitments = PadCommitments(commitments)

	return &PreVerifyResult{Transcript: transcript, Commitments: commitments}, nil
}

// VerifyBatch runs PreVerify over every tx in order, feeding one shared
// sigma BatchCollector, then checks the sigma batch and the range-proof
// batch each with a single multiscalar multiplication.
func VerifyBatch[E error](ctx context.Context, txs []*Transaction, state State[E]) error {
	sigmaBatch := NewBatchCollector()
	results := make([]*PreVerifyResult, len(txs))
	for i, tx := range txs {
		res, err := PreVerify[E](ctx, tx, state, sigmaBatch)
		if err != nil {
			return err
		}
		results[i] = res
	}

	if err := sigmaBatch.Verify(); err != nil {
		return wrapErr[E](KindGenericProof, ErrGenericProof)
	}

	entries := make([]RangeProofBatchEntry, len(txs))
	for i, tx := range txs {
		entries[i] = RangeProofBatchEntry{
			Proof:       tx.RangeProof,
			Commitments: results[i].Commitments,
			Transcript:  results[i].Transcript,
		}
	}
	rangeBatch := NewBatchCollector()
	if err := VerifyRangeProofBatch(entries, rangeBatch); err != nil {
		return wrapErr[E](KindProof, err)
	}
	if err := rangeBatch.Verify(); err != nil {
		return wrapErr[E](KindGenericProof, ErrGenericProof)
	}
	return nil
}

// Verify is the singleton convenience wrapper around VerifyBatch.
func Verify[E error](ctx context.Context, tx *Transaction, state State[E]) error {
	return VerifyBatch[E](ctx, []*Transaction{tx}, state)
}

// ApplyWithoutVerify mirrors the state mutations PreVerify performs
// without touching any proof or transcript: nonce bump, per-asset output
// bookkeeping, receiver credit, multisig set. Used when a block has
// already been verified elsewhere and the adapter only needs to advance.
func ApplyWithoutVerify[E error](ctx context.Context, tx *Transaction, state State[E]) error {
	if tx.Version == V0 && (tx.MultiSig != nil || tx.PayloadKind == PayloadMultiSig) {
		return wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
	}

	nonce, nErr := state.GetAccountNonce(ctx, tx.Source)
	if !isNilErr(nErr) {
		return stateErr[E](nErr)
	}
	if uErr := state.UpdateAccountNonce(ctx, tx.Source, nonce+1); !isNilErr(uErr) {
		return stateErr[E](uErr)
	}

	for i := range tx.SourceCommitments {
		sc := &tx.SourceCommitments[i]
		outputCt, err := senderOutputCiphertext[E](tx, sc.Asset)
		if err != nil {
			return err
		}
		balance, bErr := state.GetSenderBalance(ctx, tx.Source, sc.Asset, tx.Reference)
		if !isNilErr(bErr) {
			return stateErr[E](bErr)
		}
		updated, err := subCiphertexts(*balance, outputCt)
		if err != nil {
			return wrapErr[E](KindProof, ErrProof)
		}
		*balance = updated
		if oErr := state.AddSenderOutput(ctx, tx.Source, sc.Asset, outputCt); !isNilErr(oErr) {
			return stateErr[E](oErr)
		}
	}

	if tx.PayloadKind == PayloadTransfers {
		for _, t := range tx.Transfers {
			recvBalance, rErr := state.GetReceiverBalance(ctx, t.Destination, t.Asset)
			if !isNilErr(rErr) {
				return stateErr[E](rErr)
			}
			updated, err := addCiphertexts(*recvBalance, transferReceiverCiphertext(t))
			if err != nil {
				return wrapErr[E](KindProof, ErrProof)
			}
			*recvBalance = updated
		}
	}

	if tx.PayloadKind == PayloadBurn {
		recvBalance, rErr := state.GetReceiverBalance(ctx, tx.Source, tx.Burn.Asset)
		if !isNilErr(rErr) {
			return stateErr[E](rErr)
		}
		updated, err := addPublicScalar(*recvBalance, tx.Burn.Amount)
		if err != nil {
			return wrapErr[E](KindProof, ErrProof)
		}
		*recvBalance = updated
	}

	if tx.PayloadKind == PayloadMultiSig {
		payload := tx.MultiSigPayload
		if sErr := state.SetMultiSigState(ctx, tx.Source, &payload); !isNilErr(sErr) {
			return stateErr[E](sErr)
		}
	}
	return nil
}

// ApplyWithPartialVerify verifies only the commitment-equality sigma
// proofs (a fast path for a trusted caller that still wants soundness on
// sender balances). It builds every update on a local shadow copy first,
// runs the sigma batch check, and only then writes through to state —
// nothing here is adapter-visible until after the batch check passes.
func ApplyWithPartialVerify[E error](ctx context.Context, tx *Transaction, state State[E]) error {
	if tx.Version == V0 && (tx.MultiSig != nil || tx.PayloadKind == PayloadMultiSig) {
		return wrapErr[E](KindInvalidFormat, ErrInvalidFormat)
	}

	nonce, nErr := state.GetAccountNonce(ctx, tx.Source)
	if !isNilErr(nErr) {
		return stateErr[E](nErr)
	}
	if nonce != tx.Nonce {
		return invalidNonceErr[E](tx.Nonce, nonce)
	}

	sourceKey := CompressedPoint(tx.Source)
	transcript := newTranscript()
	appendTxHeader(transcript, tx.Version, sourceKey, tx.Fee, tx.Nonce)

	sigmaBatch := NewBatchCollector()

	type shadowUpdate struct {
		handle  *Ciphertext
		updated Ciphertext
		asset   common.Hash
		output  Ciphertext
	}
	updates := make([]shadowUpdate, 0, len(tx.SourceCommitments))

	for i := range tx.SourceCommitments {
		sc := &tx.SourceCommitments[i]
		outputCt, err := senderOutputCiphertext[E](tx, sc.Asset)
		if err != nil {
			return err
		}
		handle, bErr := state.GetSenderBalance(ctx, tx.Source, sc.Asset, tx.Reference)
		if !isNilErr(bErr) {
			return stateErr[E](bErr)
		}
		updated, err := subCiphertexts(*handle, outputCt)
		if err != nil {
			return wrapErr[E](KindProof, ErrProof)
		}

		appendCommitmentEqDomain(transcript, sc.Asset, sc.NewCommitment)
		if err := sc.EqProof.PreVerify(sourceKey, updated, sc.NewCommitment, transcript, sigmaBatch); err != nil {
			return wrapErr[E](KindGenericProof, err)
		}
		updates = append(updates, shadowUpdate{handle: handle, updated: updated, asset: sc.Asset, output: outputCt})
	}

	if err := sigmaBatch.Verify(); err != nil {
		return wrapErr[E](KindGenericProof, ErrGenericProof)
	}

	// Commit phase. Everything above only read from state; a failure
	// before this point leaves it untouched.
	if uErr := state.UpdateAccountNonce(ctx, tx.Source, nonce+1); !isNilErr(uErr) {
		return stateErr[E](uErr)
	}
	for _, u := range updates {
		*u.handle = u.updated
		if oErr := state.AddSenderOutput(ctx, tx.Source, u.asset, u.output); !isNilErr(oErr) {
			return stateErr[E](oErr)
		}
	}
	return nil
}
