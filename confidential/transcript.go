package confidential

import (
	"encoding/binary"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

// newTranscript starts a fresh Merlin transcript under the protocol label,
// per spec §4.3.1 step 7. Every append below uses the exact domain
// separator strings and ordering spec.md and §9's "Transcript discipline"
// note require; reordering these silently breaks proof binding.
func newTranscript() *merlin.Transcript {
	return merlin.NewTranscript(TranscriptLabel)
}

func appendTxHeader(t *merlin.Transcript, version TxVersion, sourcePubkey CompressedPoint, fee, nonce uint64) {
	t.AppendMessage([]byte(domainSepVersion), []byte{byte(version)})
	t.AppendMessage([]byte(domainSepSourcePubkey), sourcePubkey[:])
	appendU64(t, domainSepFee, fee)
	appendU64(t, domainSepNonce, nonce)
}

func appendU64(t *merlin.Transcript, label string, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	t.AppendMessage([]byte(label), buf[:])
}

func appendCommitmentEqDomain(t *merlin.Transcript, asset [32]byte, newCommitment CompressedPoint) {
	t.AppendMessage([]byte(domainSepCommitmentEqProof), nil)
	t.AppendMessage([]byte(domainSepSourceCommitmentAsset), asset[:])
	t.AppendMessage([]byte(domainSepSourceCommitment), newCommitment[:])
}

func appendTransferDomain(t *merlin.Transcript, dest CompressedPoint, commitment, senderHandle, receiverHandle CompressedPoint) {
	t.AppendMessage([]byte(domainSepTransferProof), nil)
	t.AppendMessage([]byte(domainSepDestPubkey), dest[:])
	t.AppendMessage([]byte(domainSepAmountCommitment), commitment[:])
	t.AppendMessage([]byte(domainSepAmountSenderHandle), senderHandle[:])
	t.AppendMessage([]byte(domainSepAmountReceiverHandle), receiverHandle[:])
}

func appendMultiSigDomain(t *merlin.Transcript, threshold uint8, participants []CompressedPoint) {
	t.AppendMessage([]byte(domainSepMultiSigProof), nil)
	appendU64(t, domainSepMultiSigThreshold, uint64(threshold))
	for _, p := range participants {
		t.AppendMessage([]byte(domainSepMultiSigParticipant), p[:])
	}
}

// challengeScalar derives a Fiat-Shamir challenge from the transcript
// state after the prover's commitment points have been appended under
// label.
func challengeScalar(t *merlin.Transcript, label string) *ristretto255.Scalar {
	out := t.ExtractBytes([]byte(label), 64)
	s := ristretto255.NewScalar()
	_, _ = s.SetUniformBytes(out)
	return s
}
