package confidential

import (
	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

// verifySchnorr checks a 64-byte Schnorr signature (32-byte commitment R,
// 32-byte response scalar s) over message under pubkey. Used both for the
// transaction-level signature (step 8) and each multisig SigId (step 9).
func verifySchnorr(pubkey CompressedPoint, message []byte, sig [SignatureSize]byte) error {
	var rEncoded CompressedPoint
	copy(rEncoded[:], sig[:32])
	r, err := rEncoded.Decompress()
	if err != nil {
		return ErrInvalidSignature
	}
	p, err := pubkey.Decompress()
	if err != nil {
		return ErrInvalidSignature
	}
	s := ristretto255.NewScalar()
	if _, err := s.SetCanonicalBytes(sig[32:]); err != nil {
		return ErrInvalidSignature
	}

	t := merlin.NewTranscript("schnorr-signature")
	t.AppendMessage([]byte("R"), rEncoded[:])
	t.AppendMessage([]byte("pubkey"), pubkey[:])
	t.AppendMessage([]byte("message"), message)
	e := challengeScalar(t, "challenge")

	sG := ristretto255.NewElement().ScalarMult(s, PedersenG())
	eP := ristretto255.NewElement().ScalarMult(e, p)
	rhs := ristretto255.NewElement().Add(r, eP)
	if sG.Equal(rhs) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
