package confidential

import (
	"crypto/rand"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

// BatchCollector accumulates the linear verification equations of every
// sigma proof processed during one verify_batch call and checks them all
// with a single multiscalar multiplication, per spec §4.3.2 step 1-2 and
// §5's "shared sigma BatchCollector ... tx-local during collection and
// consumed exactly once at batch boundary" rule.
//
// Each proof contributes one or more equations of the form
// sum(scalar_i * point_i) == identity; every equation is folded in under
// an independent random weight so that a single falsified equation can't
// be cancelled out by another proof's terms.
type BatchCollector struct {
	scalars []*ristretto255.Scalar
	points  []*ristretto255.Element
}

// NewBatchCollector returns an empty collector.
func NewBatchCollector() *BatchCollector {
	return &BatchCollector{}
}

// addEquation folds sum(coeffs[i]*points[i]) == identity into the batch
// under a fresh random weight.
func (b *BatchCollector) addEquation(coeffs []*ristretto255.Scalar, points []*ristretto255.Element) error {
	weight, err := randomScalar()
	if err != nil {
		return err
	}
	for i, c := range coeffs {
		weighted := ristretto255.NewScalar().Multiply(weight, c)
		b.scalars = append(b.scalars, weighted)
		b.points = append(b.points, points[i])
	}
	return nil
}

// Verify performs the single multiscalar check over every accumulated
// equation. Failure anywhere in the batch maps to ErrGenericProof.
func (b *BatchCollector) Verify() error {
	if len(b.scalars) == 0 {
		return nil
	}
	result := ristretto255.NewElement().VarTimeMultiscalarMul(b.scalars, b.points)
	if result.Equal(ristretto255.NewIdentityElement()) != 1 {
		return ErrGenericProof
	}
	return nil
}

func randomScalar() (*ristretto255.Scalar, error) {
	var seed [64]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	s := ristretto255.NewScalar()
	if _, err := s.SetUniformBytes(seed[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// CommitmentEqProof proves that newCommitment and the sender's updated
// balance ciphertext commit to the same hidden value, under the sender's
// own key, without revealing the value or either blinding factor.
//
// Statement: know (x, r1, r2) with
//
//	C1 = x*G + r1*H   (updated balance commitment)
//	D1 = r1*P         (updated balance decrypt handle, P = sender pubkey)
//	C2 = x*G + r2*H   (new source commitment)
type CommitmentEqProof struct {
	Y1 CompressedPoint
	Y2 CompressedPoint
	Y3 CompressedPoint
	Zx [32]byte
	Z1 [32]byte
	Z2 [32]byte
}

// PreVerify checks the proof's three linear relations and folds them into
// sigmaBatch instead of checking them immediately, per spec §4.3.1 step 10.
func (p CommitmentEqProof) PreVerify(owner CompressedPoint, updatedBalance Ciphertext, newCommitment CompressedPoint, transcript *merlin.Transcript, sigmaBatch *BatchCollector) error {
	pubP, err := owner.Decompress()
	if err != nil {
		return ErrProof
	}
	c1, d1, err := updatedBalance.decompress()
	if err != nil {
		return ErrProof
	}
	c2, err := newCommitment.Decompress()
	if err != nil {
		return ErrProof
	}
	y1, err := p.Y1.Decompress()
	if err != nil {
		return ErrProof
	}
	y2, err := p.Y2.Decompress()
	if err != nil {
		return ErrProof
	}
	y3, err := p.Y3.Decompress()
	if err != nil {
		return ErrProof
	}

	transcript.AppendMessage([]byte("commitment_eq_Y1"), p.Y1[:])
	transcript.AppendMessage([]byte("commitment_eq_Y2"), p.Y2[:])
	transcript.AppendMessage([]byte("commitment_eq_Y3"), p.Y3[:])
	e := challengeScalar(transcript, "commitment_eq_challenge")

	zx := ristretto255.NewScalar()
	if _, err := zx.SetCanonicalBytes(p.Zx[:]); err != nil {
		return ErrProof
	}
	z1 := ristretto255.NewScalar()
	if _, err := z1.SetCanonicalBytes(p.Z1[:]); err != nil {
		return ErrProof
	}
	z2 := ristretto255.NewScalar()
	if _, err := z2.SetCanonicalBytes(p.Z2[:]); err != nil {
		return ErrProof
	}

	negOne := ristretto255.NewScalar().Negate(ScalarFromUint64(1))
	negE := ristretto255.NewScalar().Negate(e)

	// zx*G + z1*H - Y1 - e*C1 == 0
	if err := sigmaBatch.addEquation(
		[]*ristretto255.Scalar{zx, z1, negOne, negE},
		[]*ristretto255.Element{PedersenG(), PedersenH(), y1, c1},
	); err != nil {
		return err
	}
	// z1*P - Y2 - e*D1 == 0
	if err := sigmaBatch.addEquation(
		[]*ristretto255.Scalar{z1, negOne, negE},
		[]*ristretto255.Element{pubP, y2, d1},
	); err != nil {
		return err
	}
	// zx*G + z2*H - Y3 - e*C2 == 0
	if err := sigmaBatch.addEquation(
		[]*ristretto255.Scalar{zx, z2, negOne, negE},
		[]*ristretto255.Element{PedersenG(), PedersenH(), y3, c2},
	); err != nil {
		return err
	}
	return nil
}

// CiphertextValidityProof proves a transfer ciphertext is well-formed
// under the declared receiver key: that SenderHandle and ReceiverHandle
// are both r*(their respective pubkey) for the same r used in Commitment.
//
// Statement: know (x, r) with
//
//	C  = x*G + r*H
//	Ds = r*Psender
//	Dr = r*Preceiver
type CiphertextValidityProof struct {
	Y1 CompressedPoint
	Y2 CompressedPoint
	Y3 CompressedPoint
	Zx [32]byte
	Zr [32]byte
}

// PreVerify folds the proof's three linear relations into sigmaBatch.
func (p CiphertextValidityProof) PreVerify(commitment CompressedPoint, receiver CompressedPoint, receiverHandle CompressedPoint, sender CompressedPoint, senderHandle CompressedPoint, transcript *merlin.Transcript, sigmaBatch *BatchCollector) error {
	c, err := commitment.Decompress()
	if err != nil {
		return ErrProof
	}
	pubSender, err := sender.Decompress()
	if err != nil {
		return ErrProof
	}
	pubReceiver, err := receiver.Decompress()
	if err != nil {
		return ErrProof
	}
	ds, err := senderHandle.Decompress()
	if err != nil {
		return ErrProof
	}
	dr, err := receiverHandle.Decompress()
	if err != nil {
		return ErrProof
	}
	y1, err := p.Y1.Decompress()
	if err != nil {
		return ErrProof
	}
	y2, err := p.Y2.Decompress()
	if err != nil {
		return ErrProof
	}
	y3, err := p.Y3.Decompress()
	if err != nil {
		return ErrProof
	}

	transcript.AppendMessage([]byte("ct_validity_Y1"), p.Y1[:])
	transcript.AppendMessage([]byte("ct_validity_Y2"), p.Y2[:])
	transcript.AppendMessage([]byte("ct_validity_Y3"), p.Y3[:])
	e := challengeScalar(transcript, "ct_validity_challenge")

	zx := ristretto255.NewScalar()
	if _, err := zx.SetCanonicalBytes(p.Zx[:]); err != nil {
		return ErrProof
	}
	zr := ristretto255.NewScalar()
	if _, err := zr.SetCanonicalBytes(p.Zr[:]); err != nil {
		return ErrProof
	}

	negOne := ristretto255.NewScalar().Negate(ScalarFromUint64(1))
	negE := ristretto255.NewScalar().Negate(e)

	// zx*G + zr*H - Y1 - e*C == 0
	if err := sigmaBatch.addEquation(
		[]*ristretto255.Scalar{zx, zr, negOne, negE},
		[]*ristretto255.Element{PedersenG(), PedersenH(), y1, c},
	); err != nil {
		return err
	}
	// zr*Psender - Y2 - e*Ds == 0
	if err := sigmaBatch.addEquation(
		[]*ristretto255.Scalar{zr, negOne, negE},
		[]*ristretto255.Element{pubSender, y2, ds},
	); err != nil {
		return err
	}
	// zr*Preceiver - Y3 - e*Dr == 0
	if err := sigmaBatch.addEquation(
		[]*ristretto255.Scalar{zr, negOne, negE},
		[]*ristretto255.Element{pubReceiver, y3, dr},
	); err != nil {
		return err
	}
	return nil
}
