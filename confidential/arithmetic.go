package confidential

import "github.com/gtank/ristretto255"

// decompress turns a wire Ciphertext into group elements, failing closed
// on any non-canonical point the way spec §4.3.1 step 6 requires.
func (c Ciphertext) decompress() (commitment, handle *ristretto255.Element, err error) {
	commitment, err = c.Commitment.Decompress()
	if err != nil {
		return nil, nil, err
	}
	handle, err = c.Handle.Decompress()
	if err != nil {
		return nil, nil, err
	}
	return commitment, handle, nil
}

// addCiphertexts adds two ciphertexts component-wise: (C1+C2, D1+D2).
// Grounded on the teacher's core/uno/state.go AddCiphertexts, generalized
// from its 64-byte-blob form to operate on decompressed group elements.
func addCiphertexts(a, b Ciphertext) (Ciphertext, error) {
	ac, ah, err := a.decompress()
	if err != nil {
		return Ciphertext{}, err
	}
	bc, bh, err := b.decompress()
	if err != nil {
		return Ciphertext{}, err
	}
	sumC := ristretto255.NewElement().Add(ac, bc)
	sumH := ristretto255.NewElement().Add(ah, bh)
	return Ciphertext{Commitment: CompressPoint(sumC), Handle: CompressPoint(sumH)}, nil
}

// subCiphertexts subtracts b from a component-wise.
func subCiphertexts(a, b Ciphertext) (Ciphertext, error) {
	ac, ah, err := a.decompress()
	if err != nil {
		return Ciphertext{}, err
	}
	bc, bh, err := b.decompress()
	if err != nil {
		return Ciphertext{}, err
	}
	diffC := ristretto255.NewElement().Subtract(ac, bc)
	diffH := ristretto255.NewElement().Subtract(ah, bh)
	return Ciphertext{Commitment: CompressPoint(diffC), Handle: CompressPoint(diffH)}, nil
}

// addPublicScalar adds a publicly-known amount to a ciphertext's
// commitment only: (C + v*G, D). Used for the fee and burn contributions
// to the output ciphertext, which carry no decrypt handle of their own.
func addPublicScalar(c Ciphertext, v uint64) (Ciphertext, error) {
	commitment, handle, err := c.decompress()
	if err != nil {
		return Ciphertext{}, err
	}
	vG := ristretto255.NewElement().ScalarMult(ScalarFromUint64(v), PedersenG())
	newCommitment := ristretto255.NewElement().Add(commitment, vG)
	return Ciphertext{Commitment: CompressPoint(newCommitment), Handle: CompressPoint(handle)}, nil
}

func zeroCiphertext() Ciphertext {
	return Ciphertext{Commitment: IdentityCompressed(), Handle: IdentityCompressed()}
}

func transferAsCiphertext(t TransferPayload) Ciphertext {
	return Ciphertext{Commitment: t.Commitment, Handle: t.SenderHandle}
}

func transferReceiverCiphertext(t TransferPayload) Ciphertext {
	return Ciphertext{Commitment: t.Commitment, Handle: t.ReceiverHandle}
}
