package confidential

import (
	"sync"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/sha3"
)

// CompressedPoint is the 32-byte wire form of a Ristretto group element.
type CompressedPoint [32]byte

// Decompress parses the compressed form into a usable group element.
// Decompression fails on non-canonical or invalid encodings, per spec §3.
func (c CompressedPoint) Decompress() (*ristretto255.Element, error) {
	el := ristretto255.NewElement()
	if err := el.Decode(c[:]); err != nil {
		return nil, ErrInvalidFormat
	}
	return el, nil
}

// CompressPoint encodes a group element to its wire form.
func CompressPoint(p *ristretto255.Element) CompressedPoint {
	var out CompressedPoint
	copy(out[:], p.Encode(nil))
	return out
}

// ScalarFromUint64 lifts a u64 amount into the scalar field.
func ScalarFromUint64(v uint64) *ristretto255.Scalar {
	var buf [64]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	buf[4] = byte(v >> 32)
	buf[5] = byte(v >> 40)
	buf[6] = byte(v >> 48)
	buf[7] = byte(v >> 56)
	s := ristretto255.NewScalar()
	// SetUniformBytes reduces mod l; zero-padded little-endian bytes below
	// 2^64 are always a valid, unambiguous representative.
	_, _ = s.SetUniformBytes(buf[:])
	return s
}

var (
	genOnce sync.Once
	genG    *ristretto255.Element
	genH    *ristretto255.Element
)

// initGenerators derives the two fixed Pedersen bases. G is the standard
// Ristretto base point; H is a nothing-up-my-sleeve point obtained by
// hashing G's encoding into the group, the same derivation
// crypto/tosalign/elgamal.go uses for its blinding base.
func initGenerators() {
	genOnce.Do(func() {
		genG = ristretto255.NewGeneratorElement()
		digest := sha3.Sum512(genG.Encode(nil))
		genH = ristretto255.NewElement()
		if _, err := genH.SetUniformBytes(digest[:]); err != nil {
			panic("confidential: failed to derive Pedersen generator H: " + err.Error())
		}
	})
}

// PedersenG returns the fixed amount-generator base.
func PedersenG() *ristretto255.Element {
	initGenerators()
	return ristretto255.NewElement().Set(genG)
}

// PedersenH returns the fixed blinding-generator base.
func PedersenH() *ristretto255.Element {
	initGenerators()
	return ristretto255.NewElement().Set(genH)
}

// PedersenCommit computes C = v*G + r*H.
func PedersenCommit(v uint64, r *ristretto255.Scalar) *ristretto255.Element {
	vG := ristretto255.NewElement().ScalarMult(ScalarFromUint64(v), PedersenG())
	rH := ristretto255.NewElement().ScalarMult(r, PedersenH())
	return ristretto255.NewElement().Add(vG, rH)
}

// DecryptHandle computes D = r*P, binding a ciphertext to public key P.
func DecryptHandle(r *ristretto255.Scalar, pub *ristretto255.Element) *ristretto255.Element {
	return ristretto255.NewElement().ScalarMult(r, pub)
}

// IdentityCompressed is the compressed encoding of the group identity
// element, used to pad the value-commitment vector to a power of two.
func IdentityCompressed() CompressedPoint {
	return CompressPoint(ristretto255.NewIdentityElement())
}
