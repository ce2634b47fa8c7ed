package contract

import (
	"encoding/binary"

	"github.com/tos-network/unocore/common"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"
)

// DeterministicRandom is the contract host's `Random` opaque type: a
// stream cipher keyed from (contract_hash, tx_hash, block_hash) so two
// independent re-executions of the same invocation produce byte-identical
// output, per spec §4.4's determinism requirement. It is a keystream, not
// a CSPRNG used for anything security-sensitive — contract bytecode reads
// it, it never feeds a key or a proof.
type DeterministicRandom struct {
	stream *chacha20.Cipher
}

// NewDeterministicRandom seeds the stream from
// sha3.Sum256(contractHash || txHash || blockHash), matching the spec's
// "seed is hash(contract || tx || block)".
func NewDeterministicRandom(contractHash, txHash, blockHash common.Hash) *DeterministicRandom {
	h := sha3.New256()
	h.Write(contractHash[:])
	h.Write(txHash[:])
	h.Write(blockHash[:])
	seed := h.Sum(nil)

	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed, nonce[:])
	if err != nil {
		// seed is always exactly 32 bytes and nonce exactly 12, so this
		// can only fail on a chacha20 API change.
		panic("contract: deterministic random seed/nonce size mismatch: " + err.Error())
	}
	return &DeterministicRandom{stream: cipher}
}

func (r *DeterministicRandom) fill(n int) []byte {
	buf := make([]byte, n)
	r.stream.XORKeyStream(buf, buf)
	return buf
}

// NextU8 returns the next byte of keystream.
func (r *DeterministicRandom) NextU8() uint8 { return r.fill(1)[0] }

// NextBool returns the low bit of the next byte of keystream.
func (r *DeterministicRandom) NextBool() bool { return r.NextU8()&1 == 1 }

// NextU16 returns the next two bytes of keystream, little-endian.
func (r *DeterministicRandom) NextU16() uint16 { return binary.LittleEndian.Uint16(r.fill(2)) }

// NextU32 returns the next four bytes of keystream, little-endian.
func (r *DeterministicRandom) NextU32() uint32 { return binary.LittleEndian.Uint32(r.fill(4)) }

// NextU64 returns the next eight bytes of keystream, little-endian.
func (r *DeterministicRandom) NextU64() uint64 { return binary.LittleEndian.Uint64(r.fill(8)) }

// U128 is a little-endian 128-bit unsigned integer: Lo holds bits 0-63,
// Hi holds bits 64-127.
type U128 struct {
	Lo uint64
	Hi uint64
}

// NextU128 returns the next sixteen bytes of keystream, little-endian.
func (r *DeterministicRandom) NextU128() U128 {
	b := r.fill(16)
	return U128{Lo: binary.LittleEndian.Uint64(b[:8]), Hi: binary.LittleEndian.Uint64(b[8:])}
}

// NextU256 returns the next thirty-two bytes of keystream, little-endian,
// matching spec's "next_u256 yields 32 bytes".
func (r *DeterministicRandom) NextU256() [32]byte {
	var out [32]byte
	copy(out[:], r.fill(32))
	return out
}
