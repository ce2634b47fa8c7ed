package contract

import "testing"

func TestDeterministicRandomReproducible(t *testing.T) {
	var contractHash, txHash, blockHash [32]byte
	contractHash[0] = 0x01
	txHash[0] = 0x02
	blockHash[0] = 0x03

	r1 := NewDeterministicRandom(contractHash, txHash, blockHash)
	r2 := NewDeterministicRandom(contractHash, txHash, blockHash)

	for i := 0; i < 8; i++ {
		a, b := r1.NextU64(), r2.NextU64()
		if a != b {
			t.Fatalf("same seed diverged at call %d: %d != %d", i, a, b)
		}
	}
}

func TestDeterministicRandomDifferentSeedsDiverge(t *testing.T) {
	var contractHash, txHash, blockHash1, blockHash2 [32]byte
	blockHash1[0] = 0x01
	blockHash2[0] = 0x02

	r1 := NewDeterministicRandom(contractHash, txHash, blockHash1)
	r2 := NewDeterministicRandom(contractHash, txHash, blockHash2)

	if r1.NextU64() == r2.NextU64() {
		t.Fatal("different block hashes produced identical keystream output")
	}
}

func TestDeterministicRandomStreamAdvancesAcrossWidths(t *testing.T) {
	var contractHash, txHash, blockHash [32]byte
	r := NewDeterministicRandom(contractHash, txHash, blockHash)

	u8 := r.NextU8()
	u16 := r.NextU16()
	u32 := r.NextU32()
	u64 := r.NextU64()
	u128 := r.NextU128()
	u256 := r.NextU256()

	// A fresh stream with the same seed, read through the same sequence of
	// mixed-width accessors, must reproduce every value read above.
	replay := NewDeterministicRandom(contractHash, txHash, blockHash)
	if replay.NextU8() != u8 {
		t.Fatal("u8 replay mismatch")
	}
	if replay.NextU16() != u16 {
		t.Fatal("u16 replay mismatch")
	}
	if replay.NextU32() != u32 {
		t.Fatal("u32 replay mismatch")
	}
	if replay.NextU64() != u64 {
		t.Fatal("u64 replay mismatch")
	}
	if replay.NextU128() != u128 {
		t.Fatal("u128 replay mismatch")
	}
	if replay.NextU256() != u256 {
		t.Fatal("u256 replay mismatch")
	}
}

func TestNextBoolIsLowBitOfNextU8(t *testing.T) {
	var contractHash, txHash, blockHash [32]byte
	r := NewDeterministicRandom(contractHash, txHash, blockHash)
	replay := NewDeterministicRandom(contractHash, txHash, blockHash)

	b := r.NextBool()
	u := replay.NextU8()
	if b != (u&1 == 1) {
		t.Fatalf("NextBool() = %v, expected low bit of %d", b, u)
	}
}
