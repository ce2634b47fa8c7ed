// Package common holds the small value types shared by every package in
// this module: fixed-size hashes and addresses, plus the byte-slice
// helpers the rest of the tree expects to find here.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the expected length of a Hash, in bytes.
	HashLength = 32
	// AddressLength is the expected length of a compressed Ristretto
	// public key used as an account identifier, in bytes.
	AddressLength = 32
)

// Hash represents an arbitrary 32 byte identifier, typically the output
// of a hashing function (asset id, block hash, tx hash, contract hash).
type Hash [HashLength]byte

// BytesToHash copies b into a Hash, left-padding or truncating from the
// left the way go-ethereum's common.BytesToHash does.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// Address is the compressed Ristretto public key of an account.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// IsZero reports whether the address is the all-zero placeholder used for
// "no receiver" contexts.
func (a Address) IsZero() bool { return a == Address{} }

// CopyBytes returns an independent copy of b, nil in nil out.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Hex2Bytes decodes a hex string without a 0x prefix; panics on bad input,
// mirroring go-ethereum's common.Hex2Bytes which is only ever used on
// compile-time literals in this codebase.
func Hex2Bytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("common: invalid hex literal %q: %v", s, err))
	}
	return b
}
