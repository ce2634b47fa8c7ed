// Package storage implements the versioned, topoheight-indexed storage
// abstraction: one backpointer chain per (kind, key), with historical
// point-in-time reads done by walking backpointers. Grounded on the
// teacher's core/uno/state.go per-account version counter, generalized
// from "one version per account" to an explicit chain so any topoheight
// in the past remains readable, not just the latest.
package storage

import "encoding/binary"

// VersionedState tracks whether an in-memory handle needs to be written
// back to the backing chain: New (never persisted), FetchedAt(t) (read
// from the chain at topoheight t, unmodified since), or Updated (changed
// since it was read). A New handle stays New when marked updated.
type VersionedState struct {
	kind      stateKind
	fetchedAt uint64
}

type stateKind uint8

const (
	kindNew stateKind = iota
	kindFetchedAt
	kindUpdated
)

// NewState is the state of a handle with no prior chain entry.
func NewState() VersionedState { return VersionedState{kind: kindNew} }

// FetchedAtState is the state of a handle just read from the chain at
// topoheight t, not yet modified.
func FetchedAtState(topoheight uint64) VersionedState {
	return VersionedState{kind: kindFetchedAt, fetchedAt: topoheight}
}

// MarkUpdated transitions the state after a write. New stays New — it has
// no prior chain entry to diverge from, so the transition is a no-op, but
// it logs a warning: mutating a handle that was never fetched from the
// chain usually means the caller holds the wrong one. FetchedAt(t) and
// Updated both become Updated.
func (s VersionedState) MarkUpdated() VersionedState {
	if s.kind == kindNew {
		DefaultLogger.Warn("storage: mutated a New VersionedState", "fetchedAt", s.fetchedAt)
		return s
	}
	return VersionedState{kind: kindUpdated, fetchedAt: s.fetchedAt}
}

// IsNew reports whether the handle has never been persisted.
func (s VersionedState) IsNew() bool { return s.kind == kindNew }

// ShouldBeStored reports whether the handle must be written to the chain
// at the end of the batch. A handle that was only fetched and never
// touched is not: writing it again would create a redundant chain entry.
func (s VersionedState) ShouldBeStored() bool { return s.kind != kindFetchedAt }

// Versioned wraps a value with an optional backpointer to the topoheight
// of the previous write for the same (kind, key), per spec §6's
// Versioned<T> wire encoding.
type Versioned[T any] struct {
	Value              T
	PreviousTopoheight *uint64
}

// EncodeValueFunc serializes a T to bytes.
type EncodeValueFunc[T any] func(T) []byte

// DecodeValueFunc parses a T from the front of data, returning the number
// of bytes consumed.
type DecodeValueFunc[T any] func(data []byte) (value T, consumed int, err error)

// Encode writes v.Value, then — only if v.PreviousTopoheight is set — the
// 8-byte big-endian backpointer. A reader with no bytes left after
// decoding the value therefore treats PreviousTopoheight as unset.
func Encode[T any](v Versioned[T], encodeValue EncodeValueFunc[T]) []byte {
	buf := encodeValue(v.Value)
	if v.PreviousTopoheight != nil {
		var tail [8]byte
		binary.BigEndian.PutUint64(tail[:], *v.PreviousTopoheight)
		buf = append(buf, tail[:]...)
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode[T any](data []byte, decodeValue DecodeValueFunc[T]) (Versioned[T], error) {
	value, consumed, err := decodeValue(data)
	if err != nil {
		return Versioned[T]{}, err
	}
	rest := data[consumed:]
	v := Versioned[T]{Value: value}
	if len(rest) >= 8 {
		t := binary.BigEndian.Uint64(rest[:8])
		v.PreviousTopoheight = &t
	}
	return v, nil
}

// EncodeBytesValue/DecodeBytesValue are the EncodeValueFunc/DecodeValueFunc
// pair for raw byte-slice values. A bare byte slice can't self-delimit (it
// can't tell its own payload apart from a trailing backpointer appended by
// Encode), so the wire form is length-prefixed: a 4-byte big-endian length
// followed by that many payload bytes. That prefix is what lets Decode's
// "bytes remaining after the value" rule work for arbitrary-length values
// the same way it does for the fixed-width case.
func EncodeBytesValue(v []byte) []byte {
	buf := make([]byte, 4+len(v))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(v)))
	copy(buf[4:], v)
	return buf
}

func DecodeBytesValue(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, ErrCorrupted
	}
	n := binary.BigEndian.Uint32(data[:4])
	if uint64(len(data)) < 4+uint64(n) {
		return nil, 0, ErrCorrupted
	}
	return data[4 : 4+n], 4 + int(n), nil
}
