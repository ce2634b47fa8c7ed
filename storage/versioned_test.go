package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionedStateNewMarkUpdatedIsNoOp(t *testing.T) {
	s := NewState()
	require.True(t, s.IsNew())
	updated := s.MarkUpdated()
	require.True(t, updated.IsNew(), "marking a New state updated must remain New: no prior chain entry to diverge from")
	require.True(t, updated.ShouldBeStored(), "only FetchedAt is exempt from storing; a New handle is still stored")
}

func TestVersionedStateFetchedAtMarkUpdatedBecomesUpdated(t *testing.T) {
	s := FetchedAtState(42)
	require.False(t, s.ShouldBeStored(), "a handle that was only fetched, never modified, should not be re-stored")
	updated := s.MarkUpdated()
	require.False(t, updated.IsNew())
	require.True(t, updated.ShouldBeStored())
}

func TestVersionedStateUpdatedStaysUpdated(t *testing.T) {
	s := FetchedAtState(10).MarkUpdated().MarkUpdated()
	require.False(t, s.IsNew())
	require.True(t, s.ShouldBeStored())
}

func TestVersionedEncodeDecodeWithoutPreviousTopoheight(t *testing.T) {
	v := Versioned[[]byte]{Value: []byte("hello")}
	encoded := Encode(v, EncodeBytesValue)
	decoded, err := Decode(encoded, DecodeBytesValue)
	require.NoError(t, err)
	require.Equal(t, v.Value, decoded.Value)
	require.Nil(t, decoded.PreviousTopoheight)
}

func TestVersionedEncodeDecodeWithPreviousTopoheight(t *testing.T) {
	prev := uint64(99)
	v := Versioned[[]byte]{Value: []byte("world"), PreviousTopoheight: &prev}
	encoded := Encode(v, EncodeBytesValue)
	decoded, err := Decode(encoded, DecodeBytesValue)
	require.NoError(t, err)
	require.Equal(t, v.Value, decoded.Value)
	require.NotNil(t, decoded.PreviousTopoheight)
	require.Equal(t, prev, *decoded.PreviousTopoheight)
}

// encodeFixed4/decodeFixed4 are an EncodeValueFunc/DecodeValueFunc pair over a 4-byte
// fixed-width value, used to exercise Decode's "bytes remaining after the
// value" rule against a codec that doesn't consume every byte itself (the
// way EncodeBytesValue would).
func encodeFixed4(v [4]byte) []byte { return v[:] }

func decodeFixed4(data []byte) ([4]byte, int, error) {
	var out [4]byte
	copy(out[:], data[:4])
	return out, 4, nil
}

func TestVersionedDecodeFixedWidthValueWithBackpointer(t *testing.T) {
	prev := uint64(7)
	v := Versioned[[4]byte]{Value: [4]byte{1, 2, 3, 4}, PreviousTopoheight: &prev}
	encoded := Encode(v, encodeFixed4)
	require.Len(t, encoded, 12, "4-byte value + 8-byte backpointer")
	decoded, err := Decode(encoded, decodeFixed4)
	require.NoError(t, err)
	require.Equal(t, v.Value, decoded.Value)
	require.NotNil(t, decoded.PreviousTopoheight)
	require.Equal(t, prev, *decoded.PreviousTopoheight)
}
