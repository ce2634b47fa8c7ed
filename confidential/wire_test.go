package confidential

import (
	"bytes"
	"testing"

	"github.com/tos-network/unocore/common"
)

func sampleTransaction() *Transaction {
	var src common.Address
	src[0] = 0xAA
	var dest common.Address
	dest[0] = 0xBB

	tx := &Transaction{
		Version: V1,
		Source:  src,
		Nonce:   7,
		Fee:     1,

		PayloadKind: PayloadTransfers,
		Transfers: []TransferPayload{
			{
				Destination: dest,
				Asset:       common.Hash(NativeAsset),
				ExtraData:   []byte("memo"),
			},
		},
		SourceCommitments: []SourceCommitment{
			{Asset: common.Hash(NativeAsset)},
		},
		Reference: Reference{Topoheight: 42},
	}
	tx.RangeProof.L = []CompressedPoint{{0x01}, {0x02}}
	tx.RangeProof.R = []CompressedPoint{{0x03}, {0x04}}
	return tx
}

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	tx.Signature[0] = 0xFF

	encoded := tx.Encode()
	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Version != tx.Version || decoded.Nonce != tx.Nonce || decoded.Fee != tx.Fee {
		t.Fatalf("header mismatch: %+v vs %+v", decoded, tx)
	}
	if decoded.Source != tx.Source {
		t.Fatalf("source mismatch")
	}
	if len(decoded.Transfers) != 1 || decoded.Transfers[0].Destination != tx.Transfers[0].Destination {
		t.Fatalf("transfer mismatch: %+v", decoded.Transfers)
	}
	if !bytes.Equal(decoded.Transfers[0].ExtraData, tx.Transfers[0].ExtraData) {
		t.Fatalf("extra data mismatch")
	}
	if len(decoded.SourceCommitments) != 1 {
		t.Fatalf("source commitments mismatch")
	}
	if decoded.Reference.Topoheight != 42 {
		t.Fatalf("reference mismatch")
	}
	if len(decoded.RangeProof.L) != 2 || len(decoded.RangeProof.R) != 2 {
		t.Fatalf("range proof rounds mismatch")
	}
	if decoded.MultiSig != nil {
		t.Fatalf("expected no multisig header")
	}
	if decoded.Signature != tx.Signature {
		t.Fatalf("signature mismatch")
	}
}

func TestTransactionEncodeDecodeWithMultiSig(t *testing.T) {
	tx := sampleTransaction()
	tx.MultiSig = &MultiSigHeader{
		Sigs: []SigId{
			{ParticipantIndex: 0, Signature: [SignatureSize]byte{0x01}},
			{ParticipantIndex: 2, Signature: [SignatureSize]byte{0x02}},
		},
	}

	encoded := tx.Encode()
	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MultiSig == nil || len(decoded.MultiSig.Sigs) != 2 {
		t.Fatalf("multisig header not preserved: %+v", decoded.MultiSig)
	}
	if decoded.MultiSig.Sigs[1].ParticipantIndex != 2 {
		t.Fatalf("participant index mismatch")
	}
}

func TestMultiSigBodyBytesTailArithmetic(t *testing.T) {
	tx := sampleTransaction()
	tx.MultiSig = &MultiSigHeader{Sigs: []SigId{{ParticipantIndex: 0}}}

	body, err := tx.multiSigBodyBytes(1)
	if err != nil {
		t.Fatalf("multiSigBodyBytes: %v", err)
	}
	full := tx.Encode()
	tail := 1 + 1 + SignatureSize + 1*(SignatureSize+1)
	if len(body) != len(full)-tail {
		t.Fatalf("body length mismatch: got %d want %d", len(body), len(full)-tail)
	}

	// A tail that would consume the whole transaction is rejected rather
	// than silently truncated, per spec's "reject if tail >= len" rule.
	if _, err := tx.multiSigBodyBytes(1 << 20); err == nil {
		t.Fatalf("expected error for oversized tail")
	}
}

func TestSignedBytesStripsOnlySignature(t *testing.T) {
	tx := sampleTransaction()
	full := tx.Encode()
	signed := tx.signedBytes()
	if len(signed) != len(full)-SignatureSize {
		t.Fatalf("signedBytes length mismatch: got %d want %d", len(signed), len(full)-SignatureSize)
	}
	if !bytes.Equal(signed, full[:len(full)-SignatureSize]) {
		t.Fatalf("signedBytes content mismatch")
	}
}
