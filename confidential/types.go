package confidential

import (
	"github.com/tos-network/unocore/common"
)

// Ciphertext is an ElGamal ciphertext over a Pedersen-committed amount: a
// commitment shared with the prover's own balance, and a single decrypt
// handle binding it to one public key.
type Ciphertext struct {
	Commitment CompressedPoint
	Handle     CompressedPoint
}

// TransferCiphertext additionally carries a receiver handle, so both
// sender and receiver can decrypt their own view of the same commitment.
type TransferCiphertext struct {
	Commitment     CompressedPoint
	SenderHandle   CompressedPoint
	ReceiverHandle CompressedPoint
}

// Reference identifies the historical sender-balance snapshot a
// transaction was built against.
type Reference struct {
	BlockHash  common.Hash
	Topoheight uint64
}

// TransferPayload is one entry of a Transfers transaction.
type TransferPayload struct {
	Destination    common.Address
	Asset          common.Hash
	Commitment     CompressedPoint
	SenderHandle   CompressedPoint
	ReceiverHandle CompressedPoint
	ExtraData      []byte
	ValidityProof  CiphertextValidityProof
}

func (t TransferPayload) ciphertext() TransferCiphertext {
	return TransferCiphertext{
		Commitment:     t.Commitment,
		SenderHandle:   t.SenderHandle,
		ReceiverHandle: t.ReceiverHandle,
	}
}

// BurnPayload destroys amount of asset, paid alongside fee from the same
// native-asset commitment.
type BurnPayload struct {
	Asset  common.Hash
	Amount uint64
}

// MultiSigPayload reconfigures the multisig requirement on source. Threshold==0
// with a non-empty Participants list is a reset; Threshold==0 with no
// participants is a clear.
type MultiSigPayload struct {
	Threshold    uint8
	Participants []common.Address
}

// SigId pairs a participant index with its signature over the multisig
// body hash.
type SigId struct {
	ParticipantIndex uint8
	Signature        [SignatureSize]byte
}

// MultiSigHeader is the optional tx-level multisig authorization.
type MultiSigHeader struct {
	Sigs []SigId
}

// SourceCommitment is one per-asset entry in Transaction.SourceCommitments.
type SourceCommitment struct {
	Asset         common.Hash
	NewCommitment CompressedPoint
	EqProof       CommitmentEqProof
}

// Transaction is the confidential transaction being verified. Exactly one
// of Transfers/Burn/MultiSigPayload is populated, selected by PayloadTag.
type Transaction struct {
	Version TxVersion
	Source  common.Address
	Nonce   uint64
	Fee     uint64

	PayloadKind     PayloadTag
	Transfers       []TransferPayload
	Burn            BurnPayload
	MultiSigPayload MultiSigPayload

	SourceCommitments []SourceCommitment
	RangeProof        RangeProof

	Reference Reference

	MultiSig *MultiSigHeader

	Signature [SignatureSize]byte
}

// sourceCommitmentFor returns the entry for asset, or nil.
func (tx *Transaction) sourceCommitmentFor(asset common.Hash) *SourceCommitment {
	for i := range tx.SourceCommitments {
		if tx.SourceCommitments[i].Asset == asset {
			return &tx.SourceCommitments[i]
		}
	}
	return nil
}

// referencedAssets returns every asset tx.Data touches, native asset
// always included (it pays the fee).
func (tx *Transaction) referencedAssets() map[common.Hash]struct{} {
	out := map[common.Hash]struct{}{common.Hash(NativeAsset): {}}
	switch tx.PayloadKind {
	case PayloadTransfers:
		for _, tr := range tx.Transfers {
			out[tr.Asset] = struct{}{}
		}
	case PayloadBurn:
		out[tx.Burn.Asset] = struct{}{}
	}
	return out
}
