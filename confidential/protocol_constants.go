package confidential

// Protocol-level frozen constants for the confidential transaction format.
//
// Any change to these values is consensus-impacting and must be treated as
// a protocol upgrade, same discipline as core/uno/protocol_constants.go in
// the teacher tree.
const (
	MaxTransferCount        = 255
	MaxMultiSigParticipants = 255

	ExtraDataLimitSize    = 1024
	ExtraDataLimitSumSize = 4096

	SignatureSize = 64

	// RangeProofBitLength is the bit-width every committed amount is
	// proven to lie within: [0, 2^64).
	RangeProofBitLength = 64

	TranscriptLabel = "transaction-proof"

	domainSepVersion               = "version"
	domainSepSourcePubkey           = "source_pubkey"
	domainSepFee                    = "fee"
	domainSepNonce                  = "nonce"
	domainSepCommitmentEqProof      = "new_commitment_eq_proof"
	domainSepSourceCommitmentAsset  = "new_source_commitment_asset"
	domainSepSourceCommitment       = "new_source_commitment"
	domainSepTransferProof          = "transfer_proof"
	domainSepDestPubkey             = "dest_pubkey"
	domainSepAmountCommitment       = "amount_commitment"
	domainSepAmountSenderHandle     = "amount_sender_handle"
	domainSepAmountReceiverHandle   = "amount_receiver_handle"
	domainSepMultiSigProof          = "multisig_proof"
	domainSepMultiSigThreshold      = "multisig_threshold"
	domainSepMultiSigParticipant    = "multisig_participant"
)

// TxVersion selects the transaction format. V0 forbids multisig headers.
type TxVersion uint8

const (
	V0 TxVersion = 0
	V1 TxVersion = 1
)

// PayloadTag discriminates the tagged union carried by Transaction.Data.
type PayloadTag uint8

const (
	PayloadTransfers PayloadTag = 0
	PayloadBurn      PayloadTag = 1
	PayloadMultiSig  PayloadTag = 2
)

// NativeAsset is the chain's base asset; the only asset fees may be paid in.
var NativeAsset = [32]byte{}
