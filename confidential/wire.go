package confidential

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/tos-network/unocore/common"
)

// Writer accumulates a transaction's canonical wire bytes in the exact
// field order spec §6 fixes. All integers are big-endian.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteByte_(b byte) { w.buf.WriteByte(b) }

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteFixed(b []byte) { w.buf.Write(b) }

func (w *Writer) WriteBytes(b []byte) {
	w.WriteU64(uint64(len(b)))
	w.buf.Write(b)
}

// Reader consumes bytes in the same order Writer produces them.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) ReadByte_() (byte, error) {
	if r.Remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadU64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadFixed(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	return r.ReadFixed(int(n))
}

func writeHash(w *Writer, h common.Hash) { w.WriteFixed(h[:]) }

func readHash(r *Reader) (common.Hash, error) {
	b, err := r.ReadFixed(common.HashLength)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

func writeAddress(w *Writer, a common.Address) { w.WriteFixed(a[:]) }

func readAddress(r *Reader) (common.Address, error) {
	b, err := r.ReadFixed(common.AddressLength)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b), nil
}

func writePoint(w *Writer, p CompressedPoint) { w.WriteFixed(p[:]) }

func readPoint(r *Reader) (CompressedPoint, error) {
	b, err := r.ReadFixed(32)
	if err != nil {
		return CompressedPoint{}, err
	}
	var out CompressedPoint
	copy(out[:], b)
	return out, nil
}

func writeCiphertext(w *Writer, c Ciphertext) {
	writePoint(w, c.Commitment)
	writePoint(w, c.Handle)
}

func readCiphertext(r *Reader) (Ciphertext, error) {
	commitment, err := readPoint(r)
	if err != nil {
		return Ciphertext{}, err
	}
	handle, err := readPoint(r)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{Commitment: commitment, Handle: handle}, nil
}

func writeCommitmentEqProof(w *Writer, p CommitmentEqProof) {
	writePoint(w, p.Y1)
	writePoint(w, p.Y2)
	writePoint(w, p.Y3)
	w.WriteFixed(p.Zx[:])
	w.WriteFixed(p.Z1[:])
	w.WriteFixed(p.Z2[:])
}

func readCommitmentEqProof(r *Reader) (CommitmentEqProof, error) {
	var p CommitmentEqProof
	var err error
	if p.Y1, err = readPoint(r); err != nil {
		return p, err
	}
	if p.Y2, err = readPoint(r); err != nil {
		return p, err
	}
	if p.Y3, err = readPoint(r); err != nil {
		return p, err
	}
	for _, dst := range [][]byte{p.Zx[:], p.Z1[:], p.Z2[:]} {
		b, err := r.ReadFixed(32)
		if err != nil {
			return p, err
		}
		copy(dst, b)
	}
	return p, nil
}

func writeCtValidityProof(w *Writer, p CiphertextValidityProof) {
	writePoint(w, p.Y1)
	writePoint(w, p.Y2)
	writePoint(w, p.Y3)
	w.WriteFixed(p.Zx[:])
	w.WriteFixed(p.Zr[:])
}

func readCtValidityProof(r *Reader) (CiphertextValidityProof, error) {
	var p CiphertextValidityProof
	var err error
	if p.Y1, err = readPoint(r); err != nil {
		return p, err
	}
	if p.Y2, err = readPoint(r); err != nil {
		return p, err
	}
	if p.Y3, err = readPoint(r); err != nil {
		return p, err
	}
	for _, dst := range [][]byte{p.Zx[:], p.Zr[:]} {
		b, err := r.ReadFixed(32)
		if err != nil {
			return p, err
		}
		copy(dst, b)
	}
	return p, nil
}

func writeRangeProof(w *Writer, rp RangeProof) {
	writePoint(w, rp.A)
	writePoint(w, rp.S)
	writePoint(w, rp.T1)
	writePoint(w, rp.T2)
	w.WriteFixed(rp.TauX[:])
	w.WriteFixed(rp.Mu[:])
	w.WriteFixed(rp.TMinus[:])
	w.WriteByte_(byte(len(rp.L)))
	for i := range rp.L {
		writePoint(w, rp.L[i])
		writePoint(w, rp.R[i])
	}
	w.WriteFixed(rp.AFinal[:])
	w.WriteFixed(rp.BFinal[:])
}

func readRangeProof(r *Reader) (RangeProof, error) {
	var rp RangeProof
	var err error
	if rp.A, err = readPoint(r); err != nil {
		return rp, err
	}
	if rp.S, err = readPoint(r); err != nil {
		return rp, err
	}
	if rp.T1, err = readPoint(r); err != nil {
		return rp, err
	}
	if rp.T2, err = readPoint(r); err != nil {
		return rp, err
	}
	for _, dst := range [][]byte{rp.TauX[:], rp.Mu[:], rp.TMinus[:]} {
		b, err := r.ReadFixed(32)
		if err != nil {
			return rp, err
		}
		copy(dst, b)
	}
	rounds, err := r.ReadByte_()
	if err != nil {
		return rp, err
	}
	rp.L = make([]CompressedPoint, rounds)
	rp.R = make([]CompressedPoint, rounds)
	for i := 0; i < int(rounds); i++ {
		if rp.L[i], err = readPoint(r); err != nil {
			return rp, err
		}
		if rp.R[i], err = readPoint(r); err != nil {
			return rp, err
		}
	}
	for _, dst := range [][]byte{rp.AFinal[:], rp.BFinal[:]} {
		b, err := r.ReadFixed(32)
		if err != nil {
			return rp, err
		}
		copy(dst, b)
	}
	return rp, nil
}

// Encode serializes tx in the exact field order of spec §6.
func (tx *Transaction) Encode() []byte {
	w := NewWriter()
	w.WriteByte_(byte(tx.Version))
	writeAddress(w, tx.Source)
	w.WriteU64(tx.Nonce)
	w.WriteU64(tx.Fee)

	w.WriteByte_(byte(tx.PayloadKind))
	switch tx.PayloadKind {
	case PayloadTransfers:
		w.WriteByte_(byte(len(tx.Transfers)))
		for _, t := range tx.Transfers {
			writeAddress(w, t.Destination)
			writeHash(w, t.Asset)
			writePoint(w, t.Commitment)
			writePoint(w, t.SenderHandle)
			writePoint(w, t.ReceiverHandle)
			w.WriteBytes(t.ExtraData)
			writeCtValidityProof(w, t.ValidityProof)
		}
	case PayloadBurn:
		writeHash(w, tx.Burn.Asset)
		w.WriteU64(tx.Burn.Amount)
	case PayloadMultiSig:
		w.WriteByte_(tx.MultiSigPayload.Threshold)
		w.WriteByte_(byte(len(tx.MultiSigPayload.Participants)))
		for _, p := range tx.MultiSigPayload.Participants {
			writeAddress(w, p)
		}
	}

	w.WriteByte_(byte(len(tx.SourceCommitments)))
	for _, sc := range tx.SourceCommitments {
		writeHash(w, sc.Asset)
		writePoint(w, sc.NewCommitment)
		writeCommitmentEqProof(w, sc.EqProof)
	}

	writeHash(w, tx.Reference.BlockHash)
	w.WriteU64(tx.Reference.Topoheight)

	writeRangeProof(w, tx.RangeProof)

	if tx.MultiSig != nil {
		w.WriteByte_(1)
		w.WriteByte_(byte(len(tx.MultiSig.Sigs)))
		for _, s := range tx.MultiSig.Sigs {
			w.WriteByte_(s.ParticipantIndex)
			w.WriteFixed(s.Signature[:])
		}
	} else {
		w.WriteByte_(0)
	}

	w.WriteFixed(tx.Signature[:])
	return w.Bytes()
}

// DecodeTransaction parses the wire form produced by Encode.
func DecodeTransaction(data []byte) (*Transaction, error) {
	r := NewReader(data)
	tx := &Transaction{}

	versionByte, err := r.ReadByte_()
	if err != nil {
		return nil, ErrInvalidFormat
	}
	tx.Version = TxVersion(versionByte)

	if tx.Source, err = readAddress(r); err != nil {
		return nil, ErrInvalidFormat
	}
	if tx.Nonce, err = r.ReadU64(); err != nil {
		return nil, ErrInvalidFormat
	}
	if tx.Fee, err = r.ReadU64(); err != nil {
		return nil, ErrInvalidFormat
	}

	tagByte, err := r.ReadByte_()
	if err != nil {
		return nil, ErrInvalidFormat
	}
	tx.PayloadKind = PayloadTag(tagByte)
	switch tx.PayloadKind {
	case PayloadTransfers:
		count, err := r.ReadByte_()
		if err != nil {
			return nil, ErrInvalidFormat
		}
		tx.Transfers = make([]TransferPayload, count)
		for i := range tx.Transfers {
			t := &tx.Transfers[i]
			if t.Destination, err = readAddress(r); err != nil {
				return nil, ErrInvalidFormat
			}
			if t.Asset, err = readHash(r); err != nil {
				return nil, ErrInvalidFormat
			}
			if t.Commitment, err = readPoint(r); err != nil {
				return nil, ErrInvalidFormat
			}
			if t.SenderHandle, err = readPoint(r); err != nil {
				return nil, ErrInvalidFormat
			}
			if t.ReceiverHandle, err = readPoint(r); err != nil {
				return nil, ErrInvalidFormat
			}
			if t.ExtraData, err = r.ReadBytes(); err != nil {
				return nil, ErrInvalidFormat
			}
			if t.ValidityProof, err = readCtValidityProof(r); err != nil {
				return nil, ErrInvalidFormat
			}
		}
	case PayloadBurn:
		if tx.Burn.Asset, err = readHash(r); err != nil {
			return nil, ErrInvalidFormat
		}
		if tx.Burn.Amount, err = r.ReadU64(); err != nil {
			return nil, ErrInvalidFormat
		}
	case PayloadMultiSig:
		if tx.MultiSigPayload.Threshold, err = r.ReadByte_(); err != nil {
			return nil, ErrInvalidFormat
		}
		count, err := r.ReadByte_()
		if err != nil {
			return nil, ErrInvalidFormat
		}
		tx.MultiSigPayload.Participants = make([]common.Address, count)
		for i := range tx.MultiSigPayload.Participants {
			if tx.MultiSigPayload.Participants[i], err = readAddress(r); err != nil {
				return nil, ErrInvalidFormat
			}
		}
	default:
		return nil, ErrInvalidFormat
	}

	scCount, err := r.ReadByte_()
	if err != nil {
		return nil, ErrInvalidFormat
	}
	tx.SourceCommitments = make([]SourceCommitment, scCount)
	for i := range tx.SourceCommitments {
		sc := &tx.SourceCommitments[i]
		if sc.Asset, err = readHash(r); err != nil {
			return nil, ErrInvalidFormat
		}
		if sc.NewCommitment, err = readPoint(r); err != nil {
			return nil, ErrInvalidFormat
		}
		if sc.EqProof, err = readCommitmentEqProof(r); err != nil {
			return nil, ErrInvalidFormat
		}
	}

	if tx.Reference.BlockHash, err = readHash(r); err != nil {
		return nil, ErrInvalidFormat
	}
	if tx.Reference.Topoheight, err = r.ReadU64(); err != nil {
		return nil, ErrInvalidFormat
	}

	if tx.RangeProof, err = readRangeProof(r); err != nil {
		return nil, ErrInvalidFormat
	}

	presence, err := r.ReadByte_()
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if presence != 0 {
		hdr := &MultiSigHeader{}
		count, err := r.ReadByte_()
		if err != nil {
			return nil, ErrInvalidFormat
		}
		hdr.Sigs = make([]SigId, count)
		for i := range hdr.Sigs {
			if hdr.Sigs[i].ParticipantIndex, err = r.ReadByte_(); err != nil {
				return nil, ErrInvalidFormat
			}
			sigBytes, err := r.ReadFixed(SignatureSize)
			if err != nil {
				return nil, ErrInvalidFormat
			}
			copy(hdr.Sigs[i].Signature[:], sigBytes)
		}
		tx.MultiSig = hdr
	}

	sigBytes, err := r.ReadFixed(SignatureSize)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	copy(tx.Signature[:], sigBytes)

	return tx, nil
}

// signedBytes returns tx_bytes[..len-SIGNATURE_SIZE], the payload the
// sender signature in step 8 and the multisig body hash in step 9 are
// computed over.
func (tx *Transaction) signedBytes() []byte {
	full := tx.Encode()
	return full[:len(full)-SignatureSize]
}

// multiSigBodyBytes computes tx_bytes[.. len-tail] per spec §4.3.1 step 9
// and §9's frozen tail-length note: tail = 1 (presence byte) + 1 (count)
// + SIGNATURE_SIZE (sender sig) + n*(SIGNATURE_SIZE+1) (per-sig entries).
func (tx *Transaction) multiSigBodyBytes(numSigs int) ([]byte, error) {
	full := tx.Encode()
	tail := 1 + 1 + SignatureSize + numSigs*(SignatureSize+1)
	if tail >= len(full) {
		return nil, ErrInvalidFormat
	}
	return full[:len(full)-tail], nil
}
