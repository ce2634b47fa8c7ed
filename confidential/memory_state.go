package confidential

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/tos-network/unocore/common"
	"github.com/tos-network/unocore/storage"
)

// MemoryState is the in-memory BlockchainVerificationState test double
// spec §9 calls for (alongside a disk-backed store and a batch-overlay
// wrapper, neither of which this module needs to ship). Reads fall
// through to a storage.MemoryStore backpointer chain; writes accumulate
// in a pending cache so mutations are visible to later calls in the same
// batch and are only pushed into the chain on Commit.
type MemoryState struct {
	store      *storage.MemoryStore
	topoheight uint64

	balances  map[balanceKey]*Ciphertext
	nonces    map[common.Address]uint64
	noncesHit map[common.Address]bool
	multisig  map[common.Address]*MultiSigPayload
	outputs   []SenderOutput
}

type balanceKey struct {
	addr  common.Address
	asset common.Hash
}

// SenderOutput is one recorded AddSenderOutput call.
type SenderOutput struct {
	Source common.Address
	Asset  common.Hash
	Output Ciphertext
}

// NewMemoryState returns an empty state at topoheight 0.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		store:     storage.NewMemoryStore(),
		balances:  make(map[balanceKey]*Ciphertext),
		nonces:    make(map[common.Address]uint64),
		noncesHit: make(map[common.Address]bool),
		multisig:  make(map[common.Address]*MultiSigPayload),
	}
}

// SetTopoheight advances the topoheight new writes will be committed at —
// call once per batch, the way a block processor advances between
// blocks.
func (m *MemoryState) SetTopoheight(t uint64) { m.topoheight = t }

// Topoheight returns the current write topoheight.
func (m *MemoryState) Topoheight() uint64 { return m.topoheight }

func balanceStoreKey(addr common.Address, asset common.Hash) storage.Key {
	return storage.Key{Kind: "balance", Key: string(addr[:]) + string(asset[:])}
}

func nonceStoreKey(addr common.Address) storage.Key {
	return storage.Key{Kind: "nonce", Key: string(addr[:])}
}

func multisigStoreKey(addr common.Address) storage.Key {
	return storage.Key{Kind: "multisig", Key: string(addr[:])}
}

func encodeCiphertext(c Ciphertext) []byte {
	out := make([]byte, 64)
	copy(out[:32], c.Commitment[:])
	copy(out[32:], c.Handle[:])
	return out
}

func decodeCiphertext(b []byte) (Ciphertext, error) {
	if len(b) < 64 {
		return Ciphertext{}, ErrInvalidFormat
	}
	var c Ciphertext
	copy(c.Commitment[:], b[:32])
	copy(c.Handle[:], b[32:64])
	return c, nil
}

func encodeMultiSig(p MultiSigPayload) []byte {
	out := make([]byte, 1+1+len(p.Participants)*common.AddressLength)
	out[0] = p.Threshold
	out[1] = byte(len(p.Participants))
	for i, addr := range p.Participants {
		copy(out[2+i*common.AddressLength:], addr[:])
	}
	return out
}

func decodeMultiSig(b []byte) (MultiSigPayload, error) {
	if len(b) < 2 {
		return MultiSigPayload{}, ErrInvalidFormat
	}
	p := MultiSigPayload{Threshold: b[0]}
	count := int(b[1])
	p.Participants = make([]common.Address, count)
	for i := 0; i < count; i++ {
		off := 2 + i*common.AddressLength
		if len(b) < off+common.AddressLength {
			return MultiSigPayload{}, ErrInvalidFormat
		}
		p.Participants[i] = common.BytesToAddress(b[off : off+common.AddressLength])
	}
	return p, nil
}

// Fund seeds an account's balance directly at the current topoheight,
// bypassing the verifier — used to build test fixtures and genesis state.
func (m *MemoryState) Fund(addr common.Address, asset common.Hash, ct Ciphertext) {
	m.store.Put(balanceStoreKey(addr, asset), m.topoheight, encodeCiphertext(ct))
}

func (m *MemoryState) loadBalance(addr common.Address, asset common.Hash, atTopoheight uint64) (*Ciphertext, error) {
	key := balanceKey{addr: addr, asset: asset}
	if ct, ok := m.balances[key]; ok {
		return ct, nil
	}
	v, _, err := m.store.WalkBack(balanceStoreKey(addr, asset), atTopoheight)
	if errors.Is(err, storage.ErrNotFound) {
		zero := zeroCiphertext()
		m.balances[key] = &zero
		return m.balances[key], nil
	}
	if err != nil {
		return nil, err
	}
	ct, err := decodeCiphertext(v.Value)
	if err != nil {
		return nil, err
	}
	m.balances[key] = &ct
	return m.balances[key], nil
}

func (*MemoryState) PreVerifyTx(ctx context.Context, tx *Transaction) (bool, error) {
	return true, nil
}

func (m *MemoryState) GetAccountNonce(ctx context.Context, source common.Address) (uint64, error) {
	if n, ok := m.nonces[source]; ok {
		return n, nil
	}
	v, _, err := m.store.WalkBack(nonceStoreKey(source), m.topoheight)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(v.Value) < 8 {
		return 0, ErrInvalidFormat
	}
	n := binary.BigEndian.Uint64(v.Value)
	m.nonces[source] = n
	return n, nil
}

func (m *MemoryState) UpdateAccountNonce(ctx context.Context, source common.Address, newNonce uint64) error {
	m.nonces[source] = newNonce
	m.noncesHit[source] = true
	return nil
}

func (m *MemoryState) GetSenderBalance(ctx context.Context, source common.Address, asset common.Hash, reference Reference) (*Ciphertext, error) {
	return m.loadBalance(source, asset, reference.Topoheight)
}

func (m *MemoryState) GetReceiverBalance(ctx context.Context, dest common.Address, asset common.Hash) (*Ciphertext, error) {
	return m.loadBalance(dest, asset, m.topoheight)
}

func (m *MemoryState) AddSenderOutput(ctx context.Context, source common.Address, asset common.Hash, output Ciphertext) error {
	m.outputs = append(m.outputs, SenderOutput{Source: source, Asset: asset, Output: output})
	return nil
}

func (m *MemoryState) GetMultiSigState(ctx context.Context, source common.Address) (*MultiSigPayload, error) {
	if p, ok := m.multisig[source]; ok {
		return p, nil
	}
	v, _, err := m.store.WalkBack(multisigStoreKey(source), m.topoheight)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, err := decodeMultiSig(v.Value)
	if err != nil {
		return nil, err
	}
	m.multisig[source] = &p
	return m.multisig[source], nil
}

func (m *MemoryState) SetMultiSigState(ctx context.Context, source common.Address, payload *MultiSigPayload) error {
	m.multisig[source] = payload
	return nil
}

// SenderOutputs returns every AddSenderOutput call recorded since the
// last Commit, for assertions in tests.
func (m *MemoryState) SenderOutputs() []SenderOutput { return m.outputs }

// Commit pushes every pending balance, nonce, and multisig mutation into
// the backing chain at the current topoheight, then clears the pending
// caches so the next batch reads fresh state (at whatever topoheight it
// is set to next).
func (m *MemoryState) Commit() {
	for key, ct := range m.balances {
		m.store.Put(balanceStoreKey(key.addr, key.asset), m.topoheight, encodeCiphertext(*ct))
	}
	for addr, n := range m.nonces {
		if !m.noncesHit[addr] {
			continue
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], n)
		m.store.Put(nonceStoreKey(addr), m.topoheight, buf[:])
	}
	for addr, p := range m.multisig {
		m.store.Put(multisigStoreKey(addr), m.topoheight, encodeMultiSig(*p))
	}
	m.balances = make(map[balanceKey]*Ciphertext)
	m.nonces = make(map[common.Address]uint64)
	m.noncesHit = make(map[common.Address]bool)
	m.multisig = make(map[common.Address]*MultiSigPayload)
	m.outputs = nil
}

// Discard drops every pending mutation without writing it to the chain —
// the caller's response to a failed batch per spec §4.2's "unspecified
// partial state; callers MUST discard" contract.
func (m *MemoryState) Discard() {
	m.balances = make(map[balanceKey]*Ciphertext)
	m.nonces = make(map[common.Address]uint64)
	m.noncesHit = make(map[common.Address]bool)
	m.multisig = make(map[common.Address]*MultiSigPayload)
	m.outputs = nil
}
