// Package contract implements the deterministic host environment a
// contract VM runs inside: native function bindings, per-invocation
// ChainState scratch, a storage overlay with tombstone semantics, and a
// seeded deterministic RNG. Grounded on the teacher's kvstore package for
// the storage-adapter shape and on core/uno for the asset/deposit
// vocabulary, generalized from a single-height KV overlay to the
// insertion-ordered, tombstone-aware overlay this host requires.
package contract

import "github.com/tos-network/unocore/common"

// Deposit is one asset credited to the contract for this invocation.
type Deposit struct {
	Asset  common.Hash
	Amount uint64
}

// TransferOutput is one queued contract-initiated transfer, appended by
// the `transfer` native function. Per spec §4.5 the queue is consumed
// atomically after execution: either every transfer debits the contract
// and credits its recipient, or none do.
type TransferOutput struct {
	Destination common.Address
	Amount      uint64
	Asset       common.Hash
}

// orderedDeposits preserves insertion order for iteration — the deposits
// map's iteration order is part of consensus, so a plain Go map (whose
// iteration order is intentionally randomized) cannot back it.
type orderedDeposits struct {
	order []common.Hash
	byAsset map[common.Hash]Deposit
}

func newOrderedDeposits() *orderedDeposits {
	return &orderedDeposits{byAsset: make(map[common.Hash]Deposit)}
}

// Set records or replaces the deposit for asset, appending to the
// insertion order only the first time asset is seen.
func (d *orderedDeposits) Set(asset common.Hash, amount uint64) {
	if _, ok := d.byAsset[asset]; !ok {
		d.order = append(d.order, asset)
	}
	d.byAsset[asset] = Deposit{Asset: asset, Amount: amount}
}

// Get returns the deposit for asset, if any.
func (d *orderedDeposits) Get(asset common.Hash) (Deposit, bool) {
	v, ok := d.byAsset[asset]
	return v, ok
}

// Each visits deposits in insertion order.
func (d *orderedDeposits) Each(fn func(Deposit)) {
	for _, asset := range d.order {
		fn(d.byAsset[asset])
	}
}

// BlockHeader is the subset of block metadata the `block.*` native
// functions expose to contract bytecode.
type BlockHeader struct {
	Nonce      uint64
	Timestamp  uint64
	Height     uint64
	ExtraNonce [32]byte
	Hash       common.Hash
	Miner      common.Address
	Version    uint8
	Tips       []common.Hash
}

// ChainState is the per-invocation scratch space a contract call runs
// against: everything a native function can read or write. It is
// constructed before the VM starts, inspected and consumed once the VM
// returns, never reused across invocations.
type ChainState struct {
	DebugMode bool
	Mainnet   bool

	ContractHash common.Hash
	Topoheight   uint64
	BlockHash    common.Hash
	Block        BlockHeader
	TxHash       common.Hash
	TxNonce      uint64
	TxFee        uint64
	TxSource     common.Address

	deposits  *orderedDeposits
	Transfers []TransferOutput

	storage *Overlay
	random  *DeterministicRandom

	balanceOf func(asset common.Hash) uint64
}

// NewChainState builds a ChainState for one contract invocation. balanceOf
// resolves the contract's current balance for an asset on demand —
// get_balance_for_asset is the only native function that needs a live
// chain read rather than data already staged into ChainState.
func NewChainState(
	debugMode, mainnet bool,
	contractHash, blockHash, txHash common.Hash,
	topoheight uint64,
	block BlockHeader,
	txNonce, txFee uint64,
	txSource common.Address,
	backing Storage,
	balanceOf func(asset common.Hash) uint64,
) *ChainState {
	return &ChainState{
		DebugMode:    debugMode,
		Mainnet:      mainnet,
		ContractHash: contractHash,
		Topoheight:   topoheight,
		BlockHash:    blockHash,
		Block:        block,
		TxHash:       txHash,
		TxNonce:      txNonce,
		TxFee:        txFee,
		TxSource:     txSource,
		deposits:     newOrderedDeposits(),
		storage:      NewOverlay(backing),
		random:       NewDeterministicRandom(contractHash, txHash, blockHash),
		balanceOf:    balanceOf,
	}
}

// SetDeposit records a deposit for asset, to be read back by
// get_deposit_for_asset. Called by the embedder before the VM starts,
// from the transaction's ContractDeposit list, in that list's order.
func (cs *ChainState) SetDeposit(asset common.Hash, amount uint64) {
	cs.deposits.Set(asset, amount)
}

// DepositFor returns the deposit the tx made for asset, if any.
func (cs *ChainState) DepositFor(asset common.Hash) (uint64, bool) {
	d, ok := cs.deposits.Get(asset)
	return d.Amount, ok
}

// BalanceFor returns the contract's current balance for asset, via the
// balanceOf hook supplied at construction.
func (cs *ChainState) BalanceFor(asset common.Hash) uint64 {
	if cs.balanceOf == nil {
		return 0
	}
	return cs.balanceOf(asset)
}

// QueueTransfer appends a contract-initiated transfer to the output
// queue, called by the `transfer` native function.
func (cs *ChainState) QueueTransfer(dest common.Address, amount uint64, asset common.Hash) {
	cs.Transfers = append(cs.Transfers, TransferOutput{Destination: dest, Amount: amount, Asset: asset})
}

// Storage returns the per-invocation overlay.
func (cs *ChainState) Storage() *Overlay { return cs.storage }

// Random returns the per-invocation deterministic RNG stream.
func (cs *ChainState) Random() *DeterministicRandom { return cs.random }
