package contract

import (
	"testing"

	"github.com/tos-network/unocore/common"
)

func newTestChainState(balanceOf func(common.Hash) uint64) *ChainState {
	var contractHash, blockHash, txHash common.Hash
	contractHash[0] = 0xC0
	blockHash[0] = 0xB0
	txHash[0] = 0x7A
	var source common.Address
	source[0] = 0x5A

	return NewChainState(
		true, false,
		contractHash, blockHash, txHash,
		100,
		BlockHeader{Height: 100, Hash: blockHash},
		7, 1,
		source,
		nil,
		balanceOf,
	)
}

func TestDepositForHitAndMiss(t *testing.T) {
	cs := newTestChainState(nil)
	asset := common.Hash{0x01}
	cs.SetDeposit(asset, 500)

	amount, ok := cs.DepositFor(asset)
	if !ok || amount != 500 {
		t.Fatalf("expected deposit hit of 500, got %d, %v", amount, ok)
	}

	if _, ok := cs.DepositFor(common.Hash{0x02}); ok {
		t.Fatal("expected miss for an asset with no deposit")
	}
}

func TestDepositSetOverwritesExistingAsset(t *testing.T) {
	cs := newTestChainState(nil)
	asset := common.Hash{0x01}
	cs.SetDeposit(asset, 500)
	cs.SetDeposit(asset, 700)

	amount, ok := cs.DepositFor(asset)
	if !ok || amount != 700 {
		t.Fatalf("expected overwritten deposit of 700, got %d, %v", amount, ok)
	}
}

func TestBalanceForUsesHookAndDefaultsToZero(t *testing.T) {
	asset := common.Hash{0x09}
	cs := newTestChainState(func(a common.Hash) uint64 {
		if a == asset {
			return 42
		}
		return 0
	})
	if got := cs.BalanceFor(asset); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	csNoHook := newTestChainState(nil)
	if got := csNoHook.BalanceFor(asset); got != 0 {
		t.Fatalf("expected 0 with no balanceOf hook, got %d", got)
	}
}

func TestQueueTransferAppendsInCallOrder(t *testing.T) {
	cs := newTestChainState(nil)
	var d1, d2 common.Address
	d1[0] = 0x01
	d2[0] = 0x02
	asset := common.Hash{0x01}

	cs.QueueTransfer(d1, 10, asset)
	cs.QueueTransfer(d2, 20, asset)

	if len(cs.Transfers) != 2 {
		t.Fatalf("expected 2 queued transfers, got %d", len(cs.Transfers))
	}
	if cs.Transfers[0].Destination != d1 || cs.Transfers[0].Amount != 10 {
		t.Fatalf("unexpected first transfer: %+v", cs.Transfers[0])
	}
	if cs.Transfers[1].Destination != d2 || cs.Transfers[1].Amount != 20 {
		t.Fatalf("unexpected second transfer: %+v", cs.Transfers[1])
	}
}

func TestOrderedDepositsPreservesInsertionOrder(t *testing.T) {
	d := newOrderedDeposits()
	a1, a2, a3 := common.Hash{0x01}, common.Hash{0x02}, common.Hash{0x03}
	d.Set(a2, 2)
	d.Set(a1, 1)
	d.Set(a3, 3)
	d.Set(a2, 22) // re-set an existing asset must not move its position

	var order []common.Hash
	d.Each(func(dep Deposit) { order = append(order, dep.Asset) })

	if len(order) != 3 || order[0] != a2 || order[1] != a1 || order[2] != a3 {
		t.Fatalf("unexpected iteration order: %v", order)
	}
	v, _ := d.Get(a2)
	if v.Amount != 22 {
		t.Fatalf("expected re-set to update the amount, got %d", v.Amount)
	}
}
