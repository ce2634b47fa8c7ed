package contract

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/tos-network/unocore/common"
)

// Environment wires a ChainState into a goja.Runtime's global scope as
// the native function table spec §4.4 names, the way the teacher's
// internal/jsre embeds web3's JS bindings into a running runtime rather
// than exposing Go types directly: every host effect is mediated through
// a handful of plain functions and opaque namespace objects, never a raw
// pointer into ChainState.
type Environment struct {
	vm    *goja.Runtime
	state *ChainState
	gas   *GasMeter
}

// NewEnvironment constructs a goja.Runtime with every native function
// from spec §4.4's table registered, gas-metered against limit.
func NewEnvironment(state *ChainState, gasLimit uint64) *Environment {
	env := &Environment{
		vm:    goja.New(),
		state: state,
		gas:   NewGasMeter(gasLimit),
	}
	env.register()
	return env
}

// Runtime exposes the underlying goja.Runtime so the embedder can run
// contract bytecode against it.
func (e *Environment) Runtime() *goja.Runtime { return e.vm }

// GasSpent returns the total gas charged across this invocation so far.
func (e *Environment) GasSpent() uint64 { return e.gas.Spent() }

func (e *Environment) charge(cost uint64) {
	if err := e.gas.Charge(cost); err != nil {
		panic(e.vm.ToValue(err.Error()))
	}
}

func (e *Environment) register() {
	vm := e.vm

	vm.Set("println", e.nativePrintln)
	vm.Set("debug", e.nativePrintln)

	vm.Set("transaction", e.nativeTransaction)
	vm.Set("block", e.nativeBlock)
	vm.Set("storage", e.nativeStorage)
	vm.Set("random", e.nativeRandom)

	vm.Set("get_contract_hash", e.nativeGetContractHash)
	vm.Set("get_deposit_for_asset", e.nativeGetDepositForAsset)
	vm.Set("get_balance_for_asset", e.nativeGetBalanceForAsset)
}

// nativePrintln backs both println and debug: cost 5, no-op unless the
// invocation is running with debug_mode set.
func (e *Environment) nativePrintln(call goja.FunctionCall) goja.Value {
	e.charge(5)
	if e.state.DebugMode {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}
		fmt.Println(args...)
	}
	return goja.Undefined()
}

// nativeTransaction returns the opaque Transaction handle: an object
// exposing nonce/fee/hash/source as zero-argument methods, each
// individually gas-charged per the native function table.
func (e *Environment) nativeTransaction(call goja.FunctionCall) goja.Value {
	e.charge(5)
	obj := e.vm.NewObject()
	obj.Set("nonce", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		return e.vm.ToValue(e.state.TxNonce)
	})
	obj.Set("fee", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		return e.vm.ToValue(e.state.TxFee)
	})
	obj.Set("hash", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		return e.vm.ToValue(e.state.TxHash.String())
	})
	obj.Set("source", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		return e.vm.ToValue(e.state.TxSource.String())
	})
	obj.Set("transfer", e.nativeTransfer)
	return obj
}

// nativeTransfer backs Transaction.transfer: queues a contract-initiated
// transfer for post-execution settlement, per spec §4.5.
func (e *Environment) nativeTransfer(call goja.FunctionCall) goja.Value {
	e.charge(500)
	if len(call.Arguments) != 3 {
		panic(e.vm.ToValue("transfer: expected (destination, amount, asset)"))
	}
	dest := common.BytesToAddress(e.hexArg(call.Arguments[0]))
	amount := call.Arguments[1].ToInteger()
	asset := common.BytesToHash(e.hexArg(call.Arguments[2]))
	e.state.QueueTransfer(dest, uint64(amount), asset)
	return e.vm.ToValue(true)
}

// hexArg decodes a "0x"-prefixed hex argument, the form Hash.String() and
// Address.String() hand to scripts.
func (e *Environment) hexArg(v goja.Value) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(v.String(), "0x"))
	if err != nil {
		panic(e.vm.ToValue("expected a 0x-prefixed hex argument"))
	}
	return b
}

func hashSliceToValues(vm *goja.Runtime, hashes []common.Hash) goja.Value {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.String()
	}
	return vm.ToValue(out)
}

// nativeBlock returns the opaque Block handle.
func (e *Environment) nativeBlock(call goja.FunctionCall) goja.Value {
	e.charge(5)
	b := e.state.Block
	obj := e.vm.NewObject()
	obj.Set("nonce", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(b.Nonce) })
	obj.Set("timestamp", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(b.Timestamp) })
	obj.Set("height", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(b.Height) })
	obj.Set("extra_nonce", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		return e.vm.ToValue(common.BytesToHash(b.ExtraNonce[:]).String())
	})
	obj.Set("hash", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(b.Hash.String()) })
	obj.Set("miner", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(b.Miner.String()) })
	obj.Set("version", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(b.Version) })
	obj.Set("tips", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		return hashSliceToValues(e.vm, b.Tips)
	})
	return obj
}

// nativeStorage returns the opaque Storage handle: load/has/store/delete
// mediated entirely through the ChainState overlay.
func (e *Environment) nativeStorage(call goja.FunctionCall) goja.Value {
	e.charge(5)
	obj := e.vm.NewObject()
	obj.Set("load", func(call goja.FunctionCall) goja.Value {
		e.charge(50)
		key := uint64(call.Argument(0).ToInteger())
		v, ok := e.state.Storage().Load(key)
		if !ok {
			return goja.Undefined()
		}
		return e.vm.ToValue(v)
	})
	obj.Set("has", func(call goja.FunctionCall) goja.Value {
		e.charge(25)
		key := uint64(call.Argument(0).ToInteger())
		return e.vm.ToValue(e.state.Storage().Has(key))
	})
	obj.Set("store", func(call goja.FunctionCall) goja.Value {
		e.charge(50)
		key := uint64(call.Argument(0).ToInteger())
		e.state.Storage().Store(key, call.Argument(1).Export())
		return goja.Undefined()
	})
	obj.Set("delete", func(call goja.FunctionCall) goja.Value {
		e.charge(50)
		key := uint64(call.Argument(0).ToInteger())
		e.state.Storage().Delete(key)
		return goja.Undefined()
	})
	return obj
}

// nativeRandom returns the opaque Random handle bound to this
// invocation's DeterministicRandom stream.
func (e *Environment) nativeRandom(call goja.FunctionCall) goja.Value {
	e.charge(5)
	r := e.state.Random()
	obj := e.vm.NewObject()
	obj.Set("next_u8", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(r.NextU8()) })
	obj.Set("next_bool", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(r.NextBool()) })
	obj.Set("next_u16", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(r.NextU16()) })
	obj.Set("next_u32", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(r.NextU32()) })
	obj.Set("next_u64", func(goja.FunctionCall) goja.Value { e.charge(5); return e.vm.ToValue(r.NextU64()) })
	obj.Set("next_u128", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		u := r.NextU128()
		return e.vm.ToValue(map[string]any{"lo": u.Lo, "hi": u.Hi})
	})
	obj.Set("next_u256", func(goja.FunctionCall) goja.Value {
		e.charge(5)
		b := r.NextU256()
		return e.vm.ToValue(common.BytesToHash(b[:]).String())
	})
	return obj
}

func (e *Environment) nativeGetContractHash(call goja.FunctionCall) goja.Value {
	e.charge(5)
	return e.vm.ToValue(e.state.ContractHash.String())
}

func (e *Environment) nativeGetDepositForAsset(call goja.FunctionCall) goja.Value {
	e.charge(5)
	asset := common.BytesToHash(e.hexArg(call.Argument(0)))
	amount, ok := e.state.DepositFor(asset)
	if !ok {
		return goja.Undefined()
	}
	return e.vm.ToValue(amount)
}

func (e *Environment) nativeGetBalanceForAsset(call goja.FunctionCall) goja.Value {
	e.charge(25)
	asset := common.BytesToHash(e.hexArg(call.Argument(0)))
	return e.vm.ToValue(e.state.BalanceFor(asset))
}
