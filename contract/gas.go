package contract

import "errors"

// ErrOutOfGas is returned when a native function call would push the
// meter's spent total past its limit.
var ErrOutOfGas = errors.New("contract: out of gas")

// GasMeter tracks the cost of native function calls for one invocation.
// The VM meters bytecode execution itself (spec §4.4's "out-of-gas...
// handled by the VM, not here"); this meter covers only the fixed costs
// the native function table assigns, so a contract cannot make the host
// do unbounded work through storage or transfer calls alone.
type GasMeter struct {
	limit uint64
	spent uint64
}

// NewGasMeter returns a meter that allows up to limit gas of native calls.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// Charge deducts cost, failing if doing so would exceed the limit.
func (g *GasMeter) Charge(cost uint64) error {
	if g.spent+cost > g.limit {
		return ErrOutOfGas
	}
	g.spent += cost
	return nil
}

// Spent returns the total gas charged so far.
func (g *GasMeter) Spent() uint64 { return g.spent }
