package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGasMeterChargeWithinLimit(t *testing.T) {
	g := NewGasMeter(100)
	require.NoError(t, g.Charge(40))
	require.NoError(t, g.Charge(60))
	require.Equal(t, uint64(100), g.Spent())
}

func TestGasMeterChargeOverLimit(t *testing.T) {
	g := NewGasMeter(100)
	require.NoError(t, g.Charge(40))
	require.ErrorIs(t, g.Charge(61), ErrOutOfGas)
	require.Equal(t, uint64(40), g.Spent(), "a failed charge must not mutate spent")
}

func TestGasMeterExactLimitIsAllowed(t *testing.T) {
	g := NewGasMeter(50)
	require.NoError(t, g.Charge(50))
	require.ErrorIs(t, g.Charge(1), ErrOutOfGas)
}
