package sync

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rvkernel/kernel/cpu"
)

func resetGate(t *testing.T) *IRQGate {
	t.Helper()
	cpu.SetHartIDForTest(0)
	g := Gate()
	g.depth = 0
	g.savedEnabled = false
	return g
}

func TestGateDisablesInterruptsWhileHeld(t *testing.T) {
	g := resetGate(t)
	cpu.EnableInterrupts()

	g.Push()
	assert.False(t, cpu.InterruptsEnabled())
	assert.Equal(t, uint32(1), g.Depth())

	g.Pop()
	assert.True(t, cpu.InterruptsEnabled(), "outermost Pop must restore the saved preference")
	assert.Equal(t, uint32(0), g.Depth())
}

func TestGatePreservesDisabledPreference(t *testing.T) {
	g := resetGate(t)
	cpu.DisableInterrupts()

	g.Push()
	g.Pop()
	assert.False(t, cpu.InterruptsEnabled(), "interrupts were off before the gate; they must stay off")
}

func TestGateNesting(t *testing.T) {
	g := resetGate(t)
	cpu.EnableInterrupts()

	g.Push()
	g.Push()
	g.Push()
	require.Equal(t, uint32(3), g.Depth())

	g.Pop()
	assert.False(t, cpu.InterruptsEnabled(), "inner Pop must not re-enable")
	g.Pop()
	assert.False(t, cpu.InterruptsEnabled())
	g.Pop()
	assert.True(t, cpu.InterruptsEnabled())
}

// TestGateBalanceProperty drives random balanced push/pop sequences from
// both initial interrupt states: the final interrupt-enable state always
// equals the initial state and the depth always returns to zero.
func TestGateBalanceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		g := resetGate(t)

		initial := rng.Intn(2) == 0
		if initial {
			cpu.EnableInterrupts()
		} else {
			cpu.DisableInterrupts()
		}

		depth := 0
		for op := 0; op < 40; op++ {
			if depth == 0 || rng.Intn(2) == 0 {
				g.Push()
				depth++
			} else {
				g.Pop()
				depth--
			}
		}
		for depth > 0 {
			g.Pop()
			depth--
		}

		require.Equal(t, uint32(0), g.Depth(), "trial %d", trial)
		require.Equal(t, initial, cpu.InterruptsEnabled(), "trial %d: interrupt state must round-trip", trial)
	}
}

func TestLockWeakenAndPromote(t *testing.T) {
	resetGate(t)
	cpu.EnableInterrupts()

	var l Lock
	g := l.Acquire()
	require.True(t, l.Held())

	w := g.Weaken()
	assert.False(t, l.Held(), "Weaken must release the lock word")
	assert.True(t, cpu.InterruptsEnabled(), "Weaken pops the gate")

	// Promote re-acquires without pushing the gate: the sleep protocol
	// resumes with the hart's gate already held, so emulate that here.
	Gate().Push()
	g2 := w.Promote()
	assert.True(t, l.Held())

	g2.Release()
	assert.False(t, l.Held())
	assert.True(t, cpu.InterruptsEnabled())
	assert.Equal(t, uint32(0), Gate().Depth())
}
