// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package throttle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock only moves when a test calls advance, never sleeping, so
// scenario tests run instantly.
type fakeClock struct {
	now int64
}

func (c *fakeClock) MilliTime() int64 { return c.now }

func (c *fakeClock) advance(ms int64) { c.now += ms }

type testMsg struct{ id string }

func (m testMsg) ID() string { return m.id }

type testReply struct {
	id      string
	hasErrs bool
}

func (r testReply) MessageID() string { return r.id }
func (r testReply) HasErrors() bool   { return r.hasErrs }

func TestInitialState(t *testing.T) {
	clock := &fakeClock{now: 1000}
	p := NewDynamicPolicyWithClock(clock)
	assert.Equal(t, 20.0, p.WindowSize())
	assert.Equal(t, 20.0, p.GetMinWindowSize())
	assert.Equal(t, 20.0, p.GetWindowSizeIncrement())
	assert.Equal(t, 0.9, p.GetWindowSizeBackOff())
	assert.Equal(t, 20, p.MaxPendingCount())
}

// Scenario 1: steady probe-up.
func TestSteadyProbeUp(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)

	for i := 0; i < 60; i++ {
		msg := testMsg{id: "m"}
		require.True(t, p.CanSend(msg, 0))
		p.ProcessMessage(msg)
		clock.advance(1)
		p.ProcessReply(testReply{id: "m"})
	}

	assert.Equal(t, 40.0, p.WindowSize())
	assert.Greater(t, p.localMaxThroughput, 0.0)
}

// Scenario 2: back-off on efficiency drop, continuing from scenario 1.
func TestBackOffOnEfficiencyDrop(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)
	for i := 0; i < 60; i++ {
		msg := testMsg{id: "m"}
		p.CanSend(msg, 0)
		p.ProcessMessage(msg)
		clock.advance(1)
		p.ProcessReply(testReply{id: "m"})
	}
	require.Equal(t, 40.0, p.WindowSize())

	// Next interval: half of the 120 replies are ok and each send takes
	// 2ms instead of 1ms, so throughput drops well below the local max.
	windowAtStart := p.WindowSize()
	batch := int(windowAtStart * p.resizeRate)
	for i := 0; i < batch; i++ {
		msg := testMsg{id: "m"}
		p.CanSend(msg, 0)
		p.ProcessMessage(msg)
		if i%2 == 0 {
			clock.advance(2)
			p.ProcessReply(testReply{id: "m"})
		} else {
			clock.advance(2)
			p.ProcessReply(testReply{id: "m", hasErrs: true})
		}
	}

	assert.Equal(t, p.minWindowSize, p.WindowSize())
	assert.Equal(t, 0.0, p.localMaxThroughput)
}

// Scenario 3: max-throughput pinning.
func TestMaxThroughputPinning(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)
	p.SetMaxThroughput(1.0)

	before := p.WindowSize()
	batch := int(p.WindowSize() * p.resizeRate) // 60
	for i := 0; i < batch-1; i++ {
		msg := testMsg{id: "m"}
		p.CanSend(msg, 0)
		p.ProcessMessage(msg)
	}
	for i := 0; i < 98; i++ {
		p.ProcessReply(testReply{id: "m"}) // numOk = 98, throughput = 98/100 = 0.98
	}
	clock.advance(100) // elapsed = 100ms when the final send closes the boundary
	last := testMsg{id: "m"}
	p.CanSend(last, 0)
	p.ProcessMessage(last)

	assert.Equal(t, before, p.WindowSize())
}

// Idle contraction (scenario 4).
func TestIdleContraction(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)
	p.windowSize = 100

	clock.advance(60_001)
	p.CanSend(testMsg{id: "m"}, 5)

	assert.Equal(t, 25.0, p.WindowSize())
}

// Weight scaling (scenario 5).
func TestWeightScaling(t *testing.T) {
	clockA := &fakeClock{now: 0}
	a := NewDynamicPolicyWithClock(clockA)
	a.SetWeight(1)

	clockB := &fakeClock{now: 0}
	b := NewDynamicPolicyWithClock(clockB)
	b.SetWeight(4)

	initial := a.WindowSize()
	require.Equal(t, initial, b.WindowSize())

	drive := func(p *DynamicPolicy, clock *fakeClock) {
		batch := int(p.WindowSize() * p.resizeRate)
		for i := 0; i < batch; i++ {
			msg := testMsg{id: "m"}
			p.CanSend(msg, 0)
			p.ProcessMessage(msg)
			clock.advance(1)
			p.ProcessReply(testReply{id: "m"})
		}
	}
	drive(a, clockA)
	drive(b, clockB)

	deltaA := a.WindowSize() - initial
	deltaB := b.WindowSize() - initial
	assert.InDelta(t, 2*deltaA, deltaB, 1e-9)
}

// Base policy veto (scenario 6).
func TestBasePolicyVeto(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)
	p.SetMaxPendingCount(10)

	assert.False(t, p.CanSend(testMsg{id: "m"}, 10))
}

func TestCanSendFalseLeavesStateUnchanged(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)
	p.SetMaxPendingCount(1)

	before := p.numSent
	for i := 0; i < 5; i++ {
		p.CanSend(testMsg{id: "m"}, 1)
	}
	assert.Equal(t, before, p.numSent)
}

func TestSetWindowSizeBackOffClamps(t *testing.T) {
	p := NewDynamicPolicy()
	p.SetWindowSizeBackOff(5)
	assert.Equal(t, 1.0, p.GetWindowSizeBackOff())
	p.SetWindowSizeBackOff(-5)
	assert.Equal(t, 0.0, p.GetWindowSizeBackOff())
}

func TestWindowInvariantAfterManyIntervals(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)
	p.SetMaxWindowSize(1000)

	for round := 0; round < 200; round++ {
		batch := int(p.WindowSize()*p.resizeRate) + 1
		for i := 0; i < batch; i++ {
			msg := testMsg{id: "m"}
			if !p.CanSend(msg, 0) {
				continue
			}
			p.ProcessMessage(msg)
			clock.advance(1)
			errored := round%3 == 0 && i%4 == 0
			p.ProcessReply(testReply{id: "m", hasErrs: errored})
		}
		assert.GreaterOrEqual(t, p.WindowSize(), p.GetMinWindowSize())
		assert.LessOrEqual(t, p.WindowSize(), p.GetMaxWindowSize())
	}
}

func TestIntervalBoundaryResetsCounters(t *testing.T) {
	clock := &fakeClock{now: 0}
	p := NewDynamicPolicyWithClock(clock)

	batch := int(p.WindowSize() * p.resizeRate)
	for i := 0; i < batch-1; i++ {
		msg := testMsg{id: "m"}
		p.CanSend(msg, 0)
		p.ProcessMessage(msg)
		clock.advance(1)
		p.ProcessReply(testReply{id: "m"})
	}
	last := testMsg{id: "m"}
	p.CanSend(last, 0)
	p.ProcessMessage(last) // crosses the interval boundary
	assert.Equal(t, 0, p.numSent)
	assert.Equal(t, 0, p.numOk)
}
