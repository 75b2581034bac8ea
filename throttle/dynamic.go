// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package throttle

import (
	"math"
	"sync"

	"github.com/SudarsanSridharan16/vespa/utils/timer/mockable"
)

// idleTimeoutMillis is the quiet period after which DynamicPolicy
// assumes the session's load has dropped and contracts the window
// toward the caller's current pending count.
const idleTimeoutMillis int64 = 60_000

// Clock is the monotonic time source the controller reads to compute
// elapsed intervals. MilliTime must be nondecreasing between calls on
// the same DynamicPolicy; a zero or negative elapsed delta must not
// panic the controller (see ERROR HANDLING in spec).
type Clock interface {
	MilliTime() int64
}

// systemClock adapts utils/timer/mockable.Clock, the process-wide
// monotonic clock, to the Clock contract used by this package.
type systemClock struct {
	c mockable.Clock
}

func (s *systemClock) MilliTime() int64 {
	return s.c.Time().UnixMilli()
}

// DynamicPolicy offers dynamic limits on the number of pending
// messages a session is allowed to have outstanding. It continuously
// probes for the throughput ceiling of the channel it is throttling
// and adjusts its window size to track it, backing off when observed
// efficiency degrades and contracting after idle periods.
//
// A DynamicPolicy must be driven by exactly one goroutine: CanSend,
// ProcessMessage, and ProcessReply are not internally synchronized
// (see spec §5). Callers that must share one instance across
// goroutines should guard it with their own mutex; mu below (taken via
// Lock/Unlock) exists only to make that failure mode safe to opt into,
// it is never taken on the hot path unless Lock() was called by the
// embedder.
type DynamicPolicy struct {
	*StaticPolicy

	clock Clock

	numSent int
	numOk   int

	resizeRate          float64
	resizeTime          int64
	timeOfLastMessage   int64
	efficiencyThreshold float64
	windowSizeIncrement float64
	windowSize          float64
	minWindowSize       float64
	decrementFactor     float64
	maxWindowSize       float64
	windowSizeBackOff   float64
	weight              float64
	localMaxThroughput  float64
	maxThroughput       float64

	// mu is exposed only so a caller that genuinely must call the
	// three hot-path methods from multiple goroutines can opt into
	// serializing them; DynamicPolicy itself never takes it.
	mu sync.Mutex
}

// NewDynamicPolicy constructs a DynamicPolicy using the real wall
// clock. See NewDynamicPolicyWithClock to inject a fake clock for
// tests.
func NewDynamicPolicy() *DynamicPolicy {
	return NewDynamicPolicyWithClock(&systemClock{})
}

// NewDynamicPolicyWithClock constructs a DynamicPolicy using the given
// clock to compute elapsed intervals. Initial state matches spec §4.4.
func NewDynamicPolicyWithClock(clock Clock) *DynamicPolicy {
	const initialWindow = 20.0
	return &DynamicPolicy{
		StaticPolicy:        NewStaticPolicy(),
		clock:               clock,
		resizeRate:          3,
		efficiencyThreshold: 1.0,
		windowSizeIncrement: initialWindow,
		windowSize:          initialWindow,
		minWindowSize:       initialWindow,
		decrementFactor:     2.0,
		maxWindowSize:       math.MaxInt32,
		windowSizeBackOff:   0.9,
		weight:              1.0,
		timeOfLastMessage:   clock.MilliTime(),
	}
}

// Lock serializes CanSend/ProcessMessage/ProcessReply for callers that
// drive this policy from more than one goroutine. Callers that already
// guarantee serial access (the common case, e.g. a single session I/O
// loop) do not need to call this.
func (p *DynamicPolicy) Lock() { p.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (p *DynamicPolicy) Unlock() { p.mu.Unlock() }

// CanSend implements Policy. See spec §4.1 for the admission
// algorithm: the static ceiling is consulted first, then a >60s idle
// gap contracts the window, then the fractional "carry" test decides
// whether the extra slot beyond the floor is admitted this tick.
func (p *DynamicPolicy) CanSend(msg Message, pendingCount int) bool {
	if !p.StaticPolicy.CanSend(msg, pendingCount) {
		return false
	}

	t := p.clock.MilliTime()
	elapsedSinceLast := float64(t - p.timeOfLastMessage)
	if elapsedSinceLast > float64(idleTimeoutMillis) {
		p.windowSize = math.Min(p.windowSize, float64(pendingCount)+p.windowSizeIncrement)
	}
	p.timeOfLastMessage = t

	windowFloor := math.Floor(p.windowSize)
	frac := p.windowSize - windowFloor
	carry := float64(p.numSent) < (p.windowSize*p.resizeRate)*frac

	limit := windowFloor
	if carry {
		limit++
	}
	return float64(pendingCount) < limit
}

// ProcessMessage implements Policy. Called once per send admitted by a
// prior CanSend. When enough sends have accumulated relative to the
// current window (spec §4.2), a measurement interval closes and the
// window is resized from the observed throughput and efficiency.
func (p *DynamicPolicy) ProcessMessage(msg Message) {
	p.StaticPolicy.ProcessMessage(msg)

	p.numSent++
	if float64(p.numSent) < p.windowSize*p.resizeRate {
		return
	}

	t := p.clock.MilliTime()
	elapsed := float64(t - p.resizeTime)
	p.resizeTime = t

	throughput := float64(p.numOk) / elapsed
	p.numSent = 0
	p.numOk = 0

	switch {
	case p.maxThroughput > 0 && throughput > p.maxThroughput*0.95:
		// Pinned: already close enough to the known ceiling, don't probe further.
	case throughput >= p.localMaxThroughput:
		// New local maximum: keep probing up.
		p.localMaxThroughput = throughput
		p.windowSize += p.weight * p.windowSizeIncrement
	default:
		efficiency := scaledEfficiency(throughput, p.windowSize)
		if efficiency < p.efficiencyThreshold {
			p.windowSize = math.Min(
				p.windowSize*p.windowSizeBackOff,
				p.windowSize-p.decrementFactor*p.windowSizeIncrement,
			)
			p.localMaxThroughput = 0
		} else {
			p.windowSize += p.weight * p.windowSizeIncrement
		}
	}

	p.windowSize = math.Max(p.minWindowSize, p.windowSize)
	p.windowSize = math.Min(p.maxWindowSize, p.windowSize)
}

// scaledEfficiency computes throughput/windowSize normalized by powers
// of ten so the result sits near 2, per spec §4.2 step 6. This is the
// loop form rather than the closed-form equivalent
// (period = 2*windowSize/throughput) so the normalization is
// quantized to exact powers of ten, matching the reference algorithm.
// A non-positive throughput (e.g. an interval in which no reply was
// error-free) returns efficiency 0, which is "below any positive
// threshold" — treated as a regression, not a crash.
func scaledEfficiency(throughput, windowSize float64) float64 {
	if throughput <= 0 || windowSize <= 0 {
		return 0
	}
	period := 1.0
	for throughput*period/windowSize < 2 {
		period *= 10
	}
	for throughput*period/windowSize > 2 {
		period *= 0.1
	}
	return throughput * period / windowSize
}

// ProcessReply implements Policy. Only error-free replies count toward
// throughput; errored replies still consumed a window slot (tracked
// via numSent in ProcessMessage) but contribute nothing to numOk.
func (p *DynamicPolicy) ProcessReply(reply Reply) {
	p.StaticPolicy.ProcessReply(reply)
	if !reply.HasErrors() {
		p.numOk++
	}
}

// MaxPendingCount implements Policy, returning floor(windowSize).
func (p *DynamicPolicy) MaxPendingCount() int {
	return int(p.windowSize)
}

// WindowSize returns the current, possibly fractional, window size.
func (p *DynamicPolicy) WindowSize() float64 { return p.windowSize }

// GetWindowSizeIncrement returns the configured probe step.
func (p *DynamicPolicy) GetWindowSizeIncrement() float64 { return p.windowSizeIncrement }

// GetWindowSizeBackOff returns the configured back-off factor.
func (p *DynamicPolicy) GetWindowSizeBackOff() float64 { return p.windowSizeBackOff }

// GetMinWindowSize returns the configured minimum window size.
func (p *DynamicPolicy) GetMinWindowSize() float64 { return p.minWindowSize }

// GetMaxWindowSize returns the configured maximum window size.
func (p *DynamicPolicy) GetMaxWindowSize() float64 { return p.maxWindowSize }

// SetWindowSizeIncrement sets the additive probe step, then
// re-initializes windowSize to max(minWindowSize, increment) per spec
// §4.3. Returns the receiver to allow chaining.
func (p *DynamicPolicy) SetWindowSizeIncrement(x float64) *DynamicPolicy {
	p.windowSizeIncrement = x
	p.windowSize = math.Max(p.minWindowSize, p.windowSizeIncrement)
	return p
}

// SetMinWindowSize sets the lower clamp on windowSize, then
// re-initializes windowSize to max(minWindowSize, increment).
func (p *DynamicPolicy) SetMinWindowSize(x float64) *DynamicPolicy {
	p.minWindowSize = x
	p.windowSize = math.Max(p.minWindowSize, p.windowSizeIncrement)
	return p
}

// SetMaxWindowSize sets the upper clamp on windowSize.
func (p *DynamicPolicy) SetMaxWindowSize(x float64) *DynamicPolicy {
	p.maxWindowSize = x
	return p
}

// SetMaxPendingCount tightens the underlying static ceiling and also
// pins maxWindowSize to it, per spec §4.3.
func (p *DynamicPolicy) SetMaxPendingCount(n int) *DynamicPolicy {
	p.StaticPolicy.SetMaxPendingCount(n)
	p.maxWindowSize = float64(n)
	return p
}

// SetWeight sets this client's relative resource share. Stored as
// sqrt(w): two clients with weights w1, w2 grow their windows in
// steady state at ratio sqrt(w1):sqrt(w2), because each probe step
// scales additively by sqrt(weight).
func (p *DynamicPolicy) SetWeight(w float64) *DynamicPolicy {
	p.weight = math.Sqrt(w)
	return p
}

// SetWindowSizeBackOff sets the multiplicative contraction floor used
// on back-off, clamped to [0, 1].
func (p *DynamicPolicy) SetWindowSizeBackOff(b float64) *DynamicPolicy {
	p.windowSizeBackOff = math.Max(0, math.Min(1, b))
	return p
}

// SetEfficiencyThreshold sets the lower efficiency bound below which
// the controller backs off.
func (p *DynamicPolicy) SetEfficiencyThreshold(x float64) *DynamicPolicy {
	p.efficiencyThreshold = x
	return p
}

// SetResizeRate sets the number of window-fulls per measurement
// interval. Larger values make resizing less responsive but more
// accurate.
func (p *DynamicPolicy) SetResizeRate(x float64) *DynamicPolicy {
	p.resizeRate = x
	return p
}

// SetWindowSizeDecrementFactor sets the relative additive step used
// when computing the back-off floor.
func (p *DynamicPolicy) SetWindowSizeDecrementFactor(x float64) *DynamicPolicy {
	p.decrementFactor = x
	return p
}

// SetMaxThroughput sets a known throughput ceiling; once observed
// throughput sits within 5% of it, the controller stops probing
// further and holds the window steady. Zero (the default) means
// unset.
func (p *DynamicPolicy) SetMaxThroughput(x float64) *DynamicPolicy {
	p.maxThroughput = x
	return p
}
