package dhc

import (
	"sync"
	"time"

	"github.com/ZmnSCPxj/routingcore/clock"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/pqueue"
)

// workingTime is how long a single wakeup of the refresher is allowed to
// run before yielding back to the rest of the event loop.
const workingTime = 10 * time.Millisecond

// sleepingTime is how long the refresher waits before resuming a
// refresh that has not finished within its working-time budget.
const sleepingTime = 10 * time.Millisecond

// stepsPerBatch bounds how many Dijkstra steps run between checks of
// the elapsed working time, so the wall clock isn't sampled too often.
const stepsPerBatch = 16

// DefaultDeferTime is the grace period a deferred trigger waits before
// starting a refresh, giving the gossip subsystem time to catch up on
// recent channel opens and closes.
const DefaultDeferTime = 10 * time.Second

type stepResult int

const (
	stepContinue stepResult = iota
	stepFailed
	stepCompleted
)

type stepFunc func(p *refreshProcess) stepResult

// refreshProcess is one in-flight cooperative Dijkstra run.
type refreshProcess struct {
	g      graph.Graph
	self   graph.Vertex
	writer *Writer
	queue  *pqueue.Queue
	coster Coster
	step   stepFunc
}

func (p *refreshProcess) addNode(v graph.Vertex, priority uint32) {
	p.queue.Push(v, pqueue.Priority(priority))
}

func stepInit(p *refreshProcess) stepResult {
	if _, ok := p.g.Node(p.self); !ok {
		return stepFailed
	}
	if err := p.writer.ClearAllNodes(p.g); err != nil {
		return stepFailed
	}
	p.writer.SetDistance(p.self, 0)
	p.writer.MarkVisited(p.self)
	p.addNode(p.self, 0)
	p.step = stepLoop
	return stepContinue
}

func stepLoop(p *refreshProcess) stepResult {
	item, priority, ok := p.queue.PopMinWithPriority()
	if !ok {
		return stepCompleted
	}
	node := item.(graph.Vertex)

	if _, ok := p.g.Node(node); !ok {
		// Gossip forgot this node while we were sleeping; skip it.
		return stepContinue
	}

	nodeTotalCost := p.writer.Distance(node)

	// This queue has no decrease-key: a node may have been pushed more
	// than once as better distances were found. An entry whose priority
	// no longer matches the node's current best-known distance is
	// stale and was already processed under a better priority; skip it.
	if uint32(priority) != nodeTotalCost {
		return stepContinue
	}

	p.g.ForEachChannel(node, func(ch *graph.Channel) error {
		neighbor := ch.Destination
		cost := p.coster.Cost(ch)
		neighborTotalCost := uint64(nodeTotalCost) + cost
		if neighborTotalCost > MaxDistance {
			neighborTotalCost = MaxDistance
		}

		if !p.writer.Visited(neighbor) || p.writer.Distance(neighbor) > uint32(neighborTotalCost) {
			p.writer.MarkVisited(neighbor)
			p.writer.SetDistance(neighbor, uint32(neighborTotalCost))
			p.addNode(neighbor, uint32(neighborTotalCost))
		}
		return nil
	})

	return stepContinue
}

// Refresher drives a cooperative Dijkstra traversal that rewrites the
// inactive slot of a DHC from a fixed landmark (self), time-sliced
// against the caller's event loop via an injected clock.Source.
type Refresher struct {
	mu sync.Mutex

	g     graph.Graph
	dhc   *DHC
	clock clock.Source
	self  graph.Vertex

	sampleAmount lnwire.MilliSatoshi
	riskFactor   float64
	deferTime    time.Duration
	refreshCB    func()

	process       *refreshProcess
	deferredTimer clock.Timer
	reawakenTimer clock.Timer

	coster      Coster
	costerValid bool
}

// NewRefresher constructs a Refresher over g, landmarked at self, using
// the given clock for time-slicing. refreshCB, if non-nil, is invoked
// every time a refresh cycle completes and flips the cache.
func NewRefresher(g graph.Graph, d *DHC, src clock.Source, self graph.Vertex, refreshCB func()) *Refresher {
	return &Refresher{
		g:            g,
		dhc:          d,
		clock:        src,
		self:         self,
		sampleAmount: DefaultSampleAmount,
		riskFactor:   DefaultRiskFactor,
		deferTime:    DefaultDeferTime,
		refreshCB:    refreshCB,
	}
}

// SetSampleAmount sets the sample amount used to cost channels in
// future refresh cycles.
func (r *Refresher) SetSampleAmount(amt lnwire.MilliSatoshi) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sampleAmount = amt
}

// SetRiskFactor sets the annualized risk factor used in future refresh
// cycles.
func (r *Refresher) SetRiskFactor(rf float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.riskFactor = rf
}

// SetDeferTime sets the grace period used by DeferredTrigger.
func (r *Refresher) SetDeferTime(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferTime = d
}

// Coster returns the coster captured by the most recently completed
// refresh cycle. ok is false if no cycle has ever completed.
func (r *Refresher) Coster() (Coster, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coster, r.costerValid
}

// ImmediateTrigger starts a refresh right now, cancelling any pending
// deferred trigger. If a refresh is already running, this is a no-op.
func (r *Refresher) ImmediateTrigger() {
	r.mu.Lock()
	r.cancelDeferredLocked()
	if r.process != nil {
		r.mu.Unlock()
		return
	}
	r.installProcessLocked()
	r.mu.Unlock()
	// Armed only after unlocking: a zero-delay callback may run reawaken
	// synchronously, and reawaken takes r.mu itself.
	r.clock.AfterFunc(0, r.reawaken)
}

// DeferredTrigger schedules a refresh to start after the refresher's
// defer time. If a refresh is already running or already scheduled,
// this is a no-op.
func (r *Refresher) DeferredTrigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferredTriggerLocked()
}

func (r *Refresher) cancelDeferredLocked() {
	if r.deferredTimer != nil {
		r.deferredTimer.Stop()
		r.deferredTimer = nil
	}
}

func (r *Refresher) deferredTriggerLocked() {
	if r.deferredTimer != nil || r.process != nil {
		return
	}
	r.deferredTimer = r.clock.AfterFunc(r.deferTime, func() {
		r.mu.Lock()
		r.deferredTimer = nil
		r.mu.Unlock()
		r.ImmediateTrigger()
	})
}

func (r *Refresher) installProcessLocked() {
	r.process = &refreshProcess{
		g:      r.g,
		self:   r.self,
		writer: r.dhc.NewWriter(),
		queue:  pqueue.New(),
		coster: Coster{
			SampleAmount: r.sampleAmount,
			RiskFactor:   r.riskFactor,
		},
		step: stepInit,
	}
	log.Debugf("dhc: refresh process installed")
}

func (r *Refresher) reawaken() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reawakenTimer = nil
	if r.process == nil {
		return
	}
	start := r.clock.Now()

	for {
		for i := 0; i < stepsPerBatch; i++ {
			res := r.process.step(r.process)
			switch res {
			case stepContinue:
				continue
			case stepFailed:
				log.Warnf("dhc: refresh process failed, scheduling deferred retry")
				r.process = nil
				r.deferredTriggerLocked()
				return
			case stepCompleted:
				r.dhc.Flip()
				r.coster = r.process.coster
				r.costerValid = true
				r.process = nil
				log.Debugf("dhc: refresh process completed")
				if r.refreshCB != nil {
					r.refreshCB()
				}
				return
			}
		}

		if r.clock.Now().Sub(start) > workingTime {
			r.reawakenTimer = r.clock.AfterFunc(sleepingTime, r.reawaken)
			return
		}
	}
}
