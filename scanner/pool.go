package scanner

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// Pool runs a bounded number of Commands concurrently, ticking each one's
// state machine forward. Go's goroutines stand in for the teacher's
// heap-ordered poll loop (transport/collect.go): rather than hand-rolling a
// single-threaded event loop that ticks every connection once per timer
// tick, each Command gets its own goroutine gated by a weighted semaphore,
// and a min-heap (ordered by ExpireAt) tracks the commands in flight for
// InFlight. There is no separate timeout sweep: each command checks its own
// ExpireAt at the start of every step.
type Pool struct {
	sem    *semaphore.Weighted
	mu     sync.Mutex
	expiry expiryHeap
	wg     sync.WaitGroup
}

func NewPool(maxConcurrent int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Submit enqueues one command; cb fires exactly once, from some goroutine,
// with either a reply or an error.
func (p *Pool) Submit(ctx context.Context, n *topology.Node, rpc *wire.RPC, timeout time.Duration, cb func(*wire.RPC, error)) {
	cmd := newCommand(n, rpc, timeout, cb)
	p.mu.Lock()
	heap.Push(&p.expiry, cmd)
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx, cmd)
}

func (p *Pool) run(ctx context.Context, cmd *Command) {
	defer p.wg.Done()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		cmd.State = StateCancelled
		cmd.Err = err
		cmd.finish()
		p.remove(cmd)
		return
	}
	defer p.sem.Release(1)

	for cmd.advance(ctx) {
	}
	p.remove(cmd)
}

func (p *Pool) remove(cmd *Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cmd.heapIndex >= 0 && cmd.heapIndex < len(p.expiry) && p.expiry[cmd.heapIndex] == cmd {
		heap.Remove(&p.expiry, cmd.heapIndex)
	}
}

// Wait blocks until every submitted command has finished.
func (p *Pool) Wait() { p.wg.Wait() }

// InFlight reports how many commands are currently tracked for expiry.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.expiry)
}

// expiryHeap is a min-heap over Command.ExpireAt, the direct analog of the
// teacher's ticks-ordered collector heap.
type expiryHeap []*Command

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].ExpireAt.Before(h[j].ExpireAt) }
func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex, h[j].heapIndex = i, j
}
func (h *expiryHeap) Push(x any) {
	c := x.(*Command)
	c.heapIndex = len(*h)
	*h = append(*h, c)
}
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.heapIndex = -1
	*h = old[:n-1]
	return c
}
