package device

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/tandemgraph/tandem/utils"
)

// Virtual accelerator contexts. A Device accepts asynchronous task
// submissions joined later at a barrier, and fans chunked kernels across a
// fixed number of parallel lanes. Devices are leased from a Pool; an engine
// run holds its lease until the run terminates.

var (
	ErrExhausted = errors.New("device pool exhausted")
	ErrClosed    = errors.New("device closed")
	ErrDispatch  = errors.New("device dispatch failed")
)

type Task func() error

type Device struct {
	id     int
	lanes  int
	mu     sync.Mutex
	closed bool
}

// Future joins an asynchronous submission. Await may be called once.
type Future struct {
	done chan struct{}
	err  error
}

func (f *Future) Await() error {
	<-f.done
	return f.err
}

func (d *Device) ID() int {
	return d.id
}

func (d *Device) Lanes() int {
	return d.lanes
}

// Submit dispatches the task asynchronously. A panicking task is recovered
// into an ErrDispatch; it never takes down the process.
func (d *Device) Submit(t Task) *Future {
	f := &Future{done: make(chan struct{})}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		f.err = fmt.Errorf("device %d: submit: %w", d.id, ErrClosed)
		close(f.done)
		return f
	}
	d.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("device %d: task panic: %v: %w", d.id, r, ErrDispatch)
			}
			close(f.done)
		}()
		f.err = t()
	}()
	return f
}

// ParallelFor cuts [0, n) into fixed-grain chunks and runs the kernel on up
// to Lanes() workers. Chunk boundaries depend only on (n, grain), so callers
// that buffer per chunk index get scheduling-independent output. Returns the
// first chunk error by ascending chunk index.
func (d *Device) ParallelFor(n, grain uint32, kernel func(chunk int, lo, hi uint32) error) error {
	if n == 0 {
		return nil
	}
	if grain == 0 || grain > n {
		grain = n
	}
	chunks := int((n + grain - 1) / grain)
	workers := utils.Min(d.lanes, chunks)

	errs := make([]error, chunks)
	var next atomic.Int64
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				c := int(next.Add(1) - 1)
				if c >= chunks {
					return
				}
				lo := uint32(c) * grain
				hi := utils.Min(lo+grain, n)
				func() {
					defer func() {
						if r := recover(); r != nil {
							errs[c] = fmt.Errorf("device %d: chunk %d panic: %v: %w", d.id, c, r, ErrDispatch)
						}
					}()
					errs[c] = kernel(c, lo, hi)
				}()
			}
		}()
	}
	wg.Wait()

	for c := 0; c < chunks; c++ {
		if errs[c] != nil {
			return errs[c]
		}
	}
	return nil
}

func (d *Device) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *Device) reopen() {
	d.mu.Lock()
	d.closed = false
	d.mu.Unlock()
}

// Pool is a fixed set of devices. Acquire leases devices exclusively until
// released; leases fail rather than block when the pool runs dry.
type Pool struct {
	mu   sync.Mutex
	all  []*Device
	free []*Device
}

// NewPool builds a pool of the given size; size <= 0 derives the size and
// per-device lane width from the host core count.
func NewPool(size int) *Pool {
	lanes := utils.Max(runtime.NumCPU()/2, 2)
	if size <= 0 {
		size = utils.Max(runtime.NumCPU()/2, 1)
	}
	p := &Pool{}
	for i := 0; i < size; i++ {
		d := &Device{id: i, lanes: lanes}
		p.all = append(p.all, d)
		p.free = append(p.free, d)
	}
	return p
}

var defaultPool *Pool
var defaultPoolOnce sync.Once

// DefaultPool is shared by runs that do not bring their own.
func DefaultPool() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(0)
		log.Debug().Msg("device pool sized " + utils.V(len(defaultPool.all)) +
			" with " + utils.V(defaultPool.all[0].lanes) + " lanes each")
	})
	return defaultPool
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all)
}

func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Acquire leases count devices.
func (p *Pool) Acquire(count int) ([]*Device, error) {
	if count == 0 {
		return nil, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if count > len(p.free) {
		return nil, fmt.Errorf("device: want %d of %d free (%d total): %w",
			count, len(p.free), len(p.all), ErrExhausted)
	}
	leased := make([]*Device, count)
	copy(leased, p.free[:count])
	p.free = p.free[count:]
	for _, d := range leased {
		d.reopen()
	}
	return leased, nil
}

// Release returns leased devices to the pool and closes them against further
// submissions.
func (p *Pool) Release(devs []*Device) {
	if len(devs) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range devs {
		d.close()
		p.free = append(p.free, d)
	}
}
