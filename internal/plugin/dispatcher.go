package plugin

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ayusman/handpet/internal/app"
)

// DefaultQueueSize bounds the number of plugin runs waiting to start.
const DefaultQueueSize = 32

type job struct {
	plugin *Plugin
	req    Request
}

// DispatchStats counts plugin runs.
type DispatchStats struct {
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Dispatcher forwards pet events to subscribed plugins. It implements
// app.Sink; Publish never blocks, and runs that do not fit in the queue
// are dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor

	queue  chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	succeeded atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts a dispatcher running plugins from manager one at a
// time.
func NewDispatcher(manager *Manager, executor *Executor, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  manager,
		executor: executor,
		queue:    make(chan job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Publish queues a run for every plugin subscribed to each event in snap.
func (d *Dispatcher) Publish(snap app.Snapshot) {
	if d.ctx.Err() != nil {
		return
	}
	for _, ev := range snap.Events {
		req := Request{
			Event:   string(ev.Kind),
			ID:      ev.ID,
			Message: ev.Message,
			At:      ev.At,
			Session: snap.Session,
			Pet:     snap.State.Pet,
		}
		if ev.Finger != nil {
			req.Finger = ev.Finger.String()
		}

		for _, p := range d.manager.Subscribers(req.Event) {
			select {
			case d.queue <- job{plugin: p, req: req}:
			default:
				if n := d.dropped.Add(1); n%10 == 1 {
					log.Printf("Plugin queue full, dropped %d runs so far", n)
				}
			}
		}
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-d.queue:
			d.execute(j)
		}
	}
}

func (d *Dispatcher) execute(j job) {
	resp, err := d.executor.Execute(d.ctx, j.plugin, &j.req)
	switch {
	case err != nil:
		d.failed.Add(1)
		log.Printf("Plugin %s failed on %s: %v", j.plugin.Manifest.Name, j.req.Event, err)
	case !resp.Success:
		d.failed.Add(1)
		log.Printf("Plugin %s reported an error on %s: %s", j.plugin.Manifest.Name, j.req.Event, resp.Error)
	default:
		d.succeeded.Add(1)
	}
}

// Stats returns run counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Succeeded: d.succeeded.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Close stops the dispatcher. Queued runs are discarded and a run in
// progress is killed.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.cancel()
		d.wg.Wait()
	})
}

var _ app.Sink = (*Dispatcher)(nil)
