// Package hostshim serializes simulator calls through a single owning
// goroutine, the way a host embeds the engine behind a private worker:
// typed request messages correlated by opaque id, with scan buffers
// copied out on the reply so the caller owns what it receives. The shim
// is intentionally thin — scheduling policy, deadlines, and transport
// framing belong to the host, not here.
package hostshim

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/lidarsim/internal/raycast"
)

// Op names the operations a host may request.
type Op string

const (
	OpInit              Op = "init"
	OpUpdateEnvironment Op = "updateEnvironment"
	OpScan              Op = "scan"
	OpSetConfig         Op = "setConfig"
	OpDestroy           Op = "destroy"
)

// ErrDestroyed is returned for any request dispatched at or after destroy,
// including requests still queued when the destroy landed.
var ErrDestroyed = errors.New("hostshim: runner destroyed")

// ErrNotInitialized is returned when an updateEnvironment, scan, or
// setConfig request arrives before init has created the simulator.
var ErrNotInitialized = errors.New("hostshim: simulator not initialized")

// Request is one envelope sent to the runner. ID is assigned by Do when
// left as the zero UUID; only the fields relevant to Op are read.
type Request struct {
	ID       uuid.UUID
	Op       Op
	Config   raycast.SensorConfig // init, setConfig
	Vertices []float32            // updateEnvironment
	Indices  []uint32             // updateEnvironment
	Pose     raycast.Pose         // scan
}

// Response is the reply for one request, correlated by the request's ID.
// Hits is owned by the receiver (already copied out of the simulator's
// reusable buffer). A failed request carries the failure in Err and
// Message; Err is nil on success.
type Response struct {
	ID       uuid.UUID
	Hits     []float32
	HitCount int
	Err      error
	Message  string
}

type envelope struct {
	req   Request
	reply chan Response
}

// Runner owns at most one simulator and processes requests strictly in
// arrival order on its own goroutine.
type Runner struct {
	requests chan envelope
	destroy  sync.Once
	done     chan struct{}
}

// NewRunner starts the owning goroutine. The runner holds no simulator
// until an init request arrives.
func NewRunner() *Runner {
	r := &Runner{
		requests: make(chan envelope),
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

// Do submits a request and blocks for its response. A zero request ID is
// replaced with a fresh UUID; the response echoes whichever id was used.
func (r *Runner) Do(req Request) Response {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	reply := make(chan Response, 1)
	select {
	case r.requests <- envelope{req: req, reply: reply}:
		return <-reply
	case <-r.done:
		return Response{ID: req.ID, Err: ErrDestroyed, Message: ErrDestroyed.Error()}
	}
}

// Init creates the runner's simulator with cfg, replacing any previous
// instance.
func (r *Runner) Init(cfg raycast.SensorConfig) error {
	return r.Do(Request{Op: OpInit, Config: cfg}).Err
}

// UpdateEnvironment loads new geometry into the owned simulator.
func (r *Runner) UpdateEnvironment(vertices []float32, indices []uint32) error {
	return r.Do(Request{Op: OpUpdateEnvironment, Vertices: vertices, Indices: indices}).Err
}

// Scan runs one scan and returns an owned copy of the hit buffer.
func (r *Runner) Scan(pose raycast.Pose) ([]float32, int, error) {
	resp := r.Do(Request{Op: OpScan, Pose: pose})
	return resp.Hits, resp.HitCount, resp.Err
}

// SetConfig replaces the owned simulator's configuration.
func (r *Runner) SetConfig(cfg raycast.SensorConfig) error {
	return r.Do(Request{Op: OpSetConfig, Config: cfg}).Err
}

// Destroy frees the simulator and stops the runner. Idempotent; every
// request dispatched after (or queued behind) the destroy is rejected
// with ErrDestroyed.
func (r *Runner) Destroy() {
	r.destroy.Do(func() {
		// The destroy request is processed in order like any other, then
		// the loop closes done, failing all waiters that never got in.
		reply := make(chan Response, 1)
		select {
		case r.requests <- envelope{req: Request{ID: uuid.New(), Op: OpDestroy}, reply: reply}:
			<-reply
		case <-r.done:
		}
	})
}

func (r *Runner) loop() {
	var sim *raycast.Simulator
	for env := range r.requests {
		resp := Response{ID: env.req.ID}
		switch env.req.Op {
		case OpInit:
			created, err := raycast.NewSimulator(env.req.Config)
			if err != nil {
				resp.Err = err
				break
			}
			if sim != nil {
				sim.Free()
			}
			sim = created
		case OpUpdateEnvironment:
			if sim == nil {
				resp.Err = ErrNotInitialized
				break
			}
			resp.Err = sim.LoadGeometry(env.req.Vertices, env.req.Indices)
		case OpScan:
			if sim == nil {
				resp.Err = ErrNotInitialized
				break
			}
			hits := sim.Scan(env.req.Pose)
			resp.Hits = append([]float32(nil), hits...)
			resp.HitCount = sim.LastHitCount()
		case OpSetConfig:
			if sim == nil {
				resp.Err = ErrNotInitialized
				break
			}
			resp.Err = sim.SetConfig(env.req.Config)
		case OpDestroy:
			if sim != nil {
				sim.Free()
				sim = nil
			}
			close(r.done)
			env.reply <- resp
			return
		default:
			resp.Err = errors.New("hostshim: unknown op " + string(env.req.Op))
		}
		if resp.Err != nil {
			resp.Message = resp.Err.Error()
		}
		env.reply <- resp
	}
}
