package raycast

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulator is the facade tying the triangle store, BVH, and sensor
// configuration together. It owns a hit buffer that is reused across
// scans; the slice returned by Scan aliases that buffer and is valid only
// until the next call that may resize it (another Scan or LoadGeometry).
//
// A Simulator is single-goroutine: no operation may run concurrently with
// another on the same instance. Two instances share nothing.
type Simulator struct {
	cfg   SensorConfig
	store *TriangleStore
	bvh   *BVH

	hits         []float32
	lastHitCount int

	noiseSrc rand.Source
}

// NewSimulator creates an empty simulator with the given configuration
// and no geometry. Scanning before LoadGeometry returns an empty buffer.
func NewSimulator(cfg SensorConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

// LoadGeometry replaces the simulator's triangle mesh and rebuilds the
// BVH. The replacement is atomic: on validation failure the previous
// store and BVH remain untouched; on success they are fully discarded.
// vertices is a flat [x,y,z,...] buffer, indices a flat triangle-index
// buffer; neither is retained (the store copies what it needs).
func (s *Simulator) LoadGeometry(vertices []float32, indices []uint32) error {
	store, err := NewTriangleStore(vertices, indices)
	if err != nil {
		return err
	}
	s.store = store
	s.bvh = BuildBVH(store)
	return nil
}

// SetConfig replaces the sensor configuration. The BVH is untouched.
func (s *Simulator) SetConfig(cfg SensorConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Config returns the current sensor configuration.
func (s *Simulator) Config() SensorConfig { return s.cfg }

// TriangleCount returns the number of triangles currently loaded.
func (s *Simulator) TriangleCount() int {
	if s.store == nil {
		return 0
	}
	return s.store.TriangleCount()
}

// SetNoiseSource injects the random source used for Gaussian range noise,
// making noisy scans reproducible. When never called, a time-seeded
// source is created on the first noisy scan.
func (s *Simulator) SetNoiseSource(src rand.Source) {
	s.noiseSrc = src
}

// Scan runs one full sensor rotation from pose and returns the packed
// [x,y,z,...] hit buffer, 3*LastHitCount floats long, in elevation-major
// ray order. With no geometry loaded it returns an empty buffer. The
// returned slice is borrowed from the simulator; copy it out before the
// next mutating call.
func (s *Simulator) Scan(pose Pose) []float32 {
	if cap(s.hits) < 3*s.cfg.TotalRays() {
		s.hits = make([]float32, 0, 3*s.cfg.TotalRays())
	}
	s.hits = s.hits[:0]
	s.lastHitCount = 0
	if s.bvh == nil {
		return s.hits
	}

	var noise *distuv.Normal
	if s.cfg.NoiseStddev > 0 {
		if s.noiseSrc == nil {
			s.noiseSrc = rand.NewSource(uint64(time.Now().UnixNano()))
		}
		noise = &distuv.Normal{Mu: 0, Sigma: float64(s.cfg.NoiseStddev), Src: s.noiseSrc}
	}

	origin := pose.Position
	for _, dir := range s.cfg.rayDirections(pose.rotation()) {
		hit, ok := s.bvh.CastRay(origin, dir, s.cfg.MaxRange)
		if !ok || hit.T < s.cfg.MinRange {
			continue
		}
		t := hit.T
		if noise != nil {
			t += float32(noise.Rand())
			// Range-gated noise: the hit survived the gate before the
			// perturbation, so a perturbed distance is clamped back into
			// [min, max] rather than re-gated.
			if t < s.cfg.MinRange {
				t = s.cfg.MinRange
			}
			if t > s.cfg.MaxRange {
				t = s.cfg.MaxRange
			}
		}
		p := origin.Add(dir.Scale(t))
		s.hits = append(s.hits, p.X, p.Y, p.Z)
		s.lastHitCount++
	}
	return s.hits
}

// LastHitCount returns the hit count of the most recent scan, 0 if no
// scan has run.
func (s *Simulator) LastHitCount() int { return s.lastHitCount }

// Free releases all owned storage. It is idempotent; any other operation
// on a freed simulator is undefined (in practice Scan returns an empty
// buffer and LoadGeometry re-initialises the instance).
func (s *Simulator) Free() {
	s.store = nil
	s.bvh = nil
	s.hits = nil
	s.lastHitCount = 0
	s.noiseSrc = nil
}
