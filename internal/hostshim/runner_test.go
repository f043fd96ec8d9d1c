package hostshim

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarsim/internal/raycast"
)

func testConfig() raycast.SensorConfig {
	return raycast.SensorConfig{
		HorizontalResolution: 36,
		VerticalChannels:     4,
		VerticalFOVUpper:     -10,
		VerticalFOVLower:     -20,
		MinRange:             0.1,
		MaxRange:             20,
	}
}

func testPlane() ([]float32, []uint32) {
	vertices := []float32{
		-10, 0, -10,
		10, 0, -10,
		10, 0, 10,
		-10, 0, 10,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return vertices, indices
}

func TestRunnerLifecycle(t *testing.T) {
	r := NewRunner()
	defer r.Destroy()

	require.NoError(t, r.Init(testConfig()))
	vertices, indices := testPlane()
	require.NoError(t, r.UpdateEnvironment(vertices, indices))

	hits, count, err := r.Scan(raycast.PoseAt(raycast.Vec3{Y: 1}))
	require.NoError(t, err)
	assert.Equal(t, 144, count)
	assert.Len(t, hits, 3*144)
}

func TestRunnerCorrelatesByID(t *testing.T) {
	r := NewRunner()
	defer r.Destroy()

	id := uuid.New()
	resp := r.Do(Request{ID: id, Op: OpInit, Config: testConfig()})
	assert.Equal(t, id, resp.ID)

	// A zero ID is replaced, never echoed back as zero.
	resp = r.Do(Request{Op: OpScan})
	assert.NotEqual(t, uuid.Nil, resp.ID)
}

func TestRunnerBeforeInit(t *testing.T) {
	r := NewRunner()
	defer r.Destroy()

	vertices, indices := testPlane()
	err := r.UpdateEnvironment(vertices, indices)
	assert.True(t, errors.Is(err, ErrNotInitialized))

	_, _, err = r.Scan(raycast.PoseAt(raycast.Vec3{}))
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestRunnerErrorEnvelope(t *testing.T) {
	r := NewRunner()
	defer r.Destroy()

	bad := testConfig()
	bad.HorizontalResolution = 0
	resp := r.Do(Request{Op: OpInit, Config: bad})
	require.Error(t, resp.Err)
	assert.True(t, errors.Is(resp.Err, raycast.ErrInvalidConfig))
	assert.NotEmpty(t, resp.Message)
}

func TestRunnerScanBufferIsOwned(t *testing.T) {
	r := NewRunner()
	defer r.Destroy()

	require.NoError(t, r.Init(testConfig()))
	vertices, indices := testPlane()
	require.NoError(t, r.UpdateEnvironment(vertices, indices))

	first, _, err := r.Scan(raycast.PoseAt(raycast.Vec3{Y: 1}))
	require.NoError(t, err)
	snapshot := append([]float32(nil), first...)

	// A second scan must not mutate the first reply's buffer.
	_, _, err = r.Scan(raycast.PoseAt(raycast.Vec3{X: 3, Y: 1}))
	require.NoError(t, err)
	assert.Equal(t, snapshot, first)
}

func TestRunnerDestroy(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.Init(testConfig()))

	r.Destroy()
	r.Destroy() // idempotent

	err := r.Init(testConfig())
	assert.True(t, errors.Is(err, ErrDestroyed))

	_, _, err = r.Scan(raycast.PoseAt(raycast.Vec3{}))
	assert.True(t, errors.Is(err, ErrDestroyed))
}

// TestRunnerSerializesConcurrentCallers hammers one runner from many
// goroutines; every reply must be well formed, which fails under the race
// detector if the simulator were ever touched concurrently.
func TestRunnerSerializesConcurrentCallers(t *testing.T) {
	r := NewRunner()
	defer r.Destroy()

	require.NoError(t, r.Init(testConfig()))
	vertices, indices := testPlane()
	require.NoError(t, r.UpdateEnvironment(vertices, indices))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hits, count, err := r.Scan(raycast.PoseAt(raycast.Vec3{Y: 1}))
				if err != nil {
					t.Errorf("Scan: %v", err)
					return
				}
				if len(hits) != 3*count {
					t.Errorf("len(hits) = %d, count = %d", len(hits), count)
					return
				}
			}
		}()
	}
	wg.Wait()
}
