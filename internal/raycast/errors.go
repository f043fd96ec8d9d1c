package raycast

import "errors"

// Error taxonomy for the simulator facade. InvalidConfig and
// InvalidGeometry are returned synchronously by the call that triggers
// them. Scanning before geometry is loaded is not an error: it yields an
// empty buffer, and the host layer decides whether to promote that to a
// failure. Use-after-Free is likewise a host-layer concern; the core has
// no notion of a freed Simulator beyond a caller discarding the value.
var (
	// ErrInvalidConfig is wrapped by NewSimulator/SetConfig when a SensorConfig
	// fails validation (see SensorConfig.Validate).
	ErrInvalidConfig = errors.New("raycast: invalid sensor config")

	// ErrInvalidGeometry is wrapped by LoadGeometry when the supplied
	// vertex/index buffers fail validation (see NewTriangleStore).
	ErrInvalidGeometry = errors.New("raycast: invalid geometry")
)
