package raycast

import (
	"fmt"
	"math"
)

// SensorConfig describes a rotating multi-beam LiDAR: how many azimuth
// samples one revolution produces, how many elevation rings it carries and
// between which vertical angles, the valid range window, and the standard
// deviation of the Gaussian range noise (0 disables noise).
type SensorConfig struct {
	// HorizontalResolution is the number of azimuth samples around the
	// full 360 degree sweep.
	HorizontalResolution int `json:"horizontal_resolution"`
	// VerticalChannels is the number of elevation rings.
	VerticalChannels int `json:"vertical_channels"`
	// VerticalFOVUpper and VerticalFOVLower bound the vertical field of
	// view in degrees, upper >= lower.
	VerticalFOVUpper float32 `json:"vertical_fov_upper"`
	VerticalFOVLower float32 `json:"vertical_fov_lower"`
	// MinRange and MaxRange bound valid returns in metres, 0 <= min < max.
	MinRange float32 `json:"min_range"`
	MaxRange float32 `json:"max_range"`
	// NoiseStddev is the standard deviation in metres of the Gaussian
	// noise applied to each hit distance; 0 disables noise.
	NoiseStddev float32 `json:"noise_stddev"`
}

// TotalRays returns the number of rays fired per scan.
func (c SensorConfig) TotalRays() int {
	return c.HorizontalResolution * c.VerticalChannels
}

// Validate checks every field against the config contract and returns an
// error wrapping ErrInvalidConfig on the first violation.
func (c SensorConfig) Validate() error {
	if c.HorizontalResolution < 1 {
		return fmt.Errorf("%w: horizontal_resolution %d < 1", ErrInvalidConfig, c.HorizontalResolution)
	}
	if c.VerticalChannels < 1 {
		return fmt.Errorf("%w: vertical_channels %d < 1", ErrInvalidConfig, c.VerticalChannels)
	}
	for _, f := range []struct {
		name  string
		value float32
	}{
		{"vertical_fov_upper", c.VerticalFOVUpper},
		{"vertical_fov_lower", c.VerticalFOVLower},
		{"min_range", c.MinRange},
		{"max_range", c.MaxRange},
		{"noise_stddev", c.NoiseStddev},
	} {
		if !isFiniteF32(f.value) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, f.name)
		}
	}
	if c.VerticalFOVUpper < c.VerticalFOVLower {
		return fmt.Errorf("%w: vertical_fov_upper %g < vertical_fov_lower %g",
			ErrInvalidConfig, c.VerticalFOVUpper, c.VerticalFOVLower)
	}
	if c.MinRange < 0 {
		return fmt.Errorf("%w: min_range %g < 0", ErrInvalidConfig, c.MinRange)
	}
	if c.MaxRange <= c.MinRange {
		return fmt.Errorf("%w: max_range %g <= min_range %g", ErrInvalidConfig, c.MaxRange, c.MinRange)
	}
	if c.NoiseStddev < 0 {
		return fmt.Errorf("%w: noise_stddev %g < 0", ErrInvalidConfig, c.NoiseStddev)
	}
	return nil
}

// Pose is a rigid-body sensor pose: world-space position plus orientation
// as a unit quaternion. The zero-value Rotation (all components 0) is
// treated as "no rotation supplied" and replaced with the identity; any
// other non-unit quaternion is passed through unchanged, per the facade
// contract (the caller is responsible for normalisation).
type Pose struct {
	Position Vec3       `json:"position"`
	Rotation Quaternion `json:"rotation"`
}

// PoseAt returns a Pose at p with identity orientation.
func PoseAt(p Vec3) Pose {
	return Pose{Position: p, Rotation: IdentityQuaternion}
}

// rotation returns the pose's effective orientation, substituting the
// identity for the unset zero value.
func (p Pose) rotation() Quaternion {
	if (p.Rotation == Quaternion{}) {
		return IdentityQuaternion
	}
	return p.Rotation
}

// elevationRad returns ring v's elevation in radians. Ring 0 is the
// lowest; a single-ring sensor points at the upper FOV bound.
func (c SensorConfig) elevationRad(v int) float64 {
	if c.VerticalChannels == 1 {
		return float64(c.VerticalFOVUpper) * math.Pi / 180
	}
	step := float64(c.VerticalFOVUpper-c.VerticalFOVLower) / float64(c.VerticalChannels-1)
	return (float64(c.VerticalFOVLower) + float64(v)*step) * math.Pi / 180
}

// rayDirections produces the scan's world-space ray directions in
// elevation-major order (for each ring, every azimuth step), rotated by q.
// Step 0 points along +x in the sensor frame with y up; azimuth advances
// from +x toward +z.
func (c SensorConfig) rayDirections(q Quaternion) []Vec3 {
	dirs := make([]Vec3, 0, c.TotalRays())
	for v := 0; v < c.VerticalChannels; v++ {
		elev := c.elevationRad(v)
		cosElev := float32(math.Cos(elev))
		sinElev := float32(math.Sin(elev))
		for h := 0; h < c.HorizontalResolution; h++ {
			az := 2 * math.Pi * float64(h) / float64(c.HorizontalResolution)
			local := Vec3{
				X: cosElev * float32(math.Cos(az)),
				Y: sinElev,
				Z: cosElev * float32(math.Sin(az)),
			}
			dirs = append(dirs, q.Rotate(local))
		}
	}
	return dirs
}
