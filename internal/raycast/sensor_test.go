package raycast

import (
	"errors"
	"math"
	"testing"
)

func validConfig() SensorConfig {
	return SensorConfig{
		HorizontalResolution: 36,
		VerticalChannels:     4,
		VerticalFOVUpper:     -10,
		VerticalFOVLower:     -20,
		MinRange:             0.1,
		MaxRange:             20,
	}
}

func TestSensorConfigValidate(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name   string
		mutate func(*SensorConfig)
		ok     bool
	}{
		{"valid", func(c *SensorConfig) {}, true},
		{"zero horizontal", func(c *SensorConfig) { c.HorizontalResolution = 0 }, false},
		{"zero vertical", func(c *SensorConfig) { c.VerticalChannels = 0 }, false},
		{"negative min range", func(c *SensorConfig) { c.MinRange = -1 }, false},
		{"max equals min", func(c *SensorConfig) { c.MaxRange = c.MinRange }, false},
		{"max below min", func(c *SensorConfig) { c.MaxRange = 0.05 }, false},
		{"fov inverted", func(c *SensorConfig) { c.VerticalFOVUpper, c.VerticalFOVLower = -20, -10 }, false},
		{"negative noise", func(c *SensorConfig) { c.NoiseStddev = -0.1 }, false},
		{"nan fov", func(c *SensorConfig) { c.VerticalFOVUpper = nan }, false},
		{"inf range", func(c *SensorConfig) { c.MaxRange = float32(math.Inf(1)) }, false},
		{"zero min range ok", func(c *SensorConfig) { c.MinRange = 0 }, true},
		{"flat fov ok", func(c *SensorConfig) { c.VerticalFOVUpper = c.VerticalFOVLower }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v does not wrap ErrInvalidConfig", err)
				}
			}
		})
	}
}

func TestSensorConfigTotalRays(t *testing.T) {
	cfg := SensorConfig{HorizontalResolution: 1800, VerticalChannels: 16}
	if got := cfg.TotalRays(); got != 1800*16 {
		t.Errorf("TotalRays = %d, want %d", got, 1800*16)
	}
}

func TestRayDirectionsCountAndLength(t *testing.T) {
	cfg := SensorConfig{
		HorizontalResolution: 360,
		VerticalChannels:     8,
		VerticalFOVUpper:     15,
		VerticalFOVLower:     -15,
		MinRange:             0.1,
		MaxRange:             100,
	}
	dirs := cfg.rayDirections(IdentityQuaternion)
	if len(dirs) != 360*8 {
		t.Fatalf("len(dirs) = %d, want %d", len(dirs), 360*8)
	}
	for i, d := range dirs {
		if !almostEqual(d.Len(), 1, 1e-5) {
			t.Fatalf("dir %d not unit length: %v", i, d.Len())
		}
	}
}

// TestRayDirectionsLayout pins the angular layout: elevation-major order,
// ring 0 lowest, azimuth 0 along +x, advancing toward +z.
func TestRayDirectionsLayout(t *testing.T) {
	cfg := SensorConfig{
		HorizontalResolution: 4,
		VerticalChannels:     3,
		VerticalFOVUpper:     30,
		VerticalFOVLower:     -30,
		MinRange:             0.1,
		MaxRange:             100,
	}
	dirs := cfg.rayDirections(IdentityQuaternion)

	// Ring 0, azimuth 0: elevation -30 degrees, pointing +x and down.
	d0 := dirs[0]
	if !almostEqual(d0.Y, float32(math.Sin(-30*math.Pi/180)), 1e-5) {
		t.Errorf("ring 0 y = %v, want sin(-30 deg)", d0.Y)
	}
	if d0.X <= 0 || !almostEqual(d0.Z, 0, 1e-6) {
		t.Errorf("azimuth 0 should point along +x: %v", d0)
	}

	// Second azimuth step on ring 0 is a quarter turn: +z direction.
	d1 := dirs[1]
	if d1.Z <= 0 || !almostEqual(d1.X, 0, 1e-6) {
		t.Errorf("azimuth step 1 of 4 should point along +z: %v", d1)
	}

	// Last ring starts at index H*(V-1) with elevation +30.
	dTop := dirs[4*2]
	if !almostEqual(dTop.Y, float32(math.Sin(30*math.Pi/180)), 1e-5) {
		t.Errorf("top ring y = %v, want sin(30 deg)", dTop.Y)
	}
}

func TestRayDirectionsSingleRingUsesUpper(t *testing.T) {
	cfg := SensorConfig{
		HorizontalResolution: 8,
		VerticalChannels:     1,
		VerticalFOVUpper:     12,
		VerticalFOVLower:     -45,
		MinRange:             0.1,
		MaxRange:             100,
	}
	dirs := cfg.rayDirections(IdentityQuaternion)
	want := float32(math.Sin(12 * math.Pi / 180))
	for i, d := range dirs {
		if !almostEqual(d.Y, want, 1e-5) {
			t.Fatalf("dir %d y = %v, want sin(12 deg) for single-ring sensor", i, d.Y)
		}
	}
}

func TestRayDirectionsRotation(t *testing.T) {
	cfg := SensorConfig{
		HorizontalResolution: 4,
		VerticalChannels:     1,
		VerticalFOVUpper:     0,
		VerticalFOVLower:     0,
		MinRange:             0.1,
		MaxRange:             100,
	}
	// 90 degrees about +z: local +x becomes world +y.
	sqrt2inv := float32(1 / math.Sqrt2)
	q := Quaternion{0, 0, sqrt2inv, sqrt2inv}
	dirs := cfg.rayDirections(q)
	if !vecAlmostEqual(dirs[0], Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("rotated azimuth-0 dir = %v, want +y", dirs[0])
	}
}

func TestPoseRotationDefault(t *testing.T) {
	var p Pose
	if p.rotation() != IdentityQuaternion {
		t.Errorf("zero pose rotation = %v, want identity", p.rotation())
	}
	p = PoseAt(Vec3{1, 2, 3})
	if p.rotation() != IdentityQuaternion {
		t.Errorf("PoseAt rotation = %v, want identity", p.rotation())
	}
	q := Quaternion{0, 1, 0, 0}
	p.Rotation = q
	if p.rotation() != q {
		t.Errorf("explicit rotation replaced: %v", p.rotation())
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name string
		cfg  SensorConfig
		h, v int
		fov  float32
		max  float32
	}{
		{"VLP16", VLP16(), 1800, 16, 15, 100},
		{"OS1-32", OusterOS132(), 1024, 32, 22.5, 120},
		{"OS1-64", OusterOS164(), 2048, 64, 22.5, 120},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err != nil {
				t.Fatalf("preset invalid: %v", err)
			}
			if tc.cfg.HorizontalResolution != tc.h || tc.cfg.VerticalChannels != tc.v {
				t.Errorf("resolution %dx%d, want %dx%d",
					tc.cfg.HorizontalResolution, tc.cfg.VerticalChannels, tc.h, tc.v)
			}
			if tc.cfg.VerticalFOVUpper != tc.fov || tc.cfg.VerticalFOVLower != -tc.fov {
				t.Errorf("fov %g/%g, want +-%g", tc.cfg.VerticalFOVUpper, tc.cfg.VerticalFOVLower, tc.fov)
			}
			if tc.cfg.MinRange != 0.1 || tc.cfg.MaxRange != tc.max {
				t.Errorf("range %g-%g, want 0.1-%g", tc.cfg.MinRange, tc.cfg.MaxRange, tc.max)
			}
			if tc.cfg.NoiseStddev != 0 {
				t.Errorf("preset noise = %g, want 0", tc.cfg.NoiseStddev)
			}
		})
	}
}
