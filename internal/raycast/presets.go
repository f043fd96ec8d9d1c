package raycast

// Presets matching the angular layout and range window of three common
// spinning LiDAR units. They are plain data; callers may adjust fields
// (for example NoiseStddev) on the returned value.

// VLP16 returns a configuration matching the Velodyne VLP-16.
func VLP16() SensorConfig {
	return SensorConfig{
		HorizontalResolution: 1800,
		VerticalChannels:     16,
		VerticalFOVUpper:     15,
		VerticalFOVLower:     -15,
		MinRange:             0.1,
		MaxRange:             100,
	}
}

// OusterOS132 returns a configuration matching the Ouster OS1-32.
func OusterOS132() SensorConfig {
	return SensorConfig{
		HorizontalResolution: 1024,
		VerticalChannels:     32,
		VerticalFOVUpper:     22.5,
		VerticalFOVLower:     -22.5,
		MinRange:             0.1,
		MaxRange:             120,
	}
}

// OusterOS164 returns a configuration matching the Ouster OS1-64.
func OusterOS164() SensorConfig {
	return SensorConfig{
		HorizontalResolution: 2048,
		VerticalChannels:     64,
		VerticalFOVUpper:     22.5,
		VerticalFOVLower:     -22.5,
		MinRange:             0.1,
		MaxRange:             120,
	}
}
