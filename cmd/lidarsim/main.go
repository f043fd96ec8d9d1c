// Command lidarsim runs simulated LiDAR scans over a triangle-mesh scene
// described by a JSON config file and writes the resulting point clouds.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/banshee-data/lidarsim/internal/raycast"
	"github.com/banshee-data/lidarsim/internal/scenestore"
	"github.com/banshee-data/lidarsim/internal/version"
)

var (
	configPath  = flag.String("config", "scene.json", "Path to the scene config JSON")
	dbFile      = flag.String("db", "", "Optional scene store database for named meshes and presets")
	outPath     = flag.String("out", "", "Write hit points as CSV to this file (default: stdout)")
	noiseSeed   = flag.Uint64("seed", 0, "Noise RNG seed for reproducible noisy scans (0 = time-seeded)")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// MeshCfg is an inline mesh: flat vertex and triangle-index buffers.
type MeshCfg struct {
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
}

// SceneConfig is the top-level config file. The sensor comes either from
// an inline "sensor" block or a named "preset" (built-in vlp16 / os1-32 /
// os1-64, or a preset stored in the -db scene store). The mesh comes
// either inline from "mesh" or by name from the store via "mesh_name".
type SceneConfig struct {
	Sensor   *raycast.SensorConfig `json:"sensor,omitempty"`
	Preset   string                `json:"preset,omitempty"`
	Mesh     *MeshCfg              `json:"mesh,omitempty"`
	MeshName string                `json:"mesh_name,omitempty"`
	Poses    []raycast.Pose        `json:"poses"`
}

func loadSceneConfig(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg SceneConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Poses) == 0 {
		return nil, fmt.Errorf("config %s: no poses to scan from", path)
	}
	if cfg.Sensor == nil && cfg.Preset == "" {
		return nil, fmt.Errorf("config %s: need either sensor or preset", path)
	}
	if cfg.Sensor != nil && cfg.Preset != "" {
		return nil, fmt.Errorf("config %s: sensor and preset are mutually exclusive", path)
	}
	if cfg.Mesh == nil && cfg.MeshName == "" {
		return nil, fmt.Errorf("config %s: need either mesh or mesh_name", path)
	}
	if cfg.Mesh != nil && cfg.MeshName != "" {
		return nil, fmt.Errorf("config %s: mesh and mesh_name are mutually exclusive", path)
	}
	return &cfg, nil
}

// resolveSensor picks the sensor configuration from the config file, the
// built-in presets, or the scene store.
func resolveSensor(cfg *SceneConfig, store *scenestore.Store) (raycast.SensorConfig, error) {
	if cfg.Sensor != nil {
		return *cfg.Sensor, nil
	}
	switch strings.ToLower(cfg.Preset) {
	case "vlp16", "vlp-16":
		return raycast.VLP16(), nil
	case "os1-32":
		return raycast.OusterOS132(), nil
	case "os1-64":
		return raycast.OusterOS164(), nil
	}
	if store == nil {
		return raycast.SensorConfig{}, fmt.Errorf("preset %q is not built in and no -db given", cfg.Preset)
	}
	return store.GetPreset(cfg.Preset)
}

// resolveMesh returns the vertex and index buffers, inline or from the
// scene store.
func resolveMesh(cfg *SceneConfig, store *scenestore.Store) ([]float32, []uint32, error) {
	if cfg.Mesh != nil {
		return cfg.Mesh.Vertices, cfg.Mesh.Indices, nil
	}
	if store == nil {
		return nil, nil, fmt.Errorf("mesh_name %q requires -db", cfg.MeshName)
	}
	mesh, err := store.GetMesh(cfg.MeshName)
	if err != nil {
		return nil, nil, err
	}
	return mesh.Vertices, mesh.Indices, nil
}

// writeHits appends one scan's points to w as CSV rows tagged with the
// pose index.
func writeHits(w io.Writer, poseIndex int, hits []float32) error {
	for i := 0; i+2 < len(hits); i += 3 {
		if _, err := fmt.Fprintf(w, "%d,%g,%g,%g\n", poseIndex, hits[i], hits[i+1], hits[i+2]); err != nil {
			return err
		}
	}
	return nil
}

func run() error {
	cfg, err := loadSceneConfig(*configPath)
	if err != nil {
		return err
	}

	var store *scenestore.Store
	if *dbFile != "" {
		store, err = scenestore.Open(*dbFile)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	sensorCfg, err := resolveSensor(cfg, store)
	if err != nil {
		return err
	}
	vertices, indices, err := resolveMesh(cfg, store)
	if err != nil {
		return err
	}

	sim, err := raycast.NewSimulator(sensorCfg)
	if err != nil {
		return err
	}
	defer sim.Free()
	if *noiseSeed != 0 {
		sim.SetNoiseSource(rand.NewSource(*noiseSeed))
	}
	if err := sim.LoadGeometry(vertices, indices); err != nil {
		return err
	}
	log.Printf("loaded %d triangles, sensor %dx%d (%d rays per scan)",
		sim.TriangleCount(), sensorCfg.HorizontalResolution, sensorCfg.VerticalChannels,
		sensorCfg.TotalRays())

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if _, err := fmt.Fprintln(out, "pose,x,y,z"); err != nil {
		return err
	}

	for i, pose := range cfg.Poses {
		hits := sim.Scan(pose)
		log.Printf("pose %d at (%g, %g, %g): %d hits",
			i, pose.Position.X, pose.Position.Y, pose.Position.Z, sim.LastHitCount())
		if err := writeHits(out, i, hits); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(); err != nil {
		log.Fatalf("lidarsim: %v", err)
	}
}
