// Package scenestore persists named triangle meshes and sensor-config
// presets in a SQLite database, so a scene prepared once can be reloaded
// into a simulator across process runs.
package scenestore

import (
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lidarsim/internal/raycast"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Mesh is a stored triangle mesh together with the summary columns
// computed at save time.
type Mesh struct {
	MeshID        string
	Name          string
	VertexCount   int
	TriangleCount int
	Bounds        raycast.AABB
	Vertices      []float32
	Indices       []uint32
	CreatedAtNs   int64
}

// Store wraps a SQLite database holding meshes and sensor presets.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the store at path and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scene store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// migrateUp runs all pending migrations from the embedded source.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// Note: m is not closed here because that would close the underlying
	// DB connection; it is collected when no longer referenced.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger adapts the migrate.Logger interface onto the standard log
// package.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// SaveMesh validates the buffers, computes the summary columns, and
// inserts the mesh under name. The name must be unused.
func (s *Store) SaveMesh(name string, vertices []float32, indices []uint32) (*Mesh, error) {
	// Run the same validation a simulator load would, so a stored mesh is
	// always loadable.
	tris, err := raycast.NewTriangleStore(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("save mesh %q: %w", name, err)
	}

	bounds := raycast.EmptyAABB()
	for i := 0; i < tris.TriangleCount(); i++ {
		bounds = bounds.Union(tris.Box(i))
	}

	mesh := &Mesh{
		MeshID:        uuid.New().String(),
		Name:          name,
		VertexCount:   tris.VertexCount(),
		TriangleCount: tris.TriangleCount(),
		Bounds:        bounds,
		Vertices:      vertices,
		Indices:       indices,
		CreatedAtNs:   time.Now().UnixNano(),
	}

	query := `
		INSERT INTO meshes (
			mesh_id, name, vertex_count, triangle_count,
			min_x, min_y, min_z, max_x, max_y, max_z,
			vertices, indices, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		mesh.MeshID,
		mesh.Name,
		mesh.VertexCount,
		mesh.TriangleCount,
		mesh.Bounds.Min.X, mesh.Bounds.Min.Y, mesh.Bounds.Min.Z,
		mesh.Bounds.Max.X, mesh.Bounds.Max.Y, mesh.Bounds.Max.Z,
		encodeFloat32s(vertices),
		encodeUint32s(indices),
		mesh.CreatedAtNs,
	)
	if err != nil {
		return nil, fmt.Errorf("insert mesh %q: %w", name, err)
	}
	return mesh, nil
}

// GetMesh retrieves a mesh by name, including its vertex and index
// buffers.
func (s *Store) GetMesh(name string) (*Mesh, error) {
	query := `
		SELECT mesh_id, name, vertex_count, triangle_count,
		       min_x, min_y, min_z, max_x, max_y, max_z,
		       vertices, indices, created_at_ns
		FROM meshes
		WHERE name = ?
	`
	var mesh Mesh
	var vertexBlob, indexBlob []byte
	err := s.db.QueryRow(query, name).Scan(
		&mesh.MeshID,
		&mesh.Name,
		&mesh.VertexCount,
		&mesh.TriangleCount,
		&mesh.Bounds.Min.X, &mesh.Bounds.Min.Y, &mesh.Bounds.Min.Z,
		&mesh.Bounds.Max.X, &mesh.Bounds.Max.Y, &mesh.Bounds.Max.Z,
		&vertexBlob,
		&indexBlob,
		&mesh.CreatedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mesh not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get mesh %q: %w", name, err)
	}

	mesh.Vertices, err = decodeFloat32s(vertexBlob)
	if err != nil {
		return nil, fmt.Errorf("decode mesh %q vertices: %w", name, err)
	}
	mesh.Indices, err = decodeUint32s(indexBlob)
	if err != nil {
		return nil, fmt.Errorf("decode mesh %q indices: %w", name, err)
	}
	return &mesh, nil
}

// ListMeshes returns summary rows (no buffers) for every stored mesh,
// newest first.
func (s *Store) ListMeshes() ([]*Mesh, error) {
	query := `
		SELECT mesh_id, name, vertex_count, triangle_count,
		       min_x, min_y, min_z, max_x, max_y, max_z,
		       created_at_ns
		FROM meshes
		ORDER BY created_at_ns DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list meshes: %w", err)
	}
	defer rows.Close()

	var meshes []*Mesh
	for rows.Next() {
		var mesh Mesh
		err := rows.Scan(
			&mesh.MeshID,
			&mesh.Name,
			&mesh.VertexCount,
			&mesh.TriangleCount,
			&mesh.Bounds.Min.X, &mesh.Bounds.Min.Y, &mesh.Bounds.Min.Z,
			&mesh.Bounds.Max.X, &mesh.Bounds.Max.Y, &mesh.Bounds.Max.Z,
			&mesh.CreatedAtNs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mesh row: %w", err)
		}
		meshes = append(meshes, &mesh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meshes rows: %w", err)
	}
	return meshes, nil
}

// DeleteMesh deletes a mesh by name.
func (s *Store) DeleteMesh(name string) error {
	result, err := s.db.Exec(`DELETE FROM meshes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete mesh %q: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mesh not found: %s", name)
	}
	return nil
}

// SavePreset stores a sensor configuration under name, replacing any
// previous preset with that name.
func (s *Store) SavePreset(name string, cfg raycast.SensorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("save preset %q: %w", name, err)
	}
	query := `
		INSERT INTO sensor_presets (
			name, horizontal_resolution, vertical_channels,
			vertical_fov_upper, vertical_fov_lower,
			min_range, max_range, noise_stddev, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			horizontal_resolution = excluded.horizontal_resolution,
			vertical_channels     = excluded.vertical_channels,
			vertical_fov_upper    = excluded.vertical_fov_upper,
			vertical_fov_lower    = excluded.vertical_fov_lower,
			min_range             = excluded.min_range,
			max_range             = excluded.max_range,
			noise_stddev          = excluded.noise_stddev
	`
	_, err := s.db.Exec(query,
		name,
		cfg.HorizontalResolution,
		cfg.VerticalChannels,
		cfg.VerticalFOVUpper,
		cfg.VerticalFOVLower,
		cfg.MinRange,
		cfg.MaxRange,
		cfg.NoiseStddev,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save preset %q: %w", name, err)
	}
	return nil
}

// GetPreset retrieves a sensor configuration by preset name.
func (s *Store) GetPreset(name string) (raycast.SensorConfig, error) {
	query := `
		SELECT horizontal_resolution, vertical_channels,
		       vertical_fov_upper, vertical_fov_lower,
		       min_range, max_range, noise_stddev
		FROM sensor_presets
		WHERE name = ?
	`
	var cfg raycast.SensorConfig
	err := s.db.QueryRow(query, name).Scan(
		&cfg.HorizontalResolution,
		&cfg.VerticalChannels,
		&cfg.VerticalFOVUpper,
		&cfg.VerticalFOVLower,
		&cfg.MinRange,
		&cfg.MaxRange,
		&cfg.NoiseStddev,
	)
	if err == sql.ErrNoRows {
		return raycast.SensorConfig{}, fmt.Errorf("preset not found: %s", name)
	}
	if err != nil {
		return raycast.SensorConfig{}, fmt.Errorf("get preset %q: %w", name, err)
	}
	return cfg, nil
}

// ListPresets returns the names of every stored preset in lexical order.
func (s *Store) ListPresets() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM sensor_presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan preset row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list presets rows: %w", err)
	}
	return names, nil
}

// Buffer blob encoding: little-endian fixed-width values, matching the
// in-memory layout the simulator consumes.

func encodeFloat32s(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(buf))
	}
	values := make([]float32, len(buf)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return values, nil
}

func encodeUint32s(values []uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

func decodeUint32s(buf []byte) ([]uint32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(buf))
	}
	values := make([]uint32, len(buf)/4)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return values, nil
}
