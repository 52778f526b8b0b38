// Package formats provides mesh file formats: Wavefront OBJ geometry and
// the YAML transfer job manifest.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/uvshape/pkg/math"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex line")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face line")
	ErrOBJIndexRange    = errors.New("OBJ index out of range")
)

// ParseOBJ parses Wavefront OBJ data into a mesh. Supported statements:
// v, vt, f (with v, v/vt, v/vt/vn, and v//vn corner forms), o (mesh name).
// Normals, materials, and groups are skipped. Negative (relative) indices
// resolve against the elements read so far, as the format specifies.
func ParseOBJ(data []byte) (*mesh.Mesh, error) {
	m := mesh.New("")

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "o":
			if len(fields) > 1 && m.Name == "" {
				m.Name = fields[1]
			}
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d", ErrInvalidOBJVertex, lineNo)
			}
			p, err := parseVec3(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJVertex, lineNo, err)
			}
			m.Positions = append(m.Positions, p)
		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: line %d", ErrInvalidOBJVertex, lineNo)
			}
			u, err1 := parseFloat(fields[1])
			v, err2 := parseFloat(fields[2])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: line %d", ErrInvalidOBJVertex, lineNo)
			}
			m.UVs = append(m.UVs, math.Vec2{X: u, Y: v})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: fewer than 3 corners", ErrInvalidOBJFace, lineNo)
			}
			face, err := parseFaceLine(fields[1:], len(m.Positions), len(m.UVs))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseOBJFile parses an OBJ file from disk. The mesh name falls back to
// the file's base name when the file has no "o" statement.
func ParseOBJFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	m, err := ParseOBJ(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// parseFaceLine parses the corner specs of an "f" statement.
func parseFaceLine(corners []string, nPos, nUV int) (mesh.Face, error) {
	face := mesh.Face{
		Verts: make([]int, 0, len(corners)),
		UVs:   make([]int, 0, len(corners)),
	}
	for _, c := range corners {
		parts := strings.Split(c, "/")
		vi, err := parseIndex(parts[0], nPos)
		if err != nil {
			return mesh.Face{}, fmt.Errorf("%w: corner %q", err, c)
		}
		face.Verts = append(face.Verts, vi)

		uvi := -1
		if len(parts) > 1 && parts[1] != "" {
			uvi, err = parseIndex(parts[1], nUV)
			if err != nil {
				return mesh.Face{}, fmt.Errorf("%w: corner %q", err, c)
			}
		}
		face.UVs = append(face.UVs, uvi)
	}
	return face, nil
}

// parseIndex converts a 1-based (or negative relative) OBJ index to 0-based.
func parseIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOBJFace, s)
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("%w: %d of %d", ErrOBJIndexRange, n, count)
	}
}

func parseVec3(fields []string) (math.Vec3, error) {
	x, err := parseFloat(fields[0])
	if err != nil {
		return math.Vec3{}, err
	}
	y, err := parseFloat(fields[1])
	if err != nil {
		return math.Vec3{}, err
	}
	z, err := parseFloat(fields[2])
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: x, Y: y, Z: z}, nil
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

// WriteOBJ serializes a mesh to OBJ text with v, vt, and f statements.
// Corners emit v/vt when the corner has a UV, bare v otherwise.
func WriteOBJ(m *mesh.Mesh) []byte {
	var buf bytes.Buffer
	if m.Name != "" {
		fmt.Fprintf(&buf, "o %s\n", m.Name)
	}
	for _, p := range m.Positions {
		fmt.Fprintf(&buf, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(&buf, "vt %g %g\n", uv.X, uv.Y)
	}
	for _, f := range m.Faces {
		buf.WriteString("f")
		for i, v := range f.Verts {
			if len(f.UVs) == len(f.Verts) && f.UVs[i] >= 0 {
				fmt.Fprintf(&buf, " %d/%d", v+1, f.UVs[i]+1)
			} else {
				fmt.Fprintf(&buf, " %d", v+1)
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteOBJFile writes a mesh to disk as OBJ, creating parent directories.
func WriteOBJFile(m *mesh.Mesh, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	return os.WriteFile(path, WriteOBJ(m), 0644)
}

// LoadShapeKeyOBJ loads an OBJ file as a shape key on m. The key mesh must
// have exactly the basis vertex count; only positions are used.
func LoadShapeKeyOBJ(m *mesh.Mesh, name, path string) (*mesh.ShapeKey, error) {
	km, err := ParseOBJFile(path)
	if err != nil {
		return nil, err
	}
	key, err := m.AddShapeKey(name, km.Positions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return key, nil
}
