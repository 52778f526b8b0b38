package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.yaml")

	jobYAML := `
source: body.obj
shape_keys:
  - name: smile
    file: body_smile.obj
targets:
  - file: shirt.obj
    output: out/shirt.obj
    influences:
      smile: 0.8
tolerance: 0.002
bake: true
`
	if err := os.WriteFile(jobPath, []byte(jobYAML), 0644); err != nil {
		t.Fatal(err)
	}

	job, err := LoadJob(jobPath)
	if err != nil {
		t.Fatalf("LoadJob() = %v", err)
	}

	if job.Source != filepath.Join(dir, "body.obj") {
		t.Errorf("Source = %q, want path relative to manifest dir", job.Source)
	}
	if len(job.ShapeKeys) != 1 || job.ShapeKeys[0].Name != "smile" {
		t.Errorf("ShapeKeys = %+v, want one key named smile", job.ShapeKeys)
	}
	if len(job.Targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(job.Targets))
	}
	if job.Targets[0].Influences["smile"] != 0.8 {
		t.Errorf("influence = %v, want 0.8", job.Targets[0].Influences["smile"])
	}
	if job.Tolerance != 0.002 {
		t.Errorf("Tolerance = %v, want 0.002", job.Tolerance)
	}
	if !job.Bake {
		t.Error("Bake = false, want true")
	}
}

func TestLoadJobValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"missing source", "targets:\n  - file: a.obj\nshape_keys:\n  - name: k\n    file: k.obj\n", ErrNoJobSource},
		{"missing targets", "source: s.obj\nshape_keys:\n  - name: k\n    file: k.obj\n", ErrNoJobTargets},
		{"missing keys", "source: s.obj\ntargets:\n  - file: a.obj\n", ErrNoJobKeys},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "job.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadJob(path); !errors.Is(err, tt.want) {
				t.Errorf("LoadJob() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadJobInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("source: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJob(path); err == nil {
		t.Error("LoadJob() = nil for invalid YAML, want error")
	}
}
