package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Job manifest errors.
var (
	ErrNoJobSource  = errors.New("job has no source mesh")
	ErrNoJobTargets = errors.New("job has no targets")
	ErrNoJobKeys    = errors.New("job has no shape keys")
)

// JobKey names one shape key OBJ of the source mesh.
type JobKey struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// JobTarget is one target mesh with its per-key influence weights and the
// path the deformed result is written to.
type JobTarget struct {
	File       string             `yaml:"file"`
	Output     string             `yaml:"output"`
	Influences map[string]float32 `yaml:"influences"`
}

// Job is a YAML transfer job: one source with shape keys, applied to one or
// more targets through shared UV space.
type Job struct {
	Source    string      `yaml:"source"`
	ShapeKeys []JobKey    `yaml:"shape_keys"`
	Targets   []JobTarget `yaml:"targets"`

	// Tolerance overrides the configured UV snap tolerance when > 0.
	Tolerance float32 `yaml:"tolerance"`
	// Bake commits results into the target basis before writing.
	Bake bool `yaml:"bake"`
}

// Validate checks the manifest for structural completeness.
func (j *Job) Validate() error {
	if j.Source == "" {
		return ErrNoJobSource
	}
	if len(j.ShapeKeys) == 0 {
		return ErrNoJobKeys
	}
	for i, k := range j.ShapeKeys {
		if k.Name == "" || k.File == "" {
			return fmt.Errorf("shape key %d: name and file are required", i)
		}
	}
	if len(j.Targets) == 0 {
		return ErrNoJobTargets
	}
	for i, t := range j.Targets {
		if t.File == "" {
			return fmt.Errorf("target %d: file is required", i)
		}
	}
	return nil
}

// LoadJob parses and validates a job manifest. Relative mesh paths resolve
// against the manifest's directory.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", path, err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	job.Source = resolvePath(dir, job.Source)
	for i := range job.ShapeKeys {
		job.ShapeKeys[i].File = resolvePath(dir, job.ShapeKeys[i].File)
	}
	for i := range job.Targets {
		job.Targets[i].File = resolvePath(dir, job.Targets[i].File)
		if job.Targets[i].Output != "" {
			job.Targets[i].Output = resolvePath(dir, job.Targets[i].Output)
		}
	}
	return &job, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
