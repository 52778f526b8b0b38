// uvshape is a CLI utility for UV-space shape-key deformation transfer.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/uvshape/internal/config"
	"github.com/Faultbox/uvshape/internal/debug"
	"github.com/Faultbox/uvshape/internal/logger"
	"github.com/Faultbox/uvshape/internal/transfer"
	"github.com/Faultbox/uvshape/internal/uvindex"
	"github.com/Faultbox/uvshape/pkg/formats"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

func main() {
	// Global flags come before the command: uvshape [-debug] <command> [args]
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "info":
		cmdInfo(args[1:])
	case "transfer":
		cmdTransfer(cfg, args[1:])
	case "coverage":
		cmdCoverage(cfg, args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`uvshape - UV-space shape-key deformation transfer

Usage:
  uvshape [options] <command> [args]

Commands:
  info <mesh.obj>        Show mesh, UV, and seam statistics
  transfer <job.yaml>    Run a transfer job and write deformed targets
  coverage <job.yaml>    Render UV correspondence coverage images

Options:
  -config <file>         Config file path
  -debug                 Enable debug logging
  -tolerance <t>         UV snap tolerance override
  -grid <n>              UV index grid size override

Examples:
  uvshape info body.obj
  uvshape transfer outfit_job.yaml
  uvshape -tolerance 0.005 coverage outfit_job.yaml`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: uvshape info <mesh.obj>")
		os.Exit(1)
	}

	m, err := formats.ParseOBJFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tris := m.Triangulate()
	seams := 0
	for _, uvs := range m.CornerUVs() {
		if len(uvs) == 0 {
			continue
		}
		for _, uv := range uvs[1:] {
			if uv != uvs[0] {
				seams++
				break
			}
		}
	}

	fmt.Printf("Mesh:      %s\n", m.Name)
	fmt.Printf("Vertices:  %d\n", len(m.Positions))
	fmt.Printf("Faces:     %d (%d triangles)\n", len(m.Faces), len(tris))
	fmt.Printf("UVs:       %d\n", len(m.UVs))
	fmt.Printf("UV layer:  %v\n", m.HasUVLayer())
	fmt.Printf("Seams:     %d vertices with split UVs\n", seams)
}

// loadJobSource loads the job's source mesh and attaches its shape keys.
func loadJobSource(job *formats.Job) (*mesh.Mesh, error) {
	src, err := formats.ParseOBJFile(job.Source)
	if err != nil {
		return nil, err
	}
	for _, k := range job.ShapeKeys {
		if _, err := formats.LoadShapeKeyOBJ(src, k.Name, k.File); err != nil {
			return nil, err
		}
	}
	return src, nil
}

func registryOptions(cfg *config.Config, job *formats.Job) transfer.Options {
	opts := transfer.Options{
		Tolerance: cfg.Transfer.Tolerance,
		Index: uvindex.Options{
			GridSize:    cfg.Transfer.GridSize,
			MaxCellTris: cfg.Transfer.MaxCellTris,
		},
		Logger: logger.Log,
	}
	if job.Tolerance > 0 {
		opts.Tolerance = job.Tolerance
	}
	return opts
}

func cmdTransfer(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: uvshape transfer <job.yaml>")
		os.Exit(1)
	}

	job, err := formats.LoadJob(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	src, err := loadJobSource(job)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reg := transfer.NewRegistry(registryOptions(cfg, job))

	failed := 0
	for _, jt := range job.Targets {
		if err := transferTarget(reg, src, job, jt); err != nil {
			logger.Error("target failed", zap.String("target", jt.File), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d targets failed\n", failed, len(job.Targets))
		os.Exit(1)
	}
}

func transferTarget(reg *transfer.Registry, src *mesh.Mesh, job *formats.Job, jt formats.JobTarget) error {
	dst, err := formats.ParseOBJFile(jt.File)
	if err != nil {
		return err
	}

	h, err := reg.Bind(src, dst, nil)
	if err != nil {
		return err
	}
	defer reg.Release(h)

	for key, inf := range jt.Influences {
		if err := reg.SetInfluence(h, key, inf); err != nil {
			return err
		}
	}
	if err := reg.Evaluate(h); err != nil {
		return err
	}
	if job.Bake {
		if err := reg.Bake(h); err != nil {
			return err
		}
	}

	out := jt.Output
	if out == "" {
		out = strings.TrimSuffix(jt.File, ".obj") + "_out.obj"
	}
	if err := formats.WriteOBJFile(dst, out); err != nil {
		return err
	}

	unresolved, _ := reg.Unresolved(h)
	fmt.Printf("Transferred: %s -> %s", dst.Name, out)
	if unresolved > 0 {
		fmt.Printf(" (%d unresolved vertices kept basis)", unresolved)
	}
	fmt.Println()
	return nil
}

func cmdCoverage(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: uvshape coverage <job.yaml>")
		os.Exit(1)
	}

	job, err := formats.LoadJob(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	src, err := loadJobSource(job)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tol := cfg.Transfer.Tolerance
	if job.Tolerance > 0 {
		tol = job.Tolerance
	}
	idx, err := uvindex.Build(src, uvindex.Options{
		GridSize:    cfg.Transfer.GridSize,
		MaxCellTris: cfg.Transfer.MaxCellTris,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, jt := range job.Targets {
		dst, err := formats.ParseOBJFile(jt.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", jt.File, err)
			continue
		}
		cmap, err := transfer.BuildCorrespondence(dst, idx, tol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error matching %s: %v\n", jt.File, err)
			continue
		}

		img := debug.RenderCoverage(idx, dst, cmap, cfg.Debug.CoverageSize)
		cc := debug.NewCoverageCapture(cfg.Debug.CoverageDir, dst.Name)
		path, err := cc.Capture(img)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot for %s: %v\n", jt.File, err)
			continue
		}
		fmt.Printf("Coverage: %s (%d/%d resolved) -> %s\n",
			dst.Name, len(cmap.Entries)-cmap.Unresolved, len(cmap.Entries), path)
	}
}
