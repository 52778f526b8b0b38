// Package debug provides diagnostic visualization for transfer bindings.
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/uvshape/internal/transfer"
	"github.com/Faultbox/uvshape/internal/uvindex"
	"github.com/Faultbox/uvshape/pkg/math"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

// Coverage image palette.
var (
	colorLayout     = color.RGBA{70, 70, 90, 255}   // source UV triangles
	colorResolved   = color.RGBA{80, 220, 100, 255} // matched target vertices
	colorUnresolved = color.RGBA{230, 70, 60, 255}  // unmatched target vertices
	colorBackground = color.RGBA{20, 20, 24, 255}
)

// CoverageCapture writes correspondence coverage snapshots to disk.
type CoverageCapture struct {
	outputDir string
	prefix    string
}

// NewCoverageCapture creates a coverage snapshot writer.
func NewCoverageCapture(outputDir, prefix string) *CoverageCapture {
	return &CoverageCapture{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Capture saves the image as a timestamped PNG and returns the filename.
func (cc *CoverageCapture) Capture(img image.Image) (string, error) {
	if cc.outputDir != "" {
		if err := os.MkdirAll(cc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.png", cc.prefix, timestamp)
	if cc.outputDir != "" {
		filename = filepath.Join(cc.outputDir, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return filename, nil
}

// RenderCoverage rasterizes the source UV layout and overlays the target's
// correspondence result: resolved vertices in green, unresolved in red.
// size is the output image dimension per axis.
func RenderCoverage(idx *uvindex.Index, target *mesh.Mesh, cmap *transfer.CorrespondenceMap, size int) *image.RGBA {
	if size <= 0 {
		size = 1024
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = colorBackground.R
		img.Pix[i+1] = colorBackground.G
		img.Pix[i+2] = colorBackground.B
		img.Pix[i+3] = 255
	}

	cornerUVs := target.CornerUVs()
	minUV, maxUV := coverageBounds(idx, cornerUVs)
	toPixel := func(uv math.Vec2) (float32, float32) {
		// V flips so UV origin renders at the bottom-left
		x := (uv.X - minUV.X) / (maxUV.X - minUV.X) * float32(size-1)
		y := (1 - (uv.Y-minUV.Y)/(maxUV.Y-minUV.Y)) * float32(size-1)
		return x, y
	}

	for _, t := range idx.Tris() {
		var px, py [3]float32
		px[0], py[0] = toPixel(t.UV.A)
		px[1], py[1] = toPixel(t.UV.B)
		px[2], py[2] = toPixel(t.UV.C)
		fillTriangle(img, px, py, colorLayout)
	}

	for vi := range target.Positions {
		if len(cornerUVs[vi]) == 0 {
			continue
		}
		c := colorUnresolved
		if vi < len(cmap.Entries) && cmap.Entries[vi].Resolved {
			c = colorResolved
		}
		x, y := toPixel(cornerUVs[vi][0])
		plotDot(img, int(x), int(y), c)
	}

	return img
}

// coverageBounds returns the padded UV bounding box of the source layout
// and the target's corner UVs.
func coverageBounds(idx *uvindex.Index, cornerUVs [][]math.Vec2) (math.Vec2, math.Vec2) {
	minUV := math.Vec2{X: 0, Y: 0}
	maxUV := math.Vec2{X: 1, Y: 1}
	expand := func(uv math.Vec2) {
		if uv.X < minUV.X {
			minUV.X = uv.X
		}
		if uv.X > maxUV.X {
			maxUV.X = uv.X
		}
		if uv.Y < minUV.Y {
			minUV.Y = uv.Y
		}
		if uv.Y > maxUV.Y {
			maxUV.Y = uv.Y
		}
	}
	for _, t := range idx.Tris() {
		expand(t.UV.A)
		expand(t.UV.B)
		expand(t.UV.C)
	}
	for _, uvs := range cornerUVs {
		for _, uv := range uvs {
			expand(uv)
		}
	}

	pad := math.Vec2{X: (maxUV.X - minUV.X) * 0.05, Y: (maxUV.Y - minUV.Y) * 0.05}
	return minUV.Sub(pad), maxUV.Add(pad)
}

// fillTriangle rasterizes one triangle with a bounding-box barycentric scan.
func fillTriangle(img *image.RGBA, px, py [3]float32, c color.RGBA) {
	size := img.Rect.Dx()
	minX := int(min3(px[0], px[1], px[2]))
	maxX := int(max3(px[0], px[1], px[2])) + 1
	minY := int(min3(py[0], py[1], py[2]))
	maxY := int(max3(py[0], py[1], py[2])) + 1
	if minX < 0 {
		minX = 0
	}
	if maxX >= size {
		maxX = size - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= size {
		maxY = size - 1
	}

	det := (py[1]-py[2])*(px[0]-px[2]) + (px[2]-px[1])*(py[0]-py[2])
	if det > -1e-6 && det < 1e-6 {
		return
	}
	invDet := 1 / det

	for sy := minY; sy <= maxY; sy++ {
		dy := float32(sy) - py[2]
		for sx := minX; sx <= maxX; sx++ {
			dx := float32(sx) - px[2]
			w0 := ((py[1]-py[2])*dx + (px[2]-px[1])*dy) * invDet
			w1 := ((py[2]-py[0])*dx + (px[0]-px[2])*dy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}
			img.SetRGBA(sx, sy, c)
		}
	}
}

// plotDot draws a 3x3 marker clamped to the image bounds.
func plotDot(img *image.RGBA, x, y int, c color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(img.Rect) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
