package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"strings"
)

type palette struct {
	bg     [2]color.RGBA
	fg     []color.RGBA
	accent []color.RGBA
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

var tonePalettes = map[string]palette{
	"mysterious": {
		bg:     [2]color.RGBA{rgb(20, 0, 40), rgb(60, 30, 110)},
		fg:     []color.RGBA{rgb(120, 0, 200), rgb(200, 150, 255), rgb(80, 30, 80)},
		accent: []color.RGBA{rgb(0, 200, 255), rgb(255, 50, 200)},
	},
	"joyful": {
		bg:     [2]color.RGBA{rgb(100, 200, 255), rgb(200, 255, 220)},
		fg:     []color.RGBA{rgb(255, 200, 0), rgb(255, 150, 0), rgb(0, 180, 120)},
		accent: []color.RGBA{rgb(255, 100, 100), rgb(255, 50, 50)},
	},
	"somber": {
		bg:     [2]color.RGBA{rgb(50, 50, 70), rgb(80, 80, 120)},
		fg:     []color.RGBA{rgb(130, 130, 180), rgb(70, 70, 70), rgb(120, 120, 170)},
		accent: []color.RGBA{rgb(200, 200, 255), rgb(150, 120, 200)},
	},
	"tense": {
		bg:     [2]color.RGBA{rgb(70, 10, 10), rgb(150, 30, 30)},
		fg:     []color.RGBA{rgb(200, 50, 30), rgb(100, 0, 0), rgb(150, 50, 50)},
		accent: []color.RGBA{rgb(255, 200, 50), rgb(255, 150, 0)},
	},
	"romantic": {
		bg:     [2]color.RGBA{rgb(150, 50, 100), rgb(255, 200, 220)},
		fg:     []color.RGBA{rgb(255, 150, 150), rgb(200, 100, 150), rgb(255, 200, 180)},
		accent: []color.RGBA{rgb(255, 220, 200), rgb(255, 150, 200)},
	},
	"adventurous": {
		bg:     [2]color.RGBA{rgb(0, 50, 0), rgb(100, 150, 100)},
		fg:     []color.RGBA{rgb(150, 200, 50), rgb(200, 180, 0), rgb(120, 100, 0)},
		accent: []color.RGBA{rgb(255, 200, 0), rgb(200, 255, 100)},
	},
	"dramatic": {
		bg:     [2]color.RGBA{rgb(20, 0, 40), rgb(80, 10, 30)},
		fg:     []color.RGBA{rgb(150, 0, 0), rgb(50, 0, 100), rgb(100, 50, 50)},
		accent: []color.RGBA{rgb(255, 200, 0), rgb(200, 0, 0)},
	},
	"peaceful": {
		bg:     [2]color.RGBA{rgb(50, 100, 200), rgb(200, 240, 255)},
		fg:     []color.RGBA{rgb(100, 200, 255), rgb(150, 200, 200), rgb(100, 180, 200)},
		accent: []color.RGBA{rgb(255, 255, 200), rgb(200, 255, 255)},
	},
	"neutral": {
		bg:     [2]color.RGBA{rgb(90, 90, 110), rgb(180, 180, 200)},
		fg:     []color.RGBA{rgb(140, 140, 160), rgb(110, 110, 130), rgb(160, 160, 180)},
		accent: []color.RGBA{rgb(230, 230, 240), rgb(200, 200, 220)},
	},
}

func paletteFor(tone string) palette {
	if p, ok := tonePalettes[strings.ToLower(tone)]; ok {
		return p
	}
	return tonePalettes["mysterious"]
}

// SceneImage renders a deterministic illustration for a scene description.
// The same prompt, tone, and dimensions always produce the same PNG bytes.
func SceneImage(prompt, tone string, width, height int) ([]byte, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	rng := seededRand(prompt, tone)
	colors := paletteFor(tone)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	styles := []string{"vertical", "horizontal", "radial"}
	fillGradient(img, colors.bg[0], colors.bg[1], styles[rng.Intn(len(styles))])

	drawSetting(img, rng, strings.ToLower(prompt), colors)
	drawCharacters(img, rng, strings.ToLower(prompt))
	softenImage(img)
	applyContrast(img, contrastBoost)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

const (
	blurSigma     = 2.0
	contrastBoost = 1.2
)

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(2 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// softenImage applies a separable gaussian blur in place. Hard shape edges
// smooth out so the flat fills read more like a painted still.
func softenImage(img *image.RGBA) {
	kernel := gaussianKernel(blurSigma)
	radius := len(kernel) / 2
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tmp := image.NewRGBA(bounds)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for k, weight := range kernel {
				sx := clampInt(x+k-radius, 0, w-1)
				c := img.RGBAAt(bounds.Min.X+sx, bounds.Min.Y+y)
				r += float64(c.R) * weight
				g += float64(c.G) * weight
				b += float64(c.B) * weight
			}
			tmp.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{
				R: uint8(r + 0.5), G: uint8(g + 0.5), B: uint8(b + 0.5), A: 255,
			})
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for k, weight := range kernel {
				sy := clampInt(y+k-radius, 0, h-1)
				c := tmp.RGBAAt(bounds.Min.X+x, bounds.Min.Y+sy)
				r += float64(c.R) * weight
				g += float64(c.G) * weight
				b += float64(c.B) * weight
			}
			img.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{
				R: uint8(r + 0.5), G: uint8(g + 0.5), B: uint8(b + 0.5), A: 255,
			})
		}
	}
}

// applyContrast scales each channel away from the mid-gray pivot.
func applyContrast(img *image.RGBA, factor float64) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: contrastChannel(c.R, factor),
				G: contrastChannel(c.G, factor),
				B: contrastChannel(c.B, factor),
				A: 255,
			})
		}
	}
}

func contrastChannel(value uint8, factor float64) uint8 {
	scaled := 128 + (float64(value)-128)*factor
	return uint8(clampInt(int(scaled+0.5), 0, 255))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func fillGradient(img *image.RGBA, from, to color.RGBA, style string) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	switch style {
	case "horizontal":
		for x := 0; x < w; x++ {
			c := lerpColor(from, to, float64(x)/float64(w))
			for y := 0; y < h; y++ {
				img.SetRGBA(x, y, c)
			}
		}
	case "radial":
		cx, cy := float64(w)/2, float64(h)/2
		maxDist := math.Hypot(cx, cy)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ratio := math.Min(math.Hypot(float64(x)-cx, float64(y)-cy)/maxDist, 1)
				img.SetRGBA(x, y, lerpColor(from, to, ratio))
			}
		}
	default: // vertical
		for y := 0; y < h; y++ {
			c := lerpColor(from, to, float64(y)/float64(h))
			for x := 0; x < w; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

func drawSetting(img *image.RGBA, rng *rand.Rand, prompt string, colors palette) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch {
	case containsAny(prompt, "exterior", "outside", "outdoor", "nature", "forest", "mountain", "field", "landscape"):
		horizon := int(float64(h) * (0.5 + rng.Float64()*0.2))
		fillRect(img, 0, horizon, w, h, colors.fg[0])

		// Sun or moon above the horizon.
		bodyX := w/4 + rng.Intn(w/2)
		bodyY := h/5 + rng.Intn(max(horizon-2*h/5, 1))
		if rng.Float64() > 0.5 {
			size := w/10 + rng.Intn(max(w/6-w/10, 1))
			fillEllipse(img, bodyX, bodyY, size/2, size/2, colors.accent[0])
			drawRays(img, rng, bodyX, bodyY, size, colors.accent[0])
		} else {
			size := w/12 + rng.Intn(max(w/8-w/12, 1))
			fillEllipse(img, bodyX, bodyY, size/2, size/2, colors.accent[1])
		}

		natural := containsAny(prompt, "mountain", "forest", "nature")
		for i := 0; i < 3; i++ {
			x := w/6 + rng.Intn(2*w/3)
			size := w/5 + rng.Intn(max(w/3-w/5, 1))
			c := colors.fg[i%len(colors.fg)]
			if natural {
				drawMountain(img, x, horizon, size, c)
			} else {
				drawBuilding(img, x, horizon, size, c)
			}
		}
		if containsAny(prompt, "forest", "nature") {
			for i := 0; i < 5; i++ {
				x := w/8 + rng.Intn(3*w/4)
				y := horizon + rng.Intn(max(h-horizon, 1))
				size := h/6 + rng.Intn(max(h/4-h/6, 1))
				drawTree(img, x, y, size, colors.fg[i%len(colors.fg)])
			}
		}
		for i := 0; i < 3; i++ {
			x := w/8 + rng.Intn(3*w/4)
			y := h/8 + rng.Intn(max(horizon/2-h/8, 1))
			size := w/10 + rng.Intn(max(w/6-w/10, 1))
			drawCloud(img, rng, x, y, size, rgb(240, 240, 255))
		}

	case containsAny(prompt, "magical", "fantasy", "mystical", "ethereal", "otherworldly", "portal"):
		drawRays(img, rng, w/2, h/2, max(w, h), colors.accent[0])
		drawPortal(img, w/2, h/2, min(w, h)/2, colors.accent[1])
		for i := 0; i < 20; i++ {
			x := rng.Intn(w)
			y := rng.Intn(h)
			size := 5 + rng.Intn(11)
			fillEllipse(img, x, y, size/2, size/2, colors.fg[rng.Intn(len(colors.fg))])
		}

	case containsAny(prompt, "interior", "inside", "room", "house", "hall"):
		floor := int(float64(h) * 0.7)
		fillRect(img, 0, floor, w, h, colors.fg[0])

		// Window on the back wall.
		wx := w/4 + rng.Intn(w/2)
		wy := floor / 2
		size := min(w/4, floor/2)
		fillRect(img, wx-size/2, wy-3*size/4, wx+size/2, wy+3*size/4, colors.accent[0])
		frame := max(size/10, 2)
		fillRect(img, wx-frame/2, wy-3*size/4, wx+frame/2, wy+3*size/4, colors.fg[1])
		fillRect(img, wx-size/2, wy-frame/2, wx+size/2, wy+frame/2, colors.fg[1])

		// Furniture block.
		fw, fh := w/3, h/6
		fy := floor - h/10
		fillRect(img, w/2-fw/2, fy-fh, w/2+fw/2, fy, colors.fg[1])

	default:
		for i := 0; i < 15; i++ {
			x := rng.Intn(w)
			y := rng.Intn(h)
			size := w/20 + rng.Intn(max(w/8-w/20, 1))
			fillEllipse(img, x, y, size/2, size/2, colors.fg[rng.Intn(len(colors.fg))])
		}
	}
}

func drawCharacters(img *image.RGBA, rng *rand.Rand, prompt string) {
	if containsAny(prompt, "landscape", "empty", "deserted", "abandoned", "still life") {
		return
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	pose := "standing"
	if containsAny(prompt, "action", "running", "fight", "battle", "moving", "ran") {
		pose = "action"
	} else if containsAny(prompt, "sitting", "seated", "resting") {
		pose = "sitting"
	}

	if strings.Contains(prompt, "close-up") {
		drawSilhouette(img, w/2, h-h/4, w/2, pose)
	} else {
		drawSilhouette(img, w/3, h-h/6, w/3, pose)
	}
	if strings.Contains(prompt, "group") || rng.Float64() > 0.7 {
		poses := []string{"standing", "sitting"}
		drawSilhouette(img, 2*w/3, h-h/6, w/3, poses[rng.Intn(len(poses))])
	}
}

func drawSilhouette(img *image.RGBA, x, y, size int, pose string) {
	black := rgb(0, 0, 0)
	headR := size / 10
	bodyW := size / 5
	switch pose {
	case "sitting":
		headY := y - 3*size/5
		fillEllipse(img, x, headY, headR, headR, black)
		bodyY := headY + headR
		bodyH := 3 * size / 10
		fillRect(img, x-bodyW/2, bodyY, x+bodyW/2, bodyY+bodyH, black)
		legY := bodyY + bodyH
		fillRect(img, x-bodyW/2, legY, x+bodyW/2, legY+size/10, black)
	case "action":
		headY := y - size + size*15/100
		fillEllipse(img, x, headY, headR, headR, black)
		bodyY := headY + headR
		bodyH := 2 * size / 5
		fillTriangle(img, x-bodyW/2, bodyY, x+bodyW/2, bodyY-bodyH/4, x, bodyY+bodyH, black)
		legY := bodyY + bodyH
		legW := size * 8 / 100
		legH := size * 35 / 100
		fillTriangle(img, x-bodyW/2, legY, x-bodyW/2-legW, legY+legH, x-bodyW/2+legW, legY+legH, black)
		fillTriangle(img, x+bodyW/2, legY-bodyH/4, x+bodyW/2+legW, legY+legH/2, x+bodyW/2-legW, legY+legH/2, black)
	default: // standing
		headY := y - size + size*15/100
		fillEllipse(img, x, headY, headR, headR, black)
		bodyY := headY + headR
		bodyH := size * 45 / 100
		fillRect(img, x-bodyW/2, bodyY, x+bodyW/2, bodyY+bodyH, black)
		legW := size * 8 / 100
		legH := size * 2 / 5
		legY := bodyY + bodyH
		fillRect(img, x-bodyW/2, legY, x-bodyW/2+legW, legY+legH, black)
		fillRect(img, x+bodyW/2-legW, legY, x+bodyW/2, legY+legH, black)
		armW := size * 8 / 100
		armH := size * 3 / 10
		armY := bodyY + bodyH/10
		fillRect(img, x-bodyW/2-armW, armY, x-bodyW/2, armY+armH, black)
		fillRect(img, x+bodyW/2, armY, x+bodyW/2+armW, armY+armH, black)
	}
}

func drawMountain(img *image.RGBA, x, y, size int, c color.RGBA) {
	base := size * 12 / 10
	fillTriangle(img, x-base/2, y, x, y-size, x+base/2, y, c)
	snow := size * 3 / 10
	fillTriangle(img, x-base*2/10, y-size+snow, x, y-size, x+base*2/10, y-size+snow, rgb(240, 240, 255))
}

func drawBuilding(img *image.RGBA, x, y, size int, c color.RGBA) {
	bw := size
	bh := size * 3 / 2
	fillRect(img, x-bw/2, y-bh, x+bw/2, y, c)
	winSize := size * 15 / 100
	spacing := size / 4
	winColor := rgb(200, 200, 255)
	for floor := 0; floor < 3; floor++ {
		for win := 0; win < 3; win++ {
			wx := x - bw/2 + spacing/2 + win*spacing
			wy := y - bh + spacing/2 + floor*spacing
			if wx+winSize <= x+bw/2 && wy+winSize <= y {
				fillRect(img, wx, wy, wx+winSize, wy+winSize, winColor)
			}
		}
	}
}

func drawTree(img *image.RGBA, x, y, size int, c color.RGBA) {
	trunkW := size / 5
	trunkH := size * 3 / 5
	fillRect(img, x-trunkW/2, y-trunkH, x+trunkW/2, y, rgb(80, 50, 20))
	foliageR := size * 2 / 5
	fillEllipse(img, x, y-trunkH, foliageR, foliageR, c)
}

func drawCloud(img *image.RGBA, rng *rand.Rand, x, y, size int, c color.RGBA) {
	parts := 3 + rng.Intn(3)
	for i := 0; i < parts; i++ {
		px := x + (i-parts/2)*(size/3)
		py := y - rng.Intn(max(size/4, 1))
		puff := size*3/10 + rng.Intn(max(size/5, 1))
		fillEllipse(img, px, py, puff/2, puff/2, c)
	}
}

func drawRays(img *image.RGBA, rng *rand.Rand, x, y, length int, c color.RGBA) {
	rays := 5 + rng.Intn(4)
	for i := 0; i < rays; i++ {
		angle := 2 * math.Pi * float64(i) / float64(rays)
		ex := x + int(float64(length)*math.Cos(angle))
		ey := y + int(float64(length)*math.Sin(angle))
		drawLine(img, x, y, ex, ey, 3, c)
	}
}

func drawPortal(img *image.RGBA, x, y, size int, c color.RGBA) {
	outer := size / 2
	inner := size * 35 / 100
	fillEllipse(img, x, y, outer, outer, c)
	fillEllipse(img, x, y, inner, inner, rgb(c.R/2, c.G/2, c.B/2))
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	bounds := img.Bounds()
	for y := max(y0, bounds.Min.Y); y < min(y1, bounds.Max.Y); y++ {
		for x := max(x0, bounds.Min.X); x < min(x1, bounds.Max.X); x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func fillEllipse(img *image.RGBA, cx, cy, rx, ry int, c color.RGBA) {
	if rx < 1 || ry < 1 {
		return
	}
	bounds := img.Bounds()
	for y := max(cy-ry, bounds.Min.Y); y <= min(cy+ry, bounds.Max.Y-1); y++ {
		for x := max(cx-rx, bounds.Min.X); x <= min(cx+rx, bounds.Max.X-1); x++ {
			dx := float64(x-cx) / float64(rx)
			dy := float64(y-cy) / float64(ry)
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func fillTriangle(img *image.RGBA, x0, y0, x1, y1, x2, y2 int, c color.RGBA) {
	minX := min(x0, min(x1, x2))
	maxX := max(x0, max(x1, x2))
	minY := min(y0, min(y1, y2))
	maxY := max(y0, max(y1, y2))
	bounds := img.Bounds()
	for y := max(minY, bounds.Min.Y); y <= min(maxY, bounds.Max.Y-1); y++ {
		for x := max(minX, bounds.Min.X); x <= min(maxX, bounds.Max.X-1); x++ {
			if pointInTriangle(x, y, x0, y0, x1, y1, x2, y2) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func pointInTriangle(px, py, x0, y0, x1, y1, x2, y2 int) bool {
	d1 := sign(px, py, x0, y0, x1, y1)
	d2 := sign(px, py, x1, y1, x2, y2)
	d3 := sign(px, py, x2, y2, x0, y0)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign(px, py, x0, y0, x1, y1 int) int {
	return (px-x1)*(y0-y1) - (x0-x1)*(py-y1)
}

func drawLine(img *image.RGBA, x0, y0, x1, y1, width int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	half := width / 2
	for {
		fillRect(img, x0-half, y0-half, x0+half+1, y0+half+1, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
