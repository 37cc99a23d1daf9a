package view

import (
	"math"
	"strings"

	"github.com/declarative-audio/audiotree/internal/audiotree"
)

type brailleDotRow int

const (
	brailleDotRow0 brailleDotRow = iota
	brailleDotRow1
	brailleDotRow2
	brailleDotRow3
)

// RenderVolumeCurve renders a VolumePoint timeline as a Braille line
// graph: the vertical axis is volume (0 at bottom, 1 at top; values
// above 1 clip to the top row), the horizontal axis is time from the
// first to the last point. width/height are in Braille cells (each
// cell is 2x4 dots), the same encoding RenderWaveform used for sample
// data.
func RenderVolumeCurve(width, height int, points []audiotree.VolumePoint) string {
	if width <= 0 || height <= 0 || len(points) == 0 {
		return ""
	}

	start := points[0].Time
	end := points[len(points)-1].Time
	span := end - start
	if span <= 0 {
		span = 1
	}

	sampleAt := func(t int64) float64 {
		if t <= points[0].Time {
			return points[0].Volume
		}
		if t >= points[len(points)-1].Time {
			return points[len(points)-1].Volume
		}
		for i := 1; i < len(points); i++ {
			if t <= points[i].Time {
				prev, next := points[i-1], points[i]
				dt := next.Time - prev.Time
				if dt <= 0 {
					return next.Volume
				}
				f := float64(t-prev.Time) / float64(dt)
				return prev.Volume*(1-f) + next.Volume*f
			}
		}
		return points[len(points)-1].Volume
	}

	fineW := width * 2
	fineH := height * 4
	masks := make([]byte, width*height)

	const (
		dot1 = 0x01
		dot2 = 0x02
		dot3 = 0x04
		dot4 = 0x08
		dot5 = 0x10
		dot6 = 0x20
		dot7 = 0x40
		dot8 = 0x80
	)
	const brailleBase = 0x2800

	for x := 0; x < fineW; x++ {
		t := start + int64(float64(x)/float64(fineW-1)*float64(span))
		v := sampleAt(t)
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}

		y := int(math.Round((1.0 - v) * float64(fineH-1)))
		if y < 0 {
			y = 0
		} else if y >= fineH {
			y = fineH - 1
		}

		cellCol := x >> 1
		cellRow := y >> 2
		inCol := x & 1
		inRow := y & 3

		var bit byte
		switch brailleDotRow(inRow) {
		case brailleDotRow0:
			if inCol == 0 {
				bit = dot1
			} else {
				bit = dot4
			}
		case brailleDotRow1:
			if inCol == 0 {
				bit = dot2
			} else {
				bit = dot5
			}
		case brailleDotRow2:
			if inCol == 0 {
				bit = dot3
			} else {
				bit = dot6
			}
		default:
			if inCol == 0 {
				bit = dot7
			} else {
				bit = dot8
			}
		}

		idx := cellRow*width + cellCol
		masks[idx] |= bit
	}

	var b strings.Builder
	b.Grow(height*width + (height - 1))
	for row := 0; row < height; row++ {
		base := row * width
		for col := 0; col < width; col++ {
			b.WriteRune(rune(brailleBase + int(masks[base+col])))
		}
		if row != height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
