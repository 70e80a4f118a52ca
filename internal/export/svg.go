// Package export renders stored runs as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/storage"
)

const radius = 6.0

type bounds struct {
	minX, minY, rangeX, rangeY float64
}

// fit returns the padded bounding box of every sample of every charge.
func fit(data *storage.ExportData) bounds {
	first := true
	var minX, maxX, minY, maxY float64
	for _, c := range data.Charges {
		for k := range c.X {
			x, y := c.X[k], c.Y[k]
			if first {
				minX, maxX, minY, maxY = x, x, y, y
				first = false
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	return bounds{minX: minX, minY: minY, rangeX: rangeX * 1.2, rangeY: rangeY * 1.2}
}

// RunToSVG draws each charge's track in its polarity color, with a marker
// at its final position: a square for fixed charges, a circle otherwise.
// Field y grows downward, as on screen.
func RunToSVG(w io.Writer, data *storage.ExportData, width, height int) error {
	b := fit(data)
	px := func(x, y float64) (float64, float64) {
		return (x - b.minX) / b.rangeX * float64(width), (y - b.minY) / b.rangeY * float64(height)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, c := range data.Charges {
		if len(c.X) == 0 {
			continue
		}
		color := charge.PolarityOf(c.Q).Color()

		if len(c.X) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-opacity="0.6" stroke-width="1.5" d="M`, color)
			for k := range c.X {
				x, y := px(c.X[k], c.Y[k])
				if k == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		last := len(c.X) - 1
		x, y := px(c.X[last], c.Y[last])
		if c.Kind == charge.Fixed.String() {
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, x-radius, y-radius, 2*radius, 2*radius, color)
		} else {
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x, y, radius, color)
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
