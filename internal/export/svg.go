// Package export renders run series as standalone SVG charts.
package export

import (
	"fmt"
	"strings"
)

var seriesColors = []string{"#ff5555", "#55aaff", "#55ff88", "#ffaa00", "#cc66ff"}

// SeriesToSVG draws one polyline per named series over a shared time
// axis. Series are drawn in name order; all must match len(times).
func SeriesToSVG(times []float64, names []string, series map[string][]float64, width, height int) string {
	if len(times) < 2 || len(names) == 0 {
		return ""
	}

	minV, maxV := series[names[0]][0], series[names[0]][0]
	for _, name := range names {
		for _, v := range series[name] {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	rangeV := maxV - minV
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.1
	maxV += rangeV * 0.1
	rangeV = maxV - minV

	t0 := times[0]
	rangeT := times[len(times)-1] - t0
	if rangeT == 0 {
		rangeT = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	// zero line
	if minV < 0 && maxV > 0 {
		y0 := float64(height) - (0-minV)/rangeV*float64(height)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#333333" stroke-width="1"/>
`, y0, width, y0))
	}

	for si, name := range names {
		color := seriesColors[si%len(seriesColors)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i, v := range series[name] {
			x := (times[i] - t0) / rangeT * float64(width)
			y := float64(height) - (v-minV)/rangeV*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+16*si, color, name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
