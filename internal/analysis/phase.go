package analysis

import "strings"

// PathToASCII plots the points (xs[i], ys[i]) on a width x height grid,
// scaled to fit with a 10% margin. y grows downward, matching the field's
// screen coordinates. The start is marked 'o' and the end '●'.
func PathToASCII(xs, ys []float64, width, height int) string {
	n := min(len(xs), len(ys))
	if n == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	cell := func(i int) (int, int) {
		col := int((xs[i] - minX) / rangeX * float64(width-1))
		row := int((ys[i] - minY) / rangeY * float64(height-1))
		return row, col
	}

	for i := 0; i < n; i++ {
		row, col := cell(i)
		canvas[row][col] = '•'
	}
	row, col := cell(0)
	canvas[row][col] = 'o'
	row, col = cell(n - 1)
	canvas[row][col] = '●'

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(strings.TrimRight(string(r), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}
