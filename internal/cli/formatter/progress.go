package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a download bar like [████░░░░]  45%. Values
// outside 0..1 are clamped.
func RenderProgress(pct float64, width int) string {
	pct = clamp(pct)
	if width < 2 {
		width = 2
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	bar := StyleGreen.Render(strings.Repeat(filledBlock, filled)) +
		StyleDim.Render(strings.Repeat(emptyBlock, width-filled))
	return fmt.Sprintf("[%s] %3.0f%%", bar, pct*100)
}

// RenderDownload renders a labeled progress line for line-mode output.
func RenderDownload(model string, pct float64) string {
	return fmt.Sprintf("%s %s", Dim(model), RenderProgress(pct, 30))
}

func clamp(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 1:
		return 1
	}
	return pct
}
