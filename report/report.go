// Package report summarizes a baked volume: per-frame brightness, level
// usage and frame-to-frame change.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/lixenwraith/perlin-term/playback"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
)

// histWidth is the bar length of the most used level
const histWidth = 30

// Stats describes a baked volume
type Stats struct {
	Frames, Width, Height, Levels int

	// Means holds each frame's mean level scaled to [0,1]
	Means []float64
	// Histogram counts cells per level over all frames
	Histogram []int
	// Change is the mean absolute level step between consecutive frames, scaled to [0,1]
	Change float64

	Seed     uint64
	BakeTime time.Duration
}

// Collect scans every frame of vol
func Collect(vol playback.Volume) Stats {
	var s Stats
	s.Frames = vol.Frames()
	if s.Frames == 0 {
		return s
	}

	first := vol.Frame(0)
	s.Width, s.Height, s.Levels = first.W, first.H, first.N
	s.Histogram = make([]int, s.Levels)
	s.Means = make([]float64, s.Frames)

	var steps, cells int
	for i := 0; i < s.Frames; i++ {
		f := vol.Frame(i)
		s.Means[i] = f.Mean()
		for l, n := range f.Histogram() {
			s.Histogram[l] += n
		}
		if i > 0 {
			prev := vol.Frame(i - 1)
			for j, v := range f.L {
				d := int(v) - int(prev.L[j])
				if d < 0 {
					d = -d
				}
				steps += d
			}
			cells += len(f.L)
		}
	}
	if cells > 0 && s.Levels > 1 {
		s.Change = float64(steps) / float64(cells*(s.Levels-1))
	}
	return s
}

// Render formats the stats; glyphs label the histogram rows when given
func (s Stats) Render(glyphs []string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("BAKE REPORT") + "\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Size", fmt.Sprintf("%dx%d", s.Width, s.Height))
	row("Frames", fmt.Sprintf("%d", s.Frames))
	row("Levels", fmt.Sprintf("%d", s.Levels))
	if s.Seed != 0 {
		row("Seed", fmt.Sprintf("%d", s.Seed))
	}
	if s.BakeTime > 0 {
		row("Bake time", s.BakeTime.Round(time.Millisecond).String())
	}
	row("Change", fmt.Sprintf("%.4f per frame", s.Change))

	if len(s.Means) > 1 {
		chart := asciigraph.Plot(s.Means,
			asciigraph.Height(6),
			asciigraph.Width(min(60, max(len(s.Means), 10))),
			asciigraph.Precision(2),
			asciigraph.Caption("Mean level per frame"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	if len(s.Histogram) > 0 {
		b.WriteString("\n" + headerStyle.Render("LEVELS") + "\n")
		b.WriteString(s.histogram(glyphs))
	}
	return boxStyle.Render(b.String())
}

func (s Stats) histogram(glyphs []string) string {
	var total, peak int
	for _, n := range s.Histogram {
		total += n
		peak = max(peak, n)
	}

	var b strings.Builder
	for l, n := range s.Histogram {
		label := fmt.Sprintf("%d", l)
		if l < len(glyphs) {
			label = fmt.Sprintf("%d %s", l, glyphs[l])
		}
		width := 0
		if peak > 0 {
			width = (n*histWidth + peak - 1) / peak
		}
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(n) / float64(total)
		}
		b.WriteString(labelStyle.Render(label) +
			barStyle.Render(strings.Repeat("█", width)) +
			valueStyle.Render(fmt.Sprintf(" %5.1f%%", pct)) + "\n")
	}
	return b.String()
}
