// Package term draws a solving grid in a terminal.
package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/wavecollapse"
)

// upperHalf paints the top half of a terminal cell in the foreground colour
// and the bottom half in the background, so one cell shows two grid rows.
const upperHalf = '▀'

// Surface is the part of tcell.Screen the viewer draws on.
type Surface interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
	Show()
}

type Viewer struct {
	surface Surface
}

func NewViewer(s Surface) *Viewer {
	return &Viewer{surface: s}
}

// Draw paints v and a status line in the last terminal row.
func (vw *Viewer) Draw(v wavecollapse.View, status string) {
	w, h := vw.surface.Size()
	rows := h - 1
	for ty := range rows {
		for tx := range w {
			style := tcell.StyleDefault
			top, bottom := 2*ty, 2*ty+1
			if tx < v.Width() && top < v.Height() {
				style = style.Foreground(cellColor(v.CellAt(tx, top)))
				if bottom < v.Height() {
					style = style.Background(cellColor(v.CellAt(tx, bottom)))
				}
				vw.surface.SetContent(tx, ty, upperHalf, nil, style)
				continue
			}
			vw.surface.SetContent(tx, ty, ' ', nil, style)
		}
	}
	if rows >= 0 {
		vw.status(rows, w, status)
	}
	vw.surface.Show()
}

func (vw *Viewer) status(y, w int, s string) {
	x := 0
	for _, r := range s {
		if x >= w {
			break
		}
		vw.surface.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
	for ; x < w; x++ {
		vw.surface.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}

func cellColor(cv wavecollapse.CellView) tcell.Color {
	if cv.Count == 0 {
		return tcell.ColorRed
	}
	return toTcell(cv.Color)
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Status formats the progress line shown under the grid.
func Status(g *wavecollapse.Grid) string {
	s := g.Stats()
	state := "solving"
	switch {
	case g.Solved():
		state = "solved"
	case g.Failed():
		state = "failed"
	}
	return fmt.Sprintf("%s  %d/%d cells  steps %d  backtracks %d  depth %d  [space] pause [r] restart [q] quit",
		state, s.Collapsed, s.Cells, s.Steps, s.Backtracks, s.Depth)
}

type WatchOptions struct {
	// Steps run between frames.
	StepsPerFrame int
	// Frame interval. Zero means about 30 frames per second.
	Interval time.Duration
	// Seed for restarts; each restart adds one.
	Seed uint64
}

// Watch solves g while drawing it on screen until the user quits or ctx is
// done. The grid stays on screen after it finishes.
func Watch(ctx context.Context, screen tcell.Screen, g *wavecollapse.Grid, opt WatchOptions) error {
	if opt.StepsPerFrame < 1 {
		opt.StepsPerFrame = 1
	}
	if opt.Interval <= 0 {
		opt.Interval = 33 * time.Millisecond
	}
	viewer := NewViewer(screen)
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go pollEvents(screen, events, done)

	ticker := time.NewTicker(opt.Interval)
	defer ticker.Stop()
	paused := false
	seed := opt.Seed
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
					return nil
				case ev.Rune() == ' ':
					paused = !paused
				case ev.Rune() == 'r':
					seed++
					g.Reseed(seed)
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			if !paused {
				Advance(g, opt.StepsPerFrame)
			}
			viewer.Draw(g, Status(g))
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or done is
// closed.
func pollEvents(screen tcell.Screen, events chan<- tcell.Event, done <-chan struct{}) {
	defer close(events)
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// Advance runs up to n steps and stops early once g is finished.
func Advance(g *wavecollapse.Grid, n int) {
	for range n {
		if g.IsFinished() {
			return
		}
		if res, _ := g.Step(); res != wavecollapse.StepProgressed {
			return
		}
	}
}
