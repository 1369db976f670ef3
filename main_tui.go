package main

import (
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"cvision/config"
	"cvision/editor"
)

// memoryClipboard keeps the clipboard in process and forwards copies to the
// terminal (OSC 52) when the screen supports it.
type memoryClipboard struct {
	mu      sync.Mutex
	text    string
	forward func(string)
}

func (m *memoryClipboard) GetText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *memoryClipboard) SetText(text string) error {
	m.setLocal(text)
	if m.forward != nil {
		m.forward(text)
	}
	return nil
}

func (m *memoryClipboard) setLocal(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// cellSurface draws editor and log view boxes onto a tcell screen. One unit
// is one cell. It tracks the background it painted so translucent colours
// and text blend over it.
type cellSurface struct {
	screen tcell.Screen
	base   editor.Color
	w, h   int
	bg     []editor.Color
}

func newCellSurface(s tcell.Screen, base editor.Color) *cellSurface {
	return &cellSurface{screen: s, base: base}
}

// begin starts a frame: it clears the screen to the base colour.
func (c *cellSurface) begin() {
	c.w, c.h = c.screen.Size()
	if n := c.w * c.h; cap(c.bg) >= n {
		c.bg = c.bg[:n]
	} else {
		c.bg = make([]editor.Color, n)
	}
	for i := range c.bg {
		c.bg[i] = c.base
	}
	c.screen.Fill(' ', tcell.StyleDefault.Background(toTcell(c.base)))
}

func (c *cellSurface) Advance(r rune) float64 {
	if r == '\n' {
		return 0
	}
	return float64(runewidth.RuneWidth(r))
}

func (c *cellSurface) LineHeight() float64 { return 1 }

func (c *cellSurface) bgAt(x, y int) editor.Color {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return c.base
	}
	return c.bg[y*c.w+x]
}

func cell(f float64) int { return int(math.Round(f)) }

func (c *cellSurface) DrawRect(b editor.Box, fill, border editor.Color, borderWidth float64) {
	x0, y0 := max(cell(b.X), 0), max(cell(b.Y), 0)
	x1, y1 := min(cell(b.Right()), c.w), min(cell(b.Bottom()), c.h)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	framed := borderWidth > 0 && border.A > 0 && x1-x0 >= 2 && y1-y0 >= 2
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			bg := c.bgAt(x, y)
			if fill.A > 0 {
				bg = blend(fill, bg)
				c.bg[y*c.w+x] = bg
			}
			st := tcell.StyleDefault.Background(toTcell(bg))
			ch := ' '
			if framed {
				if g := frameGlyph(x, y, x0, y0, x1-1, y1-1); g != 0 {
					ch = g
					st = st.Foreground(toTcell(blend(border, bg)))
				}
			}
			if fill.A > 0 || ch != ' ' {
				c.screen.SetContent(x, y, ch, nil, st)
			}
		}
	}
}

func frameGlyph(x, y, left, top, right, bottom int) rune {
	switch {
	case x == left && y == top:
		return '┌'
	case x == right && y == top:
		return '┐'
	case x == left && y == bottom:
		return '└'
	case x == right && y == bottom:
		return '┘'
	case y == top || y == bottom:
		return '─'
	case x == left || x == right:
		return '│'
	}
	return 0
}

func (c *cellSurface) DrawText(s string, x, y float64, col editor.Color) {
	cx, cy := cell(x), cell(y)
	if cy < 0 || cy >= c.h || col.A == 0 {
		return
	}
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w <= 0 {
			continue
		}
		if cx >= 0 && cx+w <= c.w {
			bg := c.bgAt(cx, cy)
			st := tcell.StyleDefault.Background(toTcell(bg)).Foreground(toTcell(blend(col, bg)))
			c.screen.SetContent(cx, cy, r, nil, st)
		}
		cx += w
	}
}

func (c *cellSurface) ShowCursor(x, y float64) { c.screen.ShowCursor(cell(x), cell(y)) }
func (c *cellSurface) HideCursor()             { c.screen.HideCursor() }

// blend composites c over an opaque background.
func blend(c, bg editor.Color) editor.Color {
	if c.A == 0xff {
		return c
	}
	a := float64(c.A) / 255
	mix := func(f, b uint8) uint8 {
		return uint8(math.Round(float64(f)*a + float64(b)*(1-a)))
	}
	return editor.RGB(mix(c.R, bg.R), mix(c.G, bg.G), mix(c.B, bg.B))
}

func toTcell(c editor.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func drawCellText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w <= 0 {
			continue
		}
		s.SetContent(x, y, r, nil, st)
		x += w
	}
}

func padRight(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, ""), w)
}

// runTUI owns the screen. Input is collected between ticks and applied once
// per tick, so the view and the type box see whole frames.
func runTUI(cfg config.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnablePaste()

	clip := &memoryClipboard{forward: func(s string) { screen.SetClipboard([]byte(s)) }}
	surf := newCellSurface(screen, chatTheme.Background)
	app, err := newChatApp(cfg, surf, clip)
	if err != nil {
		return err
	}
	defer app.close()

	rate := max(cfg.FrameRate, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		t := time.NewTicker(time.Second / time.Duration(rate))
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	in := newInputCollector(clip)
	last := time.Now()
	for {
		ev := screen.PollEvent()
		switch e := ev.(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			now := e.When()
			dt := now.Sub(last)
			last = now
			w, h := screen.Size()
			app.layout(float64(w), float64(h))
			app.update(dt, in.take())
			if app.quit {
				return nil
			}
			surf.begin()
			app.draw(surf)
			drawStatus(screen, app, in.lastEvent, w, h)
			screen.Show()
		default:
			in.handle(ev)
		}
	}
}

func drawStatus(s tcell.Screen, app *chatApp, lastEvent string, w, h int) {
	if h < 1 {
		return
	}
	status := app.statusLine()
	if lastEvent != "" {
		status += " | " + lastEvent
	}
	st := tcell.StyleDefault.Background(tcell.ColorDarkSlateBlue).Foreground(tcell.ColorWhite)
	drawCellText(s, 0, h-1, padRight(status, w), st)
}
