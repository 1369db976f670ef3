package editor

// Metrics reports font measurements of the draw surface.
type Metrics interface {
	Advance(r rune) float64
	LineHeight() float64
}

// Color is a straight RGBA colour, 8 bits per channel.
type Color struct {
	R, G, B, A uint8
}

func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 0xff} }

// Fade scales the colour's alpha by f in [0, 1].
func (c Color) Fade(f float64) Color {
	c.A = uint8(clampf(float64(c.A)*f, 0, 255))
	return c
}

// Box is an axis-aligned rectangle in surface units.
type Box struct {
	X, Y, W, H float64
}

func (b Box) Contains(x, y float64) bool {
	return x >= b.X && y >= b.Y && x < b.X+b.W && y < b.Y+b.H
}

func (b Box) Bottom() float64 { return b.Y + b.H }
func (b Box) Right() float64  { return b.X + b.W }

// Surface is the drawing side of the windowing library.
type Surface interface {
	Metrics
	DrawRect(b Box, fill, border Color, borderWidth float64)
	DrawText(s string, x, y float64, c Color)
}

// FixedMetrics is a monospace Metrics, handy for tests and cell grids.
type FixedMetrics struct {
	Glyph float64
	Line  float64
}

func (m FixedMetrics) Advance(r rune) float64 {
	if r == '\n' {
		return 0
	}
	return m.Glyph
}

func (m FixedMetrics) LineHeight() float64 { return m.Line }
