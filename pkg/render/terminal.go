package render

import (
	"image/color"
	"io"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/softrender/pkg/texture"
)

// Draw paints the color buffer onto scr inside area. Each cell shows two
// pixel rows with an upper half block: foreground is the top pixel and
// background the bottom one.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	tex := fb.Color
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1
		if topY >= tex.Height {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= tex.Width {
				break
			}
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(tex.At(x, topY)),
					Bg: cellColor(tex.At(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// cellColor converts a packed pixel for the terminal. Fully transparent
// pixels map to nil so the terminal default shows through.
func cellColor(c uint32) color.Color {
	nc := texture.UnpackNRGBA(c)
	if nc.A == 0 {
		return nil
	}
	return nc
}

// Downsample scales tex with nearest-neighbour sampling to cols columns and
// an even number of rows that keeps the aspect ratio once each terminal cell
// shows two pixel rows.
func Downsample(tex *texture.Texture, cols int) *texture.Texture {
	if tex.Empty() || cols <= 0 {
		return texture.New(0, 0)
	}
	cols = min(cols, tex.Width)
	rows := max(2, (tex.Height*cols/tex.Width+1)/2*2)

	out := texture.New(cols, rows)
	for y := range rows {
		sy := y * tex.Height / rows
		for x := range cols {
			out.Set(x, y, tex.At(x*tex.Width/cols, sy))
		}
	}
	return out
}

// Preview writes an ANSI half-block rendering of tex, at most cols columns
// wide, to w.
func Preview(w io.Writer, tex *texture.Texture, cols int) error {
	small := Downsample(tex, cols)
	if small.Empty() {
		return nil
	}

	buf := uv.NewScreenBuffer(small.Width, small.Height/2)
	fb := &Framebuffer{Width: small.Width, Height: small.Height, Color: small}
	fb.Draw(buf, buf.Bounds())
	_, err := io.WriteString(w, buf.Render()+"\n")
	return err
}
