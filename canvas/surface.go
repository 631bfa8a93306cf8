package canvas

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"golang.org/x/image/vector"

	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/stroke"
)

const (
	DefaultPenSize  = 8
	DefaultPenColor = "#000000"
)

// Surface owns the stroke stack of one drawing session. It is not safe for
// concurrent use: each websocket connection owns exactly one surface and
// drives it from its read loop.
type Surface struct {
	width     int
	height    int
	penSize   float64
	penColor  string
	committed []models.Stroke
	active    *models.Stroke
}

func NewSurface(width, height int) *Surface {
	return &Surface{
		width:    width,
		height:   height,
		penSize:  DefaultPenSize,
		penColor: DefaultPenColor,
	}
}

// SetPen updates the tool settings used for strokes begun afterwards.
// The active stroke, if any, keeps the settings it was begun with.
func (s *Surface) SetPen(size float64, color string) {
	if size > 0 {
		s.penSize = size
	}
	if color != "" {
		s.penColor = color
	}
}

// BeginStroke opens a new active stroke at p. A no-op while another stroke
// is active; a duplicate pen-down must not clobber captured samples.
func (s *Surface) BeginStroke(p models.StrokePoint) {
	if s.active != nil {
		return
	}
	s.active = &models.Stroke{
		Points: []models.StrokePoint{p},
		Size:   s.penSize,
		Color:  s.penColor,
	}
}

// ExtendStroke appends a sample to the active stroke. A silent no-op when
// no stroke is active, so pointer-leave/re-enter races cannot fail.
func (s *Surface) ExtendStroke(p models.StrokePoint) {
	if s.active == nil {
		return
	}
	s.active.Points = append(s.active.Points, p)
}

// EndStroke commits the active stroke to the surface. An active stroke with
// no points is discarded silently. Either way the active slot is cleared.
func (s *Surface) EndStroke() {
	if s.active == nil {
		return
	}
	if len(s.active.Points) > 0 {
		s.committed = append(s.committed, *s.active)
	}
	s.active = nil
}

// Undo removes the most recently committed stroke, if any.
func (s *Surface) Undo() {
	if len(s.committed) == 0 {
		return
	}
	s.committed = s.committed[:len(s.committed)-1]
}

func (s *Surface) StrokeCount() int {
	return len(s.committed)
}

// Strokes returns the committed strokes in commit order.
func (s *Surface) Strokes() []models.Stroke {
	out := make([]models.Stroke, len(s.committed))
	copy(out, s.committed)
	return out
}

// Render repaints the full surface: white background, committed strokes in
// commit order, then the active stroke. There is no dirty-rect tracking;
// a full repaint per mutation is the documented contract and stroke counts
// per session are bounded.
func (s *Surface) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for _, st := range s.committed {
		fillStroke(img, st)
	}
	if s.active != nil && len(s.active.Points) > 0 {
		fillStroke(img, *s.active)
	}
	return img
}

// EncodePNG renders the surface and encodes it as a PNG blob, the only
// artifact persisted on submission.
func (s *Surface) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Render()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderStrokes replays a finished stroke list onto a fresh surface and
// encodes it. Used by the REST submission path, where the client ships the
// whole stroke stack at once.
func RenderStrokes(width, height int, strokes []models.Stroke) ([]byte, error) {
	s := NewSurface(width, height)
	for _, st := range strokes {
		if len(st.Points) == 0 {
			continue
		}
		s.SetPen(st.Size, st.Color)
		s.BeginStroke(st.Points[0])
		for _, p := range st.Points[1:] {
			s.ExtendStroke(p)
		}
		s.EndStroke()
	}
	return s.EncodePNG()
}

func fillStroke(img *image.RGBA, st models.Stroke) {
	outline := stroke.Outline(st.Points, st.Size)
	if len(outline) < 3 {
		return
	}

	bounds := img.Bounds()
	r := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	r.DrawOp = draw.Over

	// The rasterizer consumes vertices in order; the outline's winding is
	// what makes the nonzero fill correct.
	r.MoveTo(float32(outline[0].X), float32(outline[0].Y))
	for _, p := range outline[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()

	r.Draw(img, bounds, image.NewUniform(parseHexColor(st.Color)), image.Point{})
}

// parseHexColor parses "#RRGGBB". Malformed colors are rejected upstream by
// validation; anything that slips through paints black.
func parseHexColor(s string) color.RGBA {
	c := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return c
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c
}
