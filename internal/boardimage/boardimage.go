// Package boardimage renders a Position to a static image for offline
// inspection. It reuses the sprite pipeline the interactive UI used to
// carry (SVG glyph parsed with oksvg, rasterized with rasterx, wrapped as
// an ebiten offscreen image) but draws its own glyph set from inline SVG
// path data instead of embedded asset files, since it has no game window
// or asset bundle to ship.
package boardimage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cavefish/chesscore/internal/board"
)

const renderScale = 3.0

// pieceGlyphSVG is a minimal circular token, colored per side, with the piece
// letter stamped on top by drawGlyphLetter. It stands in for the artwork
// a shipped SVG piece set would provide.
const pieceGlyphSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
  <circle cx="50" cy="50" r="42" fill="%s" stroke="#202020" stroke-width="4"/>
</svg>`

// SpriteSet caches one rendered token per piece color, stamped with the
// piece letter at draw time so a single pair of rasterized glyphs covers
// all twelve piece kinds.
type SpriteSet struct {
	size    int
	white   *ebiten.Image
	black   *ebiten.Image
	whiteFg color.Color
	blackFg color.Color
}

// NewSpriteSet rasterizes the white and black piece tokens at the given
// display size.
func NewSpriteSet(size int) (*SpriteSet, error) {
	white, err := rasterizeGlyph(size, "#f5f0e6")
	if err != nil {
		return nil, fmt.Errorf("rasterize white glyph: %w", err)
	}
	black, err := rasterizeGlyph(size, "#2b2b2b")
	if err != nil {
		return nil, fmt.Errorf("rasterize black glyph: %w", err)
	}
	return &SpriteSet{
		size:    size,
		white:   ebiten.NewImageFromImage(white),
		black:   ebiten.NewImageFromImage(black),
		whiteFg: color.Black,
		blackFg: color.White,
	}, nil
}

func rasterizeGlyph(size int, fill string) (image.Image, error) {
	renderSize := int(float64(size) * renderScale)
	data := fmt.Sprintf(pieceGlyphSVG, fill)

	icon, err := oksvg.ReadIconStream(bytes.NewReader([]byte(data)))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(renderSize), float64(renderSize))

	rgba := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
	scanner := rasterx.NewScannerGV(renderSize, renderSize, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(renderSize, renderSize, scanner)
	icon.Draw(raster, 1.0)

	return rgba, nil
}

// DrawPieceAt draws a piece at the given pixel coordinates, sized to
// SpriteSet's display size.
func (ss *SpriteSet) DrawPieceAt(screen *ebiten.Image, p board.Piece, x, y int) {
	if p == board.NoPiece {
		return
	}

	var base *ebiten.Image
	var fg color.Color
	if p.Color() == board.White {
		base, fg = ss.white, ss.whiteFg
	} else {
		base, fg = ss.black, ss.blackFg
	}

	op := &ebiten.DrawImageOptions{}
	scale := 1.0 / renderScale
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(base, op)

	drawGlyphLetter(screen, p, x, y, ss.size, fg)
}

// drawGlyphLetter stamps the FEN letter for the piece type in the middle
// of its token using a fixed bitmap font, so pieces stay distinguishable
// without shipping twelve separate pieces of artwork.
func drawGlyphLetter(screen *ebiten.Image, p board.Piece, x, y, size int, fg color.Color) {
	letter := p.Type().Char()
	if p.Color() == board.White {
		letter = letter - 'a' + 'A'
	}

	face := basicfont.Face7x13
	bounds, _ := font.BoundString(face, string(letter))
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()

	label := image.NewRGBA(image.Rect(0, 0, w+2, h+2))
	d := &font.Drawer{
		Dst:  label,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(1, h),
	}
	d.DrawString(string(letter))

	img := ebiten.NewImageFromImage(label)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x)+float64(size)/2-float64(w)/2, float64(y)+float64(size)/2-float64(h)/2)
	screen.DrawImage(img, op)
}

// Theme is the palette used when drawing the board.
type Theme struct {
	Light, Dark color.Color
}

// DefaultTheme returns the standard light/dark square palette.
func DefaultTheme() Theme {
	return Theme{
		Light: color.RGBA{0xee, 0xee, 0xd2, 0xff},
		Dark:  color.RGBA{0x76, 0x96, 0x56, 0xff},
	}
}

// Render draws pos onto a squareSize*8 square offscreen image and returns
// it as a standard image.Image ready for PNG encoding.
func Render(pos *board.Position, squareSize int) (image.Image, error) {
	sprites, err := NewSpriteSet(squareSize)
	if err != nil {
		return nil, err
	}

	dim := squareSize * 8
	screen := ebiten.NewImage(dim, dim)
	theme := DefaultTheme()

	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := board.Square(rank*8 + file)
			x, y := file*squareSize, (7-rank)*squareSize

			c := theme.Light
			if (rank+file)%2 == 1 {
				c = theme.Dark
			}
			fillSquare(screen, x, y, squareSize, c)

			piece := pos.PieceAt(sq)
			if piece != board.NoPiece {
				sprites.DrawPieceAt(screen, piece, x, y)
			}
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, dim, dim))
	draw.Draw(out, out.Bounds(), screen, image.Point{}, draw.Src)
	return out, nil
}

func fillSquare(screen *ebiten.Image, x, y, size int, c color.Color) {
	tile := ebiten.NewImage(size, size)
	tile.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(tile, op)
}

// WritePNG renders pos and encodes it as a PNG to w.
func WritePNG(w io.Writer, pos *board.Position, squareSize int) error {
	img, err := Render(pos, squareSize)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
