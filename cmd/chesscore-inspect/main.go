// Command chesscore-inspect renders a FEN position to a PNG file, for
// visually inspecting search or move-generation output without a game
// window.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/cavefish/chesscore/internal/board"
	"github.com/cavefish/chesscore/internal/boardimage"
)

func main() {
	fen := flag.String("fen", "", "FEN to render (defaults to the starting position)")
	out := flag.String("out", "position.png", "output PNG path")
	square := flag.Int("square", 80, "pixel size of one square")
	flag.Parse()

	var pos *board.Position
	if *fen == "" {
		pos = board.NewPosition()
	} else {
		p, err := board.ParseFEN(*fen)
		if err != nil {
			log.Fatalf("parse FEN: %v", err)
		}
		pos = p
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	if err := boardimage.WritePNG(f, pos, *square); err != nil {
		log.Fatalf("render: %v", err)
	}

	log.Printf("wrote %s", *out)
}
