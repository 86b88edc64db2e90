// Command chesscore is the engine's UCI entry point; see cmd/chesscore-inspect
// for the offline board-to-PNG debug renderer.
package main

import "github.com/cavefish/chesscore/internal/uciapp"

func main() {
	uciapp.Run()
}
