// Command chesscore-uci runs the engine as a UCI protocol handler over
// stdin/stdout.
package main

import "github.com/cavefish/chesscore/internal/uciapp"

func main() {
	uciapp.Run()
}
