// Package uciapp wires up the engine and the UCI protocol handler so both
// the CLI entry point and the root binary can share one startup path.
package uciapp

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/cavefish/chesscore/internal/engine"
	"github.com/cavefish/chesscore/internal/uci"
)

// Default NNUE file names (Stockfish compatible)
const (
	defaultBigNet   = "nn-c288c895ea92.nnue" // ~108MB
	defaultSmallNet = "nn-37f18f62d772.nnue" // ~3.5MB
)

// Run parses flags, boots the engine, auto-loads NNUE weights if present,
// and blocks running the UCI protocol loop over stdin/stdout.
func Run() {
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	// 64 MB transposition table; the engine searches with a single worker
	eng := engine.NewEngine(64)

	if err := autoLoadNNUE(eng); err != nil {
		log.Printf("Warning: NNUE not loaded: %v (using classical evaluation)", err)
	}

	protocol := uci.New(eng)
	protocol.Run()
}

// autoLoadNNUE attempts to load NNUE weights from standard locations.
func autoLoadNNUE(eng *engine.Engine) error {
	searchPaths := []string{
		getAppSupportDir(),                                // ~/Library/Application Support/chesscore/nnue/
		filepath.Join(getHomeDir(), ".chesscore", "nnue"), // ~/.chesscore/nnue/
		"./nnue",
		".",
	}

	for _, dir := range searchPaths {
		bigPath := filepath.Join(dir, defaultBigNet)
		smallPath := filepath.Join(dir, defaultSmallNet)

		if fileExists(bigPath) && fileExists(smallPath) {
			if err := eng.LoadNNUE(bigPath, smallPath); err != nil {
				log.Printf("Failed to load NNUE from %s: %v", dir, err)
				continue
			}
			eng.SetUseNNUE(true)
			log.Printf("NNUE loaded from %s", dir)
			return nil
		}
	}

	return os.ErrNotExist
}

func getAppSupportDir() string {
	home := getHomeDir()
	return filepath.Join(home, "Library", "Application Support", "chesscore", "nnue")
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
