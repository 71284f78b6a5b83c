// Package main is the launcher for the lyric fetcher server: it prepares
// the environment, starts the server bound to a port, and opens a browser
// pointed at it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"lyricfetch/internal/launch"
)

func main() {
	port, err := launch.ResolvePort(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s [port]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to locate launcher executable: %v\n", err)
		os.Exit(1)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve launcher path: %v\n", err)
		os.Exit(1)
	}

	// The launcher, the server, and the venv directory live under the
	// project root: <root>/bin/<launcher>, <root>/venv.
	binDir := filepath.Dir(exe)
	projectRoot := filepath.Dir(binDir)
	venvDir := filepath.Join(projectRoot, "venv")

	windows := launch.IsWindows(os.Getenv)
	serverPath := filepath.Join(binDir, "lyricfetch-server")
	if windows {
		venvDir = launch.WindowsPath(filepath.ToSlash(venvDir))
		serverPath += ".exe"
	}

	l := &launch.Launcher{
		ServerPath: serverPath,
		VenvDir:    venvDir,
		Port:       port,
		Windows:    windows,
	}
	if err := l.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
