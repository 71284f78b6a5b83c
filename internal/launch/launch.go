// Package launch starts the lyric fetcher server as a child process and
// opens a browser pointed at it.
package launch

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the port the server listens on when none is given.
	DefaultPort = 10000

	// BrowserDelay is how long the launcher waits before opening the
	// browser. The server may not be listening yet; that race is tolerated.
	BrowserDelay = 1 * time.Second

	// windowsFirefox is the Firefox install path used on Windows.
	windowsFirefox = `C:\Program Files\Mozilla Firefox\firefox.exe`
)

// ResolvePort returns the port from the first positional argument, or
// DefaultPort when no argument is given.
func ResolvePort(args []string) (int, error) {
	if len(args) == 0 {
		return DefaultPort, nil
	}
	port, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", args[0], err)
	}
	if port <= 0 {
		return 0, fmt.Errorf("invalid port %d: must be a positive integer", port)
	}
	return port, nil
}

// IsWindows reports whether the environment looks like Windows, based on
// the OS environment variable.
func IsWindows(getenv func(string) string) bool {
	return strings.Contains(getenv("OS"), "Windows")
}

// WindowsPath translates a POSIX-style path like /c/Users/foo into
// Windows drive-letter form (C:\Users\foo). Paths that do not start with
// a single-letter root component are returned with separators translated
// only.
func WindowsPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 1 && parts[0] == "" && len(parts[1]) == 1 {
		drive := strings.ToUpper(parts[1]) + ":"
		return drive + `\` + strings.Join(parts[2:], `\`)
	}
	return strings.ReplaceAll(path, "/", `\`)
}

// VenvBinDir returns the executable directory inside a virtual
// environment: Scripts on Windows, bin elsewhere.
func VenvBinDir(venvDir string, windows bool) string {
	if windows {
		return venvDir + `\Scripts`
	}
	return filepath.Join(venvDir, "bin")
}

// PrepareEnv returns a copy of environ adjusted for the child process:
// the virtual environment's executable directory is prepended to PATH,
// VIRTUAL_ENV is set, and PYTHONHOME is removed if present.
func PrepareEnv(environ []string, venvDir string, windows bool) []string {
	sep := ":"
	if windows {
		sep = ";"
	}
	binDir := VenvBinDir(venvDir, windows)

	env := make([]string, 0, len(environ)+1)
	pathSeen := false
	for _, kv := range environ {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			env = append(env, kv)
			continue
		}
		switch {
		case key == "PATH":
			_, value, _ := strings.Cut(kv, "=")
			env = append(env, "PATH="+binDir+sep+value)
			pathSeen = true
		case key == "PYTHONHOME":
			// dropped so the child resolves the virtual environment
		case key == "VIRTUAL_ENV":
			// replaced below
		default:
			env = append(env, kv)
		}
	}
	if !pathSeen {
		env = append(env, "PATH="+binDir)
	}
	env = append(env, "VIRTUAL_ENV="+venvDir)
	return env
}

// BrowserURL returns the URL argument passed to the browser.
func BrowserURL(port int) string {
	return fmt.Sprintf("localhost:%d", port)
}

// BrowserCommand returns the browser executable to launch. On Windows a
// hardcoded Firefox install path is used; elsewhere firefox is resolved
// from PATH.
func BrowserCommand(windows bool) string {
	if windows {
		return windowsFirefox
	}
	return "firefox"
}

// Launcher resolves the pieces needed to start the server and browser.
type Launcher struct {
	// ServerPath is the server executable to spawn.
	ServerPath string
	// VenvDir is the virtual environment directory, already in the
	// platform's path form.
	VenvDir string
	// Port the server binds and the browser visits.
	Port int
	// Windows selects Windows path and browser handling.
	Windows bool

	Stdout io.Writer
	Stderr io.Writer
}

// ServerArgs returns the arguments the server is invoked with.
func (l *Launcher) ServerArgs() []string {
	return []string{"-p", strconv.Itoa(l.Port), "-vv"}
}

// Run writes the resolved virtual environment path to stdout, starts the
// server in the foreground with the prepared environment, opens the
// browser after BrowserDelay, and waits for the server to exit. Process
// start failures are returned untranslated.
func (l *Launcher) Run() error {
	stdout := l.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := l.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	fmt.Fprintln(stdout, l.VenvDir)

	server := exec.Command(l.ServerPath, l.ServerArgs()...)
	server.Env = PrepareEnv(os.Environ(), l.VenvDir, l.Windows)
	server.Stdin = os.Stdin
	server.Stdout = stdout
	server.Stderr = stderr
	if err := server.Start(); err != nil {
		return err
	}

	go func() {
		time.Sleep(BrowserDelay)
		browser := exec.Command(BrowserCommand(l.Windows), BrowserURL(l.Port))
		if err := browser.Start(); err != nil {
			fmt.Fprintf(stderr, "Failed to open browser: %v\n", err)
			fmt.Fprintf(stderr, "Open http://%s manually\n", BrowserURL(l.Port))
		}
	}()

	return server.Wait()
}
