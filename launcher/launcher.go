// Package launcher starts a Chrome/Chromium process and discovers its
// DevTools WebSocket endpoint, the Process Launcher collaborator named but
// left external by the session engine's own spec.
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
)

// Error is a launcher error.
type Error string

func (err Error) Error() string { return string(err) }

const (
	// ErrAlreadyStarted is returned by Start on an already-running Launcher.
	ErrAlreadyStarted Error = "launcher: already started"

	// ErrExecNotFound is returned when no Chrome/Chromium binary could be
	// located on $PATH and none was configured explicitly.
	ErrExecNotFound Error = "launcher: no chrome executable found"
)

// DefaultChromeNames are the executable names looked up on $PATH, in order,
// when no explicit binary path is configured.
var DefaultChromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium-browser",
	"chromium",
	"google-chrome-beta",
	"google-chrome-unstable",
}

// flagNameRE validates a Chrome command-line flag name.
var flagNameRE = regexp.MustCompile(`^[a-z0-9\-]+$`)

// LaunchOption configures a Launcher, following the same functional-options
// pattern as session.EngineOption.
type LaunchOption func(*Launcher)

// WithExecPath sets an explicit path to the Chrome/Chromium binary,
// skipping $PATH discovery.
func WithExecPath(path string) LaunchOption {
	return func(l *Launcher) { l.execPath = path }
}

// WithPort sets the remote debugging port. Defaults to 9222.
func WithPort(port int) LaunchOption {
	return func(l *Launcher) { l.port = port }
}

// WithHeadless toggles headless mode. Defaults to true.
func WithHeadless(headless bool) LaunchOption {
	return func(l *Launcher) { l.headless = headless }
}

// WithNoSandbox disables Chrome's sandbox, commonly required inside
// containers that can't grant the sandbox's namespace privileges.
func WithNoSandbox() LaunchOption {
	return func(l *Launcher) { l.flags["no-sandbox"] = true }
}

// WithUserDataDir sets an explicit profile directory instead of a freshly
// created temporary one.
func WithUserDataDir(dir string) LaunchOption {
	return func(l *Launcher) { l.userDataDir = dir }
}

// WithFlag passes an arbitrary "--name" or "--name=value" flag through to
// Chrome.
func WithFlag(name string, value interface{}) LaunchOption {
	return func(l *Launcher) { l.flags[name] = value }
}

// Launcher starts and owns one Chrome process.
type Launcher struct {
	execPath    string
	port        int
	headless    bool
	userDataDir string
	flags       map[string]interface{}

	mu      sync.Mutex
	cmd     *exec.Cmd
	tempDir string
}

// New builds a Launcher; call Start to actually spawn Chrome.
func New(opts ...LaunchOption) *Launcher {
	l := &Launcher{
		port:     9222,
		headless: true,
		flags:    make(map[string]interface{}),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Port reports the configured remote debugging port.
func (l *Launcher) Port() int { return l.port }

// Start resolves the Chrome binary, assembles its command line, and spawns
// the process. The process is tied to ctx: cancelling ctx terminates it.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd != nil {
		return ErrAlreadyStarted
	}

	execPath := l.execPath
	if execPath == "" {
		execPath = lookChrome()
	}
	if execPath == "" {
		return ErrExecNotFound
	}

	if l.userDataDir == "" {
		dir, err := os.MkdirTemp("", fmt.Sprintf("cdpflow-launcher.%d.", os.Getpid()))
		if err != nil {
			return err
		}
		l.userDataDir = dir
		l.tempDir = dir
	}

	args := l.buildArgs()
	l.cmd = exec.CommandContext(ctx, execPath, args...)
	return l.cmd.Start()
}

// buildArgs assembles the Chrome command line from the Launcher's fields
// and any caller-supplied flags, the way runner.Runner.buildOpts does.
func (l *Launcher) buildArgs() []string {
	args := []string{
		"--remote-debugging-port=" + fmt.Sprint(l.port),
		"--user-data-dir=" + l.userDataDir,
		"--no-first-run",
		"--no-default-browser-check",
	}
	if l.headless {
		args = append(args, "--headless=new")
	}
	for name, v := range l.flags {
		if !flagNameRE.MatchString(name) {
			continue
		}
		switch x := v.(type) {
		case bool:
			if x {
				args = append(args, "--"+name)
			}
		case string:
			args = append(args, "--"+name+"="+x)
		default:
			args = append(args, fmt.Sprintf("--%s=%v", name, v))
		}
	}
	return append(args, "about:blank")
}

// Wait blocks until the Chrome process exits.
func (l *Launcher) Wait() error {
	l.mu.Lock()
	cmd := l.cmd
	l.mu.Unlock()
	if cmd == nil {
		return nil
	}
	return cmd.Wait()
}

// Shutdown terminates the process and removes any temporary profile
// directory this Launcher created.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	cmd := l.cmd
	tempDir := l.tempDir
	l.mu.Unlock()

	var err error
	if cmd != nil && cmd.Process != nil {
		err = cmd.Process.Kill()
	}
	if tempDir != "" {
		os.RemoveAll(tempDir)
	}
	return err
}

// lookChrome searches $PATH for the platform's known Chrome/Chromium
// executable names, the way runner.LookChromeNames does.
func lookChrome() string {
	for _, name := range DefaultChromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range []string{
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		filepath.Join("/Applications", "Google Chrome.app", "Contents", "MacOS", "Google Chrome"),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
