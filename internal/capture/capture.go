// Package capture grabs frames of the game window for the detection loop.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"relicscan/internal/frame"
)

// ErrCapture wraps every failure to produce a frame. The cycle is skipped.
var ErrCapture = errors.New("capture failed")

// Source produces frames on demand.
type Source interface {
	Capture(ctx context.Context) (*frame.Frame, error)
	// Origin is the screen position of the captured area's top-left corner.
	Origin() image.Point
	Close() error
}

// FileSource re-reads one image file on every capture. Used for replays
// and tests.
type FileSource struct {
	Path   string
	Offset image.Point
}

// Capture loads the file.
func (s *FileSource) Capture(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	f, err := frame.Load(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return f, nil
}

// Origin returns the configured offset.
func (s *FileSource) Origin() image.Point { return s.Offset }

// Close is a no-op.
func (s *FileSource) Close() error { return nil }

// FilePlaceholder is replaced by the output path in custom commands.
const FilePlaceholder = "{file}"

// CommandOptions configures a CommandSource.
type CommandOptions struct {
	// Tool is one of "import", "scrot" or "gnome-screenshot". Empty picks
	// the first one installed.
	Tool string
	// Window is passed to ImageMagick's import -window; empty means the
	// whole screen.
	Window string
	// Command overrides Tool with an explicit argv. FilePlaceholder marks
	// where the screenshot must be written.
	Command []string
	// Offset is reported by Origin.
	Offset image.Point
}

// CommandSource shells out to a screenshot tool and decodes its output.
type CommandSource struct {
	argv    []string
	tempDir string
	offset  image.Point
}

// NewCommandSource resolves the screenshot tool and prepares a private temp
// directory for its output.
func NewCommandSource(opts CommandOptions) (*CommandSource, error) {
	argv := opts.Command
	if len(argv) == 0 {
		tool := opts.Tool
		if tool == "" {
			tool = detectTool(opts.Window != "")
			if tool == "" {
				return nil, fmt.Errorf("%w: no screenshot tool found (install imagemagick, scrot or gnome-screenshot)", ErrCapture)
			}
		}
		var err error
		argv, err = toolArgs(tool, opts.Window)
		if err != nil {
			return nil, err
		}
	}
	if !containsPlaceholder(argv) {
		return nil, fmt.Errorf("capture command %q does not mention %s", strings.Join(argv, " "), FilePlaceholder)
	}

	tmpDir, err := os.MkdirTemp("", "relicscan-capture-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &CommandSource{argv: argv, tempDir: tmpDir, offset: opts.Offset}, nil
}

func detectTool(window bool) string {
	order := []string{"gnome-screenshot", "scrot", "import"}
	if window {
		// Only import can target a single window.
		order = []string{"import"}
	}
	for _, t := range order {
		if _, err := exec.LookPath(t); err == nil {
			return t
		}
	}
	return ""
}

func toolArgs(tool, window string) ([]string, error) {
	switch tool {
	case "import":
		if window == "" {
			window = "root"
		}
		return []string{"import", "-window", window, FilePlaceholder}, nil
	case "scrot":
		return []string{"scrot", "-o", FilePlaceholder}, nil
	case "gnome-screenshot":
		return []string{"gnome-screenshot", "-f", FilePlaceholder}, nil
	default:
		return nil, fmt.Errorf("unknown screenshot tool %q", tool)
	}
}

func containsPlaceholder(argv []string) bool {
	for _, a := range argv {
		if strings.Contains(a, FilePlaceholder) {
			return true
		}
	}
	return false
}

// Capture runs the tool and loads the image it wrote.
func (s *CommandSource) Capture(ctx context.Context) (*frame.Frame, error) {
	tmpFile := filepath.Join(s.tempDir, "screenshot.png")
	args := make([]string, len(s.argv))
	for i, a := range s.argv {
		args[i] = strings.ReplaceAll(a, FilePlaceholder, tmpFile)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screenshot failed", "tool", args[0], "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil, fmt.Errorf("%w: %s: %v", ErrCapture, args[0], err)
	}
	defer os.Remove(tmpFile)

	f, err := frame.Load(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return f, nil
}

// Origin returns the configured screen offset.
func (s *CommandSource) Origin() image.Point { return s.offset }

// Close removes the temp directory.
func (s *CommandSource) Close() error {
	if s.tempDir == "" {
		return nil
	}
	return os.RemoveAll(s.tempDir)
}
