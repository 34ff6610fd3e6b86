package jsonschema

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Options controls how a Resolver loads schema documents.
type Options struct {
	// FS serves schema documents. Defaults to the OS filesystem, where file
	// names are used as given (relative to the working directory).
	FS fs.FS
	// Logger receives debug records for loads and ignored keywords.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = osFS{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type osFS struct{}

func (osFS) Open(name string) (fs.File, error) { return os.Open(name) }

// Diag carries non-fatal warnings produced while mapping documents, such as
// keywords the engine does not support.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct {
	mu sync.Mutex
	ws []string
}

func (d *simpleDiag) HasWarnings() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ws) > 0
}

func (d *simpleDiag) Warnings() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ws...)
}

func (d *simpleDiag) warnf(f string, a ...any) {
	d.mu.Lock()
	d.ws = append(d.ws, fmt.Sprintf(f, a...))
	d.mu.Unlock()
}
