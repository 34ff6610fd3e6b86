package jsonschema

import (
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	typesystem "github.com/reoring/typesystem"
)

// Resolver loads schema documents and folds their definitions into
// descriptors. Documents and resolved descriptors are cached for the
// lifetime of the Resolver and never invalidated; documents are assumed
// static.
//
// A Resolver is safe for concurrent use. Each document and each
// (file, definition) pair is computed at most once: concurrent first
// lookups of the same key wait for a single computation, while lookups of
// other keys proceed independently.
type Resolver struct {
	fsys   fs.FS
	logger *slog.Logger
	diag   *simpleDiag

	mu    sync.Mutex
	docs  map[string]*docEntry
	types map[typeKey]*typeEntry

	loads       atomic.Int64
	resolutions atomic.Int64
}

type typeKey struct{ file, definition string }

type docEntry struct {
	once sync.Once
	doc  *document
	err  error
}

type typeEntry struct {
	once sync.Once
	t    typesystem.Type
	err  error
}

// Stats reports how much work a Resolver has done.
type Stats struct {
	// DocumentLoads counts documents read and parsed.
	DocumentLoads int64
	// Resolutions counts (file, definition) pairs mapped onto descriptors.
	Resolutions int64
}

// NewResolver returns an empty Resolver.
func NewResolver(opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{
		fsys:   opts.FS,
		logger: opts.Logger,
		diag:   &simpleDiag{},
		docs:   make(map[string]*docEntry),
		types:  make(map[typeKey]*typeEntry),
	}
}

// Resolve returns the descriptor for a definition of file, or for the
// document root when definition is empty. Failures are *typesystem.SchemaError
// and are cached like successes.
func (r *Resolver) Resolve(file, definition string) (typesystem.Type, error) {
	key := typeKey{file: file, definition: definition}
	r.mu.Lock()
	e, ok := r.types[key]
	if !ok {
		e = &typeEntry{}
		r.types[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.t, e.err = r.resolve(file, definition)
	})
	return e.t, e.err
}

// MustResolve is Resolve that panics on error, for package-level declarations.
func (r *Resolver) MustResolve(file, definition string) typesystem.Type {
	t, err := r.Resolve(file, definition)
	if err != nil {
		panic(err)
	}
	return t
}

// Ref returns a descriptor that resolves on first use.
func (r *Resolver) Ref(file, definition string) Ref {
	return Ref{r: r, file: file, definition: definition}
}

// Stats returns a snapshot of the counters.
func (r *Resolver) Stats() Stats {
	return Stats{DocumentLoads: r.loads.Load(), Resolutions: r.resolutions.Load()}
}

// Diag returns the warnings collected so far, such as ignored keywords.
func (r *Resolver) Diag() Diag { return r.diag }

func (r *Resolver) resolve(file, definition string) (typesystem.Type, error) {
	doc, err := r.document(file)
	if err != nil {
		return nil, err
	}
	frag, err := doc.fragment(definition)
	if err != nil {
		return nil, err
	}
	r.resolutions.Add(1)
	where := ""
	var stack []frame
	if definition != "" {
		where = definitionsPrefix[1:] + definition
		stack = []frame{{key: definition}}
	}
	m := &mapper{
		doc:    doc,
		diag:   r.diag,
		logger: r.logger,
		stack:  stack,
		ref:    func(key string) typesystem.Type { return r.Ref(file, key) },
	}
	t, err := m.build(frag, definition, where, "", true)
	if err != nil {
		r.logger.Debug("schema definition rejected", slog.String("file", file), slog.String("definition", definition), slog.Any("error", err))
		return nil, err
	}
	r.logger.Debug("schema definition resolved", slog.String("file", file), slog.String("definition", definition), slog.String("kind", t.Kind().String()))
	return t, nil
}

func (r *Resolver) document(file string) (*document, error) {
	r.mu.Lock()
	e, ok := r.docs[file]
	if !ok {
		e = &docEntry{}
		r.docs[file] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		start := time.Now()
		r.loads.Add(1)
		var n int
		e.doc, n, e.err = loadDocument(r.fsys, file)
		if e.err != nil {
			r.logger.Debug("schema document failed", slog.String("file", file), slog.Any("error", e.err))
			return
		}
		r.logger.Debug("schema document loaded", slog.String("file", file), slog.Int("bytes", n), slog.Duration("duration", time.Since(start)))
	})
	return e.doc, e.err
}
