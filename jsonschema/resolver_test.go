package jsonschema_test

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	typesystem "github.com/reoring/typesystem"
	"github.com/reoring/typesystem/dsl"
	"github.com/reoring/typesystem/jsonschema"
)

const annotationJSON = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "description": "An annotation on a document.",
  "type": "object",
  "definitions": {
    "annotation_id": {
      "description": "Auto-increment ID.",
      "example": 1,
      "type": "integer",
      "minimum": 1
    },
    "name": {
      "description": "Display name.",
      "type": "string",
      "minLength": 1,
      "maxLength": 20,
      "x-internal": true
    },
    "kind": {
      "description": "Annotation kind.",
      "type": "string",
      "enum": ["note", "highlight"]
    },
    "score": {
      "description": "Relevance score.",
      "type": ["number", "null"],
      "minimum": 0,
      "exclusiveMinimum": true,
      "maximum": 1
    },
    "tags": {
      "description": "Tags.",
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z]+$"},
      "uniqueItems": true,
      "maxItems": 3
    },
    "point": {
      "description": "A coordinate pair.",
      "type": "array",
      "items": [{"type": "number"}, {"type": "number"}]
    },
    "annotation": {
      "description": "An annotation.",
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "annotation_id": {"$ref": "#/definitions/annotation_id"},
        "name": {"$ref": "#/definitions/name"},
        "kind": {"$ref": "#/definitions/kind"},
        "is_public": {"type": "boolean"},
        "url": {"type": "string", "format": "uri", "description": "Link."}
      },
      "required": ["annotation_id", "name"],
      "dependencies": {"is_public": ["url"]}
    },
    "node": {
      "description": "A tree node.",
      "type": "object",
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "children": {"type": "array", "items": {"$ref": "#/definitions/node"}}
      },
      "required": ["name"]
    },
    "loop": {"description": "Loops.", "$ref": "#/definitions/loop"},
    "ping": {"description": "Ping.", "$ref": "#/definitions/pong"},
    "pong": {"description": "Pong.", "$ref": "#/definitions/ping"},
    "remote": {"description": "Elsewhere.", "$ref": "other.json#/definitions/x"},
    "weird": {"description": "No such kind.", "type": "file"},
    "undocumented": {"type": "string"}
  },
  "properties": {
    "annotation": {"$ref": "#/definitions/annotation"}
  }
}`

const annotationYAML = `
description: A YAML document.
type: object
definitions:
  color:
    description: A color.
    type: string
    enum: [red, green]
  age:
    description: Age in years.
    type: integer
    minimum: 0
    maximum: 150
properties:
  color:
    $ref: '#/definitions/color'
required: [color]
`

// countingFS counts Open calls per file and slows them down so concurrent
// first lookups overlap.
type countingFS struct {
	fs.FS
	mu    sync.Mutex
	opens map[string]int
	delay time.Duration
}

func newCountingFS(files fstest.MapFS) *countingFS {
	return &countingFS{FS: files, opens: map[string]int{}}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	c.opens[name]++
	c.mu.Unlock()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.FS.Open(name)
}

func (c *countingFS) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[name]
}

func newResolver(fsys fs.FS) *jsonschema.Resolver {
	return jsonschema.NewResolver(jsonschema.Options{
		FS:     fsys,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func files() fstest.MapFS {
	return fstest.MapFS{
		"annotation.json": {Data: []byte(annotationJSON)},
		"colors.yaml":     {Data: []byte(annotationYAML)},
		"broken.json":     {Data: []byte(`{"type": `)},
	}
}

func TestResolve_ScalarDefinitions(t *testing.T) {
	ctx := context.Background()
	r := newResolver(files())

	id, err := r.Resolve("annotation.json", "annotation_id")
	require.NoError(t, err)
	assert.Equal(t, typesystem.KindInteger, id.Kind())
	assert.Equal(t, "Auto-increment ID.", id.Meta().Description)
	assert.Equal(t, float64(1), id.Example())
	_, err = id.Validate(ctx, 0)
	assert.Error(t, err)
	v, err := id.Validate(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	name, err := r.Resolve("annotation.json", "name")
	require.NoError(t, err)
	rules := name.(dsl.StringType).Rules()
	require.NotNil(t, rules.MinLength)
	assert.Equal(t, 1, *rules.MinLength)
	assert.Equal(t, 20, *rules.MaxLength)

	kind, err := r.Resolve("annotation.json", "kind")
	require.NoError(t, err)
	assert.Equal(t, typesystem.KindEnum, kind.Kind())
	assert.Equal(t, "note", kind.Example())

	score, err := r.Resolve("annotation.json", "score")
	require.NoError(t, err)
	assert.True(t, score.Meta().Nullable)
	_, err = score.Validate(ctx, 0)
	assert.Error(t, err)
	v, err = score.Validate(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, float64(1), score.Example())
}

func TestResolve_Arrays(t *testing.T) {
	ctx := context.Background()
	r := newResolver(files())

	tags, err := r.Resolve("annotation.json", "tags")
	require.NoError(t, err)
	_, err = tags.Validate(ctx, []any{"a", "a"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeNotUnique, te.Code)
	_, err = tags.Validate(ctx, []any{"A"})
	assert.Error(t, err)
	_, err = tags.Validate(ctx, []any{"a", "b", "c", "d"})
	assert.Error(t, err)

	point, err := r.Resolve("annotation.json", "point")
	require.NoError(t, err)
	v, err := point.Validate(ctx, []any{1, "2.5"})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, v)
	_, err = point.Validate(ctx, []any{1, 2, 3})
	assert.Error(t, err)
}

func TestResolve_ObjectWithRefs(t *testing.T) {
	ctx := context.Background()
	r := newResolver(files())

	ann, err := r.Resolve("annotation.json", "annotation")
	require.NoError(t, err)
	assert.Equal(t, typesystem.KindObject, ann.Kind())

	v, err := ann.Validate(ctx, map[string]any{"annotation_id": 3, "name": "x", "kind": "note"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.(map[string]any)["annotation_id"])

	_, err = ann.Validate(ctx, map[string]any{"annotation_id": 0, "name": "x"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "/annotation_id", te.Path)

	_, err = ann.Validate(ctx, map[string]any{"annotation_id": 1, "name": "x", "extra": 1})
	te, ok = typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeUnknownKey, te.Code)

	_, err = ann.Validate(ctx, map[string]any{"annotation_id": 1, "name": "x", "is_public": true})
	te, ok = typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeDependencyMissing, te.Code)

	// nested fragments without a description fall back to the property name
	obj := ann.(dsl.ObjectType)
	pub, ok := obj.PropertyType("is_public")
	require.True(t, ok)
	assert.Equal(t, "is_public", pub.Meta().Description)

	ex := ann.Example().(map[string]any)
	assert.Equal(t, float64(1), ex["annotation_id"])
}

func TestResolve_Root(t *testing.T) {
	r := newResolver(files())
	root, err := r.Resolve("annotation.json", "")
	require.NoError(t, err)
	assert.Equal(t, "An annotation on a document.", root.Meta().Description)

	// the resolved descriptor composes like a native one
	wrapper := dsl.Array("Annotations", root)
	_, err = wrapper.Validate(context.Background(), []any{map[string]any{"annotation": map[string]any{"name": "x"}}})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "/0/annotation/annotation_id", te.Path)
	assert.Equal(t, typesystem.CodeRequired, te.Code)
}

func TestResolve_YAML(t *testing.T) {
	r := newResolver(files())
	color, err := r.Resolve("colors.yaml", "color")
	require.NoError(t, err)
	assert.Equal(t, typesystem.KindEnum, color.Kind())

	age, err := r.Resolve("colors.yaml", "age")
	require.NoError(t, err)
	_, err = age.Validate(context.Background(), 151)
	assert.Error(t, err)

	root, err := r.Resolve("colors.yaml", "")
	require.NoError(t, err)
	_, err = root.Validate(context.Background(), map[string]any{})
	assert.Equal(t, typesystem.CodeRequired, mustTSE(t, err).Code)
}

func mustTSE(t *testing.T, err error) *typesystem.TypeSystemError {
	t.Helper()
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok, "expected TypeSystemError, got %v", err)
	return te
}

func TestResolve_SchemaErrors(t *testing.T) {
	r := newResolver(files())
	cases := []struct {
		file, def string
	}{
		{"missing.json", ""},
		{"broken.json", ""},
		{"annotation.json", "nope"},
		{"annotation.json", "loop"},
		{"annotation.json", "ping"},
		{"annotation.json", "remote"},
		{"annotation.json", "weird"},
		{"annotation.json", "undocumented"},
	}
	for _, c := range cases {
		_, err := r.Resolve(c.file, c.def)
		se, ok := typesystem.AsSchemaError(err)
		require.True(t, ok, "%s#%s: %v", c.file, c.def, err)
		assert.Equal(t, c.file, se.File)
	}
}

func TestResolve_RecursiveDefinition(t *testing.T) {
	r := newResolver(files())
	ctx := context.Background()
	node, err := r.Resolve("annotation.json", "node")
	require.NoError(t, err)

	tree := map[string]any{
		"name": "root",
		"children": []any{
			map[string]any{"name": "a", "children": []any{map[string]any{"name": "a1"}}},
			map[string]any{"name": "b"},
		},
	}
	v, err := node.Validate(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, tree, v)

	bad := map[string]any{
		"name":     "root",
		"children": []any{map[string]any{"name": "a", "children": []any{map[string]any{"name": ""}}}},
	}
	_, err = node.Validate(ctx, bad)
	assert.Equal(t, "/children/0/children/0/name", mustTSE(t, err).Path)

	ex, ok := node.Example().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, ex["children"])
	_, err = node.Validate(ctx, ex)
	assert.NoError(t, err)
}

func TestResolve_IgnoredKeywordsAreReported(t *testing.T) {
	r := newResolver(files())
	_, err := r.Resolve("annotation.json", "name")
	require.NoError(t, err)
	require.True(t, r.Diag().HasWarnings())
	assert.Contains(t, r.Diag().Warnings()[0], "x-internal")
}

func TestResolve_UnsupportedFormatListsKnownFormats(t *testing.T) {
	r := newResolver(fstest.MapFS{"host.json": {Data: []byte(`{"definitions": {
		"host": {"description": "Host name.", "type": "string", "format": "hostname"}
	}}`)}})
	h, err := r.Resolve("host.json", "host")
	require.NoError(t, err)

	v, err := h.Validate(context.Background(), "not a hostname!")
	require.NoError(t, err)
	assert.Equal(t, "not a hostname!", v)

	require.True(t, r.Diag().HasWarnings())
	w := r.Diag().Warnings()[0]
	assert.Contains(t, w, `"hostname"`)
	assert.Contains(t, w, "date-time")
	assert.Contains(t, w, "email")
}

func TestResolve_CachesDocumentAndDefinition(t *testing.T) {
	cfs := newCountingFS(files())
	r := newResolver(cfs)

	a, err := r.Resolve("annotation.json", "name")
	require.NoError(t, err)
	b, err := r.Resolve("annotation.json", "name")
	require.NoError(t, err)
	assert.Equal(t, a.(dsl.StringType).Rules(), b.(dsl.StringType).Rules())

	_, err = r.Resolve("annotation.json", "kind")
	require.NoError(t, err)

	assert.Equal(t, 1, cfs.count("annotation.json"))
	assert.Equal(t, jsonschema.Stats{DocumentLoads: 1, Resolutions: 2}, r.Stats())
}

func TestResolve_ConcurrentFirstAccess(t *testing.T) {
	cfs := newCountingFS(files())
	cfs.delay = 20 * time.Millisecond
	r := newResolver(cfs)

	const n = 32
	var wg sync.WaitGroup
	var failures atomic.Int64
	results := make([]typesystem.Type, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			def := "annotation"
			if i%2 == 1 {
				def = "tags"
			}
			typ, err := r.Resolve("annotation.json", def)
			if err != nil {
				failures.Add(1)
				return
			}
			results[i] = typ
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Zero(t, failures.Load())
	assert.Equal(t, 1, cfs.count("annotation.json"))
	assert.Equal(t, int64(1), r.Stats().DocumentLoads)
	assert.Equal(t, int64(2), r.Stats().Resolutions)
	for i := 2; i < n; i++ {
		assert.Equal(t, results[i%2], results[i])
	}
}

func TestRef_LazyResolution(t *testing.T) {
	cfs := newCountingFS(files())
	r := newResolver(cfs)

	ref := r.Ref("annotation.json", "annotation_id")
	assert.Equal(t, 0, cfs.count("annotation.json"))

	o := dsl.Object("Wrapper").Property("id", ref).Required("id")
	_, err := o.Validate(context.Background(), map[string]any{"id": 0})
	assert.Equal(t, "/id", mustTSE(t, err).Path)
	assert.Equal(t, 1, cfs.count("annotation.json"))

	assert.Equal(t, typesystem.KindInteger, ref.Kind())
	assert.Equal(t, "Auto-increment ID.", ref.Meta().Description)

	nullable := dsl.Derive(ref, dsl.Nullable())
	v, err := nullable.Validate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRef_ValidateReportsSchemaError(t *testing.T) {
	r := newResolver(files())
	_, err := r.Ref("annotation.json", "nope").Validate(context.Background(), 1)
	_, ok := typesystem.AsSchemaError(err)
	assert.True(t, ok)
	assert.Panics(t, func() { r.Ref("annotation.json", "nope").Kind() })
}

func TestRef_BrokenCandidateIsSchemaError(t *testing.T) {
	r := newResolver(files())
	ctx := context.Background()
	nope := r.Ref("annotation.json", "nope")

	u := dsl.Union("Broken or id.", []typesystem.Type{nope, dsl.Integer("An id.")})
	assert.Equal(t, []string{"integer"}, typesystem.AllowedKinds(u))

	var err error
	require.NotPanics(t, func() { _, err = u.Validate(ctx, 5) })
	se, ok := typesystem.AsSchemaError(err)
	require.True(t, ok, "got %T %v", err, err)
	assert.Equal(t, "nope", se.Definition)

	require.NotPanics(t, func() { _, err = typesystem.ValidateFlat(ctx, u, "5") })
	_, ok = typesystem.AsSchemaError(err)
	assert.True(t, ok, "got %T %v", err, err)
}

func TestRef_BrokenChildIsNotRecoded(t *testing.T) {
	r := newResolver(files())
	ctx := context.Background()
	nope := r.Ref("annotation.json", "nope")

	cases := map[string]struct {
		typ typesystem.Type
		in  any
	}{
		"object": {dsl.Object("Holder.").Property("id", nope), map[string]any{"id": 1}},
		"array":  {dsl.Array("List.", nope), []any{1}},
		"union member": {
			dsl.Union("Id or holder.", []typesystem.Type{dsl.Integer("An id."), dsl.Object("Holder.").Property("id", nope)}),
			map[string]any{"id": 1},
		},
	}
	for name, c := range cases {
		_, err := c.typ.Validate(ctx, c.in)
		_, ok := typesystem.AsSchemaError(err)
		assert.True(t, ok, "%s: got %T %v", name, err, err)
		_, ok = typesystem.AsTypeSystemError(err)
		assert.False(t, ok, name)
	}
}

func TestRef_FlatInput(t *testing.T) {
	r := newResolver(files())
	v, err := typesystem.ValidateFlat(context.Background(), r.Ref("annotation.json", "tags"), `["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
}
