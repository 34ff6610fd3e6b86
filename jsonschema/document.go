package jsonschema

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	typesystem "github.com/reoring/typesystem"
)

const definitionsPrefix = "#/definitions/"

// document is a parsed schema file. It is immutable once loaded.
type document struct {
	file string
	root map[string]any
	defs map[string]any
}

func loadDocument(fsys fs.FS, file string) (*document, int, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, 0, &typesystem.SchemaError{File: file, Message: "cannot read document", Cause: err}
	}
	root, err := decodeDocument(file, data)
	if err != nil {
		return nil, len(data), &typesystem.SchemaError{File: file, Message: "cannot parse document", Cause: err}
	}
	d := &document{file: file, root: root}
	if raw, ok := root["definitions"]; ok {
		defs, ok := raw.(map[string]any)
		if !ok {
			return nil, len(data), &typesystem.SchemaError{File: file, Message: "definitions must be an object"}
		}
		d.defs = defs
	}
	return d, len(data), nil
}

// decodeDocument decodes YAML for .yaml/.yml files and JSON otherwise.
func decodeDocument(file string, data []byte) (map[string]any, error) {
	switch strings.ToLower(path.Ext(file)) {
	case ".yaml", ".yml":
		var node any
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		m := yamlAnyToStringMap(node)
		if m == nil {
			return nil, errors.New("document root must be a mapping")
		}
		return m, nil
	default:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.New("document root must be an object")
		}
		return m, nil
	}
}

// fragment returns the definition named key, or the root when key is empty.
func (d *document) fragment(key string) (map[string]any, error) {
	if key == "" {
		return d.root, nil
	}
	raw, ok := d.defs[key]
	if !ok {
		return nil, &typesystem.SchemaError{File: d.file, Definition: key, Message: "definition not found"}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &typesystem.SchemaError{File: d.file, Definition: key, Message: "definition must be an object"}
	}
	return m, nil
}

// definitionFor maps a $ref onto a definition key. Only references into the
// same document's definitions are supported.
func (d *document) definitionFor(ref string) (string, error) {
	if !strings.HasPrefix(ref, definitionsPrefix) {
		return "", fmt.Errorf("$ref %q not supported (local definitions only)", ref)
	}
	key := strings.TrimPrefix(ref, definitionsPrefix)
	key = strings.ReplaceAll(strings.ReplaceAll(key, "~1", "/"), "~0", "~")
	if key == "" {
		return "", fmt.Errorf("$ref %q has an empty definition name", ref)
	}
	return key, nil
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain
// map[any]any) into JSON-like map[string]any recursively. Non-map roots
// return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = yamlNormalizeValue(t[i])
		}
		return out
	default:
		return v
	}
}
