package typesystem

import (
	"strconv"
	"strings"
)

// FieldPointer returns the JSON Pointer of a single object member.
func FieldPointer(name string) string {
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return "/" + esc
}

// IndexPointer returns the JSON Pointer of a single array element.
func IndexPointer(i int) string { return "/" + strconv.Itoa(i) }

// JoinPointer prefixes p with base. Both are JSON Pointers; "" and "/" denote
// the root.
func JoinPointer(base, p string) string {
	if base == "" || base == "/" {
		return pointerOrRoot(p)
	}
	if p == "" || p == "/" {
		return base
	}
	if p[0] != '/' {
		return base + "/" + p
	}
	return base + p
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// RebaseError prefixes the path of a child failure with the child's pointer.
// A *SchemaError is returned unchanged. Errors outside the taxonomy are reported as a custom TypeSystemError so the
// location is never lost.
func RebaseError(err error, prefix string) error {
	if err == nil {
		return nil
	}
	// schema failures are not located in the value
	if _, ok := AsSchemaError(err); ok {
		return err
	}
	if te, ok := AsTypeSystemError(err); ok {
		return te.Rebase(prefix)
	}
	if pe, ok := AsParserError(err); ok {
		return pe.Rebase(prefix)
	}
	return &TypeSystemError{Path: pointerOrRoot(prefix), Code: CodeCustom, Message: err.Error(), Cause: err}
}
