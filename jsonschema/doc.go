// Package jsonschema resolves definitions of JSON-Schema-draft-04-like documents
// into typesystem descriptors.
//
// Supported subset: type (a name, or a list with "null"), description, title,
// example, nullable, enum, string/number/array constraints, properties,
// required, additionalProperties, dependencies (property lists), items
// (single or positional), additionalItems, and $ref into the same document's
// definitions. Other keywords are ignored and reported through Resolver.Diag.
//
// Documents ending in .yaml or .yml are decoded as YAML; anything else as JSON.
//
//	r := jsonschema.NewResolver(jsonschema.Options{FS: os.DirFS("schemas")})
//	user := r.Ref("user.json", "user")
//	v, err := typesystem.Validate(ctx, user, input)
package jsonschema
