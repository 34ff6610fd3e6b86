// Package typesystem provides a declarative runtime type/validation engine:
//
//   - Immutable type descriptors (scalars, enums, objects, arrays, unions) behind the Type interface
//   - Coercion of untyped input (decoded JSON or flat request strings) into native Go values
//   - A stable error model: TypeSystemError (constraint), ParserError (malformed flat input) and
//     SchemaError (external schema documents), flattened into Issues with JSON Pointer paths
//
// Design policy:
//   - Keep the shared contract in the root package; concrete descriptors live in dsl/, schema
//     document resolution in jsonschema/, request parameter helpers in params/.
//   - Descriptors hold no per-call state; validation is a pure function of (descriptor, value).
//   - Validation is fail-fast. Unions are the exception and report every candidate failure.
//
// Typical usage:
//
//	age := dsl.Integer("Age in years").Minimum(1).Maximum(120)
//	v, err := typesystem.Validate(ctx, age, 42)
//	v, err = typesystem.ValidateFlat(ctx, age, "42")
package typesystem
