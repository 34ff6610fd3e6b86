// Package dsl provides the concrete type descriptors of typesystem.
//
// Overview
//   - Factories: String/Number/Integer/Boolean/Enum/Object/Array/Tuple/Union take a required
//     description plus meta overrides (Nullable, Example, ParamName, WithParser, Refine, ...).
//   - Constraints: chain methods on the returned value (MinLength, Maximum, Required, UniqueItems,
//     ...). Every method returns a modified copy; the receiver is never changed.
//   - Derivation: NewType(base, overrides...) builds a descriptor that inherits every constraint of
//     base, for example a nullable variant of a shared type. Derive does the same for values only
//     known as typesystem.Type.
//   - Examples: Example() returns the declared example or synthesizes one that satisfies the
//     descriptor (gofakeit, seeded, for formatted and patterned strings).
//
// Validation order
//   - String: trim, min_length (blank when min_length is 1), max_length, pattern, format (decoded by package codec).
//   - Number/Integer: type, finite, minimum, maximum, multiple_of.
//   - Object: type, additional properties, required, dependencies, properties (sorted by name).
//   - Array: type, positional length, min/max items, elements, uniqueness.
//   - Union: candidates in order; the first success wins.
//
// File layout (roles)
//   - override.go: common metadata, Override options, NewType/Derive.
//   - string.go, number.go, boolean.go, enum.go: scalar descriptors.
//   - object.go, array.go, union.go: composite descriptors.
//   - example.go: example synthesis for strings.
package dsl
