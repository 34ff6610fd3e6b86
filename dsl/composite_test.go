package dsl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	typesystem "github.com/reoring/typesystem"
	g "github.com/reoring/typesystem/dsl"
)

func friend() g.ObjectType {
	return g.Object("A friend").
		Property("name", g.String("Name").MinLength(1)).
		Property("type", g.Enum("Relationship", []string{"Friend", "Family"})).
		Property("is_primary", g.Boolean("Primary contact")).
		Property("age", g.Integer("Age").Minimum(0)).
		Required("name").
		DependsOn("type", "is_primary")
}

func TestObject_PropertyDependencies(t *testing.T) {
	ctx := context.Background()
	o := friend()

	_, err := o.Validate(ctx, map[string]any{"name": "x", "type": "Friend"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeDependencyMissing, te.Code)
	assert.Equal(t, "/type", te.Path)
	assert.Equal(t, "is_primary", te.Hint)
	assert.Contains(t, te.Message, "`type`")

	in := map[string]any{"name": "x", "type": "Friend", "is_primary": true}
	v, err := o.Validate(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, v)
}

func TestObject_RequiredBeforeDependencies(t *testing.T) {
	_, err := friend().Validate(context.Background(), map[string]any{"type": "Friend"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeRequired, te.Code)
	assert.Equal(t, "/name", te.Path)
	assert.Equal(t, "/name: This field is required.", err.Error())
}

func TestObject_AdditionalProperties(t *testing.T) {
	ctx := context.Background()

	v, err := friend().Validate(ctx, map[string]any{"name": "x", "extra": []int{1}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, v.(map[string]any)["extra"])

	_, err = friend().AdditionalProperties(false).Validate(ctx, map[string]any{"name": "x", "extra": 1})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeUnknownKey, te.Code)
	assert.Equal(t, "/extra", te.Path)
	assert.Contains(t, te.Message, "extra not in [age, is_primary, name, type]")
}

func TestObject_ChildFailureCarriesPath(t *testing.T) {
	_, err := friend().Validate(context.Background(), map[string]any{"name": "x", "age": -1})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeTooSmall, te.Code)
	assert.Equal(t, "/age", te.Path)
	assert.Equal(t, "Age", te.Type)
}

func TestObject_NestedPaths(t *testing.T) {
	address := g.Object("Address").Property("zip", g.String("Zip").Pattern(`^\d{5}$`))
	person := g.Object("Person").Property("addresses", g.Array("Addresses", address))

	_, err := person.Validate(context.Background(), map[string]any{
		"addresses": []any{map[string]any{"zip": "12345"}, map[string]any{"zip": "x"}},
	})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "/addresses/1/zip", te.Path)
	assert.Equal(t, typesystem.CodePattern, te.Code)
}

func TestObject_CoercesChildren(t *testing.T) {
	v, err := friend().Validate(context.Background(), map[string]string{"name": "x", "age": "41"})
	require.NoError(t, err)
	assert.Equal(t, int64(41), v.(map[string]any)["age"])
}

func TestObject_StructInput(t *testing.T) {
	type input struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	v, err := friend().Validate(context.Background(), input{Name: "x", Age: 3})
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, "x", m["name"])
	assert.Equal(t, int64(3), m["age"])
}

func TestObject_RejectsNonMapping(t *testing.T) {
	for _, in := range []any{"x", 1, []any{}, map[int]any{1: 1}} {
		_, err := friend().Validate(context.Background(), in)
		te, ok := typesystem.AsTypeSystemError(err)
		require.True(t, ok, "%#v", in)
		assert.Equal(t, typesystem.CodeInvalidType, te.Code)
		assert.Equal(t, "Must be a valid object.", te.Message)
	}
}

func TestObject_RefineRunsAfterStructure(t *testing.T) {
	rng := g.Object("Range", g.Refine(func(_ context.Context, v any) error {
		m := v.(map[string]any)
		if m["lo"].(int64) > m["hi"].(int64) {
			return &typesystem.TypeSystemError{Path: "/lo", Code: "range", Message: "lo must not exceed hi"}
		}
		return nil
	})).
		Property("lo", g.Integer("Low")).
		Property("hi", g.Integer("High")).
		Required("lo", "hi")

	_, err := rng.Validate(context.Background(), map[string]any{"lo": 1})
	assert.Equal(t, typesystem.CodeRequired, code(t, err))

	_, err = rng.Validate(context.Background(), map[string]any{"lo": 5, "hi": "2"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "range", te.Code)
	assert.Equal(t, "Range", te.Type)
}

func TestArray_UniqueItems(t *testing.T) {
	ctx := context.Background()
	a := g.Array("Tags", g.String("Tag")).UniqueItems(true)

	_, err := a.Validate(ctx, []any{"a", "a"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeNotUnique, te.Code)
	assert.Equal(t, "/1", te.Path)
	assert.Equal(t, "a", te.Params["value"])

	v, err := a.Validate(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	// duplicates are detected after coercion
	_, err = g.Array("Ids", g.Integer("Id")).UniqueItems(true).Validate(ctx, []any{"1", 1})
	assert.Equal(t, typesystem.CodeNotUnique, code(t, err))
}

func TestArray_Bounds(t *testing.T) {
	ctx := context.Background()
	a := g.Array("Tags", g.String("Tag")).MinItems(1).MaxItems(2)

	_, err := a.Validate(ctx, []any{})
	assert.Equal(t, typesystem.CodeTooFewItems, code(t, err))
	_, err = a.Validate(ctx, []any{"a", "b", "c"})
	assert.Equal(t, typesystem.CodeTooManyItems, code(t, err))
	_, err = a.Validate(ctx, "a")
	assert.Equal(t, typesystem.CodeInvalidType, code(t, err))
}

func TestArray_ElementFailureCarriesIndex(t *testing.T) {
	_, err := g.Array("Ids", g.Integer("Id")).Validate(context.Background(), []any{1, 2, "x"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "/2", te.Path)
	assert.Equal(t, typesystem.CodeInvalidType, te.Code)
}

func TestArray_Positional(t *testing.T) {
	ctx := context.Background()
	pair := g.Tuple("Point", []typesystem.Type{g.Number("X"), g.String("Label")})

	v, err := pair.Validate(ctx, []any{"1.5", "a"})
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, "a"}, v)

	_, err = pair.Validate(ctx, []any{1.5})
	assert.Equal(t, typesystem.CodeTooFewItems, code(t, err))

	_, err = pair.Validate(ctx, []any{1.5, "a", true})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeAdditionalItems, te.Code)
	assert.Equal(t, "/2", te.Path)

	v, err = pair.AdditionalItems(true).Validate(ctx, []any{1.5, "a", true})
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, "a", true}, v)
}

func TestArray_PositionalUniquenessCoversExtras(t *testing.T) {
	a := g.Tuple("Pair", []typesystem.Type{g.Integer("A")}).AdditionalItems(true).UniqueItems(true)
	_, err := a.Validate(context.Background(), []any{"1", int64(1)})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeNotUnique, te.Code)
	assert.Equal(t, "/1", te.Path)
}

func TestUnion_FirstMatchWins(t *testing.T) {
	ctx := context.Background()
	startsS := g.String("Starts with S").Pattern(`^S`)
	startsT := g.String("Starts with T").Pattern(`^T`)
	u := g.Union("S or T", []typesystem.Type{startsS, startsT})

	v, err := u.Validate(ctx, "Start")
	require.NoError(t, err)
	assert.Equal(t, "Start", v)

	v, err = u.Validate(ctx, "Try")
	require.NoError(t, err)
	assert.Equal(t, "Try", v)

	_, err = u.Validate(ctx, "Other")
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeUnionNoMatch, te.Code)
	assert.Equal(t, "Value is not one of [Starts with S, Starts with T].", te.Message)
	require.Len(t, te.Candidates, 2)
	assert.Equal(t, "Starts with S", te.Candidates[0].Type)
	assert.Equal(t, "Starts with T", te.Candidates[1].Type)
	assert.Equal(t, typesystem.CodePattern, te.Candidates[1].Code)

	iss := te.Issues()
	require.Len(t, iss, 3)
	assert.Equal(t, typesystem.CodeUnionNoMatch, iss[0].Code)
	assert.Equal(t, typesystem.CodePattern, iss[2].Code)
}

func TestUnion_Empty(t *testing.T) {
	_, err := g.Union("nothing", nil).Validate(context.Background(), 1)
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, typesystem.CodeUnionNoMatch, te.Code)
	assert.Empty(t, te.Candidates)
}

func TestUnion_NestedCandidatePath(t *testing.T) {
	u := g.Union("id or list", []typesystem.Type{g.Integer("Id"), g.Array("Ids", g.Integer("Id"))})
	o := g.Object("Query").Property("ids", u)

	v, err := o.Validate(context.Background(), map[string]any{"ids": []any{"1", 2}})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, v.(map[string]any)["ids"])

	_, err = o.Validate(context.Background(), map[string]any{"ids": []any{"x"}})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "/ids", te.Path)
	iss := te.Issues()
	assert.Equal(t, "/ids/0", iss[len(iss)-1].Path)
}

func TestIdempotence(t *testing.T) {
	ctx := context.Background()
	o := friend().
		Property("tags", g.Array("Tags", g.String("Tag")).UniqueItems(true)).
		Property("born", g.String("Birthday").Format(g.FormatDate))
	in := map[string]any{"name": " x ", "type": "Friend", "is_primary": "on", "age": "3", "tags": []string{"a"}, "born": "2000-01-02"}

	first, err := o.Validate(ctx, in)
	require.NoError(t, err)
	second, err := o.Validate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChildFailure_NotTypeSystemError(t *testing.T) {
	boom := errors.New("boom")
	o := g.Object("o").Property("a", g.String("a", g.Refine(func(context.Context, any) error { return boom })))
	_, err := o.Validate(context.Background(), map[string]any{"a": "x"})
	te, ok := typesystem.AsTypeSystemError(err)
	require.True(t, ok)
	assert.Equal(t, "/a", te.Path)
	assert.ErrorIs(t, err, boom)
}
