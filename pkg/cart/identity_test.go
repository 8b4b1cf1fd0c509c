package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EquivalentShapes(t *testing.T) {
	const want = "65f1c0ffee0000000000abcd"

	refs := map[string]ItemRef{
		"scalar":      Ref(want),
		"bookId":      ObjectRef(IDFields{BookID: want}),
		"id":          ObjectRef(IDFields{ID: want}),
		"_id":         ObjectRef(IDFields{ObjectID: want}),
		"wrapped":     WrappedRef(Ref(want), IDFields{}),
		"wrapped obj": WrappedRef(ObjectRef(IDFields{ObjectID: want}), IDFields{}),
		"padded":      Ref("  " + want + "\t"),
	}

	for name, ref := range refs {
		t.Run(name, func(t *testing.T) {
			key, ok := Normalize(ref)
			require.True(t, ok)
			assert.Equal(t, want, key)
		})
	}
}

func TestNormalize_FieldPrecedence(t *testing.T) {
	key, ok := Normalize(ObjectRef(IDFields{BookID: "b", ID: "i", ObjectID: "o"}))
	require.True(t, ok)
	assert.Equal(t, "b", key)

	key, ok = Normalize(ObjectRef(IDFields{ID: "i", ObjectID: "o"}))
	require.True(t, ok)
	assert.Equal(t, "i", key)

	// Own fields win over the wrapped reference.
	key, ok = Normalize(WrappedRef(Ref("inner"), IDFields{ID: "outer"}))
	require.True(t, ok)
	assert.Equal(t, "outer", key)
}

func TestNormalize_NumericMatchesString(t *testing.T) {
	fromNumber, ok := Normalize(NumericRef(42))
	require.True(t, ok)
	fromString, ok := Normalize(Ref("42"))
	require.True(t, ok)

	assert.Equal(t, fromString, fromNumber)
}

func TestNormalize_Unresolvable(t *testing.T) {
	cases := map[string]ItemRef{
		"null":          {},
		"empty string":  Ref(""),
		"blank string":  Ref("   "),
		"empty object":  ObjectRef(IDFields{}),
		"double nested": WrappedRef(WrappedRef(Ref("deep"), IDFields{}), IDFields{}),
	}

	for name, ref := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Normalize(ref)
			assert.False(t, ok)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, ref := range []ItemRef{Ref(" abc "), NumericRef(7), WrappedRef(ObjectRef(IDFields{BookID: "zz"}), IDFields{})} {
		first, ok := Normalize(ref)
		require.True(t, ok)
		second, ok := Normalize(Ref(first))
		require.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestParseItemRef(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string", `"book-42"`, "book-42"},
		{"integer", `42`, "42"},
		{"integral float", `42.0`, "42"},
		{"fraction", `4.5`, "4.5"},
		{"bookId", `{"bookId": "zyTCAlFPjgYC", "quantity": 2}`, "zyTCAlFPjgYC"},
		{"numeric id", `{"id": 1001}`, "1001"},
		{"extended oid", `{"_id": {"$oid": "65f1c0ffee0000000000abcd"}}`, "65f1c0ffee0000000000abcd"},
		{"wrapped", `{"book": {"_id": "abc"}}`, "abc"},
		{"wrapped scalar", `{"book": "abc"}`, "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParseItemRef([]byte(tc.body))
			require.NoError(t, err)

			key, ok := Normalize(ref)
			require.True(t, ok)
			assert.Equal(t, tc.want, key)
		})
	}
}

func TestParseItemRef_Null(t *testing.T) {
	for _, body := range []string{"", "  ", "null"} {
		ref, err := ParseItemRef([]byte(body))
		require.NoError(t, err)
		assert.True(t, ref.IsNull())
	}
}

func TestParseItemRef_OnlyOneLevelOfNesting(t *testing.T) {
	ref, err := ParseItemRef([]byte(`{"book": {"book": {"id": "deep"}}}`))
	require.NoError(t, err)

	_, ok := Normalize(ref)
	assert.False(t, ok)
}

func TestParseItemRef_Unsupported(t *testing.T) {
	for _, body := range []string{`[1, 2]`, `true`, `{"book": [1]}`, `{not json`} {
		_, err := ParseItemRef([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestIsNativeKey(t *testing.T) {
	assert.True(t, IsNativeKey("65f1c0ffee0000000000abcd"))
	assert.False(t, IsNativeKey("65F1C0FFEE0000000000ABCD"))
	assert.False(t, IsNativeKey("zyTCAlFPjgYC"))
	assert.False(t, IsNativeKey("42"))
	assert.False(t, IsNativeKey(""))
}
