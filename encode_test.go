package rowbind

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BindValue(t *testing.T) {
	three := int32(3)

	testCases := []struct {
		name             string
		input            any
		expect           Value
		expectErrToMatch []error
	}{
		{
			name:   "nil",
			input:  nil,
			expect: Null(),
		},
		{
			name:   "bool true",
			input:  true,
			expect: Integer(1),
		},
		{
			name:   "bool false",
			input:  false,
			expect: Integer(0),
		},
		{
			name:   "int8",
			input:  int8(0),
			expect: Integer(0),
		},
		{
			name:   "int16",
			input:  int16(-9881),
			expect: Integer(-9881),
		},
		{
			name:   "int64",
			input:  int64(-18968298731236),
			expect: Integer(-18968298731236),
		},
		{
			name:   "uint32",
			input:  uint32(98172983),
			expect: Integer(98172983),
		},
		{
			name:   "u64 in signed range",
			input:  uint64(math.MaxInt64),
			expect: Integer(math.MaxInt64),
		},
		{
			name:             "u64 beyond signed range",
			input:            uint64(math.MaxUint64),
			expectErrToMatch: []error{ErrIntegralOverflow},
		},
		{
			name:   "float64",
			input:  float64(-54.7612),
			expect: Real(-54.7612),
		},
		{
			name:   "float32 widened",
			input:  float32(0.5),
			expect: Real(0.5),
		},
		{
			name:   "positive infinity",
			input:  math.Inf(1),
			expect: Real(math.Inf(1)),
		},
		{
			name:   "NaN collapses to null",
			input:  math.NaN(),
			expect: Null(),
		},
		{
			name:   "string",
			input:  "first name",
			expect: Text("first name"),
		},
		{
			name:   "byte slice",
			input:  []byte{5, 10, 15},
			expect: Blob([]byte{5, 10, 15}),
		},
		{
			name:   "nil byte slice is an empty blob",
			input:  []byte(nil),
			expect: Blob([]byte{}),
		},
		{
			name:   "byte array",
			input:  [3]byte{1, 2, 3},
			expect: Blob([]byte{1, 2, 3}),
		},
		{
			name:             "int slice has no single-column form",
			input:            []int{1, 2},
			expectErrToMatch: []error{ErrOnlyByteSequences},
		},
		{
			name:   "unit",
			input:  struct{}{},
			expect: Null(),
		},
		{
			name:   "marker struct stores its type name",
			input:  marker{},
			expect: Text("marker"),
		},
		{
			name:   "enum variant stores its name",
			input:  genderF,
			expect: Text("F"),
		},
		{
			name:   "nil pointer is null",
			input:  (*int64)(nil),
			expect: Null(),
		},
		{
			name:   "pointer binds its element",
			input:  &three,
			expect: Integer(3),
		},
		{
			name:   "uuid goes through driver.Valuer",
			input:  uuid.MustParse("12345678-1234-5678-1234-567812345678"),
			expect: Text("12345678-1234-5678-1234-567812345678"),
		},
		{
			name:   "time is RFC 3339 text",
			input:  time.Date(2009, 4, 13, 16, 13, 1, 0, time.UTC),
			expect: Text("2009-04-13T16:13:01Z"),
		},
		{
			name:             "struct with fields",
			input:            struct{ X int }{1},
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
		{
			name:             "channel",
			input:            make(chan int),
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := BindValue(tc.input)

			if tc.expectErrToMatch == nil {
				if !assert.NoError(err) {
					return
				}
				assert.True(tc.expect.Equal(actual), "got %s, want %s", actual, tc.expect)
			} else {
				if !assert.Error(err) {
					return
				}
				for _, expectMatch := range tc.expectErrToMatch {
					assert.ErrorIs(err, expectMatch)
				}
			}
		})
	}
}

func Test_ToParams(t *testing.T) {
	testCases := []struct {
		name             string
		input            any
		expect           Positional
		expectErrToMatch []error
	}{
		{
			name:   "tuple-style slice",
			input:  []any{int64(3), "third name"},
			expect: Positional{Integer(3), Text("third name")},
		},
		{
			name:   "typed slice",
			input:  []string{"a", "b"},
			expect: Positional{Text("a"), Text("b")},
		},
		{
			name:   "array",
			input:  [2]int{10, 20},
			expect: Positional{Integer(10), Integer(20)},
		},
		{
			name:   "bare scalar wraps to one element",
			input:  "only",
			expect: Positional{Text("only")},
		},
		{
			name:   "byte slice binds as one blob",
			input:  []byte{1, 2, 3},
			expect: Positional{Blob([]byte{1, 2, 3})},
		},
		{
			name:   "nil binds as one null",
			input:  nil,
			expect: Positional{Null()},
		},
		{
			name:   "empty slice",
			input:  []any{},
			expect: Positional{},
		},
		{
			name:             "struct is refused",
			input:            struct{ ID int64 }{1},
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
		{
			name:             "map is refused",
			input:            map[string]int{"a": 1},
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
		{
			name:             "element failure is tagged and aborts",
			input:            []any{int64(1), uint64(math.MaxUint64)},
			expectErrToMatch: []error{ErrIntegralOverflow},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ToParams(tc.input)

			if tc.expectErrToMatch == nil {
				if !assert.NoError(err) {
					return
				}
				if !assert.Len(actual, len(tc.expect)) {
					return
				}
				for i := range tc.expect {
					assert.True(tc.expect[i].Equal(actual[i]), "param %d: got %s, want %s", i, actual[i], tc.expect[i])
				}
			} else {
				if !assert.Error(err) {
					return
				}
				for _, expectMatch := range tc.expectErrToMatch {
					assert.ErrorIs(err, expectMatch)
				}
			}
		})
	}
}

func Test_ToParams_ElementErrorNamesIndex(t *testing.T) {
	assert := assert.New(t)

	_, err := ToParams([]any{int64(1), uint64(math.MaxUint64)})

	if !assert.Error(err) {
		return
	}
	assert.Contains(err.Error(), "element 1")
}

func Test_ToParamsNamed(t *testing.T) {
	type tagged struct {
		ID       int64  `db:"id"`
		FullName string `db:"name"`
		Ignored  string `db:"-"`
		Plain    bool
	}
	type outer struct {
		ID int64 `db:"id"`
		inner2
	}

	testCases := []struct {
		name             string
		input            any
		expect           Named
		expectErrToMatch []error
	}{
		{
			name:  "struct with tags and fallback names",
			input: tagged{ID: 1, FullName: "first name", Ignored: "x", Plain: true},
			expect: Named{
				{Name: "id", Value: Integer(1)},
				{Name: "name", Value: Text("first name")},
				{Name: "plain", Value: Integer(1)},
			},
		},
		{
			name:  "pointer to struct",
			input: &tagged{ID: 2, FullName: "second name"},
			expect: Named{
				{Name: "id", Value: Integer(2)},
				{Name: "name", Value: Text("second name")},
				{Name: "plain", Value: Integer(0)},
			},
		},
		{
			name:  "embedded struct is flattened",
			input: outer{ID: 8, inner2: inner2{Modified: 99}},
			expect: Named{
				{Name: "id", Value: Integer(8)},
				{Name: "modified", Value: Integer(99)},
			},
		},
		{
			name:  "map keys become names in sorted order",
			input: map[string]any{"b": int64(2), "a": "one", "c": nil},
			expect: Named{
				{Name: "a", Value: Text("one")},
				{Name: "b", Value: Integer(2)},
				{Name: "c", Value: Null()},
			},
		},
		{
			name:             "tuple-style slice is refused",
			input:            []any{1, 2},
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
		{
			name:             "bare scalar is refused",
			input:            int64(5),
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
		{
			name:             "nil is refused",
			input:            nil,
			expectErrToMatch: []error{ErrUnsupportedShape},
		},
		{
			name:             "field failure is tagged and aborts",
			input:            struct{ Big uint64 }{math.MaxUint64},
			expectErrToMatch: []error{ErrIntegralOverflow},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ToParamsNamed(tc.input)

			if tc.expectErrToMatch == nil {
				if !assert.NoError(err) {
					return
				}
				if !assert.Len(actual, len(tc.expect)) {
					return
				}
				for i := range tc.expect {
					assert.Equal(tc.expect[i].Name, actual[i].Name, "param %d name", i)
					assert.True(tc.expect[i].Value.Equal(actual[i].Value), "param %q: got %s, want %s", tc.expect[i].Name, actual[i].Value, tc.expect[i].Value)
				}
			} else {
				if !assert.Error(err) {
					return
				}
				for _, expectMatch := range tc.expectErrToMatch {
					assert.ErrorIs(err, expectMatch)
				}
			}
		})
	}
}

type inner2 struct {
	Modified int64 `db:"modified"`
}

func Test_ToParamsNamedWithFields(t *testing.T) {
	type rec struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}

	t.Run("keeps only allow-listed fields", func(t *testing.T) {
		assert := assert.New(t)

		actual, err := ToParamsNamedWithFields(rec{ID: 10, Name: "x"}, "name")

		require.NoError(t, err)
		if !assert.Len(actual, 1) {
			return
		}
		assert.Equal("name", actual[0].Name)
		assert.True(Text("x").Equal(actual[0].Value))
	})

	t.Run("empty list applies no filter", func(t *testing.T) {
		assert := assert.New(t)

		actual, err := ToParamsNamedWithFields(rec{ID: 10, Name: "x"})

		require.NoError(t, err)
		assert.Len(actual, 2)
	})

	t.Run("filters map keys too", func(t *testing.T) {
		assert := assert.New(t)

		actual, err := ToParamsNamedWithFields(map[string]int{"id": 10, "name": 2}, "id")

		require.NoError(t, err)
		if !assert.Len(actual, 1) {
			return
		}
		assert.Equal("id", actual[0].Name)
	})
}
