package strategy

import (
	"iter"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/maps"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedModel struct {
	Key   string
	Model any
}

func collect(t *testing.T, seq iter.Seq[Entry]) []Entry {
	t.Helper()

	return slices.Collect(seq)
}

func project(entries []Entry) []keyedModel {
	out := make([]keyedModel, 0, len(entries))
	for _, e := range entries {
		out = append(out, keyedModel{Key: e.Key, Model: e.Model})
	}

	return out
}

func keysOf(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}

	return out
}

func TestCollection_Sequence(t *testing.T) {
	t.Parallel()

	provider := metadata.NewProvider()
	md := metadata.For[[]int](provider)

	seq, err := Collection.Children(md, "prefix", []int{2, 3, 5})
	require.NoError(t, err)

	entries := collect(t, seq)

	want := []keyedModel{
		{Key: "prefix[0]", Model: 2},
		{Key: "prefix[1]", Model: 3},
		{Key: "prefix[2]", Model: 5},
	}

	if diff := cmp.Diff(want, project(entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	for _, e := range entries {
		assert.Same(t, md.ElementMetadata(), e.Metadata)
	}
}

func TestCollection_Dictionary(t *testing.T) {
	t.Parallel()

	provider := metadata.NewProvider()
	md := metadata.For[map[int]string](provider)

	model := map[int]string{2: "two", 3: "three", 5: "five"}

	seq, err := Collection.Children(md, "prefix", model)
	require.NoError(t, err)

	entries := collect(t, seq)

	// Keys are positional whatever the map order turns out to be.
	assert.Equal(t, []string{"prefix[0]", "prefix[1]", "prefix[2]"}, keysOf(entries))

	for _, e := range entries {
		assert.Same(t, md.ElementMetadata(), e.Metadata)
	}

	models := make([]KeyValuePair, 0, len(entries))
	for _, e := range entries {
		pair, ok := e.Model.(KeyValuePair)
		require.True(t, ok, "model should be the whole pair, got %T", e.Model)

		models = append(models, pair)
	}

	want := []KeyValuePair{
		{Key: 2, Value: "two"},
		{Key: 3, Value: "three"},
		{Key: 5, Value: "five"},
	}

	sortPairs := cmpopts.SortSlices(func(a, b KeyValuePair) bool {
		return a.Key.(int) < b.Key.(int) //nolint:forcetypeassert
	})

	if diff := cmp.Diff(want, models, sortPairs); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_Empty(t *testing.T) {
	t.Parallel()

	provider := metadata.NewProvider()

	tests := []struct {
		name  string
		md    *metadata.TypeMetadata
		model any
	}{
		{"empty slice", metadata.For[[]int](provider), []int{}},
		{"nil slice", metadata.For[[]int](provider), []int(nil)},
		{"empty map", metadata.For[map[int]string](provider), map[int]string{}},
		{"nil map", metadata.For[map[int]string](provider), map[int]string(nil)},
		{"nil pointer", metadata.For[*[]int](provider), (*[]int)(nil)},
		{"nil model", metadata.For[[]int](provider), nil},
		{"empty array", metadata.For[[0]int](provider), [0]int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seq, err := Collection.Children(tt.md, "prefix", tt.model)
			require.NoError(t, err)
			assert.Empty(t, collect(t, seq))
		})
	}
}

func TestCollection_EmptyPrefix(t *testing.T) {
	t.Parallel()

	md := metadata.For[[]string](metadata.NewProvider())

	seq, err := Collection.Children(md, "", []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"[0]", "[1]"}, keysOf(collect(t, seq)))
}

func TestCollection_ArrayAndPointer(t *testing.T) {
	t.Parallel()

	provider := metadata.NewProvider()

	arr := [3]string{"x", "y", "z"}

	seq, err := Collection.Children(metadata.For[[3]string](provider), "a", arr)
	require.NoError(t, err)
	assert.Equal(t, []keyedModel{{"a[0]", "x"}, {"a[1]", "y"}, {"a[2]", "z"}}, project(collect(t, seq)))

	items := []int{7}

	seq, err = Collection.Children(metadata.For[*[]int](provider), "p", &items)
	require.NoError(t, err)
	assert.Equal(t, []keyedModel{{"p[0]", 7}}, project(collect(t, seq)))
}

func TestCollection_Idempotent(t *testing.T) {
	t.Parallel()

	md := metadata.For[[]int](metadata.NewProvider())
	model := []int{2, 3, 5}

	seq, err := Collection.Children(md, "prefix", model)
	require.NoError(t, err)

	first := collect(t, seq)
	second := collect(t, seq)

	assert.Equal(t, project(first), project(second))

	again, err := Collection.Children(md, "prefix", model)
	require.NoError(t, err)
	assert.Equal(t, project(first), project(collect(t, again)))
}

func TestCollection_DictionaryIdempotent(t *testing.T) {
	t.Parallel()

	md := metadata.For[map[string]int](metadata.NewProvider())
	model := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}

	run := func() ([]string, []any) {
		seq, err := Collection.Children(md, "m", model)
		require.NoError(t, err)

		entries := collect(t, seq)
		models := make([]any, 0, len(entries))

		for _, e := range entries {
			models = append(models, e.Model)
		}

		return keysOf(entries), models
	}

	firstKeys, firstModels := run()
	secondKeys, secondModels := run()

	// Go maps may pair positions and pairs differently between runs, but the
	// key scheme and the set of pairs are stable.
	assert.Equal(t, []string{"m[0]", "m[1]", "m[2]", "m[3]"}, firstKeys)
	assert.Equal(t, firstKeys, secondKeys)
	assert.ElementsMatch(t, firstModels, secondModels)
}

func TestCollection_OrderedMapping(t *testing.T) {
	t.Parallel()

	md := metadata.For[*maps.OrderedMap[string, int]](metadata.NewProvider())
	require.True(t, md.IsDictionary())

	model := maps.NewOrderedMap[string, int]()
	model.Add("zeta", 26)
	model.Add("alpha", 1)
	model.Add("mid", 13)

	seq, err := Collection.Children(md, "scores", model)
	require.NoError(t, err)

	assert.Equal(t, []keyedModel{
		{"scores[0]", KeyValuePair{Key: "zeta", Value: 26}},
		{"scores[1]", KeyValuePair{Key: "alpha", Value: 1}},
		{"scores[2]", KeyValuePair{Key: "mid", Value: 13}},
	}, project(collect(t, seq)))
}

type countingSequence struct {
	n        int
	produced *int
}

func (c *countingSequence) Items() iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := range c.n {
			*c.produced++

			if !yield(i) {
				return
			}
		}
	}
}

func TestCollection_Lazy(t *testing.T) {
	t.Parallel()

	produced := 0
	model := &countingSequence{n: 1000, produced: &produced}
	md := metadata.NewProvider().ForValue(model)

	seq, err := Collection.Children(md, "big", model)
	require.NoError(t, err)
	assert.Zero(t, produced, "nothing is produced before iteration")

	for entry := range seq {
		assert.Equal(t, "big[0]", entry.Key)

		break
	}

	assert.Equal(t, 1, produced)
}

func TestCollection_PointerReceiverSequenceByValue(t *testing.T) {
	t.Parallel()

	produced := 0
	model := countingSequence{n: 2, produced: &produced}
	md := metadata.For[countingSequence](metadata.NewProvider())
	require.True(t, md.IsCollection())

	seq, err := Collection.Children(md, "s", model)
	require.NoError(t, err)
	assert.Equal(t, []keyedModel{{"s[0]", 0}, {"s[1]", 1}}, project(collect(t, seq)))
}

func TestCollection_NotEnumerable(t *testing.T) {
	t.Parallel()

	provider := metadata.NewProvider()

	for _, model := range []any{42, "text", struct{ A int }{A: 1}, new(int)} {
		seq, err := Collection.Children(metadata.For[[]int](provider), "prefix", model)
		require.ErrorIs(t, err, errors.ErrNotEnumerable, "%T", model)
		assert.Nil(t, seq)
		assert.Contains(t, err.Error(), `"prefix"`)
	}
}

func TestCollection_Concurrent(t *testing.T) {
	t.Parallel()

	md := metadata.For[[]string](metadata.NewProvider())

	var wg sync.WaitGroup

	for w := range 16 {
		wg.Go(func() {
			model := []string{strings.Repeat("x", w), "y"}

			seq, err := Collection.Children(md, "w", model)
			if !assert.NoError(t, err) {
				return
			}

			assert.Equal(t, []keyedModel{{"w[0]", model[0]}, {"w[1]", "y"}}, project(slices.Collect(seq)))
		})
	}

	wg.Wait()
}
