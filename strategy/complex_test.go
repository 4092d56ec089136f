package strategy

import (
	"testing"

	"github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Street string
	City   string
}

type person struct {
	Name    string
	Age     int
	Home    *address
	hidden  bool
	Friends []string
}

func TestComplexObject_Properties(t *testing.T) {
	t.Parallel()

	provider := metadata.NewProvider()
	md := metadata.For[person](provider)
	home := &address{Street: "Main", City: "Springfield"}

	seq, err := ComplexObject.Children(md, "customer", person{Name: "Ann", Age: 40, Home: home, hidden: true})
	require.NoError(t, err)

	entries := collect(t, seq)

	assert.Equal(t, []keyedModel{
		{"customer.Name", "Ann"},
		{"customer.Age", 40},
		{"customer.Home", home},
		{"customer.Friends", []string(nil)},
	}, project(entries))

	for i, e := range entries {
		assert.Same(t, md.Properties()[i], e.Metadata)
	}
}

func TestComplexObject_RootAndPointer(t *testing.T) {
	t.Parallel()

	md := metadata.For[*address](metadata.NewProvider())

	seq, err := ComplexObject.Children(md, "", &address{Street: "Elm", City: "Shelbyville"})
	require.NoError(t, err)

	assert.Equal(t, []keyedModel{{"Street", "Elm"}, {"City", "Shelbyville"}}, project(collect(t, seq)))

	seq, err = ComplexObject.Children(md, "", (*address)(nil))
	require.NoError(t, err)
	assert.Empty(t, collect(t, seq))
}

func TestComplexObject_KeyValuePair(t *testing.T) {
	t.Parallel()

	md := metadata.For[map[int]string](metadata.NewProvider())
	pairMD := md.ElementMetadata()

	seq, err := ComplexObject.Children(pairMD, "prefix[1]", KeyValuePair{Key: 3, Value: "three"})
	require.NoError(t, err)

	entries := collect(t, seq)
	assert.Equal(t, []keyedModel{{"prefix[1].Key", 3}, {"prefix[1].Value", "three"}}, project(entries))
	assert.Equal(t, "Key", entries[0].Metadata.Name())
	assert.Equal(t, "Value", entries[1].Metadata.Name())
}

func TestComplexObject_Unsupported(t *testing.T) {
	t.Parallel()

	md := metadata.For[person](metadata.NewProvider())

	seq, err := ComplexObject.Children(md, "p", []int{1})
	require.ErrorIs(t, err, errors.ErrUnsupportedModel)
	assert.Nil(t, seq)
}

func TestComplexObject_StopsEarly(t *testing.T) {
	t.Parallel()

	md := metadata.For[person](metadata.NewProvider())

	seq, err := ComplexObject.Children(md, "", person{Name: "Bo"})
	require.NoError(t, err)

	var seen []string

	for e := range seq {
		seen = append(seen, e.Key)
		if len(seen) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"Name", "Age"}, seen)
}
