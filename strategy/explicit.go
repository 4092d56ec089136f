package strategy

import (
	"iter"
	"slices"

	"github.com/amp-labs/amp-validation/metadata"
	"github.com/amp-labs/amp-validation/modelnames"
)

// NewExplicitIndex returns a strategy for collections whose elements were
// bound under caller-chosen index keys (for instance "items[first]",
// "items[second]"). Keys and elements are consumed in lockstep; enumeration
// stops at whichever runs out first.
func NewExplicitIndex(keys []string) Strategy { //nolint:ireturn
	return explicitIndexStrategy{keys: slices.Clone(keys)}
}

type explicitIndexStrategy struct {
	keys []string
}

func (s explicitIndexStrategy) Children(md *metadata.TypeMetadata, prefix string, model any) (iter.Seq[Entry], error) {
	// Reuse the default enumeration and swap positional keys for explicit ones.
	entries, err := Collection.Children(md, prefix, model)
	if err != nil {
		return nil, err
	}

	return func(yield func(Entry) bool) {
		i := 0

		for entry := range entries {
			if i >= len(s.keys) {
				return
			}

			entry.Key = modelnames.CreateKeyModelName(prefix, s.keys[i])

			if !yield(entry) {
				return
			}

			i++
		}
	}, nil
}
