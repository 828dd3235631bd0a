package bc

import "iter"

// Collect drains seq into a slice. It stops at the first error and returns
// the items gathered so far alongside it.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var items []T

	for item, err := range seq {
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach calls fn for every item of seq. Iteration stops at the first error
// from either the sequence or fn.
func ForEach[T any](seq iter.Seq2[T, error], fn func(T) error) error {
	for item, err := range seq {
		if err != nil {
			return err
		}

		if err := fn(item); err != nil {
			return err
		}
	}

	return nil
}
