package store

import (
	"math"
	"sort"

	"github.com/hy4ri/taskgrid/internal/model"
)

// OrderStep is the gap between consecutive order values after resequencing.
const OrderStep = 1000

// Orderable is an entity that can be copied with a new order value.
type Orderable[T any] interface {
	model.Entity
	WithOrder(float64) T
}

// SortByOrder returns a copy of items sorted ascending by order. Ties keep
// their relative position and non-finite orders sort as 0.
func SortByOrder[T model.Entity](items []T) []T {
	sorted := append(make([]T, 0, len(items)), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return finiteOrder(sorted[i].SortOrder()) < finiteOrder(sorted[j].SortOrder())
	})
	return sorted
}

// Reorder moves the item with the given id to dest (clamped to the valid
// range) and resequences the whole collection to (position+1)*OrderStep.
// It returns false and the input unchanged when id is not present.
func Reorder[T Orderable[T]](items []T, id string, dest int) ([]T, bool) {
	sorted := SortByOrder(items)
	index := -1
	for i, item := range sorted {
		if item.EntityID() == id {
			index = i
			break
		}
	}
	if index == -1 {
		return items, false
	}

	if dest > len(sorted)-1 {
		dest = len(sorted) - 1
	}
	if dest < 0 {
		dest = 0
	}

	moved := sorted[index]
	rest := append(sorted[:index:index], sorted[index+1:]...)
	out := make([]T, 0, len(sorted))
	out = append(out, rest[:dest]...)
	out = append(out, moved)
	out = append(out, rest[dest:]...)

	for i := range out {
		out[i] = out[i].WithOrder(float64((i + 1) * OrderStep))
	}
	return out, true
}

func finiteOrder(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
