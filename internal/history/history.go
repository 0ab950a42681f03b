// Package history provides a generic value-based undo/redo buffer:
// past and future stacks around a present value. Text editing snapshots
// the whole editable document; canvas editing snapshots the serialized
// drawing payload, so equality is structural in both cases.
package history

// Buffer holds undo/redo state for one mutable value. The zero value
// is usable with T's zero value as the initial present.
type Buffer[T comparable] struct {
	past    []T
	present T
	future  []T
	limit   int // 0 = unbounded
}

// New creates a buffer with the given initial present value.
func New[T comparable](initial T) *Buffer[T] {
	return &Buffer[T]{present: initial}
}

// NewLimited creates a buffer that keeps at most limit past entries,
// discarding the oldest when full. Unbounded history is the default;
// a cap trades the deepest undos for bounded memory on long sessions.
func NewLimited[T comparable](initial T, limit int) *Buffer[T] {
	return &Buffer[T]{present: initial, limit: limit}
}

// Reset replaces the present value and clears both stacks. Called when
// a different memo is loaded so history never leaks across memos.
func (b *Buffer[T]) Reset(value T) {
	b.past = b.past[:0]
	b.future = b.future[:0]
	b.present = value
}

// Set records a new present value. Setting a value equal to the current
// present is a no-op, so programmatic rewrites don't pollute history.
// A real edit invalidates any redo entries.
func (b *Buffer[T]) Set(value T) {
	if value == b.present {
		return
	}
	b.past = append(b.past, b.present)
	if b.limit > 0 && len(b.past) > b.limit {
		b.past = append(b.past[:0], b.past[len(b.past)-b.limit:]...)
	}
	b.present = value
	b.future = b.future[:0]
}

// Undo steps back one entry. No-op at the boundary.
func (b *Buffer[T]) Undo() {
	if len(b.past) == 0 {
		return
	}
	previous := b.past[len(b.past)-1]
	b.past = b.past[:len(b.past)-1]
	b.future = append([]T{b.present}, b.future...)
	b.present = previous
}

// Redo steps forward one entry. No-op at the boundary.
func (b *Buffer[T]) Redo() {
	if len(b.future) == 0 {
		return
	}
	next := b.future[0]
	b.future = b.future[1:]
	b.past = append(b.past, b.present)
	b.present = next
}

// Present returns the current value.
func (b *Buffer[T]) Present() T { return b.present }

// CanUndo reports whether Undo would change the present value.
func (b *Buffer[T]) CanUndo() bool { return len(b.past) > 0 }

// CanRedo reports whether Redo would change the present value.
func (b *Buffer[T]) CanRedo() bool { return len(b.future) > 0 }
