// Package ordering holds the ordered-sibling rules shared by the store and
// the client: display order is (position, created_at, id) ascending and an
// explicit reorder renumbers the whole sibling set to a dense 1..N sequence.
package ordering

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptyOrder  = errors.New("orderedIds must contain at least one id")
	ErrBlankID     = errors.New("orderedIds must not contain blank ids")
	ErrDuplicateID = errors.New("orderedIds must not contain duplicate ids")
)

// Key is the sort key of one sibling.
type Key struct {
	Position  int
	CreatedAt time.Time
	ID        string
}

// Less reports whether a sorts before b. Equal positions fall back to
// creation time and then id so the order is deterministic.
func Less(a, b Key) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Sort orders items in place by their Key.
func Sort[T any](items []T, key func(T) Key) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(key(items[i]), key(items[j]))
	})
}

// Renumber assigns index+1 to every item in its current slice order.
func Renumber[T any](items []T, set func(*T, int)) {
	for i := range items {
		set(&items[i], i+1)
	}
}

// Move returns a copy of items with the element at from moved to index to.
// Out-of-range indexes are clamped.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) == 0 || from < 0 || from >= len(out) {
		return out
	}
	if to < 0 {
		to = 0
	}
	if to >= len(out) {
		to = len(out) - 1
	}
	if from == to {
		return out
	}
	v := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{v}, out[to:]...)...)
	return out
}

// Update is one row of a bulk reorder.
type Update struct {
	ID       string
	Position int
}

// Plan turns a caller-submitted order into position updates (index+1).
// Ids are trimmed; blank or repeated ids are rejected.
func Plan(orderedIDs []string) ([]Update, error) {
	if len(orderedIDs) == 0 {
		return nil, ErrEmptyOrder
	}
	seen := make(map[string]struct{}, len(orderedIDs))
	out := make([]Update, 0, len(orderedIDs))
	for i, raw := range orderedIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, ErrBlankID
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		out = append(out, Update{ID: id, Position: i + 1})
	}
	return out, nil
}

// IDs extracts ids in slice order.
func IDs[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}
