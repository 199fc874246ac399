// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package handle maps opaque integer handles to Go objects for callers that
// cannot hold Go pointers.
//
// A Handle packs a slot index and a generation. Releasing a handle bumps the
// generation of its slot, so a second release or any later use of the same
// handle fails with ErrStale instead of reaching whatever object reuses the
// slot.
//
// Three ownership shapes are supported:
//   - Owned handles come from constructors and are released exactly once.
//   - Borrowed handles come from accessors. They are tied to an owner, are
//     invalidated when the owner is released and cannot be released directly.
//   - Shared objects are kept alive by Retain. Releasing the caller's handle
//     invalidates that handle, but the object is only dropped once every
//     dependent that retained it has been released too.
package handle

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned for handles that were never issued
	ErrNotFound = errors.New("handle: unknown handle")
	// ErrStale is returned for handles that were released or invalidated
	ErrStale = errors.New("handle: stale handle")
	// ErrBorrowed is returned when releasing a borrowed handle
	ErrBorrowed = errors.New("handle: borrowed handle cannot be released")
	// ErrTypeMismatch is returned by Get when the object has another type
	ErrTypeMismatch = errors.New("handle: object type mismatch")
)

// Handle is an opaque reference into a Table. The zero Handle is never valid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) split() (index, gen uint32, ok bool) {
	lo := uint32(h)
	if lo == 0 {
		return 0, 0, false
	}
	return lo - 1, uint32(h >> 32), true
}

// Kind tells how a handle may be released
type Kind uint8

const (
	// Owned handles are released by the caller exactly once
	Owned Kind = iota + 1
	// Borrowed handles live as long as their owner
	Borrowed
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// entry is a live object. refs counts the owning handle plus every dependent
// that retained it.
type entry struct {
	value   any
	refs    int
	deps    []*entry
	borrows []Handle
	// named maps a BorrowNamed key to its borrowed handle
	named map[string]Handle
}

type slot struct {
	gen   uint32
	kind  Kind
	entry *entry
}

// Stats counts live handles and objects
type Stats struct {
	Owned    int
	Borrowed int
	// Objects counts owned objects not yet dropped, including shared objects
	// whose handle was released while dependents keep them alive
	Objects int
}

// Table is a concurrency-safe handle arena
type Table struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32
	stats Stats
	// onDrop, if set, is called with each object as it is dropped. It runs
	// under the table lock and must not use the table.
	onDrop func(any)
}

// NewTable returns an empty table. onDrop may be nil.
func NewTable(onDrop func(any)) *Table {
	return &Table{onDrop: onDrop}
}

// Put stores v and returns a new owned handle
func (t *Table) Put(v any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Objects++
	return t.alloc(Owned, &entry{value: v, refs: 1})
}

// Borrow stores v as a borrowed handle tied to owner
func (t *Table) Borrow(owner Handle, v any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(owner)
	if err != nil {
		return 0, err
	}
	if s.kind != Owned {
		return 0, fmt.Errorf("%w: cannot borrow from a borrowed handle", ErrBorrowed)
	}
	return t.borrow(s.entry, v), nil
}

// BorrowNamed is Borrow with one handle per name: repeated calls with the
// same owner and name return the same borrowed handle until the owner is
// released. v is only stored by the first call.
func (t *Table) BorrowNamed(owner Handle, name string, v any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(owner)
	if err != nil {
		return 0, err
	}
	if s.kind != Owned {
		return 0, fmt.Errorf("%w: cannot borrow from a borrowed handle", ErrBorrowed)
	}
	owning := s.entry
	if h, ok := owning.named[name]; ok {
		return h, nil
	}
	h := t.borrow(owning, v)
	if owning.named == nil {
		owning.named = make(map[string]Handle)
	}
	owning.named[name] = h
	return h, nil
}

func (t *Table) borrow(owning *entry, v any) Handle {
	h := t.alloc(Borrowed, &entry{value: v})
	owning.borrows = append(owning.borrows, h)
	return h
}

// Retain keeps the object behind dependency alive until dependent is
// released. Both must be owned handles.
func (t *Table) Retain(dependent, dependency Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ds, err := t.lookup(dependent)
	if err != nil {
		return err
	}
	ps, err := t.lookup(dependency)
	if err != nil {
		return err
	}
	if ds.kind != Owned || ps.kind != Owned {
		return fmt.Errorf("%w: only owned handles share objects", ErrBorrowed)
	}
	ps.entry.refs++
	ds.entry.deps = append(ds.entry.deps, ps.entry)
	return nil
}

// Lookup returns the object behind h
func (t *Table) Lookup(h Handle) (any, Kind, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, err := t.lookup(h)
	if err != nil {
		return nil, 0, err
	}
	return s.entry.value, s.kind, nil
}

// Get returns the object behind h as a T
func Get[T any](t *Table, h Handle) (T, error) {
	var zero T
	v, _, err := t.Lookup(h)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: handle %#x holds %T, want %T", ErrTypeMismatch, uint64(h), v, zero)
	}
	return out, nil
}

// Release invalidates an owned handle and every handle borrowed from it.
// The object is dropped once no dependent retains it.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		return err
	}
	if s.kind == Borrowed {
		return ErrBorrowed
	}
	e := s.entry
	index, _, _ := h.split()
	t.freeSlot(index)
	for _, b := range e.borrows {
		if bi, bgen, ok := b.split(); ok && t.slots[bi].gen == bgen && t.slots[bi].entry != nil {
			t.freeSlot(bi)
		}
	}
	e.borrows = nil
	e.named = nil
	t.unref(e)
	return nil
}

// Stats returns live counts
func (t *Table) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

func (t *Table) alloc(kind Kind, e *entry) Handle {
	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = uint32(len(t.slots))
		t.slots = append(t.slots, slot{gen: 1})
	}
	s := &t.slots[index]
	s.kind = kind
	s.entry = e
	t.count(kind, 1)
	return makeHandle(index, s.gen)
}

func (t *Table) lookup(h Handle) (*slot, error) {
	index, gen, ok := h.split()
	if !ok || int(index) >= len(t.slots) {
		return nil, fmt.Errorf("%w: %#x", ErrNotFound, uint64(h))
	}
	s := &t.slots[index]
	if s.gen != gen || s.entry == nil {
		return nil, fmt.Errorf("%w: %#x", ErrStale, uint64(h))
	}
	return s, nil
}

func (t *Table) freeSlot(index uint32) {
	s := &t.slots[index]
	t.count(s.kind, -1)
	s.gen++
	s.entry = nil
	s.kind = 0
	t.free = append(t.free, index)
}

func (t *Table) count(kind Kind, delta int) {
	switch kind {
	case Owned:
		t.stats.Owned += delta
	case Borrowed:
		t.stats.Borrowed += delta
	}
}

func (t *Table) unref(e *entry) {
	e.refs--
	if e.refs > 0 {
		return
	}
	t.stats.Objects--
	deps := e.deps
	e.deps = nil
	if t.onDrop != nil {
		t.onDrop(e.value)
	}
	for _, d := range deps {
		t.unref(d)
	}
}
