// Package rbtree implements an ordered map from string keys to immutable
// records, balanced as a red-black tree.
//
// Nodes are stored by value in an arena owned by the tree and link to each
// other by arena index. Index 0 is reserved: it stands for an absent child or
// parent and is always treated as black, so there is no shared sentinel node
// that could be written to by accident.
//
// The tree supports insertion and point lookup only. It is not safe for
// concurrent use.
package rbtree

import (
	"errors"
	"fmt"
	"math"
)

// Keyed is implemented by the records stored in a Tree. Key must return the
// same value for the lifetime of the record.
type Keyed interface {
	Key() string
}

// ErrDuplicateKey is matched (via errors.Is) by the error Insert returns for
// a key that is already stored.
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError reports an Insert whose key is already present.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s %q", ErrDuplicateKey, e.Key)
}

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

const (
	red   = false
	black = true

	// absent is the reserved arena index meaning "no node".
	absent uint32 = 0
)

type node[R Keyed] struct {
	record              R
	key                 string
	parent, left, right uint32
	color               bool // Black or red.
}

// allocator hands out arena slots. Slots are never freed: the tree has no
// delete operation.
type allocator[R Keyed] struct {
	storage []node[R]
}

func (allocator *allocator[R]) malloc() uint32 {
	if len(allocator.storage) == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node[R]{color: black})
	}

	if uint64(len(allocator.storage)) >= math.MaxUint32 {
		panic("rbtree: node arena exhausted")
	}

	allocator.storage = append(allocator.storage, node[R]{})

	return uint32(len(allocator.storage) - 1) //nolint:gosec // bounded by the check above.
}

// Tree is an ordered map from Key() to R.
type Tree[R Keyed] struct {
	alloc allocator[R]

	// Root of the tree, absent when empty.
	root uint32

	// Number of records stored.
	count int
}

// New creates an empty tree.
func New[R Keyed]() *Tree[R] {
	return &Tree[R]{}
}

// Len returns the number of records in the tree.
func (tree *Tree[R]) Len() int {
	return tree.count
}

// Search returns the record stored under key. The second result is false when
// no such record exists.
func (tree *Tree[R]) Search(key string) (R, bool) {
	storage := tree.alloc.storage

	for idx := tree.root; idx != absent; {
		nd := &storage[idx]

		switch {
		case key == nd.key:
			return nd.record, true
		case key < nd.key:
			idx = nd.left
		default:
			idx = nd.right
		}
	}

	var zero R

	return zero, false
}

// Insert adds record under record.Key(). If the key is already present the
// tree is left untouched and a *DuplicateKeyError is returned.
func (tree *Tree[R]) Insert(record R) error {
	key := record.Key()
	storage := tree.alloc.storage
	parent := absent
	leftOfParent := false

	// The duplicate check and the insertion descent share one traversal; a
	// match returns before anything is allocated or relinked.
	for cursor := tree.root; cursor != absent; {
		parent = cursor
		nd := &storage[cursor]

		switch {
		case key == nd.key:
			return &DuplicateKeyError{Key: key}
		case key < nd.key:
			leftOfParent = true
			cursor = nd.left
		default:
			leftOfParent = false
			cursor = nd.right
		}
	}

	nodeIdx := tree.alloc.malloc()
	storage = tree.alloc.storage
	storage[nodeIdx] = node[R]{record: record, key: key, parent: parent, color: red}

	switch {
	case parent == absent:
		tree.root = nodeIdx
	case leftOfParent:
		storage[parent].left = nodeIdx
	default:
		storage[parent].right = nodeIdx
	}

	tree.count++
	tree.fixup(nodeIdx)

	return nil
}

// fixup restores the red-black properties after nodeIdx was attached as a red
// leaf.
func (tree *Tree[R]) fixup(nodeIdx uint32) {
	storage := tree.alloc.storage

	for {
		parent := storage[nodeIdx].parent

		// The root was reached, or the parent is black and nothing is violated.
		if parent == absent || storage[parent].color == black {
			break
		}

		grandparent := storage[parent].parent
		if grandparent == absent {
			break
		}

		if parent == storage[grandparent].left {
			uncle := storage[grandparent].right

			// Red uncle: push the extra red up to the grandparent.
			if colorOf(uncle, storage) == red {
				storage[parent].color = black
				storage[uncle].color = black
				storage[grandparent].color = red
				nodeIdx = grandparent

				continue
			}

			// Triangle: rotate it into a line first.
			if nodeIdx == storage[parent].right {
				nodeIdx = parent
				tree.rotateLeft(nodeIdx)
				parent = storage[nodeIdx].parent
			}

			storage[parent].color = black
			storage[grandparent].color = red
			tree.rotateRight(grandparent)

			break
		}

		uncle := storage[grandparent].left

		if colorOf(uncle, storage) == red {
			storage[parent].color = black
			storage[uncle].color = black
			storage[grandparent].color = red
			nodeIdx = grandparent

			continue
		}

		if nodeIdx == storage[parent].left {
			nodeIdx = parent
			tree.rotateRight(nodeIdx)
			parent = storage[nodeIdx].parent
		}

		storage[parent].color = black
		storage[grandparent].color = red
		tree.rotateLeft(grandparent)

		break
	}

	storage[tree.root].color = black
}

func colorOf[R Keyed](nodeIdx uint32, storage []node[R]) bool {
	if nodeIdx == absent {
		return black
	}

	return storage[nodeIdx].color
}

// rotate performs a rotation around pivot. toLeft=true rotates left.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation is the mirror image.
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[R]) rotate(pivot uint32, toLeft bool) {
	storage := tree.alloc.storage

	// The child that takes the pivot's place, and its inner subtree that
	// changes sides.
	var child, inner uint32
	if toLeft {
		child = storage[pivot].right
		inner = storage[child].left
		storage[pivot].right = inner
	} else {
		child = storage[pivot].left
		inner = storage[child].right
		storage[pivot].left = inner
	}

	if inner != absent {
		storage[inner].parent = pivot
	}

	grandparent := storage[pivot].parent
	storage[child].parent = grandparent

	switch {
	case grandparent == absent:
		tree.root = child
	case storage[grandparent].left == pivot:
		storage[grandparent].left = child
	default:
		storage[grandparent].right = child
	}

	if toLeft {
		storage[child].left = pivot
	} else {
		storage[child].right = pivot
	}

	storage[pivot].parent = child
}

func (tree *Tree[R]) rotateLeft(nodeIdx uint32) {
	tree.rotate(nodeIdx, true)
}

func (tree *Tree[R]) rotateRight(nodeIdx uint32) {
	tree.rotate(nodeIdx, false)
}
