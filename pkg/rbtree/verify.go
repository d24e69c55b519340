package rbtree

import (
	"errors"
	"fmt"
)

// ErrInvariant is wrapped by every error Verify returns.
var ErrInvariant = errors.New("red-black invariant violated")

// Height returns the number of nodes on the longest root-to-leaf path, 0 for an
// empty tree.
func (tree *Tree[R]) Height() int {
	return tree.height(tree.root)
}

func (tree *Tree[R]) height(nodeIdx uint32) int {
	if nodeIdx == absent {
		return 0
	}

	nd := &tree.alloc.storage[nodeIdx]

	return 1 + max(tree.height(nd.left), tree.height(nd.right))
}

// BlackHeight returns the number of black nodes on the path from the root to
// its leftmost leaf. On a tree that passes Verify every root-to-leaf path has
// this many black nodes.
func (tree *Tree[R]) BlackHeight() int {
	storage := tree.alloc.storage
	height := 0

	for idx := tree.root; idx != absent; idx = storage[idx].left {
		if storage[idx].color == black {
			height++
		}
	}

	return height
}

// Verify walks the whole tree and checks search order, parent links, the
// record count and the red-black coloring rules. It returns nil for a valid
// tree and an error wrapping ErrInvariant otherwise.
func (tree *Tree[R]) Verify() error {
	if tree.root == absent {
		if tree.count != 0 {
			return fmt.Errorf("%w: empty tree reports %d records", ErrInvariant, tree.count)
		}

		return nil
	}

	root := &tree.alloc.storage[tree.root]

	if root.parent != absent {
		return fmt.Errorf("%w: root %q has a parent", ErrInvariant, root.key)
	}

	if root.color != black {
		return fmt.Errorf("%w: root %q is red", ErrInvariant, root.key)
	}

	nodes, _, err := tree.verifySubtree(tree.root, nil, nil)
	if err != nil {
		return err
	}

	if nodes != tree.count {
		return fmt.Errorf("%w: %d reachable nodes, %d records counted", ErrInvariant, nodes, tree.count)
	}

	return nil
}

// verifySubtree checks the subtree at nodeIdx, whose keys must lie strictly
// between lower and upper (nil meaning unbounded). It returns the number of
// nodes and the black height of the subtree.
func (tree *Tree[R]) verifySubtree(nodeIdx uint32, lower, upper *string) (nodes, blackHeight int, err error) {
	if nodeIdx == absent {
		return 0, 1, nil
	}

	storage := tree.alloc.storage
	nd := &storage[nodeIdx]

	if lower != nil && nd.key <= *lower {
		return 0, 0, fmt.Errorf("%w: key %q not above %q", ErrInvariant, nd.key, *lower)
	}

	if upper != nil && nd.key >= *upper {
		return 0, 0, fmt.Errorf("%w: key %q not below %q", ErrInvariant, nd.key, *upper)
	}

	for _, child := range [...]uint32{nd.left, nd.right} {
		if child == absent {
			continue
		}

		if storage[child].parent != nodeIdx {
			return 0, 0, fmt.Errorf("%w: %q does not point back to parent %q",
				ErrInvariant, storage[child].key, nd.key)
		}

		if nd.color == red && storage[child].color == red {
			return 0, 0, fmt.Errorf("%w: red %q has red child %q", ErrInvariant, nd.key, storage[child].key)
		}
	}

	leftNodes, leftBlack, err := tree.verifySubtree(nd.left, lower, &nd.key)
	if err != nil {
		return 0, 0, err
	}

	rightNodes, rightBlack, err := tree.verifySubtree(nd.right, &nd.key, upper)
	if err != nil {
		return 0, 0, err
	}

	if leftBlack != rightBlack {
		return 0, 0, fmt.Errorf("%w: black height differs below %q (%d left, %d right)",
			ErrInvariant, nd.key, leftBlack, rightBlack)
	}

	blackHeight = leftBlack
	if nd.color == black {
		blackHeight++
	}

	return leftNodes + rightNodes + 1, blackHeight, nil
}
