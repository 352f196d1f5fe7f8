// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "github.com/pkg/errors"

// optionsNode is one node of the prefix trie built by NewOptions. A node
// with optionIndex >= 0 is terminal: Buffer.Select reports a complete
// match for that candidate the moment it reaches this node, regardless of
// whether unexplored children remain.
type optionsNode struct {
	optionIndex int
	children    map[byte]*optionsNode
}

func newOptionsNode() *optionsNode {
	return &optionsNode{optionIndex: -1, children: map[byte]*optionsNode{}}
}

// Options is a set of candidate byte strings that Buffer.Select matches
// against the front of a buffer in a single forward pass, without
// backtracking or allocating once built.
type Options struct {
	root *optionsNode
}

// NewOptions builds an Options trie from candidates, in the order given.
// Select returns the index into candidates of whichever one matches.
//
// An empty or exactly duplicated candidate is rejected at construction. When one
// candidate is a strict prefix of another, the shorter one wins: Select
// reports a match as soon as it reaches a terminal node, so the longer
// candidate becomes unreachable past that shared prefix.
func NewOptions(candidates ...ByteString) (*Options, error) {
	root := newOptionsNode()
	seen := make(map[string]bool, len(candidates))

	for idx, c := range candidates {
		if c.Len() == 0 {
			return nil, errors.Wrap(ErrIllegalArgument, "options: empty candidate")
		}
		key := string(c.Bytes())
		if seen[key] {
			return nil, errors.Wrapf(ErrIllegalArgument, "options: duplicate candidate %q", key)
		}
		seen[key] = true

		node := root
		n := c.Len()
		for i := int64(0); i < n; i++ {
			b := c.byteAt(i)
			child, ok := node.children[b]
			if !ok {
				child = newOptionsNode()
				node.children[b] = child
			}
			node = child
		}
		if node.optionIndex < 0 {
			node.optionIndex = idx
		}
	}
	return &Options{root: root}, nil
}
