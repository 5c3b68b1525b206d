package product

import (
	"strings"

	"github.com/nci/rsproduct/utils"
)

// Named is implemented by every product node held in a NodeList.
type Named interface {
	comparable
	Name() string
}

type disposer interface {
	Dispose()
}

// NodeList is an ordered collection of named nodes. Names are unique
// ignoring case. Removed nodes are kept on a separate list until that list
// is cleared so that writers can delete their persisted counterparts.
type NodeList[T Named] struct {
	kind    string
	nodes   []T
	removed []T
}

func NewNodeList[T Named](kind string) *NodeList[T] {
	return &NodeList[T]{kind: kind}
}

func (l *NodeList[T]) Len() int {
	return len(l.nodes)
}

// At returns the node at index i. It panics if i is out of range.
func (l *NodeList[T]) At(i int) T {
	return l.nodes[i]
}

// All returns a copy of the node slice in insertion order.
func (l *NodeList[T]) All() []T {
	out := make([]T, len(l.nodes))
	copy(out, l.nodes)
	return out
}

func (l *NodeList[T]) Names() []string {
	names := make([]string, len(l.nodes))
	for i, n := range l.nodes {
		names[i] = n.Name()
	}
	return names
}

// IndexOf returns the index of the node called name, or -1.
func (l *NodeList[T]) IndexOf(name string) int {
	for i, n := range l.nodes {
		if strings.EqualFold(n.Name(), name) {
			return i
		}
	}
	return -1
}

func (l *NodeList[T]) Contains(name string) bool {
	return l.IndexOf(name) >= 0
}

// Get returns the node called name; ok is false if there is none.
func (l *NodeList[T]) Get(name string) (node T, ok bool) {
	if i := l.IndexOf(name); i >= 0 {
		return l.nodes[i], true
	}
	return node, false
}

// Add appends node. A zero node is ignored.
func (l *NodeList[T]) Add(node T) error {
	return l.Insert(node, len(l.nodes))
}

// Insert places node at index, shifting later nodes back.
func (l *NodeList[T]) Insert(node T, index int) error {
	var zero T
	if node == zero {
		return nil
	}
	if l.Contains(node.Name()) {
		return utils.NameCollisionError(l.kind, node.Name())
	}
	if index < 0 || index > len(l.nodes) {
		return utils.ConfigurationError("%s list: insert index %d out of range [0,%d]", l.kind, index, len(l.nodes))
	}
	l.nodes = append(l.nodes, zero)
	copy(l.nodes[index+1:], l.nodes[index:])
	l.nodes[index] = node
	return nil
}

// Remove moves node to the removed list. It reports whether node was a
// member.
func (l *NodeList[T]) Remove(node T) bool {
	for i, n := range l.nodes {
		if n == node {
			l.nodes = append(l.nodes[:i], l.nodes[i+1:]...)
			l.removed = append(l.removed, node)
			return true
		}
	}
	return false
}

func (l *NodeList[T]) RemoveAll() {
	l.removed = append(l.removed, l.nodes...)
	l.nodes = nil
}

func (l *NodeList[T]) Removed() []T {
	return l.removed
}

func (l *NodeList[T]) ClearRemoved() {
	l.removed = nil
}

// Subset returns a new list holding the nodes accepted by filter, in order.
// The nodes themselves are shared, not copied.
func (l *NodeList[T]) Subset(filter func(T) bool) *NodeList[T] {
	sub := NewNodeList[T](l.kind)
	for _, n := range l.nodes {
		if filter == nil || filter(n) {
			sub.nodes = append(sub.nodes, n)
		}
	}
	return sub
}

// Dispose disposes every member and every removed node and empties the
// list.
func (l *NodeList[T]) Dispose() {
	for _, n := range l.nodes {
		if d, ok := any(n).(disposer); ok {
			d.Dispose()
		}
	}
	l.disposeRemoved()
	l.reset()
}

type nodeContainer interface {
	disposeRemoved()
	reset()
}

func (l *NodeList[T]) disposeRemoved() {
	for _, n := range l.removed {
		if d, ok := any(n).(disposer); ok {
			d.Dispose()
		}
	}
	l.removed = nil
}

func (l *NodeList[T]) reset() {
	l.nodes = nil
	l.removed = nil
}
