package xcf

import "fmt"

// Node is an element of the layer group tree. The root has no layer; a
// group node lists its children topmost first.
type Node struct {
	Layer    *Layer
	Children []*Node
}

// IsGroup reports whether the node holds children rather than pixels.
func (n *Node) IsGroup() bool { return n.Layer == nil || n.Layer.IsGroup }

// BuildTree rebuilds the group tree from the item paths of layers given in
// storage order. Every prefix of an item path except the last element must
// address an existing group; layers without an item path are top level.
func BuildTree(layers []*Layer) (*Node, error) {
	root := &Node{}
	for i, l := range layers {
		parent := root
		if len(l.ItemPath) > 1 {
			for depth, idx := range l.ItemPath[:len(l.ItemPath)-1] {
				if int64(idx) >= int64(len(parent.Children)) {
					return nil, fmt.Errorf("%w: layer %d %q: index %d at depth %d, %d siblings",
						ErrInvalidItemPath, i, l.Name, idx, depth, len(parent.Children))
				}
				parent = parent.Children[idx]
				if !parent.Layer.IsGroup {
					return nil, fmt.Errorf("%w: layer %d %q: %q is not a group",
						ErrInvalidItemPath, i, l.Name, parent.Layer.Name)
				}
			}
		}
		parent.Children = append(parent.Children, &Node{Layer: l})
	}
	return root, nil
}

// Walk calls fn for every node below n in storage order with its depth.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	var walk func(*Node, int)
	walk = func(node *Node, depth int) {
		for _, c := range node.Children {
			fn(c, depth)
			walk(c, depth+1)
		}
	}
	walk(n, 0)
}
