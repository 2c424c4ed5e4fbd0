package core

// RootParent is the parent value stored for top-level nodes.
const RootParent int64 = 0

// Node is one row of the nested-set table.
type Node struct {
	ID     int64  `json:"id" yaml:"id"`
	Left   int64  `json:"lft" yaml:"lft"`
	Right  int64  `json:"rgt" yaml:"rgt"`
	Parent int64  `json:"parent" yaml:"parent"`
	Name   string `json:"name" yaml:"name"`
}

// Descendants returns the number of strict descendants encoded by the
// node's interval width.
func (n Node) Descendants() int64 {
	return (n.Right - n.Left - 1) / 2
}

// IsRoot reports whether the node starts a tree of the forest.
func (n Node) IsRoot() bool {
	return n.Parent == RootParent
}

// IsLeaf reports whether the node has no descendants.
func (n Node) IsLeaf() bool {
	return n.Right-n.Left == 1
}

// Contains reports whether other lies strictly inside n's interval.
func (n Node) Contains(other Node) bool {
	return n.Left < other.Left && other.Right < n.Right
}

// OutlineEntry is a node annotated with its depth in the forest.
// Roots have depth 0.
type OutlineEntry struct {
	Node
	Depth int64 `json:"depth" yaml:"depth"`
}

// SearchHit is a node whose name matched a search pattern, together with
// the names of its descendants in preorder.
type SearchHit struct {
	Node
	Values []string `json:"values" yaml:"values"`
}
