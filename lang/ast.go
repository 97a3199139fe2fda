package lang

import (
	"strconv"

	"github.com/confkit/interp/lang/token"
)

// NodeKind identifies the variant of a Node.
type NodeKind int

const (
	// LiteralNode is a fixed piece of input: top-level text, an
	// unquoted primitive run in argument position, a quoted string
	// without interpolations, or a dict key.
	LiteralNode NodeKind = iota

	// ConcatNode joins two or more parts into a single string: a
	// top-level mix of text and interpolations, or a quoted argument
	// containing interpolations. Its resolved value is always a string.
	ConcatNode

	// KeyPathNode navigates the configuration tree by segments.
	KeyPathNode

	// CallNode invokes a registered resolver with arguments.
	CallNode

	// ListItemNode is a bracketed list literal in argument position.
	ListItemNode

	// DictItemNode is a braced dict literal in argument position.
	DictItemNode
)

// String returns a human-readable name for the kind.
func (k NodeKind) String() string {
	switch k {
	case LiteralNode:
		return "Literal"
	case ConcatNode:
		return "Concat"
	case KeyPathNode:
		return "KeyPath"
	case CallNode:
		return "Call"
	case ListItemNode:
		return "List"
	case DictItemNode:
		return "Dict"
	default:
		return "NodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// SegmentKind identifies the variant of a key path segment.
type SegmentKind int

const (
	// SegmentName is a fixed segment navigating into a map.
	SegmentName SegmentKind = iota

	// SegmentIndex is a fixed segment navigating into a list.
	SegmentIndex

	// SegmentNode is a nested interpolation whose resolved value
	// (string or integer) supplies the segment.
	SegmentNode
)

// Segment is one step of a key path.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
	Node  *Node
}

// Pair is one key-value entry of a dict literal. Key is a LiteralNode
// holding a typed primitive, or an interpolation node.
type Pair struct {
	Key *Node
	Val *Node
}

// Node is one vertex of the parsed expression tree: a tagged union
// whose populated fields depend on Kind. Nodes are immutable after the
// parser returns and each node is owned exclusively by its parent, so
// trees may be resolved concurrently.
type Node struct {
	Kind NodeKind
	Pos  token.Pos

	// LiteralNode. Raw is the exact source text including escapes and
	// surrounding quotes; Text is the decoded string form; Value is the
	// coerced value (typed for unquoted argument runs, always a string
	// for top-level text and quoted strings).
	Raw   string
	Text  string
	Value any

	// ConcatNode
	Parts []*Node

	// KeyPathNode
	Segments []Segment

	// CallNode. Name is set when the resolver name is a plain
	// identifier; NameNode when it is a nested interpolation.
	Name     string
	NameNode *Node
	Args     []*Node

	// ListItemNode
	Elems []*Node

	// DictItemNode
	Pairs []Pair
}

// literal builds a LiteralNode carrying a pre-coerced value.
func literal(pos token.Pos, raw, text string, value any) *Node {
	return &Node{
		Kind:  LiteralNode,
		Pos:   pos,
		Raw:   raw,
		Text:  text,
		Value: value,
	}
}
