// Package mp4 reads and rewrites the iTunes metadata list (ilst) of MP4
// audio files (M4A, M4B, M4P).
//
// An MP4 file is a tree of atoms (boxes), each a big-endian 32-bit size and
// a four-character type followed by its payload. Size 1 means a 64-bit size
// follows the type; size 0 means the atom extends to the end of its parent.
// Metadata lives at moov.udta.meta.ilst.
package mp4

import (
	"encoding/binary"
	"fmt"
	"strings"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// Atom is one box of the atom tree.
type Atom struct {
	Type      string
	Offset    int64
	Size      int64 // total size including header
	HeaderLen int64 // 8, or 16 with an extended size
	ToEnd     bool  // size field was 0
}

// DataOffset returns the offset of the atom's payload.
func (a Atom) DataOffset() int64 {
	return a.Offset + a.HeaderLen
}

// DataSize returns the size of the atom's payload.
func (a Atom) DataSize() int64 {
	return a.Size - a.HeaderLen
}

// End returns the offset just past the atom.
func (a Atom) End() int64 {
	return a.Offset + a.Size
}

// String describes the atom for tree dumps.
func (a Atom) String() string {
	if a.HeaderLen == 16 {
		return fmt.Sprintf("%s @%d size=%d (64-bit)", a.Type, a.Offset, a.Size)
	}
	return fmt.Sprintf("%s @%d size=%d", a.Type, a.Offset, a.Size)
}

// readAtom reads the atom header at off. The atom must end by limit.
func readAtom(sr *binutil.SafeReader, off, limit int64) (Atom, error) {
	header, err := sr.ReadBytes(off, 8, "atom header")
	if err != nil {
		return Atom{}, err
	}
	a := Atom{
		Type:      textenc.DecodeLatin1(header[4:8]),
		Offset:    off,
		Size:      int64(binary.BigEndian.Uint32(header)),
		HeaderLen: 8,
	}
	switch a.Size {
	case 0:
		a.Size = limit - off
		a.ToEnd = true
	case 1:
		size, err := binutil.Read[uint64](sr, off+8, "extended atom size")
		if err != nil {
			return Atom{}, err
		}
		if size > uint64(limit-off) {
			return Atom{}, atomError(sr, a, fmt.Sprintf("extended size %d exceeds parent", size))
		}
		a.Size = int64(size)
		a.HeaderLen = 16
	}
	if a.Size < a.HeaderLen {
		return Atom{}, atomError(sr, a, fmt.Sprintf("invalid size %d", a.Size))
	}
	if a.End() > limit {
		return Atom{}, atomError(sr, a, fmt.Sprintf("size %d exceeds parent ending at %d", a.Size, limit))
	}
	return a, nil
}

func atomError(sr *binutil.SafeReader, a Atom, reason string) error {
	return &types.MalformedHeaderError{Path: sr.Path(), Format: "MP4", Reason: fmt.Sprintf("atom %q: %s", a.Type, reason), Offset: a.Offset}
}

// Node is an atom with its parsed children.
type Node struct {
	Atom
	Parent   *Node
	Children []*Node
}

// Child returns the first direct child of type t.
func (n *Node) Child(t string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// Find follows a path of child types from n.
func (n *Node) Find(path ...string) *Node {
	for _, t := range path {
		n = n.Child(t)
	}
	return n
}

// All returns every descendant of type t in file order.
func (n *Node) All(t string) []*Node {
	var out []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type == t && cur != n {
			out = append(out, cur)
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}

// Path returns the dotted type path from the root, such as "moov.udta".
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		parts = append(parts, cur.Type)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// containers lists the atoms whose payload is a sequence of child atoms,
// with the bytes to skip before the first child. meta is handled apart.
var containers = map[string]int64{
	"moov": 0,
	"trak": 0,
	"mdia": 0,
	"minf": 0,
	"stbl": 0,
	"udta": 0,
	"edts": 0,
	"dinf": 0,
	"ilst": 0,
	"meta": 4,
}

// ReadTree parses the container atoms of the file. Leaf payloads are not
// read. Traversal uses an explicit stack, so nesting depth is bounded by
// the file size rather than the goroutine stack.
func ReadTree(sr *binutil.SafeReader) (*Node, error) {
	root := &Node{Atom: Atom{Size: sr.Size()}}

	type frame struct {
		node     *Node
		off, end int64
	}
	stack := []frame{{node: root, end: sr.Size()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.end-top.off < 8 {
			// Trailing bytes too short for a header, such as the 4-byte
			// terminator some writers leave in udta.
			stack = stack[:len(stack)-1]
			continue
		}
		a, err := readAtom(sr, top.off, top.end)
		if err != nil {
			// Junk after the last top-level atom, such as an appended
			// ID3v1 tag, ends the walk. Broken ilst items are reported
			// by the tag parser instead.
			if top.node == root && len(root.Children) > 0 || top.node.Type == "ilst" {
				stack = stack[:len(stack)-1]
				continue
			}
			return nil, err
		}
		n := &Node{Atom: a, Parent: top.node}
		top.node.Children = append(top.node.Children, n)
		top.off = a.End()

		skip, ok := containers[a.Type]
		if !ok || n.Parent.Type == "ilst" {
			continue
		}
		if a.Type == "meta" {
			// QuickTime meta atoms lack the version and flags field
			if next, err := sr.ReadBytes(a.DataOffset()+4, 4, "meta child type"); err == nil && string(next) == "hdlr" {
				skip = 0
			}
		}
		if a.DataSize() >= skip {
			stack = append(stack, frame{node: n, off: a.DataOffset() + skip, end: a.End()})
		}
	}
	return root, nil
}

// Walk calls fn for every node below root in file order with its depth,
// starting at 0 for top-level atoms.
func Walk(root *Node, fn func(n *Node, depth int)) {
	type frame struct {
		node  *Node
		depth int
	}
	var stack []frame
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.Children[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.node, f.depth)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}
