package mp4

import (
	"encoding/binary"
	"fmt"
	"math"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

// Write plans replacing the ilst atom with tag. An empty tag removes it.
//
// A missing meta (with an mdir handler) or udta is created. Every
// enclosing atom's size is patched, and when the edit moves data that
// chunk offset tables point at, each stco/co64 entry past the edit is
// shifted.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	root, err := ReadTree(sr)
	if err != nil {
		return nil, err
	}
	moov := root.Child("moov")
	if moov == nil {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "MP4", Reason: "missing moov atom"}
	}
	ilstAtom, err := EncodeIlst(tag)
	if err != nil {
		return nil, err
	}

	udta := moov.Child("udta")
	meta := udta.Child("meta")
	ilst := meta.Child("ilst")

	plan := patch.NewPlan(sr.Size())
	var (
		off, length int64
		data        []byte
		parent      *Node // innermost atom whose size changes
	)
	switch {
	case ilst != nil:
		off, length, data, parent = ilst.Offset, ilst.Size, ilstAtom, meta
	case ilstAtom == nil:
		return plan, nil
	case meta != nil:
		off, data, parent = meta.End(), ilstAtom, meta
	case udta != nil:
		off, data, parent = udta.End(), metaAtom(ilstAtom), udta
	default:
		off, data, parent = moov.End(), box("udta", metaAtom(ilstAtom)), moov
	}
	plan.Replace(off, length, data)

	delta := int64(len(data)) - length
	if delta == 0 {
		return plan, nil
	}
	for n := parent; n != nil && n != root; n = n.Parent {
		if err := patchSize(plan, n.Atom, delta); err != nil {
			return nil, err
		}
	}
	if err := shiftChunkOffsets(sr, plan, moov, off+length, delta); err != nil {
		return nil, err
	}
	return plan, nil
}

// metaAtom wraps an ilst atom in a meta atom with an iTunes handler.
func metaAtom(ilst []byte) []byte {
	hdlr := box("hdlr",
		[]byte{0, 0, 0, 0}, // version and flags
		[]byte{0, 0, 0, 0}, // pre-defined
		[]byte("mdir"),
		[]byte("appl"),
		make([]byte, 8), // reserved
		[]byte{0},       // empty name
	)
	return box("meta", []byte{0, 0, 0, 0}, hdlr, ilst)
}

// patchSize schedules rewriting the size field of a by delta.
func patchSize(plan *patch.Plan, a Atom, delta int64) error {
	size := a.Size + delta
	switch {
	case a.ToEnd:
		return nil
	case a.HeaderLen == 16:
		plan.Replace(a.Offset+8, 8, binary.BigEndian.AppendUint64(nil, uint64(size)))
	case size > math.MaxUint32:
		return fmt.Errorf("atom %q would grow to %d bytes, beyond its 32-bit size field", a.Type, size)
	default:
		plan.Replace(a.Offset, 4, binary.BigEndian.AppendUint32(nil, uint32(size)))
	}
	return nil
}

// shiftChunkOffsets adds delta to every stco/co64 entry at or past from.
// Entries before from point at media data the edit does not move.
func shiftChunkOffsets(sr *binutil.SafeReader, plan *patch.Plan, moov *Node, from, delta int64) error {
	for _, typ := range []string{"stco", "co64"} {
		for _, n := range moov.All(typ) {
			width := 4
			if typ == "co64" {
				width = 8
			}
			if n.DataSize() < 8 {
				return atomError(sr, n.Atom, "too short")
			}
			count, err := binutil.Read[uint32](sr, n.DataOffset()+4, typ+" entry count")
			if err != nil {
				return err
			}
			if int64(count)*int64(width) > n.DataSize()-8 {
				return atomError(sr, n.Atom, fmt.Sprintf("%d entries overrun the atom", count))
			}
			table, err := sr.ReadBytes(n.DataOffset()+8, int(count)*width, typ+" entries")
			if err != nil {
				return err
			}

			changed := false
			for i := 0; i < len(table); i += width {
				if width == 4 {
					v := int64(binary.BigEndian.Uint32(table[i:]))
					if v < from {
						continue
					}
					if v+delta > math.MaxUint32 || v+delta < 0 {
						return fmt.Errorf("stco entry %d would overflow after shifting by %d", v, delta)
					}
					binary.BigEndian.PutUint32(table[i:], uint32(v+delta))
				} else {
					v := int64(binary.BigEndian.Uint64(table[i:]))
					if v < from {
						continue
					}
					binary.BigEndian.PutUint64(table[i:], uint64(v+delta))
				}
				changed = true
			}
			if changed {
				plan.Replace(n.DataOffset()+8, int64(len(table)), table)
			}
		}
	}
	return nil
}
