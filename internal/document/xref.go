package document

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// xrefGraph stores, per target address, the set of source addresses
// referencing it.
type xrefGraph struct {
	incoming map[uint64]*roaring64.Bitmap
}

func newXrefGraph() *xrefGraph {
	return &xrefGraph{incoming: make(map[uint64]*roaring64.Bitmap)}
}

func (g *xrefGraph) add(from, to uint64) {
	bm, ok := g.incoming[to]
	if !ok {
		bm = roaring64.New()
		g.incoming[to] = bm
	}
	bm.Add(from)
}

func (g *xrefGraph) remove(from, to uint64) {
	bm, ok := g.incoming[to]
	if !ok {
		return
	}
	bm.Remove(from)
	if bm.IsEmpty() {
		delete(g.incoming, to)
	}
}

func (g *xrefGraph) countTo(to uint64) uint64 {
	if bm, ok := g.incoming[to]; ok {
		return bm.GetCardinality()
	}
	return 0
}

func (g *xrefGraph) to(to uint64) []uint64 {
	if bm, ok := g.incoming[to]; ok {
		return bm.ToArray()
	}
	return nil
}
