package fuser

import "github.com/gomlx/fuser/internal/optypes"

// LoopMap identifies axes of different tensors that drive the same generated
// loop. It is a union-find over IterDomains; the representative ("concrete")
// axis of a class is the earliest-created member, which keeps lookups
// deterministic across runs.
type LoopMap struct {
	parent map[*IterDomain]*IterDomain
}

// NewLoopMap returns an empty loop map.
func NewLoopMap() *LoopMap {
	return &LoopMap{parent: make(map[*IterDomain]*IterDomain)}
}

func (lm *LoopMap) find(id *IterDomain) *IterDomain {
	p, ok := lm.parent[id]
	if !ok || p == id {
		return id
	}
	root := lm.find(p)
	lm.parent[id] = root
	return root
}

// MapAxes records that a and b index the same loop.
func (lm *LoopMap) MapAxes(a, b *IterDomain) {
	ra, rb := lm.find(a), lm.find(b)
	if ra == rb {
		return
	}
	if rb.id < ra.id {
		ra, rb = rb, ra
	}
	lm.parent[rb] = ra
}

// AreMapped returns whether a and b are identified as the same loop axis.
// Every axis is mapped to itself.
func (lm *LoopMap) AreMapped(a, b *IterDomain) bool {
	return lm.find(a) == lm.find(b)
}

// Concrete returns the representative axis used to compare extents across
// the tensors mapped into a loop.
func (lm *LoopMap) Concrete(a *IterDomain) *IterDomain {
	return lm.find(a)
}

// BuildLoopMap seeds a LoopMap from the pairwise root-axis maps of every
// operation in the graph. Leaf axes created by scheduling transforms are the
// scheduler's responsibility and are added with LoopMap.MapAxes.
//
// Axes related by a halo transfer (a shifted axis, a gathered axis with a
// non-unit window) are not identified: the producer side carries halo the
// consumer side does not, so they cannot share a loop.
func (g *Graph) BuildLoopMap() (*LoopMap, error) {
	lm := NewLoopMap()
	for _, op := range g.ops {
		for _, producer := range op.inputs {
			// Graph inputs have no loops of their own to share.
			if producer.isInput {
				continue
			}
			c2p, err := op.MapConsumerToProducer(producer)
			if err != nil {
				return nil, err
			}
			for i, c := range op.Output().root {
				p, ok := c2p[c]
				if !ok {
					continue
				}
				if op.opType == optypes.Shift && op.shift.Offset(i) != 0 {
					continue
				}
				if op.opType == optypes.Gather && !g.eb.IsOne(op.gather.Window(i)) {
					continue
				}
				lm.MapAxes(c, p)
			}
		}
	}
	return lm, nil
}
