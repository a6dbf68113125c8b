package simulation

import (
	"tectonics/field"
)

// riftPlates grows every plate into the unclaimed cells along its edge and
// fills them with juvenile crust.
//
// A cell is riftable when no plate covers it or this plate alone does. The
// riftable set is eroded by one cell first so a cell only rifts when its
// whole neighborhood is riftable, which keeps boundaries from flickering.
// Rifted crust is created outright rather than through the delta: it is
// nonconserved mafic mass.
func (l *Lithosphere) riftPlates() {
	n := l.grid.VertexCount()
	cp := l.pad.Checkpoint("simulation.riftPlates")
	defer cp.Release()

	riftable := cp.Bools(n)
	localRiftable := cp.Bools(n)
	rifted := cp.Bools(n)
	margin := cp.Bools(n)

	for i, plate := range l.Plates {
		for g, count := range l.PlateCount {
			riftable[g] = count == 0 || (count == 1 && l.TopPlateMap[g] == i)
		}
		plate.LocalMask(localRiftable, riftable)

		field.Erode(l.grid, rifted, localRiftable)
		field.Margin(l.grid, margin, plate.Mask)
		field.And(rifted, margin)

		if field.Count(rifted) == 0 {
			continue
		}
		field.Or(plate.Mask, rifted)
		plate.Crust.FillWhere(l.opts.RiftingCrust, rifted)
	}
}
