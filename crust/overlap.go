package crust

// Overlap composites crust2 onto crust1 into result, which may alias crust1.
//
// Conserved pools stack: wherever crust2 exists its felsic-derived mass is
// added to crust1's. Nonconserved pools describe the visible surface, so
// wherever crust2 is on top they replace crust1's values instead.
func Overlap(crust1, crust2 *Crust, exists2, onTop2 []bool, result *Crust) {
	if result != crust1 {
		result.CopyFrom(crust1)
	}
	for _, p := range ConservedPools {
		dst, src := result.pools[p], crust2.pools[p]
		for i, e := range exists2 {
			if e {
				dst[i] += src[i]
			}
		}
	}
	for _, p := range NonconservedPools {
		dst, src := result.pools[p], crust2.pools[p]
		for i, top := range onTop2 {
			if top {
				dst[i] = src[i]
			}
		}
	}
}
