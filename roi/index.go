/*
DESCRIPTION
  index.go provides a spatial index of region bounding boxes used to find the
  regions under a point.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import (
	"image"
	"sort"

	"github.com/bmharper/flatbush-go"
)

// index is a static spatial index over a snapshot of regions. It must be
// rebuilt when regions are added or removed.
type index struct {
	fb      *flatbush.Flatbush[int32]
	regions []*Region
}

func newIndex(regions []*Region) *index {
	x := &index{regions: regions}
	if len(regions) == 0 {
		return x
	}
	x.fb = flatbush.NewFlatbush[int32]()
	x.fb.Reserve(len(regions))
	for _, r := range regions {
		// Flatbush boxes are inclusive.
		b := r.bounds
		x.fb.Add(int32(b.Min.X), int32(b.Min.Y), int32(b.Max.X-1), int32(b.Max.Y-1))
	}
	x.fb.Finish()
	return x
}

// at returns the regions containing p, ordered by id.
func (x *index) at(p image.Point) []*Region {
	if x.fb == nil {
		return nil
	}
	var hits []*Region
	for _, i := range x.fb.Search(int32(p.X), int32(p.Y), int32(p.X), int32(p.Y)) {
		r := x.regions[i]
		if r.Contains(p) {
			hits = append(hits, r)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].id < hits[j].id })
	return hits
}
