/*
DESCRIPTION
  stats.go provides lifetime statistics of the samples collected by a region.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import "gonum.org/v1/gonum/stat"

// Stats summarises the samples collected by a region. Samples are unweighted,
// so with a non-zero DeltaIgnore long static intervals count once.
type Stats struct {
	N      int
	Mean   Mean
	StdDev Mean
}

// Stats returns statistics of the region's collected samples.
func (r *Region) Stats() Stats {
	n := len(r.collected)
	if n == 0 {
		return Stats{}
	}
	var ch [3][]float64
	for i := range ch {
		ch[i] = make([]float64, n)
	}
	for i, s := range r.collected {
		ch[0][i], ch[1][i], ch[2][i] = s.Color.B, s.Color.G, s.Color.R
	}
	var m, sd [3]float64
	for i := range ch {
		if n == 1 {
			m[i] = ch[i][0]
			continue
		}
		m[i], sd[i] = stat.MeanStdDev(ch[i], nil)
	}
	return Stats{
		N:      n,
		Mean:   Mean{B: m[0], G: m[1], R: m[2]},
		StdDev: Mean{B: sd[0], G: sd[1], R: sd[2]},
	}
}
