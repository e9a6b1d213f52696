/*
DESCRIPTION
  summary.go provides WriteSummary, a flat CSV table describing many finished
  regions, one per row.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import (
	"encoding/csv"
	"io"
	"strconv"
)

// SummaryColumns is the column header of the summary table.
var SummaryColumns = []string{
	"type", "radius", "center_x", "center_y",
	"vertex1_x", "vertex1_y", "vertex2_x", "vertex2_y",
	"start_pos_msec", "end_pos_msec", "start_pos_frames", "end_pos_frames",
	"constructor",
}

// WriteSummary writes a summary row for every finished region in regions to w.
// Cells that do not apply to a shape are left empty. ErrEmptySelection is
// returned, and nothing written, if no region is finished.
func WriteSummary(w io.Writer, regions []*Region) error {
	var finished []*Region
	for _, r := range regions {
		if r.finished {
			finished = append(finished, r)
		}
	}
	if len(finished) == 0 {
		return ErrEmptySelection
	}

	cw := csv.NewWriter(w)
	err := cw.Write(SummaryColumns)
	if err != nil {
		return err
	}
	for _, r := range finished {
		err = cw.Write(summaryRow(r))
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func summaryRow(r *Region) []string {
	s := r.spec
	row := make([]string, len(SummaryColumns))
	row[0] = s.Kind.String()
	if s.Kind == Circle {
		row[1] = strconv.Itoa(s.Radius)
		row[2] = strconv.Itoa(s.Center.X)
		row[3] = strconv.Itoa(s.Center.Y)
	} else {
		row[4] = strconv.Itoa(s.Vertex1.X)
		row[5] = strconv.Itoa(s.Vertex1.Y)
		row[6] = strconv.Itoa(s.Vertex2.X)
		row[7] = strconv.Itoa(s.Vertex2.Y)
	}
	row[8] = ftoa(r.start.Msec)
	row[9] = ftoa(r.end.Msec)
	row[10] = strconv.Itoa(r.start.Frames)
	row[11] = strconv.Itoa(r.end.Frames)
	row[12] = s.String()
	return row
}
