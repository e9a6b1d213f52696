/*
DESCRIPTION
  record.go provides writing and reading of region records: a header of
  KEY VALUE lines terminated by HEADER_END, followed by a CSV table of the
  samples collected by a region.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Record header keys.
const (
	KeyID          = "ROI_ID"
	KeyType        = "ROI_TYPE"
	KeySpec        = "ROI_SPEC"
	KeyDescription = "ROI_DESCRIPTION"
	KeyDate        = "DATE"
	KeyTime        = "TIME"
	KeyFile        = "CAP_FILE"
	KeyTitle       = "CAP_TITLE"
	KeyFPS         = "CAP_FPS"
	KeyStartFrames = "START_POS_FRAMES"
	KeyStartMsec   = "START_POS_MSEC"
	KeyEndFrames   = "END_POS_FRAMES"
	KeyEndMsec     = "END_POS_MSEC"
)

// HeaderEnd terminates the header of a record.
const HeaderEnd = "HEADER_END"

// Columns is the column header of the sample table.
var Columns = []string{"pos_frames", "pos_msec", "blue_avg", "green_avg", "red_avg"}

// now is replaced in tests.
var now = time.Now

// Capture describes the video a region was registered against.
type Capture struct {
	File  string
	Title string
	FPS   float64
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Header returns the record header of the region as ordered key value pairs.
func (r *Region) Header() [][2]string {
	t := now()
	h := [][2]string{
		{KeyID, strconv.Itoa(r.id)},
		{KeyType, r.spec.Kind.String()},
		{KeySpec, r.spec.String()},
		{KeyDescription, r.spec.Description},
		{KeyDate, t.Format("2006-01-02")},
		{KeyTime, t.Format("15:04:05")},
	}
	if r.registered {
		h = append(h,
			[2]string{KeyFile, r.capture.File},
			[2]string{KeyTitle, r.capture.Title},
			[2]string{KeyFPS, ftoa(r.capture.FPS)},
			[2]string{KeyStartFrames, strconv.Itoa(r.start.Frames)},
			[2]string{KeyStartMsec, ftoa(r.start.Msec)},
		)
	}
	if r.finished {
		h = append(h,
			[2]string{KeyEndFrames, strconv.Itoa(r.end.Frames)},
			[2]string{KeyEndMsec, ftoa(r.end.Msec)},
		)
	}
	return h
}

// Export writes the region's record to w.
func (r *Region) Export(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, kv := range r.Header() {
		// Values are single line.
		v := strings.ReplaceAll(kv[1], "\n", " ")
		_, err := bw.WriteString(kv[0] + " " + v + "\n")
		if err != nil {
			return err
		}
	}
	_, err := bw.WriteString(HeaderEnd + "\n")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	err = cw.Write(Columns)
	if err != nil {
		return err
	}
	for _, s := range r.collected {
		err = cw.Write([]string{
			strconv.Itoa(s.Frames),
			ftoa(s.Msec),
			ftoa(s.Color.B),
			ftoa(s.Color.G),
			ftoa(s.Color.R),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	err = cw.Error()
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Record is a parsed region record.
type Record struct {
	Keys    []string          // Header keys in order of appearance.
	Header  map[string]string // Header values by key.
	Samples []Sample
}

// ID returns the region id held in the record header.
func (rec *Record) ID() (int, error) {
	v, ok := rec.Header[KeyID]
	if !ok {
		return 0, errors.Errorf("record has no %s", KeyID)
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", KeyID)
	}
	return id, nil
}

// Spec returns the region spec held in the record header.
func (rec *Record) Spec() (Spec, error) {
	v, ok := rec.Header[KeySpec]
	if !ok {
		return Spec{}, errors.Errorf("record has no %s", KeySpec)
	}
	s, err := ParseSpec(v)
	return s, errors.Wrap(err, "invalid region spec")
}

// ReadRecord parses a record written by Region.Export.
func ReadRecord(r io.Reader) (*Record, error) {
	br := bufio.NewReader(r)
	rec := &Record{Header: make(map[string]string)}
	for line := 1; ; line++ {
		l, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || l == "") {
			if err == io.EOF {
				return nil, errors.Errorf("missing %s", HeaderEnd)
			}
			return nil, errors.Wrap(err, "could not read header")
		}
		l = strings.TrimRight(l, "\r\n")
		if l == HeaderEnd {
			break
		}
		if l == "" {
			continue
		}
		k, v, _ := strings.Cut(l, " ")
		if _, dup := rec.Header[k]; dup {
			return nil, errors.Errorf("duplicate header key %q on line %d", k, line)
		}
		rec.Keys = append(rec.Keys, k)
		rec.Header[k] = v
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(Columns)
	cols, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "could not read column header")
	}
	for i, c := range cols {
		if c != Columns[i] {
			return nil, errors.Errorf("unexpected column %d: got %q want %q", i, c, Columns[i])
		}
	}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not read sample")
		}
		s, err := parseSample(row)
		if err != nil {
			return nil, err
		}
		rec.Samples = append(rec.Samples, s)
	}
	return rec, nil
}

func parseSample(row []string) (Sample, error) {
	var (
		s   Sample
		v   [4]float64
		err error
	)
	s.Frames, err = strconv.Atoi(row[0])
	if err != nil {
		return s, errors.Wrapf(err, "invalid %s", Columns[0])
	}
	for i := range v {
		v[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return s, errors.Wrapf(err, "invalid %s", Columns[i+1])
		}
	}
	s.Msec = v[0]
	s.Color = Mean{B: v[1], G: v[2], R: v[3]}
	return s, nil
}
