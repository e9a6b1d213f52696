/*
DESCRIPTION
  plan.go provides Plan, a schedule of regions to be registered and finished
  at given times in a capture, and its JSON encoding.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package collect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ausocean/roitools/roi"
)

// ErrBadPlan is returned for plans with entries that cannot be scheduled.
var ErrBadPlan = errors.New("bad collection plan")

// Entry schedules a single region. Birth and Death are capture times in
// milliseconds. A Death of zero keeps the region until the end of the capture.
type Entry struct {
	Spec  roi.Spec `json:"spec"`
	Birth float64  `json:"birth"`
	Death float64  `json:"death,omitempty"`
}

// Plan is an ordered list of scheduled regions.
type Plan struct {
	Regions []Entry `json:"regions"`
}

// ReadPlan decodes and validates a JSON plan from r.
func ReadPlan(r io.Reader) (*Plan, error) {
	var p Plan
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("could not decode plan: %w", err)
	}
	err = p.Validate()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlan reads the plan in the file at path.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open plan: %w", err)
	}
	defer f.Close()
	return ReadPlan(f)
}

// Write encodes p as indented JSON to w.
func (p *Plan) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// Validate checks every entry of p.
func (p *Plan) Validate() error {
	for i, e := range p.Regions {
		err := e.Spec.Validate()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if e.Birth < 0 {
			return fmt.Errorf("entry %d: negative birth %v: %w", i, e.Birth, ErrBadPlan)
		}
		if e.Death != 0 && e.Death < e.Birth {
			return fmt.Errorf("entry %d: death %v before birth %v: %w", i, e.Death, e.Birth, ErrBadPlan)
		}
	}
	return nil
}

// byBirth returns a copy of the entries of p ordered by birth. Entries with
// equal births keep their plan order.
func (p *Plan) byBirth() []Entry {
	es := append([]Entry(nil), p.Regions...)
	sort.SliceStable(es, func(i, j int) bool { return es[i].Birth < es[j].Birth })
	return es
}
