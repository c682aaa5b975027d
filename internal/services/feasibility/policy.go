package feasibility

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/stratplan/stratplan/internal/models"
)

// Policy filters and orders the inventory considered by a run.
type Policy struct {
	// ExcludeDoNotTouchWarehouses drops lots held in do_not_touch warehouses
	// from the availability sum.
	ExcludeDoNotTouchWarehouses bool `json:"exclude_do_not_touch_warehouses"`

	// PrioritizeWarehouseTypes orders the contributing-lot listing. It never
	// changes the availability sum.
	PrioritizeWarehouseTypes []models.WarehouseType `json:"prioritize_warehouse_types,omitempty"`
}

// Validate rejects unrecognised warehouse types.
func (p Policy) Validate() error {
	seen := make(map[models.WarehouseType]bool, len(p.PrioritizeWarehouseTypes))
	for _, wt := range p.PrioritizeWarehouseTypes {
		if !wt.Valid() {
			return invalid("unknown warehouse type %q in prioritize_warehouse_types", wt)
		}
		if seen[wt] {
			return invalid("duplicate warehouse type %q in prioritize_warehouse_types", wt)
		}
		seen[wt] = true
	}
	return nil
}

// rank returns the priority of a warehouse type; unlisted types sort last.
func (p Policy) rank(wt models.WarehouseType) int {
	for i, t := range p.PrioritizeWarehouseTypes {
		if t == wt {
			return i
		}
	}
	return len(p.PrioritizeWarehouseTypes)
}

// policyOptions is the wire form: absent fields fall back to defaults.
type policyOptions struct {
	ExcludeDoNotTouchWarehouses *bool                  `json:"exclude_do_not_touch_warehouses"`
	PrioritizeWarehouseTypes    []models.WarehouseType `json:"prioritize_warehouse_types"`
}

// DecodePolicy reads a JSON policy, applying defaults for absent options. An
// empty body yields the defaults. Unknown options are rejected with
// ErrInvalidInput.
func DecodePolicy(r io.Reader, defaults Policy) (Policy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Policy{}, invalid("reading policy: %v", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return defaults, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var opts policyOptions
	if err := dec.Decode(&opts); err != nil {
		return Policy{}, invalid("decoding policy: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Policy{}, invalid("decoding policy: trailing data")
	}

	p := defaults
	if opts.ExcludeDoNotTouchWarehouses != nil {
		p.ExcludeDoNotTouchWarehouses = *opts.ExcludeDoNotTouchWarehouses
	}
	if opts.PrioritizeWarehouseTypes != nil {
		p.PrioritizeWarehouseTypes = opts.PrioritizeWarehouseTypes
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
