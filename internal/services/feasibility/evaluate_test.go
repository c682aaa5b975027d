package feasibility

import (
	"errors"
	"strings"
	"testing"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/testutil"
)

func TestEvaluateResource(t *testing.T) {
	tests := []struct {
		name        string
		required    string
		available   string
		satisfiable bool
		deficit     string
	}{
		{"surplus", "100", "120", true, ""},
		{"shortfall", "50", "40", false, "10"},
		{"exact boundary", "75.5", "75.50", true, ""},
		{"fractional shortfall", "0.3", "0.1", false, "0.2"},
		{"nothing required", "0", "0", true, ""},
		{"nothing available", "12", "0", false, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := EvaluateResource(testutil.Dec(tt.required), testutil.Dec(tt.available))
			if v.Satisfiable != tt.satisfiable {
				t.Errorf("Satisfiable = %v, want %v", v.Satisfiable, tt.satisfiable)
			}
			if tt.deficit == "" {
				if v.Deficit.Valid {
					t.Errorf("Deficit = %s, want absent", v.Deficit.Decimal)
				}
				return
			}
			if !v.Deficit.Valid {
				t.Fatal("Deficit absent, want present")
			}
			if !v.Deficit.Decimal.Equal(testutil.Dec(tt.deficit)) {
				t.Errorf("Deficit = %s, want %s", v.Deficit.Decimal, tt.deficit)
			}
			if !v.Deficit.Decimal.IsPositive() {
				t.Errorf("Deficit = %s, want positive", v.Deficit.Decimal)
			}
		})
	}
}

func TestRollupProduct(t *testing.T) {
	ok := ResourceVerdict{Satisfiable: true}
	short := ResourceVerdict{Satisfiable: false}

	tests := []struct {
		name     string
		verdicts []ResourceVerdict
		want     bool
	}{
		{"no resources", nil, true},
		{"all satisfiable", []ResourceVerdict{ok, ok}, true},
		{"one short", []ResourceVerdict{ok, short}, false},
		{"all short", []ResourceVerdict{short, short}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RollupProduct(tt.verdicts); got != tt.want {
				t.Errorf("RollupProduct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRollupStrategy(t *testing.T) {
	tests := []struct {
		name     string
		products []bool
		want     models.CalculationResult
	}{
		{"no demand", nil, models.CalculationResultSatisfiable},
		{"all satisfiable", []bool{true, true}, models.CalculationResultSatisfiable},
		{"mixed", []bool{true, false}, models.CalculationResultPartial},
		{"none satisfiable", []bool{false, false}, models.CalculationResultUnsatisfiable},
		{"single unsatisfiable", []bool{false}, models.CalculationResultUnsatisfiable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RollupStrategy(tt.products); got != tt.want {
				t.Errorf("RollupStrategy() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodePolicy(t *testing.T) {
	defaults := Policy{ExcludeDoNotTouchWarehouses: true}

	tests := []struct {
		name    string
		body    string
		want    Policy
		wantErr bool
	}{
		{
			name: "empty body uses defaults",
			body: "",
			want: defaults,
		},
		{
			name: "empty object uses defaults",
			body: "{}",
			want: defaults,
		},
		{
			name: "explicit false overrides default",
			body: `{"exclude_do_not_touch_warehouses": false}`,
			want: Policy{},
		},
		{
			name: "priority list",
			body: `{"prioritize_warehouse_types": ["secondary", "primary"]}`,
			want: Policy{
				ExcludeDoNotTouchWarehouses: true,
				PrioritizeWarehouseTypes:    []models.WarehouseType{models.WarehouseTypeSecondary, models.WarehouseTypePrimary},
			},
		},
		{name: "unknown option", body: `{"skip_expired": true}`, wantErr: true},
		{name: "unknown warehouse type", body: `{"prioritize_warehouse_types": ["cold"]}`, wantErr: true},
		{name: "duplicate warehouse type", body: `{"prioritize_warehouse_types": ["primary", "primary"]}`, wantErr: true},
		{name: "trailing data", body: `{} {}`, wantErr: true},
		{name: "malformed", body: `{"exclude_do_not_touch_warehouses": "yes"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePolicy(strings.NewReader(tt.body), defaults)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePolicy: %v", err)
			}
			if got.ExcludeDoNotTouchWarehouses != tt.want.ExcludeDoNotTouchWarehouses {
				t.Errorf("ExcludeDoNotTouchWarehouses = %v, want %v",
					got.ExcludeDoNotTouchWarehouses, tt.want.ExcludeDoNotTouchWarehouses)
			}
			if len(got.PrioritizeWarehouseTypes) != len(tt.want.PrioritizeWarehouseTypes) {
				t.Fatalf("PrioritizeWarehouseTypes = %v, want %v",
					got.PrioritizeWarehouseTypes, tt.want.PrioritizeWarehouseTypes)
			}
			for i := range got.PrioritizeWarehouseTypes {
				if got.PrioritizeWarehouseTypes[i] != tt.want.PrioritizeWarehouseTypes[i] {
					t.Errorf("PrioritizeWarehouseTypes[%d] = %s, want %s",
						i, got.PrioritizeWarehouseTypes[i], tt.want.PrioritizeWarehouseTypes[i])
				}
			}
		})
	}
}
