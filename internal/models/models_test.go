package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEnums_Valid(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		got   bool
	}{
		{"StrategyStatus active", true, StrategyStatusActive.Valid()},
		{"StrategyStatus bogus", false, StrategyStatus("archived").Valid()},
		{"StrategyResult not_calculated", true, StrategyResultNotCalculated.Valid()},
		{"StrategyResult partial", true, StrategyResultPartial.Valid()},
		{"StrategyResult bogus", false, StrategyResult("maybe").Valid()},
		{"CalculationResult satisfiable", true, CalculationResultSatisfiable.Valid()},
		{"CalculationResult not_calculated", false, CalculationResult("not_calculated").Valid()},
		{"DemandType dynamic", true, DemandTypeDynamic.Valid()},
		{"Period quarterly", true, PeriodQuarterly.Valid()},
		{"Period weekly", false, Period("weekly").Valid()},
		{"ProductType indirect", true, ProductTypeIndirect.Valid()},
		{"ResourceType supply", true, ResourceTypeSupply.Valid()},
		{"RelationType production", true, RelationTypeProduction.Valid()},
		{"RelationType bogus", false, RelationType("transfer").Valid()},
		{"WarehouseType secondary", true, WarehouseTypeSecondary.Valid()},
		{"WarehouseStatus do_not_touch", true, WarehouseStatusDoNotTouch.Valid()},
		{"WarehouseStatus bogus", false, WarehouseStatus("sealed").Valid()},
		{"LotStatus reserved", true, LotStatusReserved.Valid()},
		{"LotStatus expired", false, LotStatus("expired").Valid()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.valid {
				t.Errorf("Valid() = %v, want %v", tt.got, tt.valid)
			}
		})
	}
}

func TestCalculationResult_StrategyResult(t *testing.T) {
	for _, r := range []CalculationResult{
		CalculationResultSatisfiable, CalculationResultPartial, CalculationResultUnsatisfiable,
	} {
		if got := r.StrategyResult(); !got.Valid() || string(got) != string(r) {
			t.Errorf("%s.StrategyResult() = %s", r, got)
		}
	}
}

func TestStrategy_Validate(t *testing.T) {
	valid := func() *Strategy {
		return &Strategy{
			ID:        "s1",
			Name:      "Winter plan",
			MaxBudget: decimal.NewFromInt(5000),
			Status:    StrategyStatusActive,
			Result:    StrategyResultNotCalculated,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Strategy)
		wantErr string
	}{
		{"valid", func(*Strategy) {}, ""},
		{"missing name", func(s *Strategy) { s.Name = "" }, "name is required"},
		{"bad status", func(s *Strategy) { s.Status = "paused" }, "invalid status"},
		{"negative budget", func(s *Strategy) { s.MaxBudget = decimal.NewFromInt(-1) }, "must not be negative"},
		{"budget over limit", func(s *Strategy) { s.MaxBudget = MaxStrategyBudget.Add(decimal.NewFromInt(1)) }, "must not exceed"},
		{"budget at limit", func(s *Strategy) { s.MaxBudget = MaxStrategyBudget }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDemand_Validate(t *testing.T) {
	d := &Demand{
		StrategyID: "s1",
		ProductID:  "p1",
		DemandType: DemandTypeStatic,
		Quantity:   decimal.NewFromInt(10),
		Period:     PeriodMonthly,
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	d.Quantity = decimal.NewFromInt(-1)
	d.Period = "weekly"
	err := d.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"quantity must not be negative", "invalid period"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestInventoryLot_Validate(t *testing.T) {
	made := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	before := made.AddDate(0, 0, -1)
	after := made.AddDate(1, 0, 0)

	tests := []struct {
		name    string
		mutate  func(*InventoryLot)
		wantErr string
	}{
		{"valid", func(*InventoryLot) {}, ""},
		{"no expiry", func(l *InventoryLot) { l.ExpiresAt = nil; l.ValidUntil = nil }, ""},
		{"expiry equals manufacture", func(l *InventoryLot) { l.ExpiresAt = &made }, "expires_at must be after"},
		{"expiry before manufacture", func(l *InventoryLot) { l.ExpiresAt = &before }, "expires_at must be after"},
		{"valid_until before manufacture", func(l *InventoryLot) { l.ValidUntil = &before }, "valid_until must be after"},
		{"negative quantity", func(l *InventoryLot) { l.Quantity = decimal.RequireFromString("-0.5") }, "quantity must not be negative"},
		{"bad status", func(l *InventoryLot) { l.Status = "expired" }, "invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lot := &InventoryLot{
				ResourceID:     "r1",
				WarehouseID:    "w1",
				LotNumber:      "L-1",
				ManufacturedAt: made,
				ExpiresAt:      &after,
				ValidUntil:     &after,
				Quantity:       decimal.NewFromInt(5),
				Status:         LotStatusAvailable,
			}
			tt.mutate(lot)
			err := lot.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInventoryLot_Expiry(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	soon := now.AddDate(0, 0, 10)
	later := now.AddDate(0, 0, 90)

	tests := []struct {
		name         string
		expiresAt    *time.Time
		wantExpired  bool
		wantExpiring bool
	}{
		{"no expiry", nil, false, false},
		{"expired", &past, true, false},
		{"expiring soon", &soon, false, true},
		{"expiring later", &later, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lot := &InventoryLot{ExpiresAt: tt.expiresAt}
			if got := lot.IsExpired(now); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if got := lot.ExpiresWithin(now, 30); got != tt.wantExpiring {
				t.Errorf("ExpiresWithin(30) = %v, want %v", got, tt.wantExpiring)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	deficit := func(s string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
	}

	details := []*ResourceDetail{
		{ResourceID: "r1", Satisfiable: true},
		{ResourceID: "r2", Satisfiable: false, Deficit: deficit("2.5")},
		{ResourceID: "r1", Satisfiable: true},
	}

	stats := ComputeStats("c1", details)

	if stats.TotalDetails != 3 || stats.SatisfiableCount != 2 || stats.UnsatisfiableCount != 1 {
		t.Errorf("counts = %d/%d/%d", stats.TotalDetails, stats.SatisfiableCount, stats.UnsatisfiableCount)
	}
	if stats.DistinctResources != 2 {
		t.Errorf("DistinctResources = %d, want 2", stats.DistinctResources)
	}
	if !stats.SatisfactionPercent.Equal(decimal.RequireFromString("66.67")) {
		t.Errorf("SatisfactionPercent = %s, want 66.67", stats.SatisfactionPercent)
	}
	if !stats.TotalDeficit.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("TotalDeficit = %s, want 2.5", stats.TotalDeficit)
	}

	empty := ComputeStats("c2", nil)
	if !empty.SatisfactionPercent.IsZero() || empty.TotalDetails != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		p          Pagination
		total      int
		wantOffset int
		wantLimit  int
		wantPages  int
	}{
		{"first page", NewPagination(1, 10), 25, 0, 10, 3},
		{"third page", NewPagination(3, 10), 25, 20, 10, 3},
		{"defaults", NewPagination(0, 0), 0, 0, 25, 1},
		{"clamped size", NewPagination(1, 500), 150, 0, 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}
			if got := tt.p.Limit(); got != tt.wantLimit {
				t.Errorf("Limit() = %d, want %d", got, tt.wantLimit)
			}
			if got := tt.p.TotalPages(tt.total); got != tt.wantPages {
				t.Errorf("TotalPages(%d) = %d, want %d", tt.total, got, tt.wantPages)
			}
		})
	}
}
