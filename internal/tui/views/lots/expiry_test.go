package lots

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/services/inventory"
)

type fakeReporter struct {
	days []int
}

func (f *fakeReporter) ExpiryReport(_ context.Context, days int) (*inventory.ExpiryReport, error) {
	f.days = append(f.days, days)
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	past := asOf.AddDate(0, 0, -3)
	soon := asOf.AddDate(0, 0, 5)
	lapsed := asOf.AddDate(0, 0, -1)
	ending := asOf.AddDate(0, 0, 12)
	return &inventory.ExpiryReport{
		AsOf: asOf,
		Days: days,
		Expired: []*models.InventoryLot{
			{LotNumber: "PAST", ExpiresAt: &past, Quantity: decimal.NewFromInt(4), Status: models.LotStatusAvailable,
				Warehouse: &models.Warehouse{Name: "Central Depot"}},
		},
		Expiring: []*models.InventoryLot{
			{LotNumber: "SOON", WarehouseID: "w-2", ExpiresAt: &soon, Quantity: decimal.NewFromInt(9), Status: models.LotStatusReserved},
		},
		ValidityLapsed: []*models.InventoryLot{
			{LotNumber: "OLD-CERT", WarehouseID: "w-3", ValidUntil: &lapsed, Quantity: decimal.NewFromInt(2), Status: models.LotStatusAvailable},
		},
		ValidityEnding: []*models.InventoryLot{
			{LotNumber: "NEW-CERT", WarehouseID: "w-3", ValidUntil: &ending, Quantity: decimal.NewFromInt(6), Status: models.LotStatusAvailable},
		},
	}, nil
}

func TestExpiryView_Render(t *testing.T) {
	rep := &fakeReporter{}
	v := NewExpiryView(rep)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	out := v.Render(120)
	for _, want := range []string{"LOT EXPIRY", "30 days", "2026-06-15", "EXPIRED", "PAST", "Central Depot", "-3", "SOON", "w-2", "5",
		"LAPSED", "OLD-CERT", "2026-06-14", "ENDING", "NEW-CERT", "2026-06-27", "12", "Lapsed"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestExpiryView_CycleHorizon(t *testing.T) {
	rep := &fakeReporter{}
	v := NewExpiryView(rep)

	var got []int
	for range Horizons {
		got = append(got, v.Days())
		v.CycleHorizon()
	}
	if got[0] != 30 || got[1] != 90 || got[2] != 7 {
		t.Errorf("horizons = %v, want [30 90 7]", got)
	}
	if v.Days() != 30 {
		t.Errorf("after full cycle: %d, want 30", v.Days())
	}

	_ = v.Load(context.Background())
	if len(rep.days) != 1 || rep.days[0] != 30 {
		t.Errorf("reporter called with %v", rep.days)
	}
}
