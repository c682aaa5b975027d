package feasibility

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/testutil"
	"github.com/stratplan/stratplan/internal/util"
)

type harness struct {
	t   *testing.T
	ctx context.Context
	db  *testutil.TestDB
	svc *Service

	clock      *util.FixedClock
	strategies *repository.StrategyRepository
	catalog    *repository.CatalogRepository
	inventory  *repository.InventoryRepository
}

func setupService(t *testing.T, opts ...Option) *harness {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := util.NewFixedClock(time.Now().UTC())

	opts = append([]Option{
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	return &harness{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		svc:        NewService(db.DB, config.Default().Calculation, opts...),
		clock:      clock,
		strategies: repository.NewStrategyRepository(db.SQL()),
		catalog:    repository.NewCatalogRepository(db.SQL()),
		inventory:  repository.NewInventoryRepository(db.SQL()),
	}
}

func (h *harness) resource(code string) *models.Resource {
	h.t.Helper()
	r := testutil.FixtureResource(func(r *models.Resource) { r.Code = code })
	if err := h.catalog.CreateResource(h.ctx, nil, r); err != nil {
		h.t.Fatalf("CreateResource: %v", err)
	}
	return r
}

// product creates a product consuming each resource at the given per-unit
// quantity.
func (h *harness) product(code string, bom map[*models.Resource]string) *models.Product {
	h.t.Helper()
	p := testutil.FixtureProduct(func(p *models.Product) { p.Code = code })
	if err := h.catalog.CreateProduct(h.ctx, nil, p); err != nil {
		h.t.Fatalf("CreateProduct: %v", err)
	}
	for r, perUnit := range bom {
		if err := h.catalog.CreateRelation(h.ctx, nil, testutil.FixtureRelation(p.ID, r.ID, perUnit)); err != nil {
			h.t.Fatalf("CreateRelation: %v", err)
		}
	}
	return p
}

func (h *harness) warehouse(overrides ...func(*models.Warehouse)) *models.Warehouse {
	h.t.Helper()
	w := testutil.FixtureWarehouse(overrides...)
	if err := h.inventory.CreateWarehouse(h.ctx, nil, w); err != nil {
		h.t.Fatalf("CreateWarehouse: %v", err)
	}
	return w
}

func (h *harness) lot(r *models.Resource, w *models.Warehouse, qty string, overrides ...func(*models.InventoryLot)) *models.InventoryLot {
	h.t.Helper()
	lot := testutil.FixtureLot(r.ID, w.ID, qty, overrides...)
	if err := h.inventory.CreateLot(h.ctx, nil, lot); err != nil {
		h.t.Fatalf("CreateLot: %v", err)
	}
	return lot
}

// strategy creates a strategy with one demand line per (product, quantity)
// pair, in argument order.
func (h *harness) strategy(lines ...any) *models.Strategy {
	h.t.Helper()
	s := testutil.FixtureStrategy()
	if err := h.strategies.Create(h.ctx, nil, s); err != nil {
		h.t.Fatalf("Create strategy: %v", err)
	}
	for i := 0; i < len(lines); i += 2 {
		p := lines[i].(*models.Product)
		qty := lines[i+1].(string)
		if err := h.strategies.AddDemand(h.ctx, nil, testutil.FixtureDemand(s.ID, p.ID, qty)); err != nil {
			h.t.Fatalf("AddDemand: %v", err)
		}
	}
	return s
}

func (h *harness) strategyResult(id string) models.StrategyResult {
	h.t.Helper()
	s, err := h.strategies.GetByID(h.ctx, id)
	if err != nil {
		h.t.Fatalf("GetByID: %v", err)
	}
	return s.Result
}

func requireDec(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(testutil.Dec(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}

func TestCalculate_ResourceShortfall(t *testing.T) {
	h := setupService(t)

	r1 := h.resource("R1")
	r2 := h.resource("R2")
	p := h.product("P", map[*models.Resource]string{r1: "10", r2: "5"})
	w := h.warehouse()
	h.lot(r1, w, "120")
	h.lot(r2, w, "40")
	s := h.strategy(p, "10")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.Result != models.CalculationResultUnsatisfiable {
		t.Errorf("Result = %s, want unsatisfiable", res.Result)
	}
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	pr := res.Products[0]
	if pr.Satisfiable {
		t.Error("product satisfiable, want unsatisfiable")
	}
	if len(pr.Resources) != 2 {
		t.Fatalf("resources = %d, want 2", len(pr.Resources))
	}

	got1, got2 := pr.Resources[0], pr.Resources[1]
	if got1.Code != "R1" || got2.Code != "R2" {
		t.Fatalf("resource order = %s, %s; want R1, R2", got1.Code, got2.Code)
	}
	requireDec(t, "R1 required", got1.Required, "100")
	requireDec(t, "R1 available", got1.Available, "120")
	if !got1.Satisfiable || got1.Deficit.Valid {
		t.Errorf("R1 = %+v, want satisfiable without deficit", got1)
	}
	requireDec(t, "R2 required", got2.Required, "50")
	requireDec(t, "R2 available", got2.Available, "40")
	if got2.Satisfiable || !got2.Deficit.Valid {
		t.Fatalf("R2 = %+v, want unsatisfiable with deficit", got2)
	}
	requireDec(t, "R2 deficit", got2.Deficit.Decimal, "10")

	h.db.AssertRowCount(t, "calculations", 1)
	h.db.AssertRowCount(t, "calculation_resource_details", 2)
	if got := h.strategyResult(s.ID); got != models.StrategyResultUnsatisfiable {
		t.Errorf("strategy result = %s, want unsatisfiable", got)
	}

	calc, err := h.svc.GetCalculation(h.ctx, res.CalculationID)
	if err != nil {
		t.Fatalf("GetCalculation: %v", err)
	}
	if len(calc.Details) != 2 {
		t.Fatalf("recorded details = %d, want 2", len(calc.Details))
	}
	if calc.Details[1].ResourceID != r2.ID || !calc.Details[1].Deficit.Valid {
		t.Errorf("second detail = %+v, want R2 with deficit", calc.Details[1])
	}
	requireDec(t, "recorded deficit", calc.Details[1].Deficit.Decimal, "10")
}

func TestCalculate_MixedDemandIsPartial(t *testing.T) {
	h := setupService(t)

	r1 := h.resource("R1")
	r2 := h.resource("R2")
	ok := h.product("OK", map[*models.Resource]string{r1: "1"})
	short := h.product("SHORT", map[*models.Resource]string{r2: "1"})
	h.lot(r1, h.warehouse(), "10")
	s := h.strategy(ok, "5", short, "5")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.Result != models.CalculationResultPartial {
		t.Errorf("Result = %s, want partial", res.Result)
	}
	if res.Products[0].Code != "OK" || !res.Products[0].Satisfiable {
		t.Errorf("first product = %+v, want OK satisfiable", res.Products[0])
	}
	if res.Products[1].Code != "SHORT" || res.Products[1].Satisfiable {
		t.Errorf("second product = %+v, want SHORT unsatisfiable", res.Products[1])
	}
	requireDec(t, "SHORT deficit", res.Products[1].Resources[0].Deficit.Decimal, "5")
	if got := h.strategyResult(s.ID); got != models.StrategyResultPartial {
		t.Errorf("strategy result = %s, want partial", got)
	}
}

func TestCalculate_NoDemandIsSatisfiable(t *testing.T) {
	h := setupService(t)
	s := h.strategy()

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.Result != models.CalculationResultSatisfiable {
		t.Errorf("Result = %s, want satisfiable", res.Result)
	}
	if len(res.Products) != 0 {
		t.Errorf("products = %d, want 0", len(res.Products))
	}
	h.db.AssertRowCount(t, "calculations", 1)
	h.db.AssertRowCount(t, "calculation_resource_details", 0)
}

type sequenceIDs struct{ n int64 }

func (g *sequenceIDs) NewID() string {
	g.n++
	return util.DeterministicID(g.n)
}

func TestCalculate_IDGenerator(t *testing.T) {
	h := setupService(t, WithIDGenerator(&sequenceIDs{}))
	flour := h.resource("FLOUR")
	bread := h.product("BREAD", map[*models.Resource]string{flour: "2"})
	h.lot(flour, h.warehouse(), "100")
	s := h.strategy(bread, "5")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.CalculationID != util.DeterministicID(1) {
		t.Errorf("CalculationID = %s, want first generated id", res.CalculationID)
	}

	calc, err := h.svc.GetCalculation(h.ctx, res.CalculationID)
	if err != nil {
		t.Fatalf("GetCalculation: %v", err)
	}
	if len(calc.Details) != 1 || calc.Details[0].ID != util.DeterministicID(2) {
		t.Errorf("details = %+v, want one detail with the second generated id", calc.Details)
	}
}

func TestCalculate_ProductionEdgesExcluded(t *testing.T) {
	h := setupService(t)
	in := h.resource("R1")
	out := h.resource("OUT")
	p := h.product("P", map[*models.Resource]string{in: "0.1"})
	rel := testutil.FixtureRelation(p.ID, out.ID, "5", func(r *models.ProductResourceRelation) {
		r.RelationType = models.RelationTypeProduction
	})
	if err := h.catalog.CreateRelation(h.ctx, nil, rel); err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}
	h.lot(in, h.warehouse(), "0.3")
	s := h.strategy(p, "3")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.Result != models.CalculationResultSatisfiable {
		t.Errorf("Result = %s, want satisfiable", res.Result)
	}
	if len(res.Products) != 1 || len(res.Products[0].Resources) != 1 {
		t.Fatalf("products = %+v, want one product with one resource", res.Products)
	}
	got := res.Products[0].Resources[0]
	if got.ResourceID != in.ID {
		t.Errorf("resource = %s, want the consumed resource", got.Code)
	}
	requireDec(t, "Required", got.Required, "0.3")
	requireDec(t, "Available", got.Available, "0.3")
	h.db.AssertRowCount(t, "calculation_resource_details", 1)

	reqs, err := NewExplorer(h.catalog).Explode(h.ctx, p.ID, testutil.Dec("3"))
	if err != nil {
		t.Fatalf("Explode: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ResourceID != in.ID {
		t.Errorf("Explode = %+v, want only the consumption edge", reqs)
	}
}

func TestCalculate_ProductWithoutBOMIsSatisfiable(t *testing.T) {
	h := setupService(t)
	p := h.product("BARE", nil)
	s := h.strategy(p, "3")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Result != models.CalculationResultSatisfiable || !res.Products[0].Satisfiable {
		t.Errorf("result = %s, product satisfiable = %v", res.Result, res.Products[0].Satisfiable)
	}
	h.db.AssertRowCount(t, "calculation_resource_details", 0)
}

func TestCalculate_DoNotTouchPolicy(t *testing.T) {
	h := setupService(t)

	r := h.resource("R1")
	p := h.product("P", map[*models.Resource]string{r: "1"})
	vault := h.warehouse(func(w *models.Warehouse) { w.Status = models.WarehouseStatusDoNotTouch })
	h.lot(r, vault, "500")
	s := h.strategy(p, "20")

	tests := []struct {
		name      string
		policy    Policy
		available string
		result    models.CalculationResult
	}{
		{"excluded", Policy{ExcludeDoNotTouchWarehouses: true}, "0", models.CalculationResultUnsatisfiable},
		{"included", Policy{}, "500", models.CalculationResultSatisfiable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID, Policy: tt.policy})
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			rr := res.Products[0].Resources[0]
			requireDec(t, "available", rr.Available, tt.available)
			if res.Result != tt.result {
				t.Errorf("Result = %s, want %s", res.Result, tt.result)
			}
			if tt.policy.ExcludeDoNotTouchWarehouses {
				requireDec(t, "deficit", rr.Deficit.Decimal, "20")
				if len(rr.Lots) != 0 {
					t.Errorf("lots = %d, want 0", len(rr.Lots))
				}
				if !strings.Contains(res.Notes, "do_not_touch warehouses excluded") {
					t.Errorf("Notes = %q", res.Notes)
				}
			}
		})
	}

	// Every run is recorded, including repeats with identical inputs.
	h.db.AssertRowCount(t, "calculations", 2)
}

func TestCalculate_ExactAvailabilityIsSatisfiable(t *testing.T) {
	h := setupService(t)

	r := h.resource("R1")
	p := h.product("P", map[*models.Resource]string{r: "2.5"})
	w := h.warehouse()
	h.lot(r, w, "10")
	h.lot(r, w, "15")
	s := h.strategy(p, "10")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	rr := res.Products[0].Resources[0]
	requireDec(t, "required", rr.Required, "25")
	requireDec(t, "available", rr.Available, "25")
	if !rr.Satisfiable || rr.Deficit.Valid {
		t.Errorf("resource = %+v, want satisfiable without deficit", rr)
	}
	if res.Result != models.CalculationResultSatisfiable {
		t.Errorf("Result = %s, want satisfiable", res.Result)
	}
}

func TestCalculate_SharedResourceIsNotDrawnDown(t *testing.T) {
	h := setupService(t)

	r := h.resource("R1")
	a := h.product("A", map[*models.Resource]string{r: "1"})
	b := h.product("B", map[*models.Resource]string{r: "1"})
	h.lot(r, h.warehouse(), "10")
	s := h.strategy(a, "8", b, "8")

	res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.Result != models.CalculationResultSatisfiable {
		t.Errorf("Result = %s, want satisfiable", res.Result)
	}
	for _, pr := range res.Products {
		requireDec(t, pr.Code+" available", pr.Resources[0].Available, "10")
	}
}

func TestCalculate_LotSelection(t *testing.T) {
	h := setupService(t)

	r := h.resource("R1")
	p := h.product("P", map[*models.Resource]string{r: "1"})
	main := h.warehouse(func(w *models.Warehouse) { w.Name = "A Main" })
	overflow := h.warehouse(func(w *models.Warehouse) {
		w.Name = "B Overflow"
		w.WarehouseType = models.WarehouseTypeSecondary
	})

	today := h.clock.Now().Truncate(24 * time.Hour)
	expired := today.AddDate(0, 0, -10)
	h.lot(r, main, "4", func(l *models.InventoryLot) {
		l.ManufacturedAt = today.AddDate(-1, 0, 0)
		l.ExpiresAt = &expired
	})
	h.lot(r, overflow, "6")
	h.lot(r, main, "100", func(l *models.InventoryLot) { l.Status = models.LotStatusReserved })
	s := h.strategy(p, "10")

	t.Run("expired lots count and are flagged", func(t *testing.T) {
		res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		rr := res.Products[0].Resources[0]
		requireDec(t, "available", rr.Available, "10")
		if len(rr.Lots) != 2 {
			t.Fatalf("lots = %d, want 2", len(rr.Lots))
		}
		if rr.Lots[0].WarehouseName != "A Main" || !rr.Lots[0].Expired {
			t.Errorf("first lot = %+v, want expired lot in A Main", rr.Lots[0])
		}
		if rr.Lots[1].Expired {
			t.Errorf("second lot flagged expired")
		}
	})

	t.Run("priority orders lots without changing the sum", func(t *testing.T) {
		policy := Policy{PrioritizeWarehouseTypes: []models.WarehouseType{models.WarehouseTypeSecondary}}
		res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID, Policy: policy})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		rr := res.Products[0].Resources[0]
		requireDec(t, "available", rr.Available, "10")
		if rr.Lots[0].WarehouseType != models.WarehouseTypeSecondary {
			t.Errorf("first lot type = %s, want secondary", rr.Lots[0].WarehouseType)
		}
	})
}

type fixedBudget decimal.Decimal

func (b fixedBudget) Estimate(context.Context, *models.Strategy, []ProductResult) (decimal.Decimal, error) {
	return decimal.Decimal(b), nil
}

func TestCalculate_Budget(t *testing.T) {
	t.Run("defaults to zero spend", func(t *testing.T) {
		h := setupService(t)
		s := h.strategy()

		res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		requireDec(t, "BudgetUsed", res.BudgetUsed, "0")
		requireDec(t, "BudgetAvailable", res.BudgetAvailable.Decimal, "10000")
	})

	t.Run("custom estimator", func(t *testing.T) {
		h := setupService(t, WithBudgetEstimator(fixedBudget(testutil.Dec("2500.75"))))
		s := h.strategy()

		res, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		calc, err := h.svc.GetCalculation(h.ctx, res.CalculationID)
		if err != nil {
			t.Fatalf("GetCalculation: %v", err)
		}
		requireDec(t, "BudgetUsed", calc.BudgetUsed, "2500.75")
		requireDec(t, "BudgetAvailable", calc.BudgetAvailable.Decimal, "7499.25")
	})
}

// missingProducts resolves resources and edges but no products.
type missingProducts struct {
	*repository.CatalogRepository
}

func (missingProducts) GetProduct(context.Context, string) (*models.Product, error) {
	return nil, repository.ErrNotFound
}

func TestCalculate_Errors(t *testing.T) {
	t.Run("unknown strategy", func(t *testing.T) {
		h := setupService(t)
		_, err := h.svc.Calculate(h.ctx, Request{StrategyID: "missing"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("err = %v, want repository.ErrNotFound in chain", err)
		}
	})

	t.Run("demand for unresolvable product", func(t *testing.T) {
		h := setupService(t)
		s := h.strategy(h.product("P", nil), "2")

		calcs := repository.NewCalculationRepository(h.db.SQL())
		svc := New(Deps{
			Strategies:   h.strategies,
			Results:      h.strategies,
			Catalog:      missingProducts{h.catalog},
			Inventory:    h.inventory,
			Calculations: calcs,
			Tx:           h.db.DB,
		}, config.Default().Calculation, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

		_, err := svc.Calculate(h.ctx, Request{StrategyID: s.ID})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		h.db.AssertRowCount(t, "calculations", 0)
		if got := h.strategyResult(s.ID); got != models.StrategyResultNotCalculated {
			t.Errorf("strategy result = %s, want not_calculated", got)
		}
	})

	t.Run("negative demand quantity", func(t *testing.T) {
		h := setupService(t)
		s := h.strategy(h.product("P", nil), "1")
		h.db.ExecSQL(t, "UPDATE strategy_demands SET quantity = '-1' WHERE strategy_id = ?", s.ID)

		_, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
		h.db.AssertRowCount(t, "calculations", 0)
	})

	t.Run("negative lot quantity", func(t *testing.T) {
		h := setupService(t)
		r := h.resource("R1")
		h.lot(r, h.warehouse(), "-3")
		s := h.strategy(h.product("P", map[*models.Resource]string{r: "1"}), "1")

		_, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
		h.db.AssertRowCount(t, "calculations", 0)
	})

	t.Run("invalid policy", func(t *testing.T) {
		h := setupService(t)
		s := h.strategy()
		policy := Policy{PrioritizeWarehouseTypes: []models.WarehouseType{"cold"}}

		_, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID, Policy: policy})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
		h.db.AssertRowCount(t, "calculations", 0)
	})

	t.Run("cancelled context records nothing", func(t *testing.T) {
		h := setupService(t)
		s := h.strategy()

		ctx, cancel := context.WithCancel(h.ctx)
		cancel()

		_, err := h.svc.Calculate(ctx, Request{StrategyID: s.ID})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		h.db.AssertRowCount(t, "calculations", 0)
		if got := h.strategyResult(s.ID); got != models.StrategyResultNotCalculated {
			t.Errorf("strategy result = %s, want not_calculated", got)
		}
	})
}

func TestCalculate_RecordingIsAllOrNothing(t *testing.T) {
	h := setupService(t)

	r := h.resource("R1")
	p := h.product("P", map[*models.Resource]string{r: "1"})
	h.lot(r, h.warehouse(), "5")
	s := h.strategy(p, "1")

	h.db.ExecSQL(t, `CREATE TRIGGER fail_details BEFORE INSERT ON calculation_resource_details
		BEGIN SELECT RAISE(ABORT, 'detail insert rejected'); END`)

	_, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}

	h.db.AssertRowCount(t, "calculations", 0)
	h.db.AssertRowCount(t, "calculation_resource_details", 0)
	if got := h.strategyResult(s.ID); got != models.StrategyResultNotCalculated {
		t.Errorf("strategy result = %s, want not_calculated", got)
	}
}

func TestService_History(t *testing.T) {
	h := setupService(t)

	r := h.resource("R1")
	p := h.product("P", map[*models.Resource]string{r: "1"})
	w := h.warehouse()
	h.lot(r, w, "5")
	s := h.strategy(p, "8")

	if _, err := h.svc.LatestCalculation(h.ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestCalculation before any run: err = %v, want ErrNotFound", err)
	}

	first, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("first Calculate: %v", err)
	}

	h.clock.Advance(time.Hour)
	h.lot(r, w, "5")

	second, err := h.svc.Calculate(h.ctx, Request{StrategyID: s.ID})
	if err != nil {
		t.Fatalf("second Calculate: %v", err)
	}
	if first.CalculationID == second.CalculationID {
		t.Fatal("repeat run reused calculation id")
	}
	if first.Result != models.CalculationResultUnsatisfiable || second.Result != models.CalculationResultSatisfiable {
		t.Errorf("results = %s, %s; want unsatisfiable, satisfiable", first.Result, second.Result)
	}

	t.Run("list newest first", func(t *testing.T) {
		list, err := h.svc.ListCalculations(h.ctx, s.ID, models.DefaultPagination())
		if err != nil {
			t.Fatalf("ListCalculations: %v", err)
		}
		if list.Total != 2 || len(list.Calculations) != 2 {
			t.Fatalf("total = %d, len = %d; want 2", list.Total, len(list.Calculations))
		}
		if list.Calculations[0].ID != second.CalculationID {
			t.Errorf("first listed = %s, want %s", list.Calculations[0].ID, second.CalculationID)
		}
	})

	t.Run("latest has details", func(t *testing.T) {
		latest, err := h.svc.LatestCalculation(h.ctx, s.ID)
		if err != nil {
			t.Fatalf("LatestCalculation: %v", err)
		}
		if latest.ID != second.CalculationID || len(latest.Details) != 1 {
			t.Errorf("latest = %s with %d details", latest.ID, len(latest.Details))
		}
	})

	t.Run("by result", func(t *testing.T) {
		list, err := h.svc.ListCalculationsByResult(h.ctx, models.CalculationResultUnsatisfiable, models.DefaultPagination())
		if err != nil {
			t.Fatalf("ListCalculationsByResult: %v", err)
		}
		if len(list.Calculations) != 1 || list.Calculations[0].ID != first.CalculationID {
			t.Errorf("unsatisfiable calculations = %+v", list.Calculations)
		}

		if _, err := h.svc.ListCalculationsByResult(h.ctx, "maybe", models.DefaultPagination()); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("unknown result: err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := h.svc.CalculationStats(h.ctx, first.CalculationID)
		if err != nil {
			t.Fatalf("CalculationStats: %v", err)
		}
		if stats.TotalDetails != 1 || stats.UnsatisfiableCount != 1 {
			t.Errorf("stats = %+v", stats)
		}
		requireDec(t, "TotalDeficit", stats.TotalDeficit, "3")
		requireDec(t, "SatisfactionPercent", stats.SatisfactionPercent, "0")
	})

	t.Run("unknown calculation", func(t *testing.T) {
		if _, err := h.svc.GetCalculation(h.ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Requirements(t *testing.T) {
	h := setupService(t)

	flour := h.resource("FLOUR")
	crumbs := h.resource("CRUMBS")
	p := h.product("BREAD", map[*models.Resource]string{flour: "0.5"})
	if err := h.catalog.CreateRelation(h.ctx, nil, testutil.FixtureRelation(p.ID, crumbs.ID, "0.1",
		func(rel *models.ProductResourceRelation) { rel.RelationType = models.RelationTypeProduction })); err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}

	preview, err := h.svc.Requirements(h.ctx, p.ID, testutil.Dec("20"))
	if err != nil {
		t.Fatalf("Requirements: %v", err)
	}
	if len(preview.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(preview.Lines))
	}
	requireDec(t, "ConsumptionTotal", preview.ConsumptionTotal, "10")
	requireDec(t, "ProductionTotal", preview.ProductionTotal, "2")

	reqs, err := h.svc.explorer.Explode(h.ctx, p.ID, testutil.Dec("20"))
	if err != nil {
		t.Fatalf("Explode: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ResourceID != flour.ID {
		t.Errorf("Explode = %+v, want only the consumed resource", reqs)
	}

	if _, err := h.svc.Requirements(h.ctx, "missing", testutil.Dec("1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown product: err = %v, want ErrNotFound", err)
	}
	if _, err := h.svc.Requirements(h.ctx, p.ID, testutil.Dec("-1")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative quantity: err = %v, want ErrInvalidInput", err)
	}
}
