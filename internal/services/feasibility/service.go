// Package feasibility decides whether a strategy's demand can be met from
// current inventory and records each decision as an immutable calculation.
package feasibility

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/database"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/util"
)

// State is a step of a calculation run.
type State string

const (
	StateLoadingDemand        State = "loading_demand"
	StateExplodingBOM         State = "exploding_bom"
	StateAggregatingInventory State = "aggregating_inventory"
	StateEvaluating           State = "evaluating"
	StateRecording            State = "recording"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Deps are the collaborators of a Service.
type Deps struct {
	Strategies   StrategyReader
	Results      StrategyResultWriter
	Catalog      CatalogReader
	Inventory    InventoryReader
	Calculations CalculationStore
	Tx           TxRunner
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  util.Clock
	budget BudgetEstimator
	ids    IDGenerator
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used for timestamps and expiry flags.
func WithClock(c util.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithBudgetEstimator replaces the default NoBudget estimator.
func WithBudgetEstimator(b BudgetEstimator) Option {
	return func(o *options) { o.budget = b }
}

// WithIDGenerator sets the identifier source for recorded rows.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// Service runs feasibility calculations and serves their history.
type Service struct {
	strategies   StrategyReader
	catalog      CatalogReader
	calculations CalculationReader
	explorer     *Explorer
	aggregator   *Aggregator
	recorder     *Recorder
	budget       BudgetEstimator
	clock        util.Clock
	logger       *slog.Logger
	cfg          config.CalculationConfig
}

// NewService wires a Service over the SQLite repositories.
func NewService(db *database.DB, cfg config.CalculationConfig, opts ...Option) *Service {
	strategies := repository.NewStrategyRepository(db.DB)
	return New(Deps{
		Strategies:   strategies,
		Results:      strategies,
		Catalog:      repository.NewCatalogRepository(db.DB),
		Inventory:    repository.NewInventoryRepository(db.DB),
		Calculations: repository.NewCalculationRepository(db.DB),
		Tx:           db,
	}, cfg, opts...)
}

// New creates a Service from explicit collaborators.
func New(deps Deps, cfg config.CalculationConfig, opts ...Option) *Service {
	o := options{
		logger: slog.Default(),
		clock:  util.SystemClock{},
		budget: NoBudget{},
		ids:    util.NewIDGenerator(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.MaxParallelism < 1 {
		cfg.MaxParallelism = 1
	}

	logger := o.logger.With("component", "feasibility")
	return &Service{
		strategies:   deps.Strategies,
		catalog:      deps.Catalog,
		calculations: deps.Calculations,
		explorer:     NewExplorer(deps.Catalog),
		aggregator:   NewAggregator(deps.Catalog, deps.Inventory, o.clock),
		recorder:     NewRecorder(deps.Tx, deps.Calculations, deps.Results, o.ids, logger),
		budget:       o.budget,
		clock:        o.clock,
		logger:       logger,
		cfg:          cfg,
	}
}

// DefaultPolicy is the policy applied when a request supplies none.
func (s *Service) DefaultPolicy() Policy {
	return Policy{ExcludeDoNotTouchWarehouses: s.cfg.ExcludeDoNotTouch}
}

// run tracks the state of one Calculate call.
type run struct {
	logger *slog.Logger
	state  State
}

func (r *run) enter(state State) {
	r.state = state
	r.logger.Debug("calculation state", "state", state)
}

func (r *run) fail(err error) error {
	r.logger.Warn("calculation failed", "state", StateFailed, "failed_in", r.state, "error", err)
	r.state = StateFailed
	return err
}

// explodedLine is a demand line with its product and requirements.
type explodedLine struct {
	demand  *models.Demand
	product *models.Product
	reqs    []Requirement
}

// Calculate evaluates every demand line of the strategy against current
// inventory, records the snapshot and updates the strategy's cached result.
// Nothing is persisted unless every step succeeds. Each call records a new
// calculation, even when inputs are unchanged.
func (s *Service) Calculate(ctx context.Context, req Request) (*Result, error) {
	r := &run{logger: s.logger.With("strategy_id", req.StrategyID)}

	if err := req.Policy.Validate(); err != nil {
		return nil, r.fail(err)
	}

	r.enter(StateLoadingDemand)
	strategy, demand, err := s.strategies.GetWithDemand(ctx, req.StrategyID)
	if err != nil {
		return nil, r.fail(translate("loading strategy "+req.StrategyID, err))
	}

	r.enter(StateExplodingBOM)
	lines, err := s.explodeAll(ctx, demand)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(StateAggregatingInventory)
	avail, err := s.aggregateAll(ctx, lines, req.Policy)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(StateEvaluating)
	products, details, verdicts := evaluate(lines, avail)
	result := RollupStrategy(verdicts)

	used, err := s.budget.Estimate(ctx, strategy, products)
	if err != nil {
		return nil, r.fail(fmt.Errorf("estimating budget: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return nil, r.fail(fmt.Errorf("calculation for strategy %s cancelled before recording: %w", strategy.ID, err))
	}

	r.enter(StateRecording)
	calc, err := s.recorder.Record(ctx, RecordInput{
		StrategyID:      strategy.ID,
		Result:          result,
		BudgetUsed:      used,
		BudgetAvailable: remainingBudget(strategy, used),
		Notes:           s.notes(req.Policy),
		CalculatedAt:    s.clock.Now(),
		Details:         details,
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.state = StateDone
	r.logger.Info("calculation recorded",
		"state", StateDone,
		"calculation_id", calc.ID,
		"result", result,
		"products", len(products),
		"details", len(details))

	return &Result{
		CalculationID:   calc.ID,
		StrategyID:      strategy.ID,
		StrategyName:    strategy.Name,
		Result:          result,
		BudgetUsed:      calc.BudgetUsed,
		BudgetAvailable: calc.BudgetAvailable,
		CalculatedAt:    calc.CalculatedAt,
		Notes:           calc.Notes,
		Products:        products,
	}, nil
}

// explodeAll expands every demand line concurrently. Output keeps demand
// order.
func (s *Service) explodeAll(ctx context.Context, demand []*models.Demand) ([]explodedLine, error) {
	lines := make([]explodedLine, len(demand))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallelism)
	for i, d := range demand {
		i, d := i, d
		g.Go(func() error {
			product, reqs, err := s.explorer.explode(gctx, d.ProductID, d.Quantity)
			if err != nil {
				return fmt.Errorf("demand line %s: %w", d.ID, err)
			}
			lines[i] = explodedLine{demand: d, product: product, reqs: reqs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

// aggregateAll computes availability once per distinct resource.
func (s *Service) aggregateAll(ctx context.Context, lines []explodedLine, policy Policy) (map[string]*Availability, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, line := range lines {
		for _, req := range line.reqs {
			if !seen[req.ResourceID] {
				seen[req.ResourceID] = true
				ids = append(ids, req.ResourceID)
			}
		}
	}

	results := make([]*Availability, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallelism)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			a, err := s.aggregator.Aggregate(gctx, id, policy)
			if err != nil {
				return err
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	avail := make(map[string]*Availability, len(ids))
	for i, id := range ids {
		avail[id] = results[i]
	}
	return avail, nil
}

// evaluate judges each requirement against the full availability of its
// resource. Requirements of different lines on the same resource do not
// draw each other down.
func evaluate(lines []explodedLine, avail map[string]*Availability) ([]ProductResult, []*models.ResourceDetail, []bool) {
	products := make([]ProductResult, 0, len(lines))
	verdicts := make([]bool, 0, len(lines))
	var details []*models.ResourceDetail

	for _, line := range lines {
		pr := ProductResult{
			DemandID:  line.demand.ID,
			ProductID: line.product.ID,
			Code:      line.product.Code,
			Name:      line.product.Name,
			Quantity:  line.demand.Quantity,
			Unit:      line.product.UnitOfMeasure,
			Resources: make([]ResourceResult, 0, len(line.reqs)),
		}

		resourceVerdicts := make([]ResourceVerdict, 0, len(line.reqs))
		for _, req := range line.reqs {
			a := avail[req.ResourceID]
			v := EvaluateResource(req.Required, a.Total)
			resourceVerdicts = append(resourceVerdicts, v)

			pr.Resources = append(pr.Resources, ResourceResult{
				ResourceID:  req.ResourceID,
				Code:        a.Resource.Code,
				Name:        a.Resource.Name,
				Unit:        a.Resource.UnitOfMeasure,
				PerUnit:     req.PerUnit,
				Required:    v.Required,
				Available:   v.Available,
				Satisfiable: v.Satisfiable,
				Deficit:     v.Deficit,
				Lots:        a.Lots,
			})
			details = append(details, &models.ResourceDetail{
				ProductID:      line.product.ID,
				ResourceID:     req.ResourceID,
				RequiredTotal:  v.Required,
				AvailableTotal: v.Available,
				Satisfiable:    v.Satisfiable,
				Deficit:        v.Deficit,
			})
		}

		pr.Satisfiable = RollupProduct(resourceVerdicts)
		products = append(products, pr)
		verdicts = append(verdicts, pr.Satisfiable)
	}

	return products, details, verdicts
}

func (s *Service) notes(policy Policy) string {
	parts := []string{s.cfg.NotesPrefix}
	if policy.ExcludeDoNotTouchWarehouses {
		parts = append(parts, "do_not_touch warehouses excluded")
	}
	if len(policy.PrioritizeWarehouseTypes) > 0 {
		types := make([]string, len(policy.PrioritizeWarehouseTypes))
		for i, wt := range policy.PrioritizeWarehouseTypes {
			types[i] = string(wt)
		}
		parts = append(parts, "lots ordered by "+strings.Join(types, ", "))
	}
	return strings.Join(parts, "; ")
}

// Requirements previews the bill of materials of a product at qty, both
// consumed and produced resources, without reading inventory.
func (s *Service) Requirements(ctx context.Context, productID string, qty decimal.Decimal) (*RequirementsPreview, error) {
	product, edges, err := s.explorer.edges(ctx, productID, qty)
	if err != nil {
		return nil, err
	}

	preview := &RequirementsPreview{
		ProductID:        product.ID,
		Code:             product.Code,
		Name:             product.Name,
		Quantity:         qty,
		Lines:            make([]RequirementLine, 0, len(edges)),
		ConsumptionTotal: decimal.Zero,
		ProductionTotal:  decimal.Zero,
	}

	for _, edge := range edges {
		res := edge.Resource
		if res == nil {
			res, err = s.catalog.GetResource(ctx, edge.ResourceID)
			if err != nil {
				return nil, translate("resolving resource "+edge.ResourceID, err)
			}
		}

		req := requirementFor(edge, qty)
		preview.Lines = append(preview.Lines, RequirementLine{
			ResourceID:   res.ID,
			Code:         res.Code,
			Name:         res.Name,
			Unit:         res.UnitOfMeasure,
			RelationType: edge.RelationType,
			PerUnit:      req.PerUnit,
			Total:        req.Required,
		})

		switch edge.RelationType {
		case models.RelationTypeConsumption:
			preview.ConsumptionTotal = preview.ConsumptionTotal.Add(req.Required)
		case models.RelationTypeProduction:
			preview.ProductionTotal = preview.ProductionTotal.Add(req.Required)
		}
	}

	return preview, nil
}
