package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/util"
)

// Config configures the seed data generator.
type Config struct {
	BaseDate        time.Time
	LotsPerResource int
	RandomSeed      int64
}

// DefaultConfig returns a seed configuration anchored at today.
func DefaultConfig() Config {
	return Config{
		BaseDate:        util.StartOfDay(time.Now().UTC()),
		LotsPerResource: 3,
		RandomSeed:      2024,
	}
}

// Summary counts what Generate inserted.
type Summary struct {
	Warehouses int
	Resources  int
	Products   int
	Relations  int
	Lots       int
	Strategies int
	Skipped    bool
}

// TxBeginner starts transactions.
type TxBeginner interface {
	WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Generator inserts the demo data set. Identifiers come from
// util.DeterministicID so repeated runs against empty databases produce
// identical rows.
type Generator struct {
	db  *sql.DB
	tx  TxBeginner
	cfg Config
	rng *rand.Rand
	seq int64

	strategies *repository.StrategyRepository
	catalog    *repository.CatalogRepository
	inventory  *repository.InventoryRepository

	warehouseIDs []string
	resourceIDs  map[string]string
	productIDs   map[string]string
}

// NewGenerator creates a new seed data generator.
func NewGenerator(db *sql.DB, tx TxBeginner, cfg Config) *Generator {
	if cfg.LotsPerResource < 1 {
		cfg.LotsPerResource = 1
	}
	return &Generator{
		db:          db,
		tx:          tx,
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(cfg.RandomSeed)),
		strategies:  repository.NewStrategyRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		inventory:   repository.NewInventoryRepository(db),
		resourceIDs: make(map[string]string),
		productIDs:  make(map[string]string),
	}
}

func (g *Generator) nextID() string {
	g.seq++
	return util.DeterministicID(g.seq)
}

// Generate creates all seed data in one transaction. A database that already
// holds strategies is left untouched.
func (g *Generator) Generate(ctx context.Context) (*Summary, error) {
	var existing int
	if err := g.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM strategies").Scan(&existing); err != nil {
		return nil, fmt.Errorf("checking existing data: %w", err)
	}
	if existing > 0 {
		slog.Info("seed skipped, database already has strategies", "strategies", existing)
		return &Summary{Skipped: true}, nil
	}

	slog.Info("starting seed data generation", "base_date", g.cfg.BaseDate.Format(time.DateOnly))

	summary := &Summary{}
	err := g.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		steps := []struct {
			name string
			fn   func(context.Context, *sql.Tx, *Summary) error
		}{
			{"warehouses", g.generateWarehouses},
			{"catalog", g.generateCatalog},
			{"lots", g.generateLots},
			{"strategies", g.generateStrategies},
		}
		for _, step := range steps {
			if err := step.fn(ctx, tx, summary); err != nil {
				return fmt.Errorf("generating %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("seed data generation complete",
		"warehouses", summary.Warehouses,
		"resources", summary.Resources,
		"products", summary.Products,
		"lots", summary.Lots,
		"strategies", summary.Strategies,
	)

	return summary, nil
}

func (g *Generator) generateWarehouses(ctx context.Context, tx *sql.Tx, s *Summary) error {
	for _, w := range Warehouses {
		wh := &models.Warehouse{
			ID:            g.nextID(),
			Name:          w.Name,
			Location:      w.Location,
			WarehouseType: w.Type,
			Status:        w.Status,
		}
		if err := g.inventory.CreateWarehouse(ctx, tx, wh); err != nil {
			return fmt.Errorf("warehouse %s: %w", w.Name, err)
		}
		g.warehouseIDs = append(g.warehouseIDs, wh.ID)
		s.Warehouses++
	}
	return nil
}

func (g *Generator) generateCatalog(ctx context.Context, tx *sql.Tx, s *Summary) error {
	for _, r := range Resources {
		res := &models.Resource{
			ID:            g.nextID(),
			Code:          r.Code,
			Name:          r.Name,
			ResourceType:  r.Type,
			UnitOfMeasure: r.Unit,
			Description:   r.Description,
		}
		if err := g.catalog.CreateResource(ctx, tx, res); err != nil {
			return fmt.Errorf("resource %s: %w", r.Code, err)
		}
		g.resourceIDs[r.Code] = res.ID
		s.Resources++
	}

	for _, p := range Products {
		prod := &models.Product{
			ID:            g.nextID(),
			Code:          p.Code,
			Name:          p.Name,
			Description:   p.Description,
			PackagingType: p.Packaging,
			ProductType:   p.Type,
			UnitOfMeasure: p.Unit,
		}
		if err := g.catalog.CreateProduct(ctx, tx, prod); err != nil {
			return fmt.Errorf("product %s: %w", p.Code, err)
		}
		g.productIDs[p.Code] = prod.ID
		s.Products++
	}

	for _, edge := range BillOfMaterials {
		productID, resourceID := g.productIDs[edge.Product], g.resourceIDs[edge.Resource]
		if productID == "" || resourceID == "" {
			return fmt.Errorf("bill of materials references unknown %s -> %s", edge.Product, edge.Resource)
		}
		rel := &models.ProductResourceRelation{
			ID:              g.nextID(),
			ProductID:       productID,
			ResourceID:      resourceID,
			QuantityPerUnit: decimal.RequireFromString(edge.PerUnit),
			RelationType:    edge.Relation,
		}
		if err := g.catalog.CreateRelation(ctx, tx, rel); err != nil {
			return fmt.Errorf("relation %s -> %s: %w", edge.Product, edge.Resource, err)
		}
		s.Relations++
	}

	return nil
}

// generateLots spreads each resource's lots over the warehouses round-robin
// with quantities around BaseStock. Manufacture dates reach back far enough
// that short shelf lives produce some expired lots.
func (g *Generator) generateLots(ctx context.Context, tx *sql.Tx, s *Summary) error {
	for ri, r := range Resources {
		for n := 0; n < g.cfg.LotsPerResource; n++ {
			manufactured := g.cfg.BaseDate.AddDate(0, 0, -(10 + g.rng.Intn(110)))

			var expires *time.Time
			if r.ShelfLifeDays > 0 {
				e := manufactured.AddDate(0, 0, r.ShelfLifeDays)
				expires = &e
			}

			qty := decimal.NewFromFloat(r.BaseStock * (0.5 + g.rng.Float64())).Round(2)

			lot := &models.InventoryLot{
				ID:             g.nextID(),
				ResourceID:     g.resourceIDs[r.Code],
				WarehouseID:    g.warehouseIDs[(ri+n)%len(g.warehouseIDs)],
				LotNumber:      fmt.Sprintf("LOT-%s-%03d", r.Code, n+1),
				Manufacturer:   "Demo Mills",
				ManufacturedAt: manufactured,
				ExpiresAt:      expires,
				Quantity:       qty,
				Status:         models.LotStatusAvailable,
				SamplingNumber: fmt.Sprintf("S-%04d", g.rng.Intn(10000)),
			}
			if err := lot.Validate(); err != nil {
				return fmt.Errorf("lot %s: %w", lot.LotNumber, err)
			}
			if err := g.inventory.CreateLot(ctx, tx, lot); err != nil {
				return fmt.Errorf("lot %s: %w", lot.LotNumber, err)
			}
			s.Lots++
		}
	}
	return nil
}

func (g *Generator) generateStrategies(ctx context.Context, tx *sql.Tx, s *Summary) error {
	for _, st := range Strategies {
		strategy := &models.Strategy{
			ID:          g.nextID(),
			Name:        st.Name,
			Description: st.Description,
			MaxBudget:   decimal.RequireFromString(st.MaxBudget),
			Status:      models.StrategyStatusActive,
			Result:      models.StrategyResultNotCalculated,
		}
		if err := g.strategies.Create(ctx, tx, strategy); err != nil {
			return fmt.Errorf("strategy %s: %w", st.Name, err)
		}

		for _, line := range st.Demand {
			d := &models.Demand{
				ID:         g.nextID(),
				StrategyID: strategy.ID,
				ProductID:  g.productIDs[line.Product],
				DemandType: line.Type,
				Quantity:   decimal.RequireFromString(line.Quantity),
				Period:     line.Period,
			}
			if err := g.strategies.AddDemand(ctx, tx, d); err != nil {
				return fmt.Errorf("demand %s/%s: %w", st.Name, line.Product, err)
			}
		}
		s.Strategies++
	}
	return nil
}
