package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/testutil"
	"github.com/stratplan/stratplan/internal/util"
)

var testNow = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

// testEnv bundles an App with the database it reads.
type testEnv struct {
	app *App
	db  *testutil.TestDB
}

// newTestEnv creates an App backed by a migrated in-memory database, a
// fixed clock and a 120x40 window marked ready.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	app := New(db.DB, config.Default(), util.NewFixedClock(testNow), slog.New(slog.NewTextHandler(io.Discard, nil)))

	app.width = 120
	app.height = 40
	app.ready = true

	return &testEnv{app: app, db: db}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	return newTestEnv(t).app
}

// seedStrategy creates a strategy demanding qty units of one product that
// consumes two units of a resource, with stock units on hand.
func (e *testEnv) seedStrategy(t *testing.T, name, qty, stock string) *models.Strategy {
	t.Helper()
	ctx := context.Background()

	strategies := repository.NewStrategyRepository(e.db.SQL())
	catalog := repository.NewCatalogRepository(e.db.SQL())
	inventory := repository.NewInventoryRepository(e.db.SQL())

	res := testutil.FixtureResource()
	if err := catalog.CreateResource(ctx, nil, res); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	prod := testutil.FixtureProduct()
	if err := catalog.CreateProduct(ctx, nil, prod); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := catalog.CreateRelation(ctx, nil, testutil.FixtureRelation(prod.ID, res.ID, "2")); err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}
	wh := testutil.FixtureWarehouse()
	if err := inventory.CreateWarehouse(ctx, nil, wh); err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	if err := inventory.CreateLot(ctx, nil, testutil.FixtureLot(res.ID, wh.ID, stock)); err != nil {
		t.Fatalf("CreateLot: %v", err)
	}

	s := testutil.FixtureStrategy(func(s *models.Strategy) { s.Name = name })
	if err := strategies.Create(ctx, nil, s); err != nil {
		t.Fatalf("Create strategy: %v", err)
	}
	if err := strategies.AddDemand(ctx, nil, testutil.FixtureDemand(s.ID, prod.ID, qty)); err != nil {
		t.Fatalf("AddDemand: %v", err)
	}
	return s
}

// run executes cmd and feeds its message back into the app, returning the
// follow-up command.
func run(t *testing.T, app *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		return nil
	}
	_, next := app.Update(cmd())
	return next
}

// press sends msg and runs the command it returns, one level deep.
func press(t *testing.T, app *App, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := app.Update(msg)
	run(t, app, cmd)
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}
