package database

import (
	"context"
	"strings"
	"testing"
)

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n); err != nil {
		t.Fatalf("checking table %s: %v", name, err)
	}
	return n == 1
}

func TestMigrator_StatusAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	defer db.Close()

	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("NewMigrator: %v", err)
	}

	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status) != 4 {
		t.Fatalf("expected 4 migrations, got %d", len(status))
	}
	for _, mig := range status {
		if !mig.Applied {
			t.Errorf("migration %03d not applied", mig.Version)
		}
	}

	down, err := m.MigrateDown(ctx)
	if err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if down.CurrentVersion != 3 {
		t.Errorf("CurrentVersion = %d, want 3", down.CurrentVersion)
	}
	if tableExists(t, db, "calculations") {
		t.Error("calculations should be dropped")
	}
	if !tableExists(t, db, "strategies") {
		t.Error("strategies should remain")
	}

	status, err = m.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status[3].Applied {
		t.Error("migration 004 should be pending after rollback")
	}

	up, err := m.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if len(up.Applied) != 1 || up.TargetVersion != 4 {
		t.Errorf("MigrateUp = %+v, want one migration to version 4", up)
	}
	if !tableExists(t, db, "calculations") {
		t.Error("calculations should be recreated")
	}
}

func TestSplitStatements(t *testing.T) {
	script := `-- leading comment
CREATE TABLE a (v TEXT DEFAULT 'x;y');
CREATE TRIGGER a_touch AFTER INSERT ON a
BEGIN
    UPDATE a SET v = 'z';
END;
INSERT INTO a VALUES ('1');
`
	stmts := SplitStatements(script)
	if len(stmts) != 3 {
		t.Fatalf("got %d statements: %q", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "'x;y'") {
		t.Errorf("quoted semicolon split: %q", stmts[0])
	}
	if !strings.HasPrefix(stmts[1], "CREATE TRIGGER") || !strings.HasSuffix(stmts[1], "END;") {
		t.Errorf("trigger not kept whole: %q", stmts[1])
	}
	if stmts[2] != "INSERT INTO a VALUES ('1')" {
		t.Errorf("last statement = %q", stmts[2])
	}
}
