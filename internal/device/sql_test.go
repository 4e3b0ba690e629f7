package device

import "testing"

func TestDriverForMapsSQLiteVariantsToDistinctDrivers(t *testing.T) {
	pure, err := driverFor("sqlite")
	if err != nil || pure != "sqlite" {
		t.Fatalf("expected pure driver %q, got %q err %v", "sqlite", pure, err)
	}
	cgo, err := driverFor("sqlite3")
	if err != nil || cgo != "sqlite3" {
		t.Fatalf("expected cgo driver %q, got %q err %v", "sqlite3", cgo, err)
	}
	if pure == cgo {
		t.Fatal("expected sqlite and sqlite3 to resolve to distinct driver names")
	}
}

func TestDriverForRejectsUnknownKind(t *testing.T) {
	if _, err := driverFor("oracle"); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestSQLBackendQueryAndModifyRoundTrip(t *testing.T) {
	b, err := OpenSQL("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer b.db.Close()

	create := &Request{Command: CmdModify, Special: SQLQuery{Statement: "CREATE TABLE widgets (id INTEGER, name TEXT)"}}
	if res := b.Handle(create); res != ResultDone {
		t.Fatalf("CREATE TABLE failed: %v", create.Err)
	}

	insert := &Request{Command: CmdModify, Special: SQLQuery{Statement: "INSERT INTO widgets (id, name) VALUES (?, ?)", Args: []any{1, "cog"}}}
	if res := b.Handle(insert); res != ResultDone {
		t.Fatalf("INSERT failed: %v", insert.Err)
	}
	if insert.Actual != 1 {
		t.Fatalf("expected 1 row affected, got %d", insert.Actual)
	}

	query := &Request{Command: CmdQuery, Special: SQLQuery{Statement: "SELECT id, name FROM widgets WHERE id = ?", Args: []any{1}}}
	if res := b.Handle(query); res != ResultDone {
		t.Fatalf("SELECT failed: %v", query.Err)
	}
	rows, ok := query.Special.([]map[string]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 row back, got %#v", query.Special)
	}
	if rows[0]["name"] != "cog" {
		t.Fatalf("expected name=cog, got %#v", rows[0])
	}
}

func TestSQLBackendHandleRejectsUnsupportedCommand(t *testing.T) {
	b, err := OpenSQL("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer b.db.Close()

	req := &Request{Command: CmdConnect}
	if res := b.Handle(req); res != ResultError {
		t.Fatal("expected CmdConnect to be unsupported by SQLBackend")
	}
}
