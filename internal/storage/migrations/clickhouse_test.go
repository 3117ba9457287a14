package migrations

import "testing"

func TestSplitStatements(t *testing.T) {
	input := `-- schema for the analytics sink
CREATE TABLE a (id String) ENGINE = MergeTree() ORDER BY id;

-- trailing comment
CREATE TABLE b (id String) ENGINE = MergeTree() ORDER BY id;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	for _, stmt := range stmts {
		if stmt == "" || stmt[len(stmt)-1] == ';' {
			t.Errorf("statement not trimmed: %q", stmt)
		}
	}
}

func TestCheckSplittable(t *testing.T) {
	if err := checkSplittable("SELECT 'a;b'"); err == nil {
		t.Error("expected error for semicolon inside string literal")
	}
	if err := checkSplittable("SELECT 'it''s fine';"); err != nil {
		t.Errorf("escaped quote rejected: %v", err)
	}
	if err := checkSplittable("CREATE TABLE t (s String);"); err != nil {
		t.Errorf("plain statement rejected: %v", err)
	}
}
