package database

import (
	"testing"

	"github.com/danmuck/fulfillment/internal/testutil/testlog"
)

func TestUsesGorm(t *testing.T) {
	cases := map[string]bool{
		"":         false,
		"memory":   false,
		" Memory ": false,
		"sqlite":   true,
		"postgres": true,
	}
	for driver, want := range cases {
		if got := (Config{Driver: driver}).UsesGorm(); got != want {
			t.Fatalf("UsesGorm(%q)=%v want %v", driver, got, want)
		}
	}
}

func TestOpenSQLiteInMemory(t *testing.T) {
	testlog.Start(t)
	db, err := Open(Config{Driver: DriverSQLite})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(db)

	var one int
	if err := db.Raw("SELECT 1").Scan(&one).Error; err != nil {
		t.Fatalf("select: %v", err)
	}
	if one != 1 {
		t.Fatalf("unexpected result %d", one)
	}
}

func TestOpenRejectsUnknownDriverAndEmptyPostgresDSN(t *testing.T) {
	if _, err := Open(Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := Open(Config{Driver: DriverPostgres}); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}
