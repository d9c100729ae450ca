package db

import (
	"path/filepath"
	"testing"
)

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"bins.db":              "bins.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite",
		"file:bins.db?mode=rw": "file:bins.db?mode=rw&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpen_SQLiteIgnoresPoolSize(t *testing.T) {
	store, err := Open(Options{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "bins.db"), MaxOpenConns: 10})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if n := store.Stats().MaxOpenConnections; n != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", n)
	}
	var fk int
	if err := store.Get(&fk, "PRAGMA foreign_keys"); err != nil || fk != 1 {
		t.Fatalf("foreign_keys = %d, %v", fk, err)
	}
	if _, err := Open(Options{Driver: "mysql"}); err == nil {
		t.Fatal("unsupported driver accepted")
	}
}
