package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpAppliesPendingInOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("0002_posts.up.sql", "create table posts(id text primary key);")
	write("0001_users.up.sql", "create table users(id text primary key);")
	write("0001_users.down.sql", "drop table users;")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	// Only 0002 is pending.
	mock.ExpectBegin()
	mock.ExpectExec(`create table posts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(`insert into schema_migrations`).
		WithArgs("0002_posts.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mgr := NewManager(db, dir)
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSplitStatementsRespectsStrings(t *testing.T) {
	stmts := splitStatements(`insert into t values ('a;b'); select 1;`)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements: %q", len(stmts), stmts)
	}
}

func TestCollectSQLMissingDir(t *testing.T) {
	files, err := collectSQL(filepath.Join(t.TempDir(), "nope"), ".up.sql")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files = %v", files)
	}
}
