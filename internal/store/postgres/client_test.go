package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{"explicit dsn wins", ClientConfig{DSN: "postgres://x", Host: "ignored"}, "postgres://x"},
		{"defaults", ClientConfig{Host: "db", Database: "impactsim", User: "u", Password: "p"}, "postgres://u:p@db:5432/impactsim?sslmode=disable"},
		{"escaped credentials", ClientConfig{Host: "db", Database: "d", User: "u", Password: "p@ss/word"}, "postgres://u:p%40ss%2Fword@db:5432/d?sslmode=disable"},
		{"custom port and ssl", ClientConfig{Host: "db", Port: 6543, Database: "d", User: "u", Password: "p", SSLMode: "require"}, "postgres://u:p@db:6543/d?sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Errorf("DSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationFiles(t *testing.T) {
	names, err := migrationFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("migrations = %v", names)
	}
	data, err := migrationsFS.ReadFile("migrations/" + names[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"reports", "studies", "audit_log"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("initial migration does not create %s", table)
		}
	}
}

func TestAppendListOpts(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	tests := []struct {
		name      string
		opts      domain.ListOpts
		wantQuery string
		wantArgs  int
	}{
		{"none", domain.ListOpts{}, "SELECT 1 WHERE 1=1 ORDER BY created_at DESC", 0},
		{"limit only", domain.ListOpts{Limit: 10}, "SELECT 1 WHERE 1=1 ORDER BY created_at DESC LIMIT $1", 1},
		{"everything", domain.ListOpts{Since: &since, Until: &until, Limit: 5, Offset: 10},
			"SELECT 1 WHERE 1=1 AND created_at >= $1 AND created_at <= $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := appendListOpts("SELECT 1 WHERE 1=1", nil, tt.opts)
			if q != tt.wantQuery {
				t.Errorf("query = %q\nwant    %q", q, tt.wantQuery)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %v, want %d", args, tt.wantArgs)
			}
		})
	}
}

func TestAppendListOptsContinuesPlaceholders(t *testing.T) {
	q, args := appendListOpts("SELECT 1 WHERE kind = $1", []any{"x"}, domain.ListOpts{Limit: 3})
	if !strings.HasSuffix(q, "LIMIT $2") || len(args) != 2 {
		t.Errorf("query = %q args = %v", q, args)
	}
}

func TestAuditQuery(t *testing.T) {
	q, args := auditQuery(domain.AuditFilter{
		Event:    domain.AuditReportCreated,
		Subject:  "r-1",
		ListOpts: domain.ListOpts{Limit: 5},
	})
	want := "SELECT id, event, subject, detail, created_at FROM audit_log WHERE 1=1" +
		" AND event = $1 AND subject = $2 ORDER BY created_at DESC LIMIT $3"
	if q != want {
		t.Errorf("query = %q", q)
	}
	if len(args) != 3 || args[0] != domain.AuditReportCreated || args[1] != "r-1" || args[2] != 5 {
		t.Errorf("args = %v", args)
	}

	q, args = auditQuery(domain.AuditFilter{})
	if strings.Contains(q, "event =") || len(args) != 0 {
		t.Errorf("unfiltered query = %q %v", q, args)
	}
}

func TestMigrationsOrdered(t *testing.T) {
	names, err := migrationFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) < 2 || names[1] != "002_audit_subject.sql" {
		t.Errorf("migrations = %v", names)
	}
}

func TestPendingMigrations(t *testing.T) {
	got := pending([]string{"001_init.sql", "002_audit_subject.sql", "003_next.sql"}, []string{"002_audit_subject.sql", "001_init.sql"})
	if len(got) != 1 || got[0] != "003_next.sql" {
		t.Errorf("pending = %v", got)
	}
	if got := pending([]string{"001_init.sql"}, nil); len(got) != 1 {
		t.Errorf("fresh database pending = %v", got)
	}
}
