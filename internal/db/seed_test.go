package db

import (
	"path/filepath"
	"testing"

	"github.com/dealflow/dealflow/internal/config"
	"github.com/dealflow/dealflow/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSeedIdempotent(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}

	var users, templates int64
	d.Model(&models.User{}).Count(&users)
	d.Model(&models.Template{}).Where("name = ?", DefaultTemplateName).Count(&templates)
	if users != 1 {
		t.Fatalf("expected exactly 1 user got %d", users)
	}
	if templates != 1 {
		t.Fatalf("expected exactly 1 default template got %d", templates)
	}

	var admin models.User
	if err := d.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if !admin.CheckPassword("admin") {
		t.Fatal("admin password does not verify")
	}
}

func TestSeedSkipsAdminWhenUsersExist(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	u, _ := models.NewUser("vendas", "x")
	if err := d.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	var count int64
	d.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count != 0 {
		t.Fatalf("admin created although users exist")
	}
}

func TestOpenMigrateAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "propostas.db")
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: path}

	d, err := Open(cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := d.DB()
	sqlDB.Close()

	if err := Reset(cfg, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if m, _ := filepath.Glob(path + "*"); len(m) != 0 {
		t.Fatalf("database files left after reset: %v", m)
	}
	// resetting a missing database is not an error
	if err := Reset(cfg, nil); err != nil {
		t.Fatalf("second reset: %v", err)
	}
}

func TestDropAllRemovesMigrationVersion(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	if err := d.Exec("CREATE TABLE schema_migrations (version bigint NOT NULL PRIMARY KEY, dirty boolean NOT NULL)").Error; err != nil {
		t.Fatal(err)
	}
	if err := d.Exec("INSERT INTO schema_migrations (version, dirty) VALUES (1, false)").Error; err != nil {
		t.Fatal(err)
	}

	if err := dropAll(d); err != nil {
		t.Fatalf("dropAll: %v", err)
	}
	for _, table := range []string{"users", "clients", "templates", "proposals", "line_items", "schema_migrations"} {
		if d.Migrator().HasTable(table) {
			t.Errorf("table %s survived dropAll", table)
		}
	}
	// a fresh migration must find an empty database again
	if err := Migrate(d); err != nil {
		t.Fatalf("migrate after drop: %v", err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("a.db"); got != "a.db?_foreign_keys=on" {
		t.Fatalf("got %q", got)
	}
	if got := sqliteDSN("file:x?mode=memory"); got != "file:x?mode=memory&_foreign_keys=on" {
		t.Fatalf("got %q", got)
	}
}
