package db

import (
	"strings"
	"testing"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{Host: "127.0.0.1", Port: 3306, User: "root", Database: "compass"},
			want: "root@tcp(127.0.0.1:3306)/compass?parseTime=true",
		},
		{
			name: "custom host and port",
			cfg:  config.DatabaseConfig{Host: "10.0.0.5", Port: 3307, User: "compass", Database: "compass_prod"},
			want: "compass@tcp(10.0.0.5:3307)/compass_prod?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_ParseTimeFlag(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Database: "test"})
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime=true: %s", dsn)
	}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return gdb
}

func TestAutoMigrate_CreatesAllTables(t *testing.T) {
	gdb := testDB(t)
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}
}

func TestSeedFrameworks(t *testing.T) {
	gdb := testDB(t)
	if err := AutoMigrate(gdb); err != nil {
		t.Fatal(err)
	}
	frameworks := []config.FrameworkConfig{
		{Key: "spm", Name: "Strategic Portfolio Management"},
		{Key: "finops", Name: "FinOps"},
	}

	if err := SeedFrameworks(gdb, frameworks); err != nil {
		t.Fatalf("SeedFrameworks: %v", err)
	}

	var tpls []models.AssessmentTemplate
	if err := gdb.Find(&tpls).Error; err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 2 {
		t.Fatalf("templates = %d, want 2", len(tpls))
	}
	for _, tpl := range tpls {
		if tpl.Version != "1.0" || tpl.Status != "draft" {
			t.Errorf("seeded template %s = %s/%s, want 1.0/draft", tpl.Framework, tpl.Version, tpl.Status)
		}
	}

	// Seeding again is a no-op for frameworks that already have templates.
	if err := SeedFrameworks(gdb, frameworks); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	var count int64
	gdb.Model(&models.AssessmentTemplate{}).Count(&count)
	if count != 2 {
		t.Errorf("templates after reseed = %d, want 2", count)
	}
}
