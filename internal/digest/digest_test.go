package digest

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/compasshq/compass/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.HealthSnapshot{},
		&models.AssessmentTemplate{},
		&models.Dimension{},
		&models.Question{},
		&models.RubricLevel{},
		&models.Assessment{},
		&models.Answer{},
		&models.RoadmapItem{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestPass_RefreshesAllCustomers(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"cu-000001", "cu-000002"} {
		if err := db.Create(&models.Customer{ID: id, Name: "Customer " + id}).Error; err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if err := Pass(db, 14, &out); err != nil {
		t.Fatalf("Pass: %v", err)
	}
	if !strings.Contains(out.String(), "refreshed 2 customers") {
		t.Errorf("output = %q, want refresh count", out.String())
	}

	var snaps int64
	db.Model(&models.HealthSnapshot{}).Count(&snaps)
	if snaps != 2 {
		t.Errorf("snapshots = %d, want one per customer", snaps)
	}

	var c models.Customer
	db.First(&c, "id = ?", "cu-000001")
	if c.HealthBand == "" {
		t.Error("customer band not written by pass")
	}
}

func TestStaleAssessments(t *testing.T) {
	db := testDB(t)
	if err := db.Create(&models.Customer{ID: "cu-000001", Name: "Acme"}).Error; err != nil {
		t.Fatal(err)
	}
	tpl := models.AssessmentTemplate{ID: "tpl-000001", Framework: "spm", Version: "1.0", Status: "active"}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatal(err)
	}

	fresh := models.Assessment{ID: "asm-fresh1", CustomerID: "cu-000001", TemplateID: tpl.ID, Status: "in_progress"}
	old := models.Assessment{ID: "asm-old001", CustomerID: "cu-000001", TemplateID: tpl.ID, Status: "in_progress"}
	done := models.Assessment{ID: "asm-done01", CustomerID: "cu-000001", TemplateID: tpl.ID, Status: "completed"}
	for _, a := range []*models.Assessment{&fresh, &old, &done} {
		if err := db.Create(a).Error; err != nil {
			t.Fatal(err)
		}
	}
	// Backdate the stale one past the cutoff. UpdatedAt must be written
	// raw or gorm refreshes it.
	stale := time.Now().AddDate(0, 0, -30)
	if err := db.Model(&models.Assessment{}).Where("id = ?", old.ID).
		UpdateColumn("updated_at", stale).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&models.Assessment{}).Where("id = ?", done.ID).
		UpdateColumn("updated_at", stale).Error; err != nil {
		t.Fatal(err)
	}

	got, err := StaleAssessments(db, 14)
	if err != nil {
		t.Fatalf("StaleAssessments: %v", err)
	}
	if len(got) != 1 || got[0].ID != old.ID {
		t.Errorf("stale = %+v, want just %s (completed and fresh excluded)", got, old.ID)
	}
}

func TestRun_BadScheduleAndCancel(t *testing.T) {
	db := testDB(t)

	err := Run(context.Background(), Opts{DB: db, Schedule: "not a cron"})
	if err == nil || !strings.Contains(err.Error(), "parse schedule") {
		t.Errorf("bad schedule: err = %v, want parse error", err)
	}

	if err := Run(context.Background(), Opts{Schedule: "0 6 * * *"}); err == nil {
		t.Error("nil db: want error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Opts{DB: db, Schedule: "0 6 * * *"})
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
