package template

import (
	"errors"
	"sync"
	"testing"

	"github.com/compasshq/compass/internal/apperr"
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
		&models.AssessmentTemplate{},
		&models.Dimension{},
		&models.Question{},
		&models.RubricLevel{},
		&models.TemplateAudit{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedTemplate creates a template with two dimensions, each holding one
// question with a two-level rubric.
func seedTemplate(t *testing.T, db *gorm.DB, id, version, status string) *models.AssessmentTemplate {
	t.Helper()
	tpl := models.AssessmentTemplate{ID: id, Framework: "spm", Version: version, Status: status}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	for i, name := range []string{"Governance", "Demand Management"} {
		dim := models.Dimension{TemplateID: id, Name: name, Position: i}
		if err := db.Create(&dim).Error; err != nil {
			t.Fatalf("seed dimension: %v", err)
		}
		q := models.Question{DimensionID: dim.ID, Text: "How mature is " + name + "?", Position: 0, Required: true}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
		for _, lvl := range []models.RubricLevel{
			{QuestionID: q.ID, Value: 1, Label: "Ad hoc"},
			{QuestionID: q.ID, Value: 5, Label: "Optimized"},
		} {
			if err := db.Create(&lvl).Error; err != nil {
				t.Fatalf("seed rubric: %v", err)
			}
		}
	}
	return &tpl
}

func TestGet_LoadsFullTree(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)

	tpl, err := Get(db, "tpl-aaa001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(tpl.Dimensions) != 2 {
		t.Fatalf("dimensions = %d, want 2", len(tpl.Dimensions))
	}
	if tpl.Dimensions[0].Name != "Governance" {
		t.Errorf("first dimension = %q, want Governance (position order)", tpl.Dimensions[0].Name)
	}
	q := tpl.Dimensions[0].Questions
	if len(q) != 1 || len(q[0].Rubric) != 2 {
		t.Fatalf("questions/rubric not preloaded: %+v", q)
	}
	if q[0].Rubric[0].Value != 1 {
		t.Errorf("rubric not ordered by value: first = %d", q[0].Rubric[0].Value)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := Get(db, "tpl-nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCloneAsDraft_DeepCopies(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)

	draft, err := CloneAsDraft(db, "tpl-aaa001", "2.0", "alice")
	if err != nil {
		t.Fatalf("CloneAsDraft: %v", err)
	}
	if draft.Status != StatusDraft {
		t.Errorf("status = %q, want draft", draft.Status)
	}
	if draft.SourceID == nil || *draft.SourceID != "tpl-aaa001" {
		t.Errorf("source_id = %v, want tpl-aaa001", draft.SourceID)
	}

	got, err := Get(db, draft.ID)
	if err != nil {
		t.Fatalf("Get clone: %v", err)
	}
	if len(got.Dimensions) != 2 {
		t.Fatalf("clone dimensions = %d, want 2", len(got.Dimensions))
	}
	if len(got.Dimensions[0].Questions[0].Rubric) != 2 {
		t.Error("rubric levels not copied")
	}

	// Editing the clone must not touch the source.
	newText := "changed"
	if _, err := EditQuestion(db, got.Dimensions[0].Questions[0].ID, QuestionPatch{Text: &newText}, "alice"); err != nil {
		t.Fatalf("EditQuestion: %v", err)
	}
	source, _ := Get(db, "tpl-aaa001")
	if source.Dimensions[0].Questions[0].Text == "changed" {
		t.Error("editing the clone mutated the source template")
	}
}

func TestCloneAsDraft_DuplicateVersion(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)

	_, err := CloneAsDraft(db, "tpl-aaa001", "1.0", "alice")
	if !errors.Is(err, apperr.ErrDuplicateVersion) {
		t.Fatalf("err = %v, want ErrDuplicateVersion", err)
	}
}

func TestPromote_SupersedesPrevious(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)
	draft, err := CloneAsDraft(db, "tpl-aaa001", "2.0", "alice")
	if err != nil {
		t.Fatalf("CloneAsDraft: %v", err)
	}

	if err := Promote(db, draft.ID, "alice"); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	promoted, _ := Get(db, draft.ID)
	if promoted.Status != StatusActive {
		t.Errorf("promoted status = %q, want active", promoted.Status)
	}
	old, _ := Get(db, "tpl-aaa001")
	if old.Status != StatusSuperseded {
		t.Errorf("previous status = %q, want superseded", old.Status)
	}

	active, err := Active(db, "spm")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active.ID != draft.ID {
		t.Errorf("active = %s, want %s", active.ID, draft.ID)
	}
}

func TestPromote_OnlyDrafts(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)
	seedTemplate(t, db, "tpl-aaa002", "0.9", StatusSuperseded)

	if err := Promote(db, "tpl-aaa001", "alice"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("promote active: err = %v, want ErrConflict", err)
	}
	if err := Promote(db, "tpl-aaa002", "alice"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("promote superseded: err = %v, want ErrConflict", err)
	}
	if err := Promote(db, "tpl-nope", "alice"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("promote missing: err = %v, want ErrNotFound", err)
	}
}

func TestPromote_ConcurrentOneWins(t *testing.T) {
	db := testDB(t)
	// A single pooled connection keeps both goroutines on the same
	// in-memory database and serializes their transactions.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)
	seedTemplate(t, db, "tpl-bbb001", "2.0", StatusDraft)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Promote(db, "tpl-bbb001", "alice")
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected promote error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("promotions: %d won, %d conflicted; want exactly one winner", wins, conflicts)
	}

	var active int64
	db.Model(&models.AssessmentTemplate{}).
		Where("framework = ? AND status = ?", "spm", StatusActive).Count(&active)
	if active != 1 {
		t.Errorf("active templates = %d, want 1", active)
	}
	promoted, _ := Get(db, "tpl-bbb001")
	if promoted.Status != StatusActive {
		t.Errorf("draft status = %q, want active", promoted.Status)
	}
}

func TestEditQuestion_ActiveWarning(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)
	tpl, _ := Get(db, "tpl-aaa001")
	qID := tpl.Dimensions[0].Questions[0].ID

	text := "reworded"
	warn, err := EditQuestion(db, qID, QuestionPatch{Text: &text}, "alice")
	if err != nil {
		t.Fatalf("EditQuestion: %v", err)
	}
	if !warn {
		t.Error("expected active-template warning")
	}

	draft := seedTemplate(t, db, "tpl-bbb001", "0.1", StatusDraft)
	dtpl, _ := Get(db, draft.ID)
	warn, err = EditQuestion(db, dtpl.Dimensions[0].Questions[0].ID, QuestionPatch{Text: &text}, "alice")
	if err != nil {
		t.Fatalf("EditQuestion draft: %v", err)
	}
	if warn {
		t.Error("draft edit should not warn")
	}
}

func TestAddAndDeleteQuestion(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusDraft)
	tpl, _ := Get(db, "tpl-aaa001")
	dimID := tpl.Dimensions[0].ID

	q, err := AddQuestion(db, dimID, QuestionOpts{
		Text:     "Is there a defined intake process?",
		Position: 1,
		Required: false,
		Rubric:   []RubricOpts{{Value: 1, Label: "None"}, {Value: 3, Label: "Partial"}},
	}, "alice")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	got, _ := Get(db, "tpl-aaa001")
	if len(got.Dimensions[0].Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(got.Dimensions[0].Questions))
	}

	if err := DeleteQuestion(db, q.ID, "alice"); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	var rubricCount int64
	db.Model(&models.RubricLevel{}).Where("question_id = ?", q.ID).Count(&rubricCount)
	if rubricCount != 0 {
		t.Errorf("rubric levels left behind: %d", rubricCount)
	}

	if _, err := AddQuestion(db, dimID, QuestionOpts{}, "alice"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty text: err = %v, want ErrValidation", err)
	}
}

func TestAuditTrail_AppendOnlyHistory(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)
	draft, err := CloneAsDraft(db, "tpl-aaa001", "2.0", "alice")
	if err != nil {
		t.Fatalf("CloneAsDraft: %v", err)
	}
	if err := Promote(db, draft.ID, "bob"); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	entries, err := AuditTrail(db, draft.ID)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (clone, promote)", len(entries))
	}
	if entries[0].Action != "clone" || entries[1].Action != "promote" {
		t.Errorf("actions = %s, %s; want clone, promote", entries[0].Action, entries[1].Action)
	}
	if entries[1].Actor != "bob" {
		t.Errorf("promote actor = %q, want bob", entries[1].Actor)
	}

	old, err := AuditTrail(db, "tpl-aaa001")
	if err != nil {
		t.Fatalf("AuditTrail old: %v", err)
	}
	if len(old) != 1 || old[0].Action != "supersede" {
		t.Errorf("old template audit = %+v, want one supersede entry", old)
	}

	if _, err := AuditTrail(db, "tpl-nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing template: err = %v, want ErrNotFound", err)
	}
}

func TestList_FiltersByFramework(t *testing.T) {
	db := testDB(t)
	seedTemplate(t, db, "tpl-aaa001", "1.0", StatusActive)
	other := models.AssessmentTemplate{ID: "tpl-ccc001", Framework: "finops", Version: "1.0", Status: StatusActive}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := List(db, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}
	spm, err := List(db, "spm")
	if err != nil {
		t.Fatalf("List spm: %v", err)
	}
	if len(spm) != 1 || spm[0].ID != "tpl-aaa001" {
		t.Errorf("spm list = %+v, want just tpl-aaa001", spm)
	}
}
