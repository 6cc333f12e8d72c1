package quotaService

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})

	return gormDB, mock, err
}

func TestCanCall(t *testing.T) {
	t.Run("Within budget", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		}()

		mock.ExpectQuery("SELECT SUM\\(cost\\) FROM `api_calls`").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(100))

		governor := New(db, 4500)
		allowed, reason := governor.CanCall(1)
		if !allowed {
			t.Errorf("expected call allowed at 100/4500 used, got denial: %s", reason)
		}
		if reason != "" {
			t.Errorf("expected empty reason on allow, got %q", reason)
		}
	})

	t.Run("Budget exhausted", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		}()

		mock.ExpectQuery("SELECT SUM\\(cost\\) FROM `api_calls`").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(4500))

		governor := New(db, 4500)
		allowed, reason := governor.CanCall(1)
		if allowed {
			t.Error("expected denial at 4500/4500 used")
		}
		if !strings.Contains(reason, "quota exceeded") {
			t.Errorf("expected structured quota reason, got %q", reason)
		}
	})

	t.Run("Empty ledger counts as zero", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		}()

		mock.ExpectQuery("SELECT SUM\\(cost\\) FROM `api_calls`").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

		governor := New(db, 10)
		allowed, _ := governor.CanCall(1)
		if !allowed {
			t.Error("expected call allowed with an empty ledger")
		}
	})

	t.Run("Ledger error denies", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		}()

		mock.ExpectQuery("SELECT SUM\\(cost\\) FROM `api_calls`").
			WillReturnError(gorm.ErrInvalidDB)

		governor := New(db, 4500)
		allowed, reason := governor.CanCall(1)
		if allowed {
			t.Error("expected denial when the ledger is unreadable")
		}
		if !strings.Contains(reason, "ledger unavailable") {
			t.Errorf("expected ledger reason, got %q", reason)
		}
	})
}

func TestRemaining(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT SUM\\(cost\\) FROM `api_calls`").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(4400))

	governor := New(db, 4500)
	remaining, err := governor.Remaining()
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if remaining != 100 {
		t.Errorf("remaining = %d, want 100", remaining)
	}
}
