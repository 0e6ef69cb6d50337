package checkrepository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/miderror/dev-mentor/internal/adapter/logging"
	"github.com/miderror/dev-mentor/internal/domain"
)

var checkColumns = []string{
	"id", "user_id", "task_id", "code", "language", "status", "stdout", "stderr",
	"error_context", "created_at", "started_at", "completed_at",
}

func newRepo(t *testing.T) (*CheckRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCheckRepository(sqlx.NewDb(db, "postgres"), logging.NewNopLogger()), mock
}

func TestCreateCheck(t *testing.T) {
	repo, mock := newRepo(t)
	check := domain.NewCheck(&domain.Submission{UserID: 7, TaskID: 3, Code: "print(1)", Language: domain.LanguagePython})

	mock.ExpectExec("INSERT INTO checks").
		WithArgs(check.ID, int64(7), int64(3), "print(1)", "python", "PENDING", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateCheck(context.Background(), check); err != nil {
		t.Fatalf("CreateCheck: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateCheckWrapsDatabaseError(t *testing.T) {
	repo, mock := newRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO checks").WillReturnError(boom)

	err := repo.CreateCheck(context.Background(), domain.NewCheck(&domain.Submission{Language: domain.LanguagePython}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestGetCheckDecodesErrorContext(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(time.Second)
	completed := created.Add(3 * time.Second)

	rows := sqlmock.NewRows(checkColumns).AddRow(
		id.String(), int64(7), int64(3), "print(2)", "python", "ERROR", "2", "",
		[]byte(`{"kind":"WRONG_ANSWER","testIndex":2,"input":"1\n1","expected":"3"}`),
		created, started, completed,
	)
	mock.ExpectQuery("SELECT (.+) FROM checks").WithArgs(id).WillReturnRows(rows)

	check, err := repo.GetCheck(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCheck: %v", err)
	}
	if check == nil {
		t.Fatal("expected a check")
	}
	if check.ID != id || check.Status != domain.CheckStatusError || check.Language != domain.LanguagePython {
		t.Fatalf("unexpected check: %+v", check)
	}
	if check.StartedAt == nil || !check.StartedAt.Equal(started) {
		t.Fatalf("startedAt = %v", check.StartedAt)
	}
	if check.CompletedAt == nil || !check.CompletedAt.Equal(completed) {
		t.Fatalf("completedAt = %v", check.CompletedAt)
	}
	ec := check.ErrorContext
	if ec == nil || ec.Kind != domain.FailureWrongAnswer || ec.TestIndex != 2 || ec.Input != "1\n1" || ec.Expected != "3" {
		t.Fatalf("unexpected error context: %+v", ec)
	}
}

func TestGetCheckPendingHasNoTimestamps(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()

	rows := sqlmock.NewRows(checkColumns).AddRow(
		id.String(), int64(1), int64(1), "x", "python", "PENDING", "", "",
		nil, time.Now(), nil, nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM checks").WithArgs(id).WillReturnRows(rows)

	check, err := repo.GetCheck(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCheck: %v", err)
	}
	if check.StartedAt != nil || check.CompletedAt != nil || check.ErrorContext != nil {
		t.Fatalf("expected empty optional fields: %+v", check)
	}
}

func TestGetCheckMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM checks").WillReturnError(sql.ErrNoRows)

	check, err := repo.GetCheck(context.Background(), uuid.New())
	if err != nil || check != nil {
		t.Fatalf("expected nil, nil; got %v, %v", check, err)
	}
}

func TestMarkRunningRequiresOpenCheck(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()
	at := time.Now()

	mock.ExpectExec("UPDATE checks").
		WithArgs("RUNNING", at, id, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.MarkRunning(context.Background(), id, at); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}

	mock.ExpectExec("UPDATE checks").
		WithArgs("RUNNING", at, id, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.MarkRunning(context.Background(), id, at); err == nil {
		t.Fatal("expected an error for a finished check")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveResultStoresErrorContext(t *testing.T) {
	repo, mock := newRepo(t)
	check := domain.NewCheck(&domain.Submission{UserID: 1, TaskID: 2, Code: "x", Language: domain.LanguagePython})
	check.ApplyVerdict(&domain.GradingVerdict{
		Status: domain.VerdictError,
		Failure: &domain.FailureRecord{
			Kind:      domain.FailureRuntimeError,
			TestIndex: 1,
			Stderr:    "Traceback",
		},
	}, time.Now())

	mock.ExpectExec("UPDATE checks").
		WithArgs("ERROR", "", "Traceback", []byte(`{"kind":"RUNTIME_ERROR","testIndex":1}`), nil, check.CompletedAt, check.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveResult(context.Background(), check); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureTableExists(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS checks").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureTableExists(context.Background()); err != nil {
		t.Fatalf("EnsureTableExists: %v", err)
	}
}
