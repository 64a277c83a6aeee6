package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockMySQL(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	m, err := NewMySQLWithDB(db, "recruitment_test")
	require.NoError(t, err)
	return m, mock
}

func TestGetApplication_Found(t *testing.T) {
	m, mock := newMockMySQL(t)

	rows := sqlmock.NewRows([]string{"id", "job_id", "applicant_email", "resume_file", "status", "ai_score"}).
		AddRow("app-1", "job-1", "a@example.com", "resume/app-1/original.pdf", "pending", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `applications` WHERE id = ?")).
		WillReturnRows(rows)

	app, err := m.GetApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", app.JobID)
	assert.Nil(t, app.AIScore)
	assert.Equal(t, "resume/app-1/original.pdf", app.ResumeFile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApplication_NotFound(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `applications` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.GetApplication(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJob_NotFound(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `jobs` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplicationOutcome_SingleTransaction(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `applications` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	email := "a@example.com"
	err := m.UpdateApplicationOutcome(context.Background(), "app-1", ApplicationOutcome{
		Facts:       &types.ResumeFacts{Email: &email, Skills: []string{"go"}, TextLength: 10, TextPreview: "go go go"},
		Score:       70,
		Status:      types.StatusFlagged,
		Feedback:    "Matched 1 out of 2 key skills",
		ProcessedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplicationOutcome_MissingRowRollsBack(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `applications` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := m.UpdateApplicationOutcome(context.Background(), "gone", ApplicationOutcome{
		Score:  50,
		Status: types.StatusFlagged,
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateApplicationWithOutbox(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `applications`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `outbox_messages`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app := &models.Application{
		ID:             "app-1",
		JobID:          "job-1",
		ApplicantEmail: "a@example.com",
		Source:         string(types.SourceUpload),
		Status:         string(types.StatusPending),
		SubmittedAt:    time.Now(),
	}
	msg := &models.OutboxMessage{
		AggregateID:      app.ID,
		EventType:        EventApplicationSubmitted,
		Payload:          `{"application_id":"app-1"}`,
		TargetExchange:   "application.events",
		TargetRoutingKey: "application.submitted",
		Status:           models.OutboxStatusPending,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, m.CreateApplicationWithOutbox(context.Background(), app, msg))
	assert.Equal(t, uint64(1), msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListApplicationsByJob_StatusFilter(t *testing.T) {
	m, mock := newMockMySQL(t)

	rows := sqlmock.NewRows([]string{"id", "job_id", "applicant_email", "status", "ai_score"}).
		AddRow("app-1", "job-1", "a@example.com", "shortlisted", 90).
		AddRow("app-2", "job-1", "b@example.com", "shortlisted", 80)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `applications` WHERE job_id = ? AND status = ? ORDER BY submitted_at ASC")).
		WithArgs("job-1", "shortlisted").
		WillReturnRows(rows)

	apps, err := m.ListApplicationsByJob(context.Background(), "job-1", "shortlisted")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	require.NotNil(t, apps[0].AIScore)
	assert.Equal(t, 90, *apps[0].AIScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteJob_Cascades(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `applications` WHERE job_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `reports` WHERE job_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `jobs` WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, m.DeleteJob(context.Background(), "job-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, models.StringList(models.JSONList([]string{"a@x.com", "b@x.com"})))
	assert.Equal(t, []string{}, models.StringList(nil))
	assert.Equal(t, []string{}, models.StringList([]byte("not json")))
}

func TestCreateCompany(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `companies` WHERE email = ?")).
		WithArgs("hr@acme.example").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `companies`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.CreateCompany(context.Background(), &models.Company{
		ID:        "co-1",
		Name:      "Acme",
		Email:     "hr@acme.example",
		APIKey:    "rk_test",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCompany_DuplicateEmail(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `companies` WHERE email = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectRollback()

	err := m.CreateCompany(context.Background(), &models.Company{ID: "co-2", Name: "Acme", Email: "hr@acme.example", APIKey: "rk_x"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCompany_NotFound(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `companies` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.GetCompany(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
