package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/intake"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/validation"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus("PENDING"))
	assert.True(t, ValidStatus("APPROVED"))
	assert.True(t, ValidStatus("REJECTED"))
	assert.False(t, ValidStatus("approved"))
	assert.False(t, ValidStatus(""))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db)

	err := svc.UpdateStatus(uuid.New(), uuid.Nil, &dto.UpdateReportStatusRequest{Status: "DONE"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db)

	mock.ExpectExec(`UPDATE "reports" SET .*"status"=.* WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.UpdateStatus(uuid.New(), uuid.New(), &dto.UpdateReportStatusRequest{
		Status:    models.ReportStatusApproved,
		AdminNote: "verified on site",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingReport(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db)

	mock.ExpectExec(`UPDATE "reports" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.UpdateStatus(uuid.New(), uuid.Nil, &dto.UpdateReportStatusRequest{Status: models.ReportStatusRejected})
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReport(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM "reports" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.Delete(id))

	mock.ExpectExec(`DELETE FROM "reports"`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, svc.Delete(uuid.New()), ErrReportNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefusesSuspendedUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "status"}).
			AddRow(userID.String(), "x@example.com", models.RoleUser, models.UserStatusSuspended))

	adm := &intake.Admission{Submission: &validation.Submission{
		Title: "Broken swing", ReportType: "SAFETY", Location: "Central Park", LocationType: "PLAYGROUND",
	}}
	_, err := svc.Create(userID, adm)
	assert.ErrorIs(t, err, ErrUserSuspended)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Create(uuid.New(), &intake.Admission{Submission: &validation.Submission{}})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClampPage(t *testing.T) {
	f := dto.ReportFilter{Limit: 0, Offset: -3}
	clampPage(&f)
	assert.Equal(t, DefaultListLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = dto.ReportFilter{Limit: 1000}
	clampPage(&f)
	assert.Equal(t, MaxListLimit, f.Limit)
}
