package archive

import (
	"archive/zip"
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
	"github.com/garyjia/procurement-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/procurement-workflow/internal/infrastructure/persistence/sqlite"
)

type archiveFixture struct {
	service     *Service
	requestRepo port.RequestRepository
	historyRepo port.HistoryRepository
	creator     *entity.User
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../migrations/001_initial_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	logger := zap.NewNop()
	requestRepo := repository.NewRequestRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	txManager := sqlite.NewDB(db, logger)

	creator := &entity.User{Username: "creator", FirstName: "Cara", LastName: "Reed", Active: true, CreatedAt: time.Now()}
	require.NoError(t, userRepo.Create(context.Background(), creator))

	return &archiveFixture{
		service:     NewService(requestRepo, historyRepo, userRepo, txManager, logger),
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		creator:     creator,
	}
}

func (f *archiveFixture) seedCompleted(t *testing.T, number string, updatedAt time.Time) *entity.Request {
	t.Helper()
	ctx := context.Background()

	request := &entity.Request{
		RequestNumber: number,
		Item:          "Printer",
		Quantity:      1,
		Unit:          entity.UnitPieces,
		CreatedBy:     f.creator.ID,
		Status:        workflow.StatusCompleted,
		CreatedAt:     updatedAt.AddDate(0, 0, -7),
		UpdatedAt:     updatedAt,
	}
	require.NoError(t, f.requestRepo.Create(ctx, request))

	for _, action := range []workflow.Action{workflow.ActionSubmitted, workflow.ActionFinalApproved, workflow.ActionCompleted} {
		require.NoError(t, f.historyRepo.Create(ctx, &entity.ApprovalHistory{
			RequestID: request.ID,
			UserID:    f.creator.ID,
			Action:    action,
			CreatedAt: updatedAt,
		}))
	}
	return request
}

func openWorkbook(t *testing.T, archivePath string) *excelize.File {
	t.Helper()

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	require.Equal(t, "requests.xlsx", zr.File[0].Name)

	entry, err := zr.File[0].Open()
	require.NoError(t, err)
	defer entry.Close()

	workbook, err := excelize.OpenReader(entry)
	require.NoError(t, err)
	return workbook
}

func TestService_Run(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	inside := f.seedCompleted(t, "REQ-2026-ARCH01", base)
	outside := f.seedCompleted(t, "REQ-2026-ARCH02", base.AddDate(0, 3, 0))

	outputDir := t.TempDir()
	result, err := f.service.Run(ctx, Options{
		Start:     base.AddDate(0, 0, -30),
		End:       base.AddDate(0, 0, 30),
		OutputDir: outputDir,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RequestCount)
	assert.Equal(t, 3, result.HistoryCount)
	assert.True(t, result.Deleted)
	require.FileExists(t, result.ArchivePath)

	workbook := openWorkbook(t, result.ArchivePath)
	defer workbook.Close()

	rows, err := workbook.GetRows("Requests")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Request Number", rows[0][0])
	assert.Equal(t, inside.RequestNumber, rows[1][0])

	historyRows, err := workbook.GetRows("Approval History")
	require.NoError(t, err)
	require.Len(t, historyRows, 4)
	// Oldest action first in the export.
	assert.Equal(t, string(workflow.ActionSubmitted), historyRows[1][2])
	assert.Equal(t, string(workflow.ActionCompleted), historyRows[3][2])

	// The archived request is gone; the out-of-period one survives.
	gone, err := f.requestRepo.GetByID(ctx, inside.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := f.requestRepo.GetByID(ctx, outside.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)

	trail, err := f.historyRepo.ListByRequestID(ctx, inside.ID)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestService_Run_DryRun(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	request := f.seedCompleted(t, "REQ-2026-ARCH03", base)

	result, err := f.service.Run(ctx, Options{
		Start:     base.AddDate(0, 0, -1),
		End:       base.AddDate(0, 0, 1),
		OutputDir: t.TempDir(),
		DryRun:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RequestCount)
	assert.False(t, result.Deleted)
	require.FileExists(t, result.ArchivePath)

	kept, err := f.requestRepo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestService_Run_EmptyPeriod(t *testing.T) {
	f := newArchiveFixture(t)

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	f.seedCompleted(t, "REQ-2026-ARCH04", base)

	outputDir := t.TempDir()
	result, err := f.service.Run(context.Background(), Options{
		Start:     base.AddDate(0, 6, 0),
		End:       base.AddDate(0, 7, 0),
		OutputDir: outputDir,
	})
	require.NoError(t, err)

	assert.Zero(t, result.RequestCount)
	assert.Empty(t, result.ArchivePath)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Run_InvalidPeriod(t *testing.T) {
	f := newArchiveFixture(t)

	now := time.Now()
	_, err := f.service.Run(context.Background(), Options{Start: now, End: now})
	assert.Error(t, err)
}
