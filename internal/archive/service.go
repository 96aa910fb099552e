// Package archive is the periodic archival collaborator. It consumes exactly
// the two engine operations it is promised (list completed requests in a
// period, bulk delete by id set), exports the rows to an Excel workbook
// inside a zip, and only then removes them from the live store. Eligibility
// policy (which period to archive) belongs to the caller, not the engine.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
)

// Options configures one archival run
type Options struct {
	Start     time.Time
	End       time.Time
	OutputDir string
	// DryRun exports the workbook but leaves the archived rows in place
	DryRun bool
}

// Result summarizes one archival run
type Result struct {
	RequestCount int
	HistoryCount int
	ArchivePath  string
	Deleted      bool
}

// Service archives completed requests
type Service struct {
	requestRepo port.RequestRepository
	historyRepo port.HistoryRepository
	userRepo    port.UserRepository
	txManager   port.TransactionManager
	logger      *zap.Logger
}

// NewService creates a new archive service
func NewService(
	requestRepo port.RequestRepository,
	historyRepo port.HistoryRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Run archives completed requests updated within [Start, End]: export first,
// delete after, so a failed export never loses data.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	if !opts.End.After(opts.Start) {
		return nil, fmt.Errorf("archive period end must be after start")
	}

	requests, err := s.requestRepo.ListCompletedInPeriod(ctx, opts.Start, opts.End)
	if err != nil {
		return nil, fmt.Errorf("list completed requests: %w", err)
	}

	result := &Result{RequestCount: len(requests)}
	if len(requests) == 0 {
		s.logger.Info("No completed requests in period",
			zap.Time("start", opts.Start),
			zap.Time("end", opts.End))
		return result, nil
	}

	histories := make(map[int64][]*entity.ApprovalHistory, len(requests))
	ids := make([]int64, 0, len(requests))
	for _, request := range requests {
		records, err := s.historyRepo.ListByRequestID(ctx, request.ID)
		if err != nil {
			return nil, fmt.Errorf("load history for request %d: %w", request.ID, err)
		}
		histories[request.ID] = records
		result.HistoryCount += len(records)
		ids = append(ids, request.ID)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	workbook, err := s.buildWorkbook(ctx, requests, histories)
	if err != nil {
		return nil, err
	}

	archiveName := fmt.Sprintf("requests_%s_%s.zip",
		opts.Start.Format("20060102"), opts.End.Format("20060102"))
	archivePath := filepath.Join(opts.OutputDir, archiveName)

	if err := s.writeZip(archivePath, workbook); err != nil {
		return nil, err
	}
	result.ArchivePath = archivePath

	if opts.DryRun {
		s.logger.Info("Dry run: archive written, rows retained",
			zap.String("path", archivePath),
			zap.Int("requests", len(requests)))
		return result, nil
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.requestRepo.DeleteByIDs(txCtx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("delete archived requests: %w", err)
	}
	result.Deleted = true

	s.logger.Info("Archive run completed",
		zap.String("path", archivePath),
		zap.Int("requests", len(requests)),
		zap.Int("history_rows", result.HistoryCount))
	return result, nil
}

// writeZip stores the workbook bytes into a zip archive
func (s *Service) writeZip(path string, workbook interface {
	WriteTo(w io.Writer, opts ...excelize.Options) (int64, error)
}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	entry, err := zw.Create("requests.xlsx")
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := workbook.WriteTo(entry); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}
