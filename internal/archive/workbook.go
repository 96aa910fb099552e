package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/procurement-workflow/internal/domain/entity"
)

const (
	requestsSheet = "Requests"
	historySheet  = "Approval History"
)

var requestHeaders = []string{
	"Request Number", "Item", "Description", "Quantity", "Unit", "Category",
	"Delivery Address", "Reason", "Created By", "Created At", "Submitted At",
	"Completed At", "Approval Level", "Revision Count",
}

var historyHeaders = []string{
	"Request Number", "Actor", "Action", "Level", "Notes", "At",
}

// buildWorkbook renders the archived requests and their audit trails into a
// two-sheet workbook.
func (s *Service) buildWorkbook(ctx context.Context, requests []*entity.Request, histories map[int64][]*entity.ApprovalHistory) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), requestsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("add history sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := s.writeHeader(f, requestsSheet, requestHeaders, headerStyle); err != nil {
		return nil, err
	}
	if err := s.writeHeader(f, historySheet, historyHeaders, headerStyle); err != nil {
		return nil, err
	}

	// Resolve actor names once per user
	names := make(map[int64]string)
	resolve := func(id int64) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := fmt.Sprintf("user %d", id)
		if user, err := s.userRepo.GetByID(ctx, id); err == nil && user != nil {
			name = user.FullName()
		}
		names[id] = name
		return name
	}

	historyRow := 2
	for i, request := range requests {
		row := []interface{}{
			request.RequestNumber,
			request.Item,
			request.Description,
			request.Quantity,
			request.Unit,
			request.Category,
			request.DeliveryAddress,
			request.Reason,
			resolve(request.CreatedBy),
			request.CreatedAt.Format(time.DateTime),
			formatTime(request.SubmittedAt),
			request.UpdatedAt.Format(time.DateTime),
			request.ApprovalLevel,
			request.RevisionCount,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(requestsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write request row: %w", err)
		}

		// History rows are stored newest-first; archive them oldest-first
		records := histories[request.ID]
		for j := len(records) - 1; j >= 0; j-- {
			record := records[j]
			hRow := []interface{}{
				request.RequestNumber,
				resolve(record.UserID),
				string(record.Action),
				record.Level,
				record.Notes,
				record.CreatedAt.Format(time.DateTime),
			}
			cell, err := excelize.CoordinatesToCellName(1, historyRow)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(historySheet, cell, &hRow); err != nil {
				return nil, fmt.Errorf("write history row: %w", err)
			}
			historyRow++
		}
	}

	return f, nil
}

func (s *Service) writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateTime)
}
