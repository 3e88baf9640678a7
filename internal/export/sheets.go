package export

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"applicant-engine/internal/domain"
)

const (
	SheetsModeWrite  = "write"
	SheetsModeAppend = "append"
)

// SheetsSink exports to a Google spreadsheet. In write mode the header and
// rows overwrite Range starting at its top-left cell; in append mode rows
// are inserted after the existing table.
type SheetsSink struct {
	svc           *sheets.Service
	SpreadsheetID string
	Range         string
	Mode          string
	Loc           *time.Location
}

func NewSheetsSink(svc *sheets.Service, spreadsheetID, rng, mode string, loc *time.Location) (*SheetsSink, error) {
	if svc == nil {
		return nil, eris.New("sheets: service is nil")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, eris.New("sheets: spreadsheet id is required")
	}
	if rng == "" {
		rng = "Sheet1"
	}
	switch mode {
	case "":
		mode = SheetsModeAppend
	case SheetsModeWrite, SheetsModeAppend:
	default:
		return nil, eris.Errorf("sheets: unknown mode %q", mode)
	}
	return &SheetsSink{svc: svc, SpreadsheetID: spreadsheetID, Range: rng, Mode: mode, Loc: loc}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Write(ctx context.Context, recs []domain.ApplicantRecord) error {
	if len(recs) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(recs)+1)
	if s.Mode == SheetsModeWrite {
		values = append(values, cellsOf(Columns))
	}
	for _, r := range Rows(recs, s.Loc) {
		values = append(values, cellsOf(r))
	}

	if s.Mode == SheetsModeWrite {
		req := &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             []*sheets.ValueRange{{Range: s.Range, Values: values}},
		}
		resp, err := s.svc.Spreadsheets.Values.BatchUpdate(s.SpreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return eris.Wrap(err, "sheets: batch update")
		}
		zap.L().Info("sheets: range written", zap.String("range", s.Range), zap.Int64("cells", resp.TotalUpdatedCells))
		return nil
	}

	resp, err := s.svc.Spreadsheets.Values.
		Append(s.SpreadsheetID, s.Range, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrap(err, "sheets: append")
	}
	if resp.Updates != nil {
		zap.L().Info("sheets: rows appended", zap.String("range", resp.Updates.UpdatedRange), zap.Int64("rows", resp.Updates.UpdatedRows))
	}
	return nil
}

func cellsOf(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
