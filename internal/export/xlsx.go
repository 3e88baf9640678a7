package export

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"applicant-engine/internal/domain"
)

// XLSXSink appends rows to a sheet of a local workbook, creating the file
// and a header row on first use.
type XLSXSink struct {
	Path      string
	SheetName string
	Loc       *time.Location

	mu sync.Mutex
}

func NewXLSXSink(path, sheetName string, loc *time.Location) *XLSXSink {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &XLSXSink{Path: path, SheetName: sheetName, Loc: loc}
}

func (s *XLSXSink) Name() string { return "xlsx" }

func (s *XLSXSink) Write(ctx context.Context, recs []domain.ApplicantRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}

	sheet, ok := f.Sheet[s.SheetName]
	if !ok {
		sheet, err = f.AddSheet(s.SheetName)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %q", s.SheetName)
		}
		addRow(sheet, Columns)
	}
	for _, cells := range Rows(recs, s.Loc) {
		addRow(sheet, cells)
	}

	if err := saveAtomic(f, s.Path); err != nil {
		return err
	}
	zap.L().Info("xlsx: rows appended", zap.String("path", s.Path), zap.Int("rows", len(recs)))
	return nil
}

func (s *XLSXSink) open() (*xlsx.File, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		return xlsx.NewFile(), nil
	}
	f, err := xlsx.OpenFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", s.Path)
	}
	return f, nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func saveAtomic(f *xlsx.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "xlsx: mkdir")
	}
	tmp := path + ".tmp"
	if err := f.Save(tmp); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "xlsx: replace workbook")
	}
	return nil
}
