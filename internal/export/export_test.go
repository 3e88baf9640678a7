package export

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/store"
)

func bangkok(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	return loc
}

func sampleRecords() []domain.ApplicantRecord {
	return []domain.ApplicantRecord{
		{
			MailID:     "m1",
			ReceivedAt: time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC),
			Source:     domain.SourceAhaMove,
			Name:       "Nguyễn Văn A",
			Phone:      "84912345678",
			Email:      "a@example.com",
			City:       "Hà Nội",
			Position:   "Data Analyst",
		},
		{
			MailID:   "m2",
			Source:   domain.SourcePersonal,
			Phone:    "84987654321",
			Position: "CEO",
			Code:     "REF-1",
		},
	}
}

func TestRow(t *testing.T) {
	recs := sampleRecords()

	assert.Equal(t,
		[]string{"m1", "2024-03-01 09:30:00", "AhaMove Website", "Nguyễn Văn A", "84912345678", "a@example.com", "Hà Nội", "Data Analyst", ""},
		Row(recs[0], bangkok(t)))
	assert.Equal(t,
		[]string{"m2", "", "Personal", "", "84987654321", "", "", "CEO", "REF-1"},
		Row(recs[1], nil))
	assert.Equal(t, "2024-03-01 02:30:00", Row(recs[0], nil)[1])
	assert.Len(t, Columns, len(Row(recs[0], nil)))
}

func readSheet(t *testing.T, path, name string) [][]string {
	t.Helper()
	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "sheet %q missing", name)

	var out [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		out = append(out, cells)
	}
	return out
}

func TestXLSXSink_CreateThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "applicants.xlsx")
	sink := NewXLSXSink(path, "", bangkok(t))
	recs := sampleRecords()

	require.NoError(t, sink.Write(context.Background(), recs[:1]))
	require.NoError(t, sink.Write(context.Background(), recs[1:]))
	require.NoError(t, sink.Write(context.Background(), nil))

	rows := readSheet(t, path, "Sheet1")
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "m1", rows[1][0])
	assert.Equal(t, "2024-03-01 09:30:00", rows[1][1])
	assert.Equal(t, "Nguyễn Văn A", rows[1][3])
	assert.Equal(t, "m2", rows[2][0])
	assert.Equal(t, "REF-1", rows[2][8])
}

func TestXLSXSink_AddsSheetToExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := xlsx.NewFile()
	other, err := f.AddSheet("Notes")
	require.NoError(t, err)
	other.AddRow().AddCell().SetString("keep me")
	require.NoError(t, f.Save(path))

	require.NoError(t, NewXLSXSink(path, "Applicants", nil).Write(context.Background(), sampleRecords()))

	assert.Equal(t, [][]string{{"keep me"}}, readSheet(t, path, "Notes"))
	assert.Len(t, readSheet(t, path, "Applicants"), 3)
}

type sheetsCall struct {
	path  string
	query string
	body  map[string]any
}

func newSheetsService(t *testing.T, calls *[]sheetsCall) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*calls = append(*calls, sheetsCall{path: r.URL.Path, query: r.URL.RawQuery, body: body})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func TestSheetsSink_WriteMode(t *testing.T) {
	var calls []sheetsCall
	sink, err := NewSheetsSink(newSheetsService(t, &calls), "sheet-id", "Sheet1", SheetsModeWrite, bangkok(t))
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), sampleRecords()))
	require.Len(t, calls, 1)

	c := calls[0]
	assert.Equal(t, "/v4/spreadsheets/sheet-id/values:batchUpdate", c.path)
	assert.Equal(t, "USER_ENTERED", c.body["valueInputOption"])

	data := c.body["data"].([]any)
	require.Len(t, data, 1)
	vr := data[0].(map[string]any)
	assert.Equal(t, "Sheet1", vr["range"])
	values := vr["values"].([]any)
	require.Len(t, values, 3, "header plus two rows")
	assert.Equal(t, "mail_id", values[0].([]any)[0])
	assert.Equal(t, "2024-03-01 09:30:00", values[1].([]any)[1])
}

func TestSheetsSink_AppendMode(t *testing.T) {
	var calls []sheetsCall
	sink, err := NewSheetsSink(newSheetsService(t, &calls), "sheet-id", "Sheet1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, SheetsModeAppend, sink.Mode)

	require.NoError(t, sink.Write(context.Background(), sampleRecords()))
	require.Len(t, calls, 1)

	c := calls[0]
	assert.True(t, strings.HasSuffix(c.path, ":append"), c.path)
	assert.Contains(t, c.query, "valueInputOption=RAW")
	assert.Contains(t, c.query, "insertDataOption=INSERT_ROWS")
	assert.Len(t, c.body["values"].([]any), 2, "no header in append mode")

	require.NoError(t, sink.Write(context.Background(), nil))
	assert.Len(t, calls, 1)
}

func TestNewSheetsSink_Validates(t *testing.T) {
	var calls []sheetsCall
	svc := newSheetsService(t, &calls)

	_, err := NewSheetsSink(nil, "id", "", "", nil)
	assert.Error(t, err)
	_, err = NewSheetsSink(svc, " ", "", "", nil)
	assert.Error(t, err)
	_, err = NewSheetsSink(svc, "id", "", "overwrite", nil)
	assert.Error(t, err)
}

func TestSQLiteSink(t *testing.T) {
	db, err := store.OpenAndMigrate(filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sink := SQLiteSink{DB: db.Pool}
	require.NoError(t, sink.Write(context.Background(), sampleRecords()))
	require.NoError(t, sink.Write(context.Background(), sampleRecords()))

	got, err := store.ListApplicants(context.Background(), db.Pool, store.ListApplicantsOpts{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

type stubSink struct {
	name string
	err  error
	got  int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Write(_ context.Context, recs []domain.ApplicantRecord) error {
	s.got += len(recs)
	return s.err
}

func TestMulti_WritesAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := &stubSink{name: "a", err: boom}
	b := &stubSink{name: "b"}

	err := Multi{a, b}.Write(context.Background(), sampleRecords())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sink a")
	assert.Equal(t, 2, a.got)
	assert.Equal(t, 2, b.got, "a failing sink must not starve the next")

	assert.NoError(t, Multi{b}.Write(context.Background(), nil))
}
