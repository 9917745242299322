// Package google exports report tables to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"colectas/internal/log"
	"colectas/internal/report"
)

// Credentials selects the service account used to reach the Sheets API.
// JSON wins over File; with neither set GOOGLE_APPLICATION_CREDENTIALS is
// consulted.
type Credentials struct {
	JSON string
	File string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
	now           func() time.Time
}

func New(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	credentialsJSON, err := credentialsJSON(creds)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets exporter ready", "credentials_size", len(credentialsJSON))
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, logger: logger, now: time.Now}, nil
}

func credentialsJSON(c Credentials) ([]byte, error) {
	file := strings.TrimSpace(c.File)
	if strings.TrimSpace(c.JSON) == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// ExportTable writes t into the club's tab for entity and the current
// year, creating the tab when missing and replacing its previous content.
// It returns the A1 range written.
func (e *Exporter) ExportTable(ctx context.Context, clubID, entity string, t report.Table) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title, err := tabTitle(e.now().Year(), clubID, entity)
	if err != nil {
		return "", err
	}

	if err := e.ensureSheet(ctx, title); err != nil {
		return "", err
	}
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, quote(title), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", title, err)
	}

	values := valuesFromTable(t)
	rng := fmt.Sprintf("%s!A1:%s%d", quote(title), columnName(len(t.Headers)), len(values))
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	e.logger.InfoContext(ctx, "Table exported to Google Sheets",
		log.FieldClubID, clubID,
		log.FieldEntity, entity,
		log.FieldRows, t.Len(),
		"range", rng)
	return rng, nil
}

// ReadTable reads back a tab written by ExportTable.
func (e *Exporter) ReadTable(ctx context.Context, clubID, entity string, year int) (report.Table, error) {
	if e.svc == nil {
		return report.Table{}, errors.New("sheets service not initialized")
	}
	title, err := tabTitle(year, clubID, entity)
	if err != nil {
		return report.Table{}, err
	}
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, quote(title)).Context(ctx).Do()
	if err != nil {
		return report.Table{}, fmt.Errorf("read %s: %w", title, err)
	}
	t := tableFromValues(resp.Values)
	t.Title = title
	return t, nil
}

func (e *Exporter) ensureSheet(ctx context.Context, title string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{
		{AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}}},
	}}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	e.logger.InfoContext(ctx, "Created sheet tab", "title", title)
	return nil
}

func valuesFromTable(t report.Table) [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range t.Rows {
		r := make([]any, len(row))
		for i, v := range row {
			r[i] = v
		}
		out = append(out, r)
	}
	return out
}

// tableFromValues treats the first row as headers. Short rows are padded
// to the header width and blank rows are skipped.
func tableFromValues(values [][]any) report.Table {
	if len(values) == 0 {
		return report.Table{}
	}
	t := report.Table{Headers: toStrings(values[0])}
	for _, raw := range values[1:] {
		row := toStrings(raw)
		if strings.Join(row, "") == "" {
			continue
		}
		for len(row) < len(t.Headers) {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// columnName converts a 1-based column count to its A1 letter ("A", "Z", "AA").
func columnName(n int) string {
	if n < 1 {
		n = 1
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// tabTitle names the tab "<year> <club> <Label>". Every club gets its own
// tabs inside the shared spreadsheet.
func tabTitle(year int, clubID, entity string) (string, error) {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return "", errors.New("sheets tab requires a club")
	}
	return fmt.Sprintf("%d %s %s", year, clubID, report.Label(entity)), nil
}
