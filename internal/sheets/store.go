package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/yukikurage/qa-tracker-api/internal/config"
)

// Store is the remote spreadsheet. Row numbers are 1-based, row 1 is the header.
type Store interface {
	Append(ctx context.Context, rows [][]interface{}) error
	FetchAll(ctx context.Context) ([][]interface{}, error)
	UpdateRow(ctx context.Context, rowNumber int, row []interface{}) error
}

// GoogleStore talks to one sheet of a Google spreadsheet.
type GoogleStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewGoogleStore authenticates with a service-account key file.
func NewGoogleStore(ctx context.Context, cfg config.SheetsConfig) (*GoogleStore, error) {
	creds, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheets credentials: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheets credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &GoogleStore{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

func (s *GoogleStore) columnsRange() string {
	return fmt.Sprintf("%s!A:%s", s.sheetName, lastColumn)
}

func (s *GoogleStore) Append(ctx context.Context, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.columnsRange(), &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

func (s *GoogleStore) FetchAll(ctx context.Context) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.columnsRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets fetch: %w", err)
	}
	return resp.Values, nil
}

func (s *GoogleStore) UpdateRow(ctx context.Context, rowNumber int, row []interface{}) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", s.sheetName, rowNumber, lastColumn, rowNumber)
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets update row %d: %w", rowNumber, err)
	}
	return nil
}
