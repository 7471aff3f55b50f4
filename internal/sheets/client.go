// Package sheets reads the league master schedule from Google Sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/codr1/refschedule/internal/workbook"
)

var ErrSpreadsheetRequired = errors.New("spreadsheet id and range are required")

type Client struct {
	service *gsheets.Service
}

// NewClient creates a read-only Sheets client. An empty credentials file
// falls back to application default credentials.
func NewClient(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*Client, error) {
	clientOpts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsReadonlyScope)}
	if strings.TrimSpace(credentialsFile) != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{service: service}, nil
}

// Values returns the formatted cell values in spreadsheetID!readRange.
func (c *Client) Values(ctx context.Context, spreadsheetID, readRange string) ([]workbook.Row, error) {
	if strings.TrimSpace(spreadsheetID) == "" || strings.TrimSpace(readRange) == "" {
		return nil, ErrSpreadsheetRequired
	}

	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("spreadsheet_id", spreadsheetID).
			Str("range", readRange).
			Msg("Failed to read spreadsheet values")
		return nil, fmt.Errorf("read spreadsheet %s: %w", spreadsheetID, err)
	}

	rows := make([]workbook.Row, 0, len(resp.Values))
	for _, values := range resp.Values {
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = fmt.Sprint(v)
		}
		rows = append(rows, workbook.Strings(strs...))
	}
	log.Ctx(ctx).Info().Int("rows", len(rows)).Msg("Spreadsheet rows retrieved")
	return rows, nil
}

// MasterSheet is a master schedule stored in a Google spreadsheet range.
type MasterSheet struct {
	Client        *Client
	SpreadsheetID string
	Range         string
}

func (m MasterSheet) MasterRows(ctx context.Context) ([]workbook.Row, error) {
	if m.Client == nil {
		return nil, errors.New("sheets client is not initialized")
	}
	return m.Client.Values(ctx, m.SpreadsheetID, m.Range)
}
