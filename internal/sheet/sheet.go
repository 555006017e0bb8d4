// Package sheet reads and writes the order-tracking spreadsheet through
// the Google Sheets API. Column A is the operator-supplied order key;
// columns B..Q are the derived fields this system writes.
package sheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// maxBatchRows bounds one BatchUpdate call; larger payloads run into the
// provider's request-size limits.
const maxBatchRows = 30

// RowUpdate is one pending write: the sixteen derived values for a row,
// addressed by its absolute 1-based row number.
type RowUpdate struct {
	Row    int
	Values []interface{}
}

// Store is the view of the spreadsheet the reconciler consumes.
type Store interface {
	// Grid returns the full value grid of the tab, header row included.
	Grid(ctx context.Context) ([][]string, error)
	// Apply writes the updates, each to its row's B..Q range.
	Apply(ctx context.Context, updates []RowUpdate) error
}

// Client implements Store against a real spreadsheet.
type Client struct {
	svc       *sheets.Service
	sheetID   string
	sheetName string
}

// NewClient authenticates with a service-account key file and binds to
// one spreadsheet tab.
func NewClient(ctx context.Context, sheetID, sheetName, credentialsFile string) (*Client, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, sheetID: sheetID, sheetName: sheetName}, nil
}

// Grid reads the whole tab as strings.
func (c *Client) Grid(ctx context.Context) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.sheetID, fmt.Sprintf("'%s'", c.sheetName)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

// Apply writes the updates in chunks, one B..Q range per row, with RAW
// value input so nothing is reinterpreted as a formula or locale number.
func (c *Client) Apply(ctx context.Context, updates []RowUpdate) error {
	for _, chunk := range Chunks(updates, maxBatchRows) {
		data := make([]*sheets.ValueRange, 0, len(chunk))
		for _, u := range chunk {
			data = append(data, &sheets.ValueRange{
				Range:  fmt.Sprintf("'%s'!B%d:Q%d", c.sheetName, u.Row, u.Row),
				Values: [][]interface{}{u.Values},
			})
		}
		req := &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}
		if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.sheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("batch update %d rows: %w", len(chunk), err)
		}
	}
	return nil
}

// Chunks splits updates into slices of at most n.
func Chunks(updates []RowUpdate, n int) [][]RowUpdate {
	if n <= 0 || len(updates) == 0 {
		return nil
	}
	out := make([][]RowUpdate, 0, (len(updates)+n-1)/n)
	for start := 0; start < len(updates); start += n {
		end := min(start+n, len(updates))
		out = append(out, updates[start:end])
	}
	return out
}
