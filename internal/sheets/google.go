package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/retry"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// NewService builds a Sheets API service from a service-account key file.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*gsheets.Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, pkgerrors.NewConfigError("credentials", fmt.Sprintf("cannot read %s", credentialsFile), err)
	}
	conf, err := google.JWTConfigFromJSON(data, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, pkgerrors.NewConfigError("credentials", "invalid service account key", err)
	}
	opts = append([]option.ClientOption{option.WithTokenSource(conf.TokenSource(ctx))}, opts...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Client implements Spreadsheet on the Google Sheets API. Every call runs
// under the retry policy; writes are followed by a pause to stay under
// the per-minute write quota.
type Client struct {
	svc    *gsheets.Service
	id     string
	url    string
	policy retry.Policy
	pause  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithWritePause sets the pause after each write.
func WithWritePause(d time.Duration) Option {
	return func(c *Client) { c.pause = d }
}

// Open loads the spreadsheet metadata for id.
func Open(ctx context.Context, svc *gsheets.Service, id string, opts ...Option) (*Client, error) {
	c := &Client{
		svc:    svc,
		id:     id,
		policy: retry.DefaultPolicy(),
		pause:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	ss, err := retry.Value(ctx, c.policy, func(ctx context.Context) (*gsheets.Spreadsheet, error) {
		ss, err := svc.Spreadsheets.Get(id).Fields("spreadsheetId", "spreadsheetUrl", "properties.title").Context(ctx).Do()
		return ss, wrap(err)
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotFoundError("spreadsheet", id, err)
		}
		return nil, fmt.Errorf("open spreadsheet %s: %w", id, err)
	}
	c.url = ss.SpreadsheetUrl
	if c.url == "" {
		c.url = "https://docs.google.com/spreadsheets/d/" + id
	}
	title := ""
	if ss.Properties != nil {
		title = ss.Properties.Title
	}
	logging.FromContext(ctx).Info().Str("spreadsheet", title).Str("id", id).Msg("Opened spreadsheet")
	return c, nil
}

func (c *Client) ID() string  { return c.id }
func (c *Client) URL() string { return c.url }

func (c *Client) Worksheets(ctx context.Context) ([]Worksheet, error) {
	ss, err := retry.Value(ctx, c.policy, func(ctx context.Context) (*gsheets.Spreadsheet, error) {
		ss, err := c.svc.Spreadsheets.Get(c.id).Fields("sheets.properties").Context(ctx).Do()
		return ss, wrap(err)
	})
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	out := make([]Worksheet, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		out = append(out, Worksheet{ID: s.Properties.SheetId, Title: s.Properties.Title, Index: int(s.Properties.Index)})
	}
	return out, nil
}

func (c *Client) AddWorksheet(ctx context.Context, title string, rows, cols int) (Worksheet, error) {
	req := &gsheets.Request{AddSheet: &gsheets.AddSheetRequest{
		Properties: &gsheets.SheetProperties{
			Title: title,
			GridProperties: &gsheets.GridProperties{
				RowCount:    int64(rows),
				ColumnCount: int64(cols),
			},
		},
	}}
	resp, err := c.batch(ctx, req)
	if err != nil {
		return Worksheet{}, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return Worksheet{}, errors.New("add worksheet: empty reply")
	}
	p := resp.Replies[0].AddSheet.Properties
	return Worksheet{ID: p.SheetId, Title: p.Title, Index: int(p.Index)}, nil
}

func (c *Client) Values(ctx context.Context, title string) ([][]string, error) {
	vr, err := retry.Value(ctx, c.policy, func(ctx context.Context) (*gsheets.ValueRange, error) {
		vr, err := c.svc.Spreadsheets.Values.Get(c.id, quote(title)).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).Do()
		return vr, wrap(err)
	})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", title, err)
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, title string, values [][]string) error {
	rows := make([][]any, len(values))
	for i, row := range values {
		rows[i] = make([]any, len(row))
		for j, cell := range row {
			rows[i][j] = cell
		}
	}
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Update(c.id, quote(title)+"!A1", &gsheets.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		return wrap(err)
	})
	if err != nil {
		return fmt.Errorf("update %q: %w", title, err)
	}
	return c.wait(ctx)
}

func (c *Client) Clear(ctx context.Context, title string) error {
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.id, quote(title), &gsheets.ClearValuesRequest{}).Context(ctx).Do()
		return wrap(err)
	})
	if err != nil {
		return fmt.Errorf("clear %q: %w", title, err)
	}
	return nil
}

func (c *Client) Format(ctx context.Context, sheetID int64, styles ...Style) error {
	if len(styles) == 0 {
		return nil
	}
	reqs := make([]*gsheets.Request, 0, len(styles))
	for _, s := range styles {
		reqs = append(reqs, repeatCell(sheetID, s))
	}
	if _, err := c.batch(ctx, reqs...); err != nil {
		return err
	}
	return c.wait(ctx)
}

func (c *Client) Freeze(ctx context.Context, sheetID int64, rows int) error {
	_, err := c.batch(ctx, &gsheets.Request{UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
		Properties: &gsheets.SheetProperties{
			SheetId:         sheetID,
			GridProperties:  &gsheets.GridProperties{FrozenRowCount: int64(rows), ForceSendFields: []string{"FrozenRowCount"}},
			ForceSendFields: []string{"SheetId"},
		},
		Fields: "gridProperties.frozenRowCount",
	}})
	return err
}

func (c *Client) Move(ctx context.Context, sheetID int64, index int) error {
	_, err := c.batch(ctx, &gsheets.Request{UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
		Properties: &gsheets.SheetProperties{
			SheetId:         sheetID,
			Index:           int64(index),
			ForceSendFields: []string{"SheetId", "Index"},
		},
		Fields: "index",
	}})
	return err
}

func (c *Client) batch(ctx context.Context, reqs ...*gsheets.Request) (*gsheets.BatchUpdateSpreadsheetResponse, error) {
	resp, err := retry.Value(ctx, c.policy, func(ctx context.Context) (*gsheets.BatchUpdateSpreadsheetResponse, error) {
		resp, err := c.svc.Spreadsheets.BatchUpdate(c.id, &gsheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
		return resp, wrap(err)
	})
	if err != nil {
		return nil, fmt.Errorf("batch update: %w", err)
	}
	return resp, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.pause <= 0 {
		return nil
	}
	t := time.NewTimer(c.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func repeatCell(sheetID int64, s Style) *gsheets.Request {
	f := &gsheets.CellFormat{}
	var fields []string
	if s.Background != nil {
		f.BackgroundColor = &gsheets.Color{Red: s.Background.Red, Green: s.Background.Green, Blue: s.Background.Blue}
		fields = append(fields, "backgroundColor")
	}
	if s.Bold || s.FontSize > 0 {
		f.TextFormat = &gsheets.TextFormat{Bold: s.Bold, FontSize: int64(s.FontSize)}
		fields = append(fields, "textFormat")
	}
	if s.Center {
		f.HorizontalAlignment = "CENTER"
		fields = append(fields, "horizontalAlignment")
	}
	return &gsheets.Request{RepeatCell: &gsheets.RepeatCellRequest{
		Range: &gsheets.GridRange{
			SheetId:          sheetID,
			StartRowIndex:    int64(s.Range.StartRow),
			EndRowIndex:      int64(s.Range.EndRow),
			StartColumnIndex: int64(s.Range.StartCol),
			EndColumnIndex:   int64(s.Range.EndCol),
			ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
		},
		Cell:   &gsheets.CellData{UserEnteredFormat: f},
		Fields: "userEnteredFormat(" + strings.Join(fields, ",") + ")",
	}}
}

func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// wrap converts Google API errors into APIError so the retry classifier
// can see status codes and reasons.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	apiErr := &pkgerrors.APIError{Service: "sheets", StatusCode: gerr.Code, Message: gerr.Message, Err: err}
	if len(gerr.Errors) > 0 {
		apiErr.Reason = gerr.Errors[0].Reason
		if apiErr.Message == "" {
			apiErr.Message = gerr.Errors[0].Message
		}
	}
	return apiErr
}
