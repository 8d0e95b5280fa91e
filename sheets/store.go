package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/bassamadnan/sheetcrm/crm"
)

const outputWidth = len(crm.Fields{})

// Options locate the contact table inside a spreadsheet.
type Options struct {
	SpreadsheetID     string
	SheetName         string
	AddressColumn     int
	OutputStartColumn int
}

// Record is one data row as shown by the review screen.
type Record struct {
	Row     int
	Address string
	Output  crm.Fields
}

// Store reads contact addresses from a sheet tab and writes the output block.
type Store struct {
	srv    *sheets.Service
	opts   Options
	logger zerolog.Logger

	mu  sync.Mutex
	loc *time.Location
}

// NewStore builds a Store on an authorized HTTP client.
func NewStore(ctx context.Context, httpClient *http.Client, opts Options, logger zerolog.Logger, clientOpts ...option.ClientOption) (*Store, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet ID cannot be empty")
	}
	if opts.AddressColumn < 1 || opts.OutputStartColumn < 1 {
		return nil, fmt.Errorf("invalid columns: address %d, output %d", opts.AddressColumn, opts.OutputStartColumn)
	}
	clientOpts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, clientOpts...)
	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return &Store{srv: srv, opts: opts, logger: logger.With().Str("component", "sheets").Logger()}, nil
}

// Load reads the whole tab once. The number of returned rows is the last row
// with content, header included.
func (s *Store) Load(ctx context.Context) (*crm.Rows, error) {
	values, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := s.location(ctx)
	if err != nil {
		return nil, err
	}

	rows := &crm.Rows{Total: len(values), Location: loc}
	if len(values) > 1 {
		rows.Addresses = make([]string, 0, len(values)-1)
		for _, v := range values[1:] {
			rows.Addresses = append(rows.Addresses, cell(v, s.opts.AddressColumn))
		}
	}
	s.logger.Debug().Int("total_rows", rows.Total).Msg("sheet loaded")
	return rows, nil
}

// WriteOutput writes the four output cells of a row. Values are entered as if
// typed, so dates and day counts become typed cells.
func (s *Store) WriteOutput(ctx context.Context, row int, fields crm.Fields) error {
	rng := rowRange(s.opts.SheetName, row, s.opts.OutputStartColumn, outputWidth)
	vr := &sheets.ValueRange{
		Range:  rng,
		Values: [][]interface{}{{fields[0], fields[1], fields[2], fields[3]}},
	}
	_, err := s.srv.Spreadsheets.Values.Update(s.opts.SpreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", rng, err)
	}
	return nil
}

// Records returns every data row with its address and current output cells.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	values, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	var records []Record
	for i := 1; i < len(values); i++ {
		rec := Record{Row: i + 1, Address: cell(values[i], s.opts.AddressColumn)}
		for j := range rec.Output {
			rec.Output[j] = cell(values[i], s.opts.OutputStartColumn+j)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) values(ctx context.Context) ([][]interface{}, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.opts.SpreadsheetID, quoteSheet(s.opts.SheetName)).
		MajorDimension("ROWS").
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", s.opts.SheetName, err)
	}
	return resp.Values, nil
}

// location returns the spreadsheet's display time zone, looked up once.
// An unknown zone falls back to UTC.
func (s *Store) location(ctx context.Context) (*time.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc != nil {
		return s.loc, nil
	}

	ss, err := s.srv.Spreadsheets.Get(s.opts.SpreadsheetID).
		Fields("properties.timeZone").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet properties: %w", err)
	}

	s.loc = time.UTC
	if ss.Properties != nil && ss.Properties.TimeZone != "" {
		loc, err := time.LoadLocation(ss.Properties.TimeZone)
		if err != nil {
			s.logger.Warn().Str("time_zone", ss.Properties.TimeZone).Err(err).Msg("unknown time zone, using UTC")
		} else {
			s.loc = loc
		}
	}
	return s.loc, nil
}

// cell returns the 1-indexed column of a row as a string; short rows read blank.
func cell(row []interface{}, col int) string {
	if col < 1 || col > len(row) || row[col-1] == nil {
		return ""
	}
	return fmt.Sprint(row[col-1])
}
