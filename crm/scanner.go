package crm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scan defaults. MaxStepBudget bounds a single invocation.
const (
	DefaultStepBudget = 100
	MaxStepBudget     = 10000
	DefaultCursorKey  = "lastRow"
	DefaultCursorTTL  = 24 * time.Hour
	DefaultThrottle   = 20 * time.Millisecond
)

var (
	ErrInvalidBudget = fmt.Errorf("step budget must be between 1 and %d", MaxStepBudget)
	ErrInvalidTTL    = errors.New("cursor TTL must be positive")
	ErrMissingDep    = errors.New("scanner dependency is nil")
)

// StopReason says why a scan returned.
type StopReason string

const (
	StopBudget      StopReason = "budget"
	StopFullCircuit StopReason = "full-circuit"
	StopEmptySheet  StopReason = "empty-sheet"
)

// Options tune a Scanner.
type Options struct {
	// StepBudget is the maximum number of rows visited per Scan.
	StepBudget int
	// CursorKey is the single key the resume cursor lives under.
	CursorKey string
	// CursorTTL is the expiry applied on every cursor write.
	CursorTTL time.Duration
	// Throttle is the pause after each thread search.
	Throttle time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		StepBudget: DefaultStepBudget,
		CursorKey:  DefaultCursorKey,
		CursorTTL:  DefaultCursorTTL,
		Throttle:   DefaultThrottle,
	}
}

func (o Options) validate() error {
	if o.StepBudget < 1 || o.StepBudget > MaxStepBudget {
		return fmt.Errorf("%w: got %d", ErrInvalidBudget, o.StepBudget)
	}
	if o.CursorTTL <= 0 {
		return ErrInvalidTTL
	}
	if o.CursorKey == "" {
		return errors.New("cursor key cannot be empty")
	}
	return nil
}

// Deps are the collaborators a Scanner drives.
type Deps struct {
	Rows      RowStore
	Cursors   CursorStore
	Threads   ThreadSource
	Identity  Identity
	Formatter RowFormatter
	Logger    zerolog.Logger
}

// RowResult describes one visited row.
type RowResult struct {
	Row     int
	Address string
	Skipped bool
	Summary *Summary
	Fields  Fields
}

// ProgressFunc is called after each visited row has been committed.
type ProgressFunc func(RowResult)

// Report summarizes one Scan invocation.
type Report struct {
	RunID       string
	StartedAt   time.Time
	TotalRows   int
	StartingRow int
	Cursor      int
	Enriched    int
	Skipped     int
	Never       int
	Stop        StopReason
}

// Advanced is the number of rows the cursor moved past in this run.
func (r *Report) Advanced() int {
	return r.Enriched + r.Skipped
}

// Scanner walks the contact sheet in bounded, resumable slices.
type Scanner struct {
	rows      RowStore
	cursors   CursorStore
	lookup    *Lookup
	identity  Identity
	formatter RowFormatter
	opts      Options
	logger    zerolog.Logger
	onRow     ProgressFunc
	sleep     func(context.Context, time.Duration) error
}

// NewScanner validates opts and wires the collaborators.
func NewScanner(deps Deps, opts Options) (*Scanner, error) {
	if deps.Rows == nil || deps.Cursors == nil || deps.Threads == nil || deps.Identity == nil {
		return nil, ErrMissingDep
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	formatter := deps.Formatter
	if formatter == nil {
		formatter = StatusFormatter{}
	}
	return &Scanner{
		rows:      deps.Rows,
		cursors:   deps.Cursors,
		lookup:    NewLookup(deps.Threads),
		identity:  deps.Identity,
		formatter: formatter,
		opts:      opts,
		logger:    deps.Logger.With().Str("component", "scanner").Logger(),
		sleep:     sleepCtx,
	}, nil
}

// WithProgress registers a callback invoked after every visited row.
func (s *Scanner) WithProgress(fn ProgressFunc) *Scanner {
	s.onRow = fn
	return s
}

// Scan performs one invocation: it resumes from the persisted cursor and
// visits at most StepBudget rows, persisting the cursor after each one.
// Collaborator errors abort the run; rows already committed stay committed.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: now}
	log := s.logger.With().Str("run_id", report.RunID).Logger()

	rows, err := s.rows.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("loading rows: %w", err)
	}
	report.TotalRows = rows.Total

	cursor, err := s.loadCursor(ctx)
	if err != nil {
		return report, err
	}
	report.StartingRow = cursor
	report.Cursor = cursor

	if rows.Total < 2 {
		report.Stop = StopEmptySheet
		log.Info().Int("total_rows", rows.Total).Msg("no data rows, nothing to scan")
		return report, nil
	}

	self, err := s.identity.SelfAddress(ctx)
	if err != nil {
		return report, fmt.Errorf("resolving own address: %w", err)
	}

	startingRow := cursor
	// A start at or past the last row resumes from the top, so coming back
	// around to row 1 closes the circuit.
	startsAtTop := startingRow <= 1 || startingRow >= rows.Total

	log.Info().
		Int("starting_row", startingRow).
		Int("total_rows", rows.Total).
		Int("budget", s.opts.StepBudget).
		Msg("scan started")

	report.Stop = StopBudget
	for step := 0; step < s.opts.StepBudget; step++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if cursor >= rows.Total {
			cursor = 1
			if startsAtTop && report.Advanced() > 0 {
				report.Stop = StopFullCircuit
				break
			}
		}

		currentRow := cursor + 1
		if currentRow == startingRow {
			report.Stop = StopFullCircuit
			break
		}

		result, err := s.visit(ctx, rows, self, currentRow, now)
		if err != nil {
			return report, fmt.Errorf("row %d: %w", currentRow, err)
		}

		if err := s.storeCursor(ctx, currentRow); err != nil {
			return report, err
		}
		cursor = currentRow
		report.Cursor = cursor

		if result.Skipped {
			report.Skipped++
		} else {
			report.Enriched++
			if result.Summary == nil {
				report.Never++
			}
			log.Debug().Int("row", currentRow).Str("address", result.Address).Str("status", result.Fields[3]).Msg("processed row")
		}
		if s.onRow != nil {
			s.onRow(result)
		}
	}

	log.Info().
		Int("cursor", report.Cursor).
		Int("enriched", report.Enriched).
		Int("skipped", report.Skipped).
		Int("never", report.Never).
		Str("stop", string(report.Stop)).
		Msg("scan finished")
	return report, nil
}

// visit enriches and writes a single row. Blank rows are reported as skipped
// without touching the mailbox.
func (s *Scanner) visit(ctx context.Context, rows *Rows, self string, row int, now time.Time) (RowResult, error) {
	result := RowResult{Row: row, Address: rows.Address(row)}
	if result.Address == "" {
		result.Skipped = true
		return result, nil
	}

	summary, err := s.lookup.Summarize(ctx, self, result.Address)
	if err != nil {
		return result, err
	}
	if err := s.sleep(ctx, s.opts.Throttle); err != nil {
		return result, err
	}

	result.Summary = summary
	result.Fields = s.formatter.Format(summary, now, rows.Location)
	if err := s.rows.WriteOutput(ctx, row, result.Fields); err != nil {
		return result, fmt.Errorf("writing output: %w", err)
	}
	return result, nil
}

// loadCursor returns the persisted cursor, initializing it to 1 when it is
// missing, unparsable or not positive.
func (s *Scanner) loadCursor(ctx context.Context) (int, error) {
	raw, ok, err := s.cursors.Get(ctx, s.opts.CursorKey)
	if err != nil {
		return 0, fmt.Errorf("reading cursor: %w", err)
	}
	if ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			return n, nil
		}
		s.logger.Warn().Str("value", raw).Msg("discarding invalid cursor")
	}
	if err := s.storeCursor(ctx, 1); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *Scanner) storeCursor(ctx context.Context, row int) error {
	if err := s.cursors.Put(ctx, s.opts.CursorKey, strconv.Itoa(row), s.opts.CursorTTL); err != nil {
		return fmt.Errorf("persisting cursor %d: %w", row, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
