package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanNow = time.Date(2021, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestScanner(t *testing.T, rows *fakeRows, cursors *fakeCursors, threads *fakeThreads, budget int) *Scanner {
	t.Helper()
	opts := DefaultOptions()
	opts.StepBudget = budget
	opts.Throttle = 0
	s, err := NewScanner(Deps{
		Rows:     rows,
		Cursors:  cursors,
		Threads:  threads,
		Identity: StaticIdentity(selfAddr),
		Logger:   zerolog.Nop(),
	}, opts)
	require.NoError(t, err)
	return s
}

func TestScanInitializesCursorOnFirstRun(t *testing.T) {
	rows := newFakeRows("a@example.com", "b@example.com")
	cursors := newFakeCursors()
	threads := newFakeThreads()

	report, err := newTestScanner(t, rows, cursors, threads, 100).Scan(context.Background(), scanNow)
	require.NoError(t, err)

	require.NotEmpty(t, cursors.puts)
	assert.Equal(t, cursorPut{value: "1", ttl: DefaultCursorTTL}, cursors.puts[0])
	assert.Equal(t, 1, report.StartingRow)
	assert.Equal(t, 2, report.Enriched)
	assert.Equal(t, 2, report.Never)
	assert.Equal(t, StopFullCircuit, report.Stop)
	assert.Equal(t, []int{2, 3}, rows.order)
	assert.Equal(t, NeverContacted, rows.writes[2])
	assert.Equal(t, 3, cursors.cursor())
	assert.NotEmpty(t, report.RunID)
}

func TestScanBlankRowSkipsLookupAndAdvancesByOne(t *testing.T) {
	rows := newFakeRows("   ", "b@example.com")
	cursors := newFakeCursors()
	cursors.values[DefaultCursorKey] = "1"
	threads := newFakeThreads()

	report, err := newTestScanner(t, rows, cursors, threads, 1).Scan(context.Background(), scanNow)
	require.NoError(t, err)

	assert.Empty(t, threads.calls)
	assert.Empty(t, rows.writes)
	assert.Equal(t, 2, cursors.cursor())
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, StopBudget, report.Stop)
}

func TestScanWrapsAroundAtLastRow(t *testing.T) {
	rows := newFakeRows("a@example.com", "b@example.com", "c@example.com", "d@example.com")
	require.Equal(t, 5, rows.rows.Total)
	cursors := newFakeCursors()
	cursors.values[DefaultCursorKey] = "5"
	threads := newFakeThreads()

	_, err := newTestScanner(t, rows, cursors, threads, 1).Scan(context.Background(), scanNow)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, rows.order)
	assert.Equal(t, []string{"a@example.com"}, threads.calls)
	assert.Equal(t, 2, cursors.cursor())
}

func TestScanFullCircuitTerminates(t *testing.T) {
	tests := []struct {
		name        string
		addresses   []string
		start       string
		maxAdvances int
	}{
		{name: "fresh cursor, all blank", addresses: []string{"", ""}, start: "", maxAdvances: 3},
		{name: "cursor at top, all blank", addresses: []string{"", ""}, start: "1", maxAdvances: 3},
		{name: "cursor mid sheet", addresses: []string{"", "", ""}, start: "2", maxAdvances: 3},
		{name: "cursor at last row", addresses: []string{"", "", ""}, start: "4", maxAdvances: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := newFakeRows(tt.addresses...)
			cursors := newFakeCursors()
			if tt.start != "" {
				cursors.values[DefaultCursorKey] = tt.start
			}
			threads := newFakeThreads()

			report, err := newTestScanner(t, rows, cursors, threads, 100).Scan(context.Background(), scanNow)
			require.NoError(t, err)

			assert.Equal(t, StopFullCircuit, report.Stop)
			assert.LessOrEqual(t, report.Advanced(), tt.maxAdvances)
			assert.Empty(t, threads.calls)
		})
	}
}

func TestScanMidSheetStopsBeforeStartingRow(t *testing.T) {
	rows := newFakeRows("a@example.com", "b@example.com", "c@example.com")
	cursors := newFakeCursors()
	cursors.values[DefaultCursorKey] = "3"
	threads := newFakeThreads()

	report, err := newTestScanner(t, rows, cursors, threads, 100).Scan(context.Background(), scanNow)
	require.NoError(t, err)

	// Row 3 was finished by the previous run, so the circuit is 4 then 2.
	assert.Equal(t, []int{4, 2}, rows.order)
	assert.Equal(t, StopFullCircuit, report.Stop)
	assert.Equal(t, 2, cursors.cursor())
}

func TestScanResumesAcrossInvocations(t *testing.T) {
	rows := newFakeRows("a@example.com", "b@example.com", "c@example.com", "d@example.com")
	cursors := newFakeCursors()
	threads := newFakeThreads()

	_, err := newTestScanner(t, rows, cursors, threads, 2).Scan(context.Background(), scanNow)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, rows.order)

	rows.order = nil
	report, err := newTestScanner(t, rows, cursors, threads, 1).Scan(context.Background(), scanNow)
	require.NoError(t, err)
	assert.Equal(t, 3, report.StartingRow)
	assert.Equal(t, []int{4}, rows.order)
}

func TestScanWritesFormattedSummary(t *testing.T) {
	rows := newFakeRows("Jane@Example.com")
	cursors := newFakeCursors()
	threads := newFakeThreads()
	last := scanNow.Add(-36 * time.Hour)
	threads.byAddress["jane@example.com"] = []Thread{
		thread("t1", last, "Jane Doe <jane@example.com>"),
	}

	_, err := newTestScanner(t, rows, cursors, threads, 1).Scan(context.Background(), scanNow)
	require.NoError(t, err)

	assert.Equal(t, Fields{"Mar 9 2021", "2", "", "They emailed me, I haven't replied"}, rows.writes[2])
}

func TestScanLookupErrorLeavesCursorOnLastCommittedRow(t *testing.T) {
	rows := newFakeRows("a@example.com", "b@example.com")
	cursors := newFakeCursors()
	cursors.values[DefaultCursorKey] = "1"
	threads := newFakeThreads()
	boom := errors.New("quota exceeded")
	threads.err = boom

	report, err := newTestScanner(t, rows, cursors, threads, 10).Scan(context.Background(), scanNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rows.writes)
	assert.Equal(t, 1, cursors.cursor())
	assert.Equal(t, 1, report.Cursor)
}

func TestScanWriteErrorAfterCommittedRow(t *testing.T) {
	rows := newFakeRows("a@example.com", "b@example.com")
	boom := errors.New("sheet unavailable")
	rows.writeFn = func(row int) error {
		if row == 3 {
			return boom
		}
		return nil
	}
	cursors := newFakeCursors()
	threads := newFakeThreads()

	report, err := newTestScanner(t, rows, cursors, threads, 10).Scan(context.Background(), scanNow)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, cursors.cursor())
	assert.Equal(t, 1, report.Enriched)
}

func TestScanEmptySheet(t *testing.T) {
	rows := newFakeRows()
	cursors := newFakeCursors()
	threads := newFakeThreads()

	report, err := newTestScanner(t, rows, cursors, threads, 100).Scan(context.Background(), scanNow)
	require.NoError(t, err)
	assert.Equal(t, StopEmptySheet, report.Stop)
	assert.Equal(t, 1, cursors.cursor())
	assert.Empty(t, rows.order)
}

func TestScanResetsInvalidCursor(t *testing.T) {
	for _, raw := range []string{"0", "-4", "abc"} {
		t.Run(raw, func(t *testing.T) {
			rows := newFakeRows("a@example.com")
			cursors := newFakeCursors()
			cursors.values[DefaultCursorKey] = raw
			threads := newFakeThreads()

			report, err := newTestScanner(t, rows, cursors, threads, 1).Scan(context.Background(), scanNow)
			require.NoError(t, err)
			assert.Equal(t, 1, report.StartingRow)
			assert.Equal(t, "1", cursors.puts[0].value)
		})
	}
}

func TestScanReportsProgress(t *testing.T) {
	rows := newFakeRows("", "b@example.com")
	cursors := newFakeCursors()
	threads := newFakeThreads()

	var got []RowResult
	s := newTestScanner(t, rows, cursors, threads, 2).WithProgress(func(r RowResult) {
		got = append(got, r)
	})
	_, err := s.Scan(context.Background(), scanNow)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[0].Skipped)
	assert.Equal(t, 3, got[1].Row)
	assert.Equal(t, NeverContacted, got[1].Fields)
}

func TestScanHonorsCancellation(t *testing.T) {
	rows := newFakeRows("a@example.com")
	cursors := newFakeCursors()
	threads := newFakeThreads()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(t, rows, cursors, threads, 5).Scan(ctx, scanNow)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, threads.calls)
}

func TestNewScannerValidation(t *testing.T) {
	deps := Deps{
		Rows:     newFakeRows(),
		Cursors:  newFakeCursors(),
		Threads:  newFakeThreads(),
		Identity: StaticIdentity(selfAddr),
	}

	opts := DefaultOptions()
	opts.StepBudget = 0
	_, err := NewScanner(deps, opts)
	assert.ErrorIs(t, err, ErrInvalidBudget)

	opts = DefaultOptions()
	opts.CursorTTL = 0
	_, err = NewScanner(deps, opts)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = NewScanner(Deps{Rows: deps.Rows}, DefaultOptions())
	assert.ErrorIs(t, err, ErrMissingDep)
}

type sleepRecorder struct {
	calls []time.Duration
	err   error
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func newThrottledScanner(t *testing.T, rows *fakeRows, cursors *fakeCursors, threads *fakeThreads, rec *sleepRecorder) *Scanner {
	t.Helper()
	opts := DefaultOptions()
	opts.Throttle = 250 * time.Millisecond
	s, err := NewScanner(Deps{
		Rows:     rows,
		Cursors:  cursors,
		Threads:  threads,
		Identity: StaticIdentity(selfAddr),
		Logger:   zerolog.Nop(),
	}, opts)
	require.NoError(t, err)
	s.sleep = rec.sleep
	return s
}

func TestScanThrottlesAfterEachLookup(t *testing.T) {
	rows := newFakeRows("", "jane@example.com", "never@example.com", "  ")
	cursors := newFakeCursors()
	threads := newFakeThreads()
	threads.byAddress[them] = []Thread{thread("t1", scanNow.Add(-time.Hour), them)}
	rec := &sleepRecorder{}

	report, err := newThrottledScanner(t, rows, cursors, threads, rec).Scan(context.Background(), scanNow)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Enriched)
	assert.Equal(t, 1, report.Never)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, rec.calls,
		"one pause per lookup, none for blank rows")
}

func TestScanThrottleErrorAbortsBeforeCommit(t *testing.T) {
	rows := newFakeRows("jane@example.com", "bob@example.com")
	cursors := newFakeCursors()
	cursors.values[DefaultCursorKey] = "1"
	threads := newFakeThreads()
	rec := &sleepRecorder{err: context.DeadlineExceeded}

	report, err := newThrottledScanner(t, rows, cursors, threads, rec).Scan(context.Background(), scanNow)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Len(t, rec.calls, 1)
	assert.Empty(t, rows.writes)
	assert.Equal(t, 1, cursors.cursor())
	assert.Equal(t, 1, report.Cursor)
	assert.Zero(t, report.Advanced())
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
