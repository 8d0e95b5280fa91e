package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/sheets"
)

func sampleRecords() []sheets.Record {
	return []sheets.Record{
		{Row: 2, Address: "awaiting@example.com", Output: crm.Fields{"Jan 5 2021", "3", "", crm.TheyWroteNoReply.String()}},
		{Row: 3},
		{Row: 4, Address: "never@example.com", Output: crm.NeverContacted},
		{Row: 5, Address: "pending@example.com"},
		{Row: 6, Address: "starred@example.com", Output: crm.Fields{"Jan 5 2021", "3", "Y", crm.ExchangeIRepliedLast.String()}},
		{Row: 7, Address: "flag@example.com", Output: crm.Fields{"Jan 5 2021", "3", "", "N"}},
	}
}

func rows(records []sheets.Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.Row)
	}
	return out
}

func TestRecordState(t *testing.T) {
	recs := sampleRecords()
	assert.Equal(t, stateAwaiting, recordState(recs[0]))
	assert.Equal(t, stateBlank, recordState(recs[1]))
	assert.Equal(t, stateNever, recordState(recs[2]))
	assert.Equal(t, statePending, recordState(recs[3]))
	assert.Equal(t, stateContacted, recordState(recs[4]))
	assert.Equal(t, stateAwaiting, recordState(recs[5]))
}

func TestFilterRecords(t *testing.T) {
	recs := sampleRecords()
	assert.Equal(t, []int{2, 4, 5, 6, 7}, rows(filterRecords(recs, FilterAll)))
	assert.Equal(t, []int{2, 7}, rows(filterRecords(recs, FilterAwaiting)))
	assert.Equal(t, []int{4}, rows(filterRecords(recs, FilterNever)))
	assert.Equal(t, []int{6}, rows(filterRecords(recs, FilterStarred)))
}

func TestFilterCycles(t *testing.T) {
	f := FilterAll
	seen := []string{f.String()}
	for i := 0; i < int(filterCount); i++ {
		f = f.next()
		seen = append(seen, f.String())
	}
	assert.Equal(t, []string{"all", "awaiting reply", "never contacted", "starred", "all"}, seen)
}

func TestDescribeRecord(t *testing.T) {
	recs := sampleRecords()
	assert.Contains(t, describeRecord(recs[2]), "Never contacted")
	assert.Contains(t, describeRecord(recs[3]), "Not scanned yet")

	text := describeRecord(recs[4])
	assert.Contains(t, text, "Jan 5 2021")
	assert.Contains(t, text, "yes")
	assert.Contains(t, text, "I replied last")
}

func TestDescribeFields(t *testing.T) {
	assert.Equal(t, "never contacted", describeFields(crm.NeverContacted))
	assert.Equal(t, "Jan 5 2021 · 3d · ★ · N", describeFields(crm.Fields{"Jan 5 2021", "3", "Y", "N"}))
	assert.Equal(t, "abc...", truncate("abcdefgh", 6))
}
