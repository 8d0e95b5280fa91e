package crm

import (
	"context"
	"strconv"
	"strings"
	"time"
)

type fakeRows struct {
	rows    Rows
	writes  map[int]Fields
	order   []int
	loadErr error
	writeFn func(row int) error
}

func newFakeRows(addresses ...string) *fakeRows {
	return &fakeRows{
		rows: Rows{
			Total:     len(addresses) + 1,
			Addresses: addresses,
			Location:  time.UTC,
		},
		writes: map[int]Fields{},
	}
}

func (f *fakeRows) Load(context.Context) (*Rows, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	r := f.rows
	return &r, nil
}

func (f *fakeRows) WriteOutput(_ context.Context, row int, fields Fields) error {
	if f.writeFn != nil {
		if err := f.writeFn(row); err != nil {
			return err
		}
	}
	f.writes[row] = fields
	f.order = append(f.order, row)
	return nil
}

type cursorPut struct {
	value string
	ttl   time.Duration
}

type fakeCursors struct {
	values map[string]string
	puts   []cursorPut
}

func newFakeCursors() *fakeCursors {
	return &fakeCursors{values: map[string]string{}}
}

func (f *fakeCursors) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCursors) Put(_ context.Context, key, value string, ttl time.Duration) error {
	f.values[key] = value
	f.puts = append(f.puts, cursorPut{value: value, ttl: ttl})
	return nil
}

func (f *fakeCursors) cursor() int {
	n, _ := strconv.Atoi(f.values[DefaultCursorKey])
	return n
}

type fakeThreads struct {
	byAddress map[string][]Thread
	calls     []string
	err       error
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{byAddress: map[string][]Thread{}}
}

func (f *fakeThreads) SearchThreads(_ context.Context, _, other string) ([]Thread, error) {
	f.calls = append(f.calls, other)
	if f.err != nil {
		return nil, f.err
	}
	return f.byAddress[strings.ToLower(other)], nil
}

const selfAddr = "me@example.com"

func thread(id string, at time.Time, senders ...string) Thread {
	t := Thread{ID: id, LastMessageAt: at}
	for i, from := range senders {
		t.Messages = append(t.Messages, Message{
			ID:   id + "-" + strconv.Itoa(i),
			From: from,
			Date: at.Add(time.Duration(i-len(senders)+1) * time.Minute),
		})
	}
	return t
}
