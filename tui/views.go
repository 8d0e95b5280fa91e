package tui

import (
	"fmt"
	"strings"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/sheets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	PageDashboard  = "dashboard"
	PageFocusedRow = "focusedRow"
)

// rowState classifies a record by what its output block currently says.
type rowState int

const (
	stateBlank    rowState = iota // no address
	statePending                  // address but never visited
	stateNever                    // visited, no correspondence
	stateAwaiting                 // they spoke last
	stateContacted
)

func recordState(rec sheets.Record) rowState {
	switch {
	case rec.Address == "":
		return stateBlank
	case rec.Output == crm.Fields{}:
		return statePending
	case rec.Output[0] == crm.NeverContacted[0]:
		return stateNever
	}
	switch rec.Output[3] {
	case "N", crm.TheyWroteNoReply.String(), crm.ExchangeTheyRepliedLast.String():
		return stateAwaiting
	}
	return stateContacted
}

// Filter narrows the review table.
type Filter int

const (
	FilterAll Filter = iota
	FilterAwaiting
	FilterNever
	FilterStarred
	filterCount
)

func (f Filter) String() string {
	switch f {
	case FilterAwaiting:
		return "awaiting reply"
	case FilterNever:
		return "never contacted"
	case FilterStarred:
		return "starred"
	default:
		return "all"
	}
}

func (f Filter) next() Filter {
	return (f + 1) % filterCount
}

func filterRecords(records []sheets.Record, f Filter) []sheets.Record {
	out := make([]sheets.Record, 0, len(records))
	for _, rec := range records {
		state := recordState(rec)
		if state == stateBlank {
			continue
		}
		switch f {
		case FilterAwaiting:
			if state != stateAwaiting {
				continue
			}
		case FilterNever:
			if state != stateNever {
				continue
			}
		case FilterStarred:
			if rec.Output[2] != "Y" {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

var tableHeaders = []string{"Row", "Address", "Last contact", "Days", "★", "Status"}

// RecordTable lists the contact rows of the sheet.
type RecordTable struct {
	*tview.Table
	app     *App
	visible []sheets.Record
}

func NewRecordTable(app *App) *RecordTable {
	table := tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	table.SetBackgroundColor(tcell.ColorDefault)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorSteelBlue).
		Attributes(tcell.AttrBold))
	table.SetBorder(true).SetTitle("Contacts")

	rt := &RecordTable{Table: table, app: app}

	table.SetSelectionChangedFunc(func(row, _ int) {
		if rec, ok := rt.recordAt(row); ok {
			rt.app.detailPane.SetRecord(rec)
		}
	})
	table.SetSelectedFunc(func(row, _ int) {
		if rec, ok := rt.recordAt(row); ok {
			rt.app.ShowFocusedRow(rec)
		}
	})
	return rt
}

func (rt *RecordTable) recordAt(tableRow int) (sheets.Record, bool) {
	i := tableRow - 1 // header
	if i < 0 || i >= len(rt.visible) {
		return sheets.Record{}, false
	}
	return rt.visible[i], true
}

// SetRecords replaces the table contents, keeping the selection when possible.
func (rt *RecordTable) SetRecords(records []sheets.Record) {
	selected, _ := rt.GetSelection()
	rt.visible = records
	rt.Clear()

	for col, h := range tableHeaders {
		rt.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	for i, rec := range records {
		color := stateColor(recordState(rec))
		star := ""
		if rec.Output[2] == "Y" {
			star = "★"
		}
		cells := []string{
			fmt.Sprintf("%d", rec.Row),
			truncate(rec.Address, 36),
			rec.Output[0],
			rec.Output[1],
			star,
			truncate(rec.Output[3], 60),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(tview.Escape(text)).SetTextColor(color)
			if col == 1 || col == 5 {
				cell.SetExpansion(1)
			}
			rt.SetCell(i+1, col, cell)
		}
	}

	rt.SetTitle(fmt.Sprintf("Contacts (%d)", len(records)))
	if len(records) == 0 {
		rt.app.detailPane.SetWelcomeMessage()
		return
	}
	if selected < 1 || selected > len(records) {
		selected = 1
	}
	rt.Select(selected, 0)
	if rec, ok := rt.recordAt(selected); ok {
		rt.app.detailPane.SetRecord(rec)
	}
}

func stateColor(s rowState) tcell.Color {
	switch s {
	case statePending:
		return tcell.ColorDimGray
	case stateNever:
		return tcell.ColorOrange
	case stateAwaiting:
		return tcell.ColorTomato
	default:
		return tcell.ColorWhite
	}
}

// DetailPane shows the selected row's output cells.
type DetailPane struct {
	*tview.TextView
}

func NewDetailPane() *DetailPane {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	tv.SetBackgroundColor(tcell.ColorDefault)
	tv.SetBorder(true).SetTitle("Detail")
	return &DetailPane{TextView: tv}
}

func (dp *DetailPane) SetRecord(rec sheets.Record) {
	dp.SetText(describeRecord(rec)).ScrollToBeginning()
	dp.SetTitle(fmt.Sprintf("Row %d", rec.Row))
}

func (dp *DetailPane) SetWelcomeMessage() {
	dp.SetText("\n[lightblue::b]sheetcrm[-::-]\n\nNo rows match the current filter.\n\n[::d]R refreshes from the sheet.\nF cycles filters.\nQ or Ctrl+C quits.[::-]").
		ScrollToBeginning()
	dp.SetTitle("Detail")
}

func describeRecord(rec sheets.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]Address:[::-] %s\n", tview.Escape(rec.Address))
	switch recordState(rec) {
	case statePending:
		b.WriteString("\n[::d]Not scanned yet.[::-]\n")
		return b.String()
	case stateNever:
		b.WriteString("\n[orange]Never contacted.[-]\n")
		return b.String()
	}
	fmt.Fprintf(&b, "[::b]Last contact:[::-] %s\n", rec.Output[0])
	fmt.Fprintf(&b, "[::b]Days since:[::-] %s\n", rec.Output[1])
	starred := "no"
	if rec.Output[2] == "Y" {
		starred = "yes"
	}
	fmt.Fprintf(&b, "[::b]Starred:[::-] %s\n", starred)
	if rec.Output[3] != "" {
		fmt.Fprintf(&b, "[::b]Status:[::-] %s\n", tview.Escape(rec.Output[3]))
	}
	return b.String()
}

// FocusedRowView shows one row full screen.
type FocusedRowView struct {
	*tview.Frame
	textView *tview.TextView
}

func NewFocusedRowView() *FocusedRowView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	textView.SetBackgroundColor(tcell.ColorDefault)

	frame := tview.NewFrame(textView)
	frame.SetBorder(true).SetBackgroundColor(tcell.ColorDefault)
	return &FocusedRowView{Frame: frame, textView: textView}
}

func (fv *FocusedRowView) SetRecord(rec sheets.Record) {
	fv.textView.SetText(describeRecord(rec)).ScrollToBeginning()
	fv.Frame.Clear().
		AddText(fmt.Sprintf("Row %d: %s", rec.Row, truncate(rec.Address, 60)), true, tview.AlignCenter, tcell.ColorYellow).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray)
}
