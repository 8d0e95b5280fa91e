package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/bassamadnan/sheetcrm/sheets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"
)

// RecordLoader fetches the current contents of the sheet.
type RecordLoader func(ctx context.Context) ([]sheets.Record, error)

// App is the read-only review screen over the sheet's output block.
type App struct {
	*tview.Application
	rootPages      *tview.Pages
	dashboardFlex  *tview.Flex
	recordTable    *RecordTable
	detailPane     *DetailPane
	focusedRowView *FocusedRowView
	statusBar      *tview.TextView

	ctx     context.Context
	load    RecordLoader
	logger  zerolog.Logger
	records []sheets.Record
	filter  Filter
	loaded  time.Time
}

func NewApp(ctx context.Context, load RecordLoader, logger zerolog.Logger) *App {
	a := &App{
		Application: tview.NewApplication(),
		ctx:         ctx,
		load:        load,
		logger:      logger.With().Str("component", "review").Logger(),
	}

	a.detailPane = NewDetailPane()
	a.recordTable = NewRecordTable(a)
	a.focusedRowView = NewFocusedRowView()

	a.dashboardFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.recordTable.Table, 0, 3, true).
		AddItem(a.detailPane, 0, 1, false)
	a.dashboardFlex.SetBackgroundColor(tcell.ColorDefault)

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetText(" [::d]Status: Loading...").
		SetTextAlign(tview.AlignLeft)
	a.statusBar.SetBackgroundColor(tcell.ColorDefault)

	mainLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.dashboardFlex, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	mainLayout.SetBackgroundColor(tcell.ColorDefault)

	a.rootPages = tview.NewPages().
		AddPage(PageDashboard, mainLayout, true, true).
		AddPage(PageFocusedRow, a.focusedRowView, true, false)

	a.Application.SetRoot(a.rootPages, true).EnableMouse(true)
	a.setGlobalKeybindings()
	a.detailPane.SetWelcomeMessage()
	return a
}

func (a *App) Run() error {
	go a.refresh()
	a.Application.SetFocus(a.recordTable.Table)
	return a.Application.Run()
}

func (a *App) setGlobalKeybindings() {
	a.Application.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.rootPages.GetFrontPage()
		if event.Key() == tcell.KeyCtrlC {
			a.Stop()
			return nil
		}
		switch event.Rune() {
		case 'q', 'Q':
			a.Stop()
			return nil
		case 'r', 'R':
			go a.refresh()
			return nil
		case 'f', 'F':
			if currentPage == PageDashboard {
				a.filter = a.filter.next()
				a.applyFilter()
				return nil
			}
		}
		if currentPage == PageFocusedRow && event.Key() == tcell.KeyEscape {
			a.ShowDashboardView()
			return nil
		}
		return event
	})
}

// refresh reloads the sheet off the UI goroutine.
func (a *App) refresh() {
	a.QueueUpdateDraw(func() {
		a.statusBar.SetText(" [::d]Status: Loading...")
	})

	records, err := a.load(a.ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("loading sheet")
		a.QueueUpdateDraw(func() {
			a.statusBar.SetText(fmt.Sprintf(" [red]Load failed: %s[-] | [::b]R[::-]:Retry [::b]Q[::-]:Quit",
				tview.Escape(truncate(err.Error(), 80))))
		})
		return
	}
	a.logger.Debug().Int("records", len(records)).Msg("sheet loaded")

	a.QueueUpdateDraw(func() {
		a.records = records
		a.loaded = time.Now()
		a.applyFilter()
	})
}

func (a *App) applyFilter() {
	a.recordTable.SetRecords(filterRecords(a.records, a.filter))
	a.setStandardStatusMessage()
}

func (a *App) setStandardStatusMessage() {
	awaiting, never := 0, 0
	for _, rec := range a.records {
		switch recordState(rec) {
		case stateAwaiting:
			awaiting++
		case stateNever:
			never++
		}
	}
	a.statusBar.SetText(fmt.Sprintf(
		" [::d]Loaded %s | %d awaiting reply | %d never | filter: %s | [::b]F[::-]:Filter [::b]R[::-]:Refresh [::b]Ent[::-]:Full [::b]Q[::-]:Quit",
		a.loaded.Format("15:04:05"), awaiting, never, a.filter))
}

func (a *App) ShowFocusedRow(rec sheets.Record) {
	a.focusedRowView.SetRecord(rec)
	a.rootPages.SwitchToPage(PageFocusedRow)
	a.Application.SetFocus(a.focusedRowView.textView)
}

func (a *App) ShowDashboardView() {
	a.rootPages.SwitchToPage(PageDashboard)
	a.Application.SetFocus(a.recordTable.Table)
}
