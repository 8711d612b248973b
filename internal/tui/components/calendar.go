package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/tui/styles"
	"github.com/hy4ri/taskgrid/internal/tui/utils"
)

// Calendar layout in terminal cells.
const (
	calendarHeaderRows = 2 // title and weekday names
	hourGutter         = 6 // "08:00 "
	minColumnWidth     = 4
	minMonthCellHeight = 2
)

// CalendarLabels are the translated strings the calendar renders.
type CalendarLabels struct {
	Week  string
	Month string
	More  func(n int) string
}

// HitKind classifies what lies under a pointer in the calendar.
type HitKind int

const (
	HitNone HitKind = iota
	HitDay
	HitTask
	HitTaskTop
	HitTaskBottom
)

// Hit is the result of CalendarModel.HitTest.
type Hit struct {
	Kind HitKind
	Day  time.Time
	Task model.Task
	// RelY is the pointer position down the day column in grid units. Only
	// set in the week view.
	RelY float64
}

// CalendarModel renders the month and week views and maps pointer
// positions back to days and task blocks.
type CalendarModel struct {
	nav      calendar.View
	grid     calendar.Grid
	buckets  map[string][]model.Task
	projects map[string]model.Project
	now      time.Time
	format   model.TimeFormat
	labels   CalendarLabels

	width, height int
	scroll        int
	focused       bool

	hoverDay  time.Time
	hoverSlot int
	hovering  bool
	drag      *calendar.Drag
}

// NewCalendar creates a calendar on today's week with rowsPerHour grid rows
// per hour.
func NewCalendar(now time.Time, rowsPerHour int, labels CalendarLabels) *CalendarModel {
	if rowsPerHour < 1 {
		rowsPerHour = 1
	}
	if labels.More == nil {
		labels.More = func(n int) string { return fmt.Sprintf("+%d…", n) }
	}
	grid := calendar.Grid{HourHeight: float64(rowsPerHour), MinBlockHeight: 1}
	return &CalendarModel{
		nav:     calendar.NewView(now),
		grid:    grid,
		buckets: map[string][]model.Task{},
		now:     now,
		format:  model.TimeFormat24h,
		labels:  labels,
		scroll:  int(grid.ScrollOffset()),
	}
}

// Init implements Component.
func (c *CalendarModel) Init() tea.Cmd {
	return nil
}

// Update implements Component.
func (c *CalendarModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return c.handleKeyMsg(msg)
	}
	return c, nil
}

func (c *CalendarModel) handleKeyMsg(msg tea.KeyMsg) (Component, tea.Cmd) {
	week := c.nav.Mode == calendar.ModeWeek
	switch msg.String() {
	case "h", "left":
		c.nav = c.nav.Select(c.nav.Selected.AddDate(0, 0, -1))
	case "l", "right":
		c.nav = c.nav.Select(c.nav.Selected.AddDate(0, 0, 1))
	case "j", "down":
		if week {
			c.Scroll(int(c.grid.HourHeight))
		} else {
			c.nav = c.nav.Select(c.nav.Selected.AddDate(0, 0, calendar.DaysPerWeek))
		}
	case "k", "up":
		if week {
			c.Scroll(-int(c.grid.HourHeight))
		} else {
			c.nav = c.nav.Select(c.nav.Selected.AddDate(0, 0, -calendar.DaysPerWeek))
		}
	case "[":
		c.nav = c.nav.Prev()
	case "]":
		c.nav = c.nav.Next()
	case "t":
		c.nav = c.nav.Today(c.now)
	case "v":
		c.ToggleMode()
	case "enter":
		day := c.nav.Selected
		return c, func() tea.Msg { return DaySelectedMsg{Date: day} }
	}
	return c, nil
}

// ToggleMode switches between the week and month views.
func (c *CalendarModel) ToggleMode() {
	if c.nav.Mode == calendar.ModeWeek {
		c.nav = c.nav.SetMode(calendar.ModeMonth)
	} else {
		c.nav = c.nav.SetMode(calendar.ModeWeek)
	}
	c.hovering = false
}

// Scroll moves the week grid by delta rows.
func (c *CalendarModel) Scroll(delta int) {
	maxScroll := max(0, int(c.grid.ColumnHeight())-c.gridRows())
	c.scroll = min(max(0, c.scroll+delta), maxScroll)
}

// View implements Component.
func (c *CalendarModel) View() string {
	if c.nav.Mode == calendar.ModeMonth {
		return c.renderMonth()
	}
	return c.renderWeek()
}

func (c *CalendarModel) title() string {
	var span, mode string
	if c.nav.Mode == calendar.ModeMonth {
		span = c.nav.Visible.Format("January 2006")
		mode = c.labels.Month
	} else {
		first, last := c.nav.Range()
		span = first.Format("Jan 2") + " – " + last.Format("Jan 2, 2006")
		mode = c.labels.Week
	}
	return styles.CalendarHeader.Render(span) + "  " + styles.HelpDesc.Render("["+mode+"]")
}

func (c *CalendarModel) columnWidth(gutter int) int {
	return max(minColumnWidth, (c.width-gutter)/calendar.DaysPerWeek)
}

func (c *CalendarModel) gridRows() int {
	return max(1, c.height-calendarHeaderRows)
}

func (c *CalendarModel) monthCellHeight() int {
	return max(minMonthCellHeight, (c.height-calendarHeaderRows)/calendar.WeeksPerMonth)
}

func (c *CalendarModel) renderMonth() string {
	colW := c.columnWidth(0)
	cellH := c.monthCellHeight()
	cells := calendar.BuildMonth(c.nav.Visible, c.nav.Selected, c.now, c.buckets)

	var b strings.Builder
	b.WriteString(c.title())
	b.WriteString("\n")
	for i := 0; i < calendar.DaysPerWeek; i++ {
		b.WriteString(styles.CalendarWeekday.Render(utils.Fit(cells[i].Date.Format("Mon"), colW)))
	}

	sep := styles.CalendarCellBorder.Render("│")
	for w := 0; w < calendar.WeeksPerMonth; w++ {
		for line := 0; line < cellH; line++ {
			b.WriteString("\n")
			for d := 0; d < calendar.DaysPerWeek; d++ {
				b.WriteString(c.renderMonthLine(cells[w*calendar.DaysPerWeek+d], line, cellH, colW-1))
				b.WriteString(sep)
			}
		}
	}
	return b.String()
}

// monthChips returns the tasks shown in a cell of height cellH and the
// number hidden behind the "+N" line.
func monthChips(cell calendar.MonthCell, cellH int) ([]model.Task, int) {
	tasks, hidden := cell.Tasks, cell.Overflow
	room := cellH - 1
	if hidden > 0 {
		room--
	}
	if room < len(tasks) {
		if hidden == 0 {
			room--
		}
		room = max(0, room)
		hidden += len(tasks) - room
		tasks = tasks[:room]
	}
	return tasks, hidden
}

func (c *CalendarModel) renderMonthLine(cell calendar.MonthCell, line, cellH, width int) string {
	if line == 0 {
		label := utils.Fit(fmt.Sprintf("%2d", cell.Date.Day()), width)
		style := styles.CalendarDay
		switch {
		case cell.Selected:
			style = styles.CalendarDaySelected
		case cell.Today:
			style = styles.CalendarDayToday
		case cell.Outside:
			style = styles.CalendarDayOtherMonth
		case cell.Busy:
			style = styles.CalendarDayWithTasks
		}
		return style.Render(label)
	}

	tasks, hidden := monthChips(cell, cellH)
	i := line - 1
	switch {
	case i < len(tasks):
		t := tasks[i]
		style := styles.CalendarTaskPreview.Foreground(c.taskColor(t))
		if t.Done() {
			style = style.Strikethrough(true).Faint(true)
		}
		return style.Render(utils.Fit(calendar.TaskLabel(t, c.format), width))
	case i == len(tasks) && hidden > 0:
		return styles.CalendarMoreTasks.Render(utils.Fit(c.labels.More(hidden), width))
	}
	return strings.Repeat(" ", width)
}

func (c *CalendarModel) taskColor(t model.Task) lipgloss.TerminalColor {
	if t.ProjectID != nil {
		if p, ok := c.projects[*t.ProjectID]; ok {
			return styles.ProjectColor(p.Color)
		}
	}
	return styles.Highlight
}

// weekCell is one rendered cell of a day column.
type weekCell struct {
	text  string
	style lipgloss.Style
	set   bool
}

func (c *CalendarModel) renderWeek() string {
	colW := c.columnWidth(hourGutter)
	rows := c.gridRows()
	days := calendar.WeekDays(c.nav.Selected)
	rowsPerHour := int(c.grid.HourHeight)

	columns := make([][]weekCell, len(days))
	for d, day := range days {
		columns[d] = c.layoutColumn(day, rows, colW-1)
	}

	var b strings.Builder
	b.WriteString(c.title())
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", hourGutter))
	for _, day := range days {
		style := styles.CalendarWeekday
		switch {
		case calendar.SameDay(day, c.nav.Selected):
			style = styles.CalendarDaySelected
		case calendar.SameDay(day, c.now):
			style = styles.CalendarDayToday
		}
		b.WriteString(style.Render(utils.Fit(day.Format("Mon 2"), colW-1)))
		b.WriteString(" ")
	}

	sep := styles.CalendarCellBorder.Render("│")
	for r := 0; r < rows; r++ {
		b.WriteString("\n")
		row := c.scroll + r
		label := ""
		if row%rowsPerHour == 0 && row < int(c.grid.ColumnHeight()) {
			label = fmt.Sprintf("%02d:00", row/rowsPerHour)
		}
		b.WriteString(styles.CalendarHourLabel.Render(utils.Fit(label, hourGutter)))
		for d := range days {
			cell := columns[d][r]
			if cell.set {
				b.WriteString(cell.style.Render(utils.Fit(cell.text, colW-1)))
			} else {
				b.WriteString(strings.Repeat(" ", colW-1))
			}
			b.WriteString(sep)
		}
	}
	return b.String()
}

// blockRows returns the first and last grid row a block covers.
func blockRows(b calendar.Block) (int, int) {
	top := int(math.Floor(b.Top))
	height := max(1, int(math.Round(b.Height)))
	return top, top + height - 1
}

func (c *CalendarModel) dayBlocks(day time.Time) []calendar.Block {
	blocks := c.grid.DayBlocks(c.buckets, day)
	if c.drag == nil {
		return blocks
	}
	for i := range blocks {
		if blocks[i].Task.ID == c.drag.Task.ID {
			blocks = append(blocks[:i], blocks[i+1:]...)
			break
		}
	}
	if calendar.SameDay(c.drag.Day, day) {
		blocks = append(blocks, c.drag.Preview())
	}
	return blocks
}

func (c *CalendarModel) layoutColumn(day time.Time, rows, width int) []weekCell {
	cells := make([]weekCell, rows)
	put := func(row int, cell weekCell) {
		if r := row - c.scroll; r >= 0 && r < rows {
			cells[r] = cell
		}
	}

	if calendar.SameDay(day, c.now) {
		minutes := float64(c.now.Hour()*60 + c.now.Minute())
		put(int(c.grid.Offset(minutes)), weekCell{text: strings.Repeat("─", width), style: styles.CalendarNowLine, set: true})
	}
	if c.hovering && calendar.SameDay(day, c.hoverDay) {
		put(int(c.grid.Offset(float64(c.hoverSlot))), weekCell{text: "+", style: styles.CalendarSlotHover, set: true})
	}

	for _, block := range c.dayBlocks(day) {
		top, bottom := blockRows(block)
		style := styles.CalendarBlock.Background(c.taskColor(block.Task))
		if block.Task.Done() {
			style = styles.CalendarBlockDone
		}
		if c.drag != nil && block.Task.ID == c.drag.Task.ID {
			style = styles.CalendarBlockDragging
		}
		for row := top; row <= bottom; row++ {
			text := ""
			switch row {
			case top:
				text = calendar.TaskLabel(block.Task, c.format)
			case bottom:
				text = strings.Repeat("╌", width)
			}
			put(row, weekCell{text: text, style: style, set: true})
		}
	}
	return cells
}

// HitTest reports what is drawn at (x, y), relative to the component's top
// left corner.
func (c *CalendarModel) HitTest(x, y int) Hit {
	if x < 0 || y < 1 || y >= c.height {
		return Hit{}
	}
	if c.nav.Mode == calendar.ModeMonth {
		return c.hitMonth(x, y)
	}
	return c.hitWeek(x, y)
}

func (c *CalendarModel) hitMonth(x, y int) Hit {
	if y < calendarHeaderRows {
		return Hit{}
	}
	colW := c.columnWidth(0)
	cellH := c.monthCellHeight()
	week, line := (y-calendarHeaderRows)/cellH, (y-calendarHeaderRows)%cellH
	col := x / colW
	if week >= calendar.WeeksPerMonth || col >= calendar.DaysPerWeek {
		return Hit{}
	}
	cells := calendar.BuildMonth(c.nav.Visible, c.nav.Selected, c.now, c.buckets)
	cell := cells[week*calendar.DaysPerWeek+col]
	tasks, _ := monthChips(cell, cellH)
	if i := line - 1; i >= 0 && i < len(tasks) {
		return Hit{Kind: HitTask, Day: cell.Date, Task: tasks[i]}
	}
	return Hit{Kind: HitDay, Day: cell.Date}
}

func (c *CalendarModel) hitWeek(x, y int) Hit {
	if x < hourGutter {
		return Hit{}
	}
	col := (x - hourGutter) / c.columnWidth(hourGutter)
	if col >= calendar.DaysPerWeek {
		return Hit{}
	}
	day := calendar.WeekDays(c.nav.Selected)[col]
	if y < calendarHeaderRows {
		return Hit{Kind: HitDay, Day: day}
	}

	row := c.scroll + y - calendarHeaderRows
	if row >= int(c.grid.ColumnHeight()) {
		return Hit{}
	}
	hit := Hit{Kind: HitDay, Day: day, RelY: float64(row)}
	blocks := c.grid.DayBlocks(c.buckets, day)
	// Later blocks are drawn over earlier ones.
	for i := len(blocks) - 1; i >= 0; i-- {
		top, bottom := blockRows(blocks[i])
		if row < top || row > bottom {
			continue
		}
		hit.Task = blocks[i].Task
		switch {
		case row == bottom:
			hit.Kind = HitTaskBottom
		case row == top:
			hit.Kind = HitTaskTop
		default:
			hit.Kind = HitTask
		}
		return hit
	}
	return hit
}

// GridRow returns the week grid row under component line y, clamped to the
// day column. Used while dragging, when the pointer may leave the blocks.
func (c *CalendarModel) GridRow(y int) float64 {
	row := float64(c.scroll + y - calendarHeaderRows)
	return math.Max(0, math.Min(row, c.grid.ColumnHeight()))
}

// SetSize implements Component.
func (c *CalendarModel) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.Scroll(0)
}

// Focus sets focus on the calendar.
func (c *CalendarModel) Focus() {
	c.focused = true
}

// Blur removes focus.
func (c *CalendarModel) Blur() {
	c.focused = false
}

// Focused returns focus state.
func (c *CalendarModel) Focused() bool {
	return c.focused
}

// SetTasks updates the tasks shown.
func (c *CalendarModel) SetTasks(tasks []model.Task) {
	c.buckets = calendar.BucketByDate(tasks)
}

// SetContext sets the current time, time format and project colors.
func (c *CalendarModel) SetContext(now time.Time, format model.TimeFormat, projects []model.Project) {
	c.now = now
	c.format = format
	c.projects = make(map[string]model.Project, len(projects))
	for _, p := range projects {
		c.projects[p.ID] = p
	}
}

// Nav returns the navigation state.
func (c *CalendarModel) Nav() calendar.View {
	return c.nav
}

// SetNav replaces the navigation state.
func (c *CalendarModel) SetNav(v calendar.View) {
	c.nav = v
}

// Grid returns the row geometry of the week view.
func (c *CalendarModel) Grid() calendar.Grid {
	return c.grid
}

// SelectedDate returns the selected day.
func (c *CalendarModel) SelectedDate() time.Time {
	return c.nav.Selected
}

// SetHover highlights the quarter hour starting at slot minutes on day.
func (c *CalendarModel) SetHover(day time.Time, slot int) {
	c.hoverDay, c.hoverSlot, c.hovering = day, slot, true
}

// ClearHover removes the slot highlight.
func (c *CalendarModel) ClearHover() {
	c.hovering = false
}

// Hover returns the highlighted slot.
func (c *CalendarModel) Hover() (time.Time, int, bool) {
	return c.hoverDay, c.hoverSlot, c.hovering
}

// SetDrag draws d's preview in place of its task. Nil clears it.
func (c *CalendarModel) SetDrag(d *calendar.Drag) {
	c.drag = d
}
