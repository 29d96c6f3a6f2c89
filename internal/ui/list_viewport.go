package ui

// ensureCursorVisible clamps the cursor to the list and scrolls the window
// so the cursor row is inside it.
func (m *Model) ensureCursorVisible() {
	n := m.list.ResultCount()
	if n == 0 {
		m.rows.cursor, m.rows.offset = 0, 0
		return
	}
	m.rows.cursor = max(0, min(m.rows.cursor, n-1))

	height := max(1, m.rows.viewport)
	if m.rows.cursor < m.rows.offset {
		m.rows.offset = m.rows.cursor
	}
	if m.rows.cursor >= m.rows.offset+height {
		m.rows.offset = m.rows.cursor - height + 1
	}
	m.rows.offset = max(0, min(m.rows.offset, n-1))
}

// lastVisibleRow is the highest row index currently on screen, or -1.
func (m Model) lastVisibleRow() int {
	n := m.list.ResultCount()
	return min(m.rows.offset+m.rows.viewport, n) - 1
}

// checkReachedEnd tells the coordinator which row is about to be shown so it
// can load the next page when that is the last known row.
func (m Model) checkReachedEnd() {
	if row := m.lastVisibleRow(); row >= 0 {
		m.list.ReachedEnd(row)
	}
}
