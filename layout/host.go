package layout

import "go.uber.org/zap"

// UpdateLayout runs single layout pass over chain of m: every link is
// measured, arranged and rendered if needed, in chain order, with the size
// set by SetSize. It returns number of pages actually formatted.
func UpdateLayout(m *Master) int {
	before := m.engine.Formatted()
	for l := Link(m); l != nil; l = l.Next() {
		c := l.base()
		if c.measureDirty {
			c.Measure(c.size)
		}
		if c.arrangeDirty {
			c.Arrange(c.size)
		}
		if c.renderDirty {
			c.Render()
		}
	}
	n := m.engine.Formatted() - before
	m.log.Debug("Layout updated", zap.Int("formatted", n))
	return n
}
