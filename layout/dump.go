package layout

import (
	"rtflow/utils/debug"
)

const dumpTextWidth = 60

// Dump describes state of the chain starting at first.
func Dump(first Link) string {
	tw := debug.NewTreeWriter()
	for l := first; l != nil; l = l.Next() {
		c := l.base()
		kind := "overflow"
		if _, ok := l.(*Master); ok {
			kind = "master"
		}
		tw.Line(0, "%s '%s' size=%s", kind, c.name, c.size)
		master := "none"
		if c.master != nil {
			master = c.master.name
		}
		tw.Line(1, "master: %s", master)
		brk := "invalid"
		if c.breakValid {
			brk = c.brk.String()
		}
		tw.Line(1, "break: %s", brk)
		tw.Flags(1, "dirty", map[string]bool{
			"measure": c.measureDirty,
			"arrange": c.arrangeDirty,
			"render":  c.renderDirty,
		}, "measure", "arrange", "render")

		p := c.page
		if p == nil {
			tw.Line(1, "page: none")
			continue
		}
		tw.Line(1, "page: %s [%d, %d) lines=%d desired=%s", p.state, p.Start(), p.End(), len(p.lines), p.desired)
		if c.master != nil && p.state != PageStateUnformatted {
			tw.Excerpt(2, "text", c.master.doc.Text(p.Start(), p.End()), dumpTextWidth)
		}
		for _, e := range p.elements.items {
			tw.Line(2, "element '%s' at %d pos=%s visible=%t", e.Element.Name, e.Index, e.Position, e.Visible)
		}
	}
	return tw.String()
}
