package layout

func walk(first Link, fn func(c *container)) {
	for l := first; l != nil; l = l.Next() {
		fn(l.base())
	}
}

// InvalidateAllOverflowContent drops all formatting derived from content on
// first and every following link.
func InvalidateAllOverflowContent(first Link) {
	walk(first, (*container).invalidateContent)
}

// InvalidateAllOverflowContentMeasure marks first and every following link
// as needing measure.
func InvalidateAllOverflowContentMeasure(first Link) {
	walk(first, (*container).invalidateMeasure)
}

// InvalidateAllOverflowContentArrange marks first and every following link
// as needing arrange.
func InvalidateAllOverflowContentArrange(first Link) {
	walk(first, (*container).invalidateArrange)
}

func InvalidateAllOverflowRender(first Link) {
	walk(first, (*container).invalidateRender)
}

// ResetAllOverflowMasters makes first and every following overflow link
// resolve its master again, their pages are destroyed.
func ResetAllOverflowMasters(first Link) {
	walk(first, (*container).resetMaster)
}
