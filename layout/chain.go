package layout

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrLinkCycle is returned when overflow target assignment would break
// simple path shape of the chain.
var ErrLinkCycle = errors.New("overflow target would create cycle")

// SetOverflowTarget makes target the next link of the chain. Nil target
// unlinks current one. Nothing is changed when assignment is rejected.
func (c *container) SetOverflowTarget(target *Overflow) error {
	if target == c.next {
		return nil
	}
	if target != nil {
		if err := c.validateNextLink(target); err != nil {
			return err
		}
	}

	if old := c.next; old != nil {
		c.next = nil
		old.PreviousLinkDetached(c.self)
	}
	if target != nil {
		target.PreviousLinkAttached(c.self)
		c.next = target
		c.log.Debug("Overflow target attached", zap.String("target", target.name))
	}
	InvalidateAllOverflowContentArrange(c.self)
	return nil
}

func (c *container) validateNextLink(target *Overflow) error {
	t := target.base()
	if t == c {
		return fmt.Errorf("%w: '%s' cannot overflow into itself", ErrLinkCycle, c.name)
	}
	for l := c.prev; l != nil; l = l.Previous() {
		if l.base() == t {
			return fmt.Errorf("%w: '%s' precedes '%s'", ErrLinkCycle, t.name, c.name)
		}
	}
	for l := t.prev; l != nil; l = l.Previous() {
		if l.base() == c {
			return fmt.Errorf("%w: '%s' already precedes '%s'", ErrLinkCycle, c.name, t.name)
		}
	}
	return nil
}

func sameLink(a, b Link) bool {
	return a != nil && b != nil && a.base() == b.base()
}

// PreviousBreakUpdated is called by predecessor when its break changed.
func (c *container) PreviousBreakUpdated(prev Link) {
	if !sameLink(prev, c.prev) {
		return
	}
	c.invalidateMeasure()
}

// PreviousLinkAttached is called when link becomes overflow target of prev.
func (c *container) PreviousLinkAttached(prev Link) {
	if c.prev != nil && !sameLink(prev, c.prev) {
		old := c.prev
		c.prev = nil
		old.NextLinkDetached(c.self)
	}
	c.prev = prev
	c.log.Debug("Previous link attached", zap.String("previous", prev.Name()))
	ResetAllOverflowMasters(c.self)
}

// PreviousLinkDetached is called by predecessor releasing this link.
func (c *container) PreviousLinkDetached(prev Link) {
	if !sameLink(prev, c.prev) {
		c.log.Debug("Detach from link which is not previous ignored")
		return
	}
	c.prev = nil
	c.log.Debug("Previous link detached", zap.String("previous", prev.Name()))
	ResetAllOverflowMasters(c.self)
}

// NextLinkDetached is called by successor which was attached elsewhere.
func (c *container) NextLinkDetached(next Link) {
	if c.next == nil || !sameLink(next, c.next) {
		return
	}
	c.next = nil
	c.invalidateArrange()
}
