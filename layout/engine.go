package layout

import (
	"go.uber.org/zap"

	"rtflow/document"
)

// BlockLayoutEngine holds formatting policy for a single master and creates
// page nodes for every link of its chain. It keeps no formatting state
// except generation counter for break records.
type BlockLayoutEngine struct {
	owner     *Master
	formatter Formatter
	log       *zap.Logger

	generation uint64
	formatted  int
}

func newBlockLayoutEngine(owner *Master, f Formatter, log *zap.Logger) *BlockLayoutEngine {
	if f == nil {
		// this should never happen
		panic("block layout engine requires formatter")
	}
	return &BlockLayoutEngine{owner: owner, formatter: f, log: log}
}

// Collection returns block collection of the owning master.
func (e *BlockLayoutEngine) Collection() *document.Collection {
	return e.owner.doc
}

// Formatted returns number of formatter invocations made for pages of this engine.
func (e *BlockLayoutEngine) Formatted() int {
	return e.formatted
}

// CreatePageNode creates page node bound to owner link.
func (e *BlockLayoutEngine) CreatePageNode(owner Link) *PageNode {
	if owner == nil || owner.base() == nil {
		panic("page node requested for nil page owner")
	}
	if e.owner.doc == nil {
		panic("page node requested for master '" + e.owner.name + "' without block collection")
	}
	c := owner.base()
	e.log.Debug("Page node created", zap.String("link", c.name), zap.String("master", e.owner.name))
	return &PageNode{
		engine: e,
		owner:  c,
		log:    c.log,
		state:  PageStateUnformatted,
	}
}

func (e *BlockLayoutEngine) format(req FormatRequest) FormatResult {
	e.formatted++
	return e.formatter.FormatPage(e.owner.doc, req)
}

func (e *BlockLayoutEngine) newBreak(pos int) *BreakRecord {
	e.generation++
	return &BreakRecord{position: pos, generation: e.generation}
}
