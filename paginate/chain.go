// Package paginate implements the paginate command: source documents are
// flowed through a chain of linked containers built from configuration and
// resulting pages are saved by the selected surface.
package paginate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rtflow/config"
	"rtflow/content"
	"rtflow/formatter"
	"rtflow/geom"
	"rtflow/layout"
	"rtflow/render"
	"rtflow/state"
)

// Chain is laid out source.
type Chain struct {
	Master  *layout.Master
	Links   []layout.Link
	Surface render.Surface
	// Passes is number of layout passes, Formatted number of pages actually
	// formatted over all passes.
	Passes    int
	Formatted int

	cfg *config.LayoutConfig
	log *zap.Logger
}

// Selection is a range of content positions to highlight, empty range
// selects nothing.
type Selection struct {
	Start, End int
}

// Paginate lays source out. Containers are created from configuration, when
// growing is enabled overflow containers are appended while content remains
// and chain is shorter than allowed.
func Paginate(ctx context.Context, src *content.Source, sel Selection, log *zap.Logger) (*Chain, error) {
	env := state.EnvFromContext(ctx)
	lc := &env.Cfg.Layout

	surface, err := render.New(&env.Cfg.Render, src.Images, log.Named("render"))
	if err != nil {
		return nil, fmt.Errorf("unable to create surface: %w", err)
	}

	f := formatter.NewCell(lc.LineHeight, log.Named("formatter"))
	m := layout.NewMaster(lc.Container(0).Name, src.Doc, f, log.Named("layout"))
	ch := &Chain{Master: m, Surface: surface, cfg: lc, log: log}
	ch.configure(m, lc.Container(0))
	for i := 1; i < len(lc.Containers); i++ {
		if err := ch.grow(); err != nil {
			return nil, err
		}
	}
	if sel.Start != sel.End {
		m.Select(sel.Start, sel.End)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch.Formatted += layout.UpdateLayout(m)
		ch.Passes++

		last := ch.Links[len(ch.Links)-1]
		if !lc.Grow || !last.HasOverflowContent() {
			break
		}
		if len(ch.Links) >= lc.MaxContainers {
			log.Warn("Chain reached maximum length, content does not fit",
				zap.Int("containers", len(ch.Links)),
				zap.Int("remaining", src.Doc.Len()-last.ContentStart()-last.ContentLength()))
			break
		}
		if err := ch.grow(); err != nil {
			return nil, err
		}
	}

	log.Debug("Chain laid out",
		zap.Int("containers", len(ch.Links)),
		zap.Int("passes", ch.Passes),
		zap.Int("formatted", ch.Formatted))
	return ch, nil
}

func (ch *Chain) configure(l layout.Link, cc config.ContainerConfig) {
	l.SetSize(geom.Size{Width: cc.Width, Height: cc.Height})
	l.SetPadding(cc.Padding)
	l.SetMeasureOptions(layout.MeasureOptions{
		MaxLines:          cc.MaxLines,
		AllowEmptyContent: ch.cfg.AllowEmptyContent,
		MeasureBottomless: ch.cfg.MeasureBottomless,
		SuppressTopMargin: ch.cfg.SuppressTopMargin,
	})
	l.SetTextTrimming(ch.cfg.TextTrimming)
	l.SetSurface(ch.Surface)
	ch.Links = append(ch.Links, l)
}

// grow appends next overflow container to the chain.
func (ch *Chain) grow() error {
	cc := ch.cfg.Container(len(ch.Links))
	o := layout.NewOverflow(cc.Name, ch.log.Named("layout"))
	if err := ch.Links[len(ch.Links)-1].SetOverflowTarget(o); err != nil {
		return fmt.Errorf("unable to link container %q: %w", cc.Name, err)
	}
	ch.configure(o, cc)
	return nil
}

// Dump describes chain state for debugging.
func (ch *Chain) Dump() string {
	return layout.Dump(ch.Master)
}
