package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"go.uber.org/zap"

	"rtflow/config"
	"rtflow/layout"
)

const (
	ellipsis    = "…"
	elementFill = '░'
)

type cell struct {
	r    rune // 0 for trailing half of wide rune
	mark bool
}

type grid struct {
	w, h  int
	cells [][]cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]cell, h)}
	for y := range g.cells {
		row := make([]cell, w)
		for x := range row {
			row[x].r = ' '
		}
		g.cells[y] = row
	}
	return g
}

// put writes rune at x, y. Runes crossing right edge are dropped.
func (g *grid) put(x, y int, r rune, width int, mark bool) {
	if y < 0 || y >= g.h || x < 0 || x+max(width, 1) > g.w {
		return
	}
	g.cells[y][x] = cell{r: r, mark: mark}
	for i := 1; i < width; i++ {
		g.cells[y][x+i] = cell{mark: mark}
	}
}

// Text draws pages on a grid of terminal cells. Page is a frame of its size
// in cells, selection is highlighted with color (or reverse video when no
// color is configured), embedded elements are boxes labeled with their
// names.
type Text struct {
	registry

	cfg   *config.TextSurfaceConfig
	log   *zap.Logger
	cond  *runewidth.Condition
	frame lipgloss.Style
	mark  lipgloss.Style
	rows  map[string][]string
}

func NewText(cfg *config.TextSurfaceConfig, log *zap.Logger) *Text {
	t := &Text{
		cfg:   cfg,
		log:   log.Named("text"),
		cond:  &runewidth.Condition{EastAsianWidth: false},
		frame: lipgloss.NewStyle(),
		mark:  lipgloss.NewStyle().Reverse(true),
		rows:  make(map[string][]string),
	}
	if cfg.Border {
		t.frame = t.frame.Border(lipgloss.NormalBorder())
	}
	if len(cfg.Highlight) > 0 {
		t.mark = lipgloss.NewStyle().Background(lipgloss.Color(cfg.Highlight))
	}
	return t
}

// DrawPage implements layout.Surface.
func (t *Text) DrawPage(v layout.PageView, highlight bool) {
	pi := t.record(v, highlight)
	t.rows[v.Link] = t.draw(v, highlight)

	t.log.Debug("Page drawn",
		zap.String("link", v.Link),
		zap.Int("start", v.Start),
		zap.Int("end", v.End),
		zap.Bool("highlight", highlight),
		zap.Int("draws", pi.Draws))
}

func (t *Text) draw(v layout.PageView, highlight bool) []string {
	w, h := int(math.Ceil(v.Size.Width)), int(math.Ceil(v.Size.Height))
	g := newGrid(w, h)

	placed := occupied(v)
	for _, e := range placed {
		t.drawElement(g, e, selected(v, highlight, e.Index))
	}
	for _, l := range v.Lines {
		y := int(v.Padding.Top + l.Top)
		for k, r := range []rune(l.Text) {
			pos := l.Start + k
			if _, ok := placed[pos]; ok || k >= len(l.Offsets) {
				continue
			}
			x := int(v.Padding.Left + l.Offsets[k])
			g.put(x, y, r, t.cond.RuneWidth(r), selected(v, highlight, pos))
		}
	}

	rows := make([]string, h)
	for y := range g.cells {
		rows[y] = t.row(g.cells[y])
	}

	if v.Trimmed && h > 0 {
		last := int(v.Padding.Top)
		if n := len(v.Lines); n > 0 {
			last = int(v.Padding.Top + v.Lines[n-1].Top)
		}
		last = min(max(last, 0), h-1)
		limit := max(w-int(v.Padding.Right), 1)
		rows[last] = truncate.StringWithTail(strings.TrimRight(rows[last], " ")+ellipsis, uint(limit), ellipsis)
	}
	for y := range rows {
		rows[y] = lipgloss.PlaceHorizontal(w, lipgloss.Left, rows[y])
	}
	return rows
}

// row renders cells of a single row, trailing blanks are not emitted.
func (t *Text) row(cells []cell) string {
	end := len(cells)
	for end > 0 && cells[end-1].r == ' ' && !cells[end-1].mark {
		end--
	}
	var (
		sb  strings.Builder
		run strings.Builder
	)
	flush := func() {
		if run.Len() > 0 {
			sb.WriteString(t.mark.Render(run.String()))
			run.Reset()
		}
	}
	for _, c := range cells[:end] {
		if c.r == 0 {
			continue
		}
		if c.mark {
			run.WriteRune(c.r)
			continue
		}
		flush()
		sb.WriteRune(c.r)
	}
	flush()
	return sb.String()
}

// drawElement fills element box and puts fitted name on its first row.
func (t *Text) drawElement(g *grid, e layout.EmbeddedElement, mark bool) {
	sz := e.Element.DesiredSize()
	x0, y0 := int(e.Position.X), int(e.Position.Y)
	w, h := int(math.Ceil(sz.Width)), int(math.Ceil(sz.Height))
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			g.put(x, y, elementFill, 1, mark)
		}
	}
	label := runewidth.Truncate(e.Element.Name, w, ellipsis)
	x := x0
	for _, r := range label {
		rw := t.cond.RuneWidth(r)
		g.put(x, y0, r, rw, mark)
		x += max(rw, 1)
	}
}

// Page returns drawn page as text.
func (t *Text) Page(link string) (string, error) {
	if err := t.check(link); err != nil {
		return "", err
	}
	return t.frame.Render(strings.Join(t.rows[link], "\n")), nil
}

// WritePage implements Surface.
func (t *Text) WritePage(w io.Writer, link string) error {
	page, err := t.Page(link)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, page); err != nil {
		return fmt.Errorf("unable to write page %q: %w", link, err)
	}
	return nil
}

var _ Surface = (*Text)(nil)
