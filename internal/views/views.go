// Package views turns the loaded datasets of a domain into display-ready
// metrics and chart series. Views are rebuilt on demand and hold no
// references back into the registry.
package views

import (
	"fmt"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/format"
)

// ChartKind selects how a panel is drawn.
type ChartKind string

const (
	KindBar  ChartKind = "bar"
	KindPie  ChartKind = "pie"
	KindLine ChartKind = "line"
	KindHist ChartKind = "hist"
)

// DefaultTopN bounds "top N" panels.
const DefaultTopN = 10

// Metric is one headline figure.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// Point is one labelled value of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Panel is one chart. When Compare is set it is a second series aligned
// index by index with Points, and Legend names both.
type Panel struct {
	ProductID string    `json:"product_id"`
	Section   string    `json:"section"`
	Title     string    `json:"title"`
	Kind      ChartKind `json:"kind"`
	Unit      string    `json:"unit,omitempty"`
	Points    []Point   `json:"points"`
	Compare   []Point   `json:"compare,omitempty"`
	Legend    []string  `json:"legend,omitempty"`
}

// View is the rendered state of one domain.
type View struct {
	Domain   string            `json:"domain"`
	Key      string            `json:"key"`
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	Summary  aggregate.Summary `json:"summary"`
	Metrics  []Metric          `json:"metrics"`
	Panels   []Panel           `json:"panels"`
	Empty    bool              `json:"empty"`
}

// Options tunes view construction.
type Options struct {
	// TopN caps ranked panels; 0 means DefaultTopN.
	TopN int
	// HistogramBins is the bucket count for distributions; 0 means 20.
	HistogramBins int
}

type buildFunc func(b *builder)

var builders = map[string]buildFunc{
	"lt":  buildLearningTeaching,
	"hr":  buildHumanResources,
	"fin": buildFinancial,
	"res": buildResearch,
	"fac": buildFacilities,
	"sup": buildSupport,
	"adv": buildAdvancement,
}

// Build assembles the view for domain (name or key). A domain with nothing
// loaded yields Empty=true and no metrics or panels.
func Build(src aggregate.Source, cat *catalog.Catalog, domain string, opts Options) (View, error) {
	d, ok := cat.Domain(domain)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", aggregate.ErrUnknownDomain, domain)
	}
	summary, err := aggregate.DomainSummary(src, cat, d.Name)
	if err != nil {
		return View{}, err
	}

	v := View{
		Domain:   d.Name,
		Key:      d.Key,
		Title:    d.Name + " Analytics",
		Subtitle: d.Description,
		Summary:  summary,
		Empty:    summary.LoadedCount == 0,
	}
	if v.Empty {
		return v, nil
	}

	b := &builder{src: src, view: &v, opts: opts, products: d.Products}
	if fn, ok := builders[d.Key]; ok {
		fn(b)
	} else {
		buildGeneric(b)
	}
	return v, nil
}

// BuildAll returns a view per catalog domain in display order.
func BuildAll(src aggregate.Source, cat *catalog.Catalog, opts Options) []View {
	domains := cat.Domains()
	out := make([]View, 0, len(domains))
	for _, d := range domains {
		v, err := Build(src, cat, d.Name, opts)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// buildGeneric lists record counts for domains without a dedicated layout.
func buildGeneric(b *builder) {
	var pts []Point
	for _, id := range b.products {
		if d, ok := b.product(id); ok {
			b.metric(id, format.Int(d.RowCount), "records")
			pts = append(pts, Point{Label: id, Value: float64(d.RowCount)})
		}
	}
	b.addPanel(Panel{Title: "Records by Product", Kind: KindBar, Points: pts})
}

type builder struct {
	src      aggregate.Source
	view     *View
	opts     Options
	products []string
	section  string
	current  *dataset.Dataset
}

func (b *builder) product(id string) (*dataset.Dataset, bool) {
	return b.src.Get(id)
}

// use selects the dataset the following panels read from. It reports
// whether the product is loaded.
func (b *builder) use(id, section string) bool {
	d, ok := b.product(id)
	if !ok {
		b.current = nil
		return false
	}
	b.current = d
	b.section = section
	return true
}

func (b *builder) limit(n int) int {
	top := b.opts.TopN
	if top <= 0 {
		top = DefaultTopN
	}
	if n <= 0 || top < n {
		return top
	}
	return n
}

func (b *builder) bins() int {
	if b.opts.HistogramBins > 0 {
		return b.opts.HistogramBins
	}
	return 20
}

func (b *builder) metric(label, value, delta string) {
	b.view.Metrics = append(b.view.Metrics, Metric{Label: label, Value: value, Delta: delta})
}

func (b *builder) addPanel(p Panel) {
	if len(p.Points) == 0 {
		return
	}
	if b.current != nil && p.ProductID == "" {
		p.ProductID = b.current.ProductID
	}
	if p.Section == "" {
		p.Section = b.section
	}
	b.view.Panels = append(b.view.Panels, p)
}

// rows is the record count of the current dataset.
func (b *builder) rows() int {
	return b.current.RowCount
}

func (b *builder) has(field string) bool {
	_, ok := b.current.Column(field)
	return ok
}

func (b *builder) sum(field string) (float64, bool) {
	return aggregate.ColumnSum(b.current, field)
}

func (b *builder) mean(field string) (float64, bool) {
	return aggregate.ColumnMean(b.current, field)
}

func (b *builder) nunique(field string) (int, bool) {
	return aggregate.NUnique(b.current, field)
}

// counts adds a value-count panel, truncated to top (0 keeps all).
func (b *builder) counts(field, title string, kind ChartKind, top int) {
	vc, ok := aggregate.ValueCounts(b.current, field)
	if !ok {
		return
	}
	if top > 0 {
		vc = aggregate.TopCounts(vc, b.limit(top))
	}
	b.addPanel(Panel{Title: title, Kind: kind, Points: countPoints(vc)})
}

// trend adds a value-count panel ordered by value, for years and periods.
func (b *builder) trend(field, title string) {
	vc, ok := aggregate.ValueCounts(b.current, field)
	if !ok {
		return
	}
	b.addPanel(Panel{Title: title, Kind: KindLine, Points: countPoints(aggregate.SortCountsByValue(vc))})
}

func (b *builder) sumBy(group, value, title string, kind ChartKind, top int, unit string) {
	g, ok := aggregate.GroupedSum(b.current, group, value)
	if !ok {
		return
	}
	if top > 0 {
		g = aggregate.TopGroups(g, b.limit(top))
	}
	b.addPanel(Panel{Title: title, Kind: kind, Unit: unit, Points: groupPoints(g)})
}

func (b *builder) meanBy(group, value, title string, top int) {
	g, ok := aggregate.GroupedMean(b.current, group, value)
	if !ok {
		return
	}
	b.addPanel(Panel{Title: title, Kind: KindBar, Points: groupPoints(aggregate.TopGroups(g, b.limit(top)))})
}

func (b *builder) nuniqueBy(group, col, title string, top int) {
	g, ok := aggregate.GroupedNUnique(b.current, group, col)
	if !ok {
		return
	}
	b.addPanel(Panel{Title: title, Kind: KindBar, Points: groupPoints(aggregate.TopGroups(g, b.limit(top)))})
}

func (b *builder) sumColumnsBy(group string, cols []string, title, unit string, top int) {
	g, ok := aggregate.GroupedSumColumns(b.current, group, cols)
	if !ok {
		return
	}
	b.addPanel(Panel{Title: title, Kind: KindBar, Unit: unit, Points: groupPoints(aggregate.TopGroups(g, b.limit(top)))})
}

// labelled pairs a display label with a column.
type labelled struct {
	label string
	col   string
}

// breakdown sums each listed column into one point, dropping zero and
// missing columns, largest first.
func (b *builder) breakdown(title, unit string, parts []labelled) {
	var g []aggregate.Group
	for _, p := range parts {
		s, ok := b.sum(p.col)
		if !ok || s <= 0 {
			continue
		}
		g = append(g, aggregate.Group{Key: p.label, Value: s})
	}
	b.addPanel(Panel{Title: title, Kind: KindBar, Unit: unit, Points: groupPoints(aggregate.SortGroupsDesc(g))})
}

// averages plots the mean of each listed column.
func (b *builder) averages(title string, parts []labelled) {
	var pts []Point
	for _, p := range parts {
		if m, ok := b.mean(p.col); ok {
			pts = append(pts, Point{Label: p.label, Value: m})
		}
	}
	b.addPanel(Panel{Title: title, Kind: KindBar, Points: pts})
}

// yesCounts counts cells equal to "Yes" per column, dropping zeros.
func (b *builder) yesCounts(title string, parts []labelled) {
	var g []aggregate.Group
	for _, p := range parts {
		n, ok := aggregate.CountEqual(b.current, p.col, "Yes")
		if !ok || n == 0 {
			continue
		}
		g = append(g, aggregate.Group{Key: p.label, Value: float64(n)})
	}
	b.addPanel(Panel{Title: title, Kind: KindBar, Points: groupPoints(aggregate.SortGroupsDesc(g))})
}

func (b *builder) histogram(field, title string) {
	vals, ok := aggregate.ColumnValues(b.current, field)
	if !ok {
		return
	}
	var pts []Point
	for _, bin := range aggregate.Histogram(vals, b.bins()) {
		pts = append(pts, Point{Label: format.Decimal(bin.Lo), Value: float64(bin.N)})
	}
	b.addPanel(Panel{Title: title, Kind: KindHist, Points: pts})
}

// compareBy plots two grouped sums over the same grouping column.
func (b *builder) compareBy(group, a, c, title, unit string, legend []string, byKey bool) {
	ga, okA := aggregate.GroupedSum(b.current, group, a)
	gc, okC := aggregate.GroupedSum(b.current, group, c)
	if !okA || !okC {
		return
	}
	if byKey {
		ga, gc = aggregate.SortGroupsByKey(ga), aggregate.SortGroupsByKey(gc)
	}
	kind := KindBar
	if byKey {
		kind = KindLine
	}
	b.addPanel(Panel{
		Title: title, Kind: kind, Unit: unit,
		Points: groupPoints(ga), Compare: groupPoints(gc), Legend: legend,
	})
}

func countPoints(vc []aggregate.Count) []Point {
	out := make([]Point, len(vc))
	for i, c := range vc {
		out[i] = Point{Label: c.Value, Value: float64(c.N)}
	}
	return out
}

func groupPoints(g []aggregate.Group) []Point {
	out := make([]Point, len(g))
	for i, x := range g {
		out[i] = Point{Label: x.Key, Value: x.Value}
	}
	return out
}

// share renders n as a percentage of total for metric deltas.
func share(n, total int) string {
	return format.Percent(aggregate.Percentage(float64(n), float64(total)))
}
