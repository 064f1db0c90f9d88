package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// RenderFunc is an application script: it is re-executed top to bottom
// on every interaction and rebuilds the document from scratch.
type RenderFunc func(*Context) error

// State is the session key/value surface exposed to render functions.
// Writes become visible on this and all subsequent reruns of the same
// session; other sessions never observe them.
type State interface {
	// GetOrInit sets key to def if absent, then returns the current value.
	GetOrInit(key string, def any) any

	// Set overwrites the value under key.
	Set(key string, value any)

	// Get returns the value under key, if present.
	Get(key string) (any, bool)
}

// Memoizer caches pure computations process-wide, keyed by function
// name and argument values.
type Memoizer interface {
	Do(ctx context.Context, name string, args any, compute func() (any, error)) (any, error)
}

// WidgetStateKey returns the session state key a widget's value is
// stored under. The engine applies incoming widget events through the
// same mapping the context reads from.
func WidgetStateKey(id string) string {
	return "_widget:" + id
}

// Context builds one document during one rerun. Layout containers hand
// out child contexts that append to their own subtree; session state,
// the memoizer, and widget ID allocation are shared document-wide.
type Context struct {
	ctx     context.Context
	doc     *Document
	state   State
	memo    Memoizer
	clicked string
	target  *[]*Element
	counts  map[string]int
}

// NewContext creates the root context for one rerun. clicked is the ID
// of the button whose press triggered this rerun, if any.
func NewContext(ctx context.Context, doc *Document, state State, memo Memoizer, clicked string) *Context {
	return &Context{
		ctx:     ctx,
		doc:     doc,
		state:   state,
		memo:    memo,
		clicked: clicked,
		target:  &doc.Elements,
		counts:  make(map[string]int),
	}
}

func (c *Context) child(target *[]*Element) *Context {
	cc := *c
	cc.target = target
	return &cc
}

func (c *Context) emit(e *Element) {
	*c.target = append(*c.target, e)
}

// Opt configures a widget.
type Opt func(*widgetOpts)

type widgetOpts struct {
	key string
}

// Key pins a widget to an explicit ID instead of the derived one, so
// its state survives label changes and conditional reordering.
func Key(key string) Opt {
	return func(o *widgetOpts) { o.key = key }
}

// autoID derives a stable widget ID from the widget kind, its label,
// and how many same-labeled widgets of that kind rendered before it.
// Stable as long as the script renders widgets in a stable order; an
// explicit Key option overrides the derivation.
func (c *Context) autoID(kind, label string, opts []Opt) string {
	var o widgetOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.key != "" {
		return "key-" + o.key
	}
	c.counts[kind+"|"+label]++
	h := xxhash.Sum64String(kind + "|" + label + "|" + strconv.Itoa(c.counts[kind+"|"+label]))
	return kind + "-" + strconv.FormatUint(h, 16)
}

func (c *Context) widgetValue(id string) (any, bool) {
	return c.state.Get(WidgetStateKey(id))
}

// Context returns the request context of the rerun.
func (c *Context) Context() context.Context {
	return c.ctx
}

// GetOrInit sets key to def if absent in session state, then returns
// the current value.
func (c *Context) GetOrInit(key string, def any) any {
	return c.state.GetOrInit(key, def)
}

// Set overwrites the session state value under key.
func (c *Context) Set(key string, value any) {
	c.state.Set(key, value)
}

// Memoize returns the process-wide cached result for (name, args),
// invoking compute at most once per distinct key. compute must be pure.
func (c *Context) Memoize(name string, args any, compute func() (any, error)) (any, error) {
	return c.memo.Do(c.ctx, name, args, compute)
}

// Sidebar returns a context that appends to the document's sidebar.
func (c *Context) Sidebar() *Context {
	return c.child(&c.doc.Sidebar)
}

// --- static elements ---

// Title renders the page title.
func (c *Context) Title(text string) {
	c.emit(&Element{Type: "title", Text: text})
}

// Header renders a section header.
func (c *Context) Header(text string) {
	c.emit(&Element{Type: "header", Text: text})
}

// Subheader renders a subsection header.
func (c *Context) Subheader(text string) {
	c.emit(&Element{Type: "subheader", Text: text})
}

// Text renders a paragraph of plain text.
func (c *Context) Text(text string) {
	c.emit(&Element{Type: "text", Text: text})
}

// Textf renders a formatted paragraph.
func (c *Context) Textf(format string, args ...any) {
	c.Text(fmt.Sprintf(format, args...))
}

// Markdown renders a block of markdown source.
func (c *Context) Markdown(source string) {
	c.emit(&Element{Type: "markdown", Text: source})
}

// Divider renders a horizontal rule.
func (c *Context) Divider() {
	c.emit(&Element{Type: "divider"})
}

// Code renders a highlighted code block.
func (c *Context) Code(code, language string) {
	c.emit(&Element{Type: "code", Text: code, Language: language})
}

// Image renders an image from a URL.
func (c *Context) Image(url, caption string, width int) {
	c.emit(&Element{Type: "image", Text: url, Caption: caption, Width: width})
}

// Info renders an informational callout.
func (c *Context) Info(text string) {
	c.emit(&Element{Type: "alert", Variant: "info", Text: text})
}

// Success renders a success callout.
func (c *Context) Success(text string) {
	c.emit(&Element{Type: "alert", Variant: "success", Text: text})
}

// Warning renders a warning callout.
func (c *Context) Warning(text string) {
	c.emit(&Element{Type: "alert", Variant: "warning", Text: text})
}

// Metric renders a labeled value with an optional delta indicator.
func (c *Context) Metric(label, value, delta string) {
	c.emit(&Element{Type: "metric", Label: label, Value: value, Delta: delta})
}

// Progress renders a progress bar; fraction is clamped to [0, 1].
func (c *Context) Progress(fraction float64, text string) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	c.emit(&Element{Type: "progress", Value: fraction, Text: text})
}

// Spinner renders a busy indicator with a note. The document is only
// delivered when the rerun finishes, so this marks sections whose data
// was slow to produce rather than live progress.
func (c *Context) Spinner(text string) {
	c.emit(&Element{Type: "spinner", Text: text})
}

// Table renders a static table.
func (c *Context) Table(columns []string, rows [][]any) {
	c.emit(&Element{Type: "table", Columns: columns, Rows: rows})
}

// Toast queues a transient notification shown once by the host.
func (c *Context) Toast(text string) {
	c.doc.Toast = text
}

// Balloons queues the celebratory effect shown once by the host.
func (c *Context) Balloons() {
	c.doc.Effect = "balloons"
}

// --- charts ---

// LineChart renders named series as lines over shared x-axis labels.
func (c *Context) LineChart(labels []string, series []Series) {
	c.emit(&Element{Type: "line_chart", Labels: labels, Series: series})
}

// BarChart renders named series as grouped bars over shared labels.
func (c *Context) BarChart(labels []string, series []Series) {
	c.emit(&Element{Type: "bar_chart", Labels: labels, Series: series})
}

// ScatterChart renders points, colored by group, at the given opacity.
func (c *Context) ScatterChart(points []Point, opacity float64) {
	c.emit(&Element{Type: "scatter_chart", Points: points, Opacity: opacity})
}

// --- widgets ---

// TextInput renders a single-line text input and returns its value.
func (c *Context) TextInput(label, def string, opts ...Opt) string {
	id := c.autoID("text_input", label, opts)
	value := def
	if v, ok := c.widgetValue(id); ok {
		value = String(v)
	}
	c.emit(&Element{Type: "text_input", ID: id, Label: label, Value: value})
	return value
}

// TextArea renders a multi-line text input and returns its value.
func (c *Context) TextArea(label, def string, opts ...Opt) string {
	id := c.autoID("text_area", label, opts)
	value := def
	if v, ok := c.widgetValue(id); ok {
		value = String(v)
	}
	c.emit(&Element{Type: "text_area", ID: id, Label: label, Value: value})
	return value
}

// NumberInput renders a bounded numeric input and returns its value.
func (c *Context) NumberInput(label string, def, min, max float64, opts ...Opt) float64 {
	id := c.autoID("number_input", label, opts)
	value := def
	if v, ok := c.widgetValue(id); ok {
		value = Float(v)
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	c.emit(&Element{Type: "number_input", ID: id, Label: label, Value: value, Min: min, Max: max})
	return value
}

// Slider renders a slider and returns its value.
func (c *Context) Slider(label string, min, max, def float64, opts ...Opt) float64 {
	id := c.autoID("slider", label, opts)
	value := def
	if v, ok := c.widgetValue(id); ok {
		value = Float(v)
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	c.emit(&Element{Type: "slider", ID: id, Label: label, Value: value, Min: min, Max: max})
	return value
}

// Checkbox renders a checkbox and returns whether it is checked.
func (c *Context) Checkbox(label string, def bool, opts ...Opt) bool {
	id := c.autoID("checkbox", label, opts)
	value := def
	if v, ok := c.widgetValue(id); ok {
		value = Bool(v)
	}
	c.emit(&Element{Type: "checkbox", ID: id, Label: label, Value: value})
	return value
}

// Radio renders a radio group and returns the selected option.
func (c *Context) Radio(label string, options []string, defIndex int, opts ...Opt) string {
	id := c.autoID("radio", label, opts)
	value := optionAt(options, defIndex)
	if v, ok := c.widgetValue(id); ok {
		if s := String(v); contains(options, s) {
			value = s
		}
	}
	c.emit(&Element{Type: "radio", ID: id, Label: label, Value: value, Options: options})
	return value
}

// Selectbox renders a dropdown and returns the selected option.
func (c *Context) Selectbox(label string, options []string, defIndex int, opts ...Opt) string {
	id := c.autoID("selectbox", label, opts)
	value := optionAt(options, defIndex)
	if v, ok := c.widgetValue(id); ok {
		if s := String(v); contains(options, s) {
			value = s
		}
	}
	c.emit(&Element{Type: "selectbox", ID: id, Label: label, Value: value, Options: options})
	return value
}

// Multiselect renders a multiple-choice selector and returns the
// selected options, in selection order.
func (c *Context) Multiselect(label string, options []string, opts ...Opt) []string {
	id := c.autoID("multiselect", label, opts)
	var value []string
	if v, ok := c.widgetValue(id); ok {
		for _, s := range Strings(v) {
			if contains(options, s) {
				value = append(value, s)
			}
		}
	}
	c.emit(&Element{Type: "multiselect", ID: id, Label: label, Value: value, Options: options})
	return value
}

// DateInput renders a date picker and returns the selected date.
func (c *Context) DateInput(label string, def time.Time, opts ...Opt) time.Time {
	id := c.autoID("date_input", label, opts)
	value := def
	if v, ok := c.widgetValue(id); ok {
		if t, err := time.Parse("2006-01-02", String(v)); err == nil {
			value = t
		}
	}
	c.emit(&Element{Type: "date_input", ID: id, Label: label, Value: value.Format("2006-01-02")})
	return value
}

// Button renders a button. It returns true only during the rerun its
// click triggered; button presses are never stored in session state.
func (c *Context) Button(label string, opts ...Opt) bool {
	id := c.autoID("button", label, opts)
	c.emit(&Element{Type: "button", ID: id, Label: label})
	return c.clicked == id
}

// --- layout containers ---

// Columns splits the row into n equal columns and returns a context
// for each.
func (c *Context) Columns(n int) []*Context {
	if n < 1 {
		n = 1
	}
	elem := &Element{Type: "columns", Children: make([][]*Element, n)}
	c.emit(elem)
	cols := make([]*Context, n)
	for i := range cols {
		cols[i] = c.child(&elem.Children[i])
	}
	return cols
}

// Tabs renders a tab strip and returns one context per tab.
func (c *Context) Tabs(titles []string) []*Context {
	elem := &Element{Type: "tabs", Labels: titles, Children: make([][]*Element, len(titles))}
	c.emit(elem)
	tabs := make([]*Context, len(titles))
	for i := range tabs {
		tabs[i] = c.child(&elem.Children[i])
	}
	return tabs
}

// Expander renders a collapsible section and returns its context.
func (c *Context) Expander(title string) *Context {
	elem := &Element{Type: "expander", Label: title, Children: make([][]*Element, 1)}
	c.emit(elem)
	return c.child(&elem.Children[0])
}

// Form renders a container whose widgets batch their events client-side
// until the form's submit button fires. name must be unique per script.
func (c *Context) Form(name string) *Form {
	elem := &Element{Type: "form", ID: "form-" + name, Children: make([][]*Element, 1)}
	c.emit(elem)
	return &Form{Context: c.child(&elem.Children[0])}
}

// Form is the render context of a form container.
type Form struct {
	*Context
}

// Submit renders the form's submit button. It returns true only during
// the rerun triggered by the submission.
func (f *Form) Submit(label string, opts ...Opt) bool {
	id := f.autoID("form_submit", label, opts)
	f.emit(&Element{Type: "form_submit", ID: id, Label: label})
	return f.clicked == id
}

func optionAt(options []string, i int) string {
	if i < 0 || i >= len(options) {
		if len(options) == 0 {
			return ""
		}
		i = 0
	}
	return options[i]
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
