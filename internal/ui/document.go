// Package ui defines the document model emitted to the rendering host
// and the render context that application scripts build it through.
package ui

// Document is the full output of one rerun. The host replaces whatever
// it showed before with this document; nothing is diffed or patched.
type Document struct {
	RerunID   string     `json:"rerun_id"`
	SessionID string     `json:"session_id"`
	Elements  []*Element `json:"elements"`
	Sidebar   []*Element `json:"sidebar,omitempty"`
	Effect    string     `json:"effect,omitempty"`
	Toast     string     `json:"toast,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// NewDocument creates an empty document for one rerun of a session.
func NewDocument(sessionID, rerunID string) *Document {
	return &Document{
		RerunID:   rerunID,
		SessionID: sessionID,
	}
}

// Element is one node of the document tree. A single struct covers all
// element kinds; unused fields stay at their zero value and are omitted
// from the wire encoding.
type Element struct {
	Type     string       `json:"type"`
	ID       string       `json:"id,omitempty"`
	Label    string       `json:"label,omitempty"`
	Text     string       `json:"text,omitempty"`
	Value    any          `json:"value,omitempty"`
	Variant  string       `json:"variant,omitempty"`
	Options  []string     `json:"options,omitempty"`
	Min      float64      `json:"min,omitempty"`
	Max      float64      `json:"max,omitempty"`
	Step     float64      `json:"step,omitempty"`
	Language string       `json:"language,omitempty"`
	Caption  string       `json:"caption,omitempty"`
	Width    int          `json:"width,omitempty"`
	Delta    string       `json:"delta,omitempty"`
	Columns  []string     `json:"columns,omitempty"`
	Rows     [][]any      `json:"rows,omitempty"`
	Labels   []string     `json:"labels,omitempty"`
	Series   []Series     `json:"series,omitempty"`
	Points   []Point      `json:"points,omitempty"`
	Opacity  float64      `json:"opacity,omitempty"`
	Children [][]*Element `json:"children,omitempty"`
}

// Series is one named line of y-values for line and bar charts; x-axis
// labels live on the chart element.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Point is one scatter chart point, optionally grouped for coloring.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Group string  `json:"group,omitempty"`
}

// TableData is a plain tabular value, convenient for memoized
// generators: it survives the JSON round trip of shared cache backends.
type TableData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
