package domain

// Event is one widget interaction delivered by the rendering host.
// Events are transient: they trigger exactly one rerun and are not
// persisted themselves. Only values written into session state survive.
type Event struct {
	// WidgetID names the widget that fired. Empty for the initial rerun
	// performed when a session attaches.
	WidgetID string

	// Value is the widget's new value, already JSON-decoded (strings,
	// float64 numbers, bools, []any). Ignored when Click is set.
	Value any

	// Click marks a button press. Button values are never stored; the
	// engine reports the clicked widget to exactly one rerun.
	Click bool

	// Batch carries the values of every widget inside a form, delivered
	// together when the form's submit button fires. Applied before Value.
	Batch map[string]any
}

// IsInitial reports whether this is the synthetic event used for the
// first rerun of a freshly attached session.
func (e Event) IsInitial() bool {
	return e.WidgetID == "" && !e.Click && len(e.Batch) == 0
}
