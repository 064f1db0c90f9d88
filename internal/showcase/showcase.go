// Package showcase is the demo application: a render function that
// exercises widgets, layout, charts, memoization, and session state.
package showcase

import (
	"fmt"
	"strings"
	"time"

	"github.com/glintlabs/glint/internal/ui"
)

var sections = []string{
	"Interactive Widgets",
	"Data & Charts",
	"Layout & Media",
	"Status & State",
}

// Render rebuilds the showcase document. It runs top to bottom on every
// interaction; everything it wants to keep goes through session state.
func Render(c *ui.Context) error {
	sb := c.Sidebar()
	sb.Header("App Controls")
	sb.Text("Use these widgets to control the main app content.")

	mode := sb.Selectbox("Choose a section to explore", sections, 0)
	alpha := sb.Slider("Chart Opacity", 0, 1, 0.7)

	if sb.Button("Show Balloons!") {
		c.Balloons()
		c.Toast("Here are some balloons!")
	}

	c.Title("Glint Showcase")
	c.Text("A tour of glint's widgets, data display, charting, and session state. " +
		"Pick a section in the sidebar; the document is rebuilt from scratch on every interaction.")
	c.Divider()

	switch mode {
	case "Data & Charts":
		return renderDataCharts(c, alpha)
	case "Layout & Media":
		renderLayoutMedia(c)
	case "Status & State":
		renderStatusState(c)
	default:
		renderWidgets(c)
	}
	return nil
}

func renderWidgets(c *ui.Context) {
	c.Header("Interactive Widgets")
	c.Text("Widgets return their current value straight from the render call:")

	cols := c.Columns(2)

	left := cols[0]
	left.Subheader("Basic Inputs")
	text := left.TextInput("Enter some text", "Hello, glint!")
	left.Textf("You entered: %s", text)

	num := left.NumberInput("Enter a number", 42, 0, 100)
	left.Textf("The number is: %v", num)

	date := left.DateInput("Pick a date", time.Now())
	left.Textf("You selected: %s", date.Format("2006-01-02"))

	right := cols[1]
	right.Subheader("Selection Widgets")
	color := right.Selectbox("What's your favorite color?", []string{"Blue", "Green", "Red", "Yellow"}, 0)
	right.Markdown(fmt.Sprintf("Your favorite color is **%s**.", color))

	pets := right.Multiselect("What pets do you own?", []string{"Dog", "Cat", "Fish", "Parrot", "Hamster"})
	if len(pets) == 0 {
		right.Text("You own: no pets selected")
	} else {
		right.Textf("You own: %s", strings.Join(pets, ", "))
	}

	c.Divider()
	c.Subheader("Boolean Widgets")
	boolCols := c.Columns(2)
	if boolCols[0].Checkbox("Show additional details", false) {
		boolCols[0].Info("Here are some more details you asked for!")
	}
	delivery := boolCols[1].Radio("Choose a delivery option:", []string{"Standard", "Express", "Pickup"}, 0)
	boolCols[1].Markdown(fmt.Sprintf("You chose: **%s**", delivery))

	c.Divider()
	c.Subheader("Batched Input with Forms")
	form := c.Form("feedback")
	form.Text("This form groups inputs. The app only reruns when you click 'Submit'.")
	name := form.TextInput("Name", "")
	email := form.TextInput("Email", "")
	feedback := form.TextArea("Your Feedback", "")
	if form.Submit("Submit") {
		c.Success(fmt.Sprintf("Thanks, %s! We received your feedback.", name))
		c.Textf("Email: %s", email)
		c.Textf("Feedback: %s", feedback)
	}
}

func renderLayoutMedia(c *ui.Context) {
	c.Header("Layout Options and Media Elements")

	c.Subheader("Tabs")
	c.Text("Tabs organize content into separate sections.")
	tabs := c.Tabs([]string{"Image", "Expander", "Code"})

	tabs[0].Text("Images render from a URL.")
	tabs[0].Image("https://go.dev/images/gophers/ladder.svg", "A gopher climbing a ladder.", 300)

	tabs[1].Text("Expanders hide content that is not immediately necessary.")
	exp := tabs[1].Expander("Click to see the explanation")
	exp.Text("An expander keeps the interface tidy: users click to reveal more information.")
	exp.Code(`exp := c.Expander("Title")
exp.Text("Content goes here.")`, "go")

	tabs[2].Text("Code blocks render with syntax highlighting.")
	tabs[2].Code(`table, err := c.Memoize("sample_table", rows, func() (any, error) {
	// Runs once per distinct argument value; reruns reuse the result.
	return SampleTable(rows), nil
})`, "go")
}

func renderStatusState(c *ui.Context) {
	c.Header("Status Elements and Session State")

	c.Subheader("Status Updates")
	c.Text("Each click advances the job by one step; progress lives in session state.")

	progress := ui.Float(c.GetOrInit("job_progress", 0.0))
	if c.Button("Advance the job") {
		progress += 0.25
		if progress > 1 {
			progress = 1
		}
		c.Set("job_progress", progress)
	}
	if c.Button("Restart the job") {
		progress = 0
		c.Set("job_progress", progress)
	}
	c.Progress(progress, fmt.Sprintf("Operation in progress (%d%%)", int(progress*100)))
	if progress > 0 && progress < 1 {
		c.Spinner("Job running, click to advance...")
	}
	if progress >= 1 {
		c.Success("Process completed successfully!")
	}

	c.Divider()
	c.Subheader("Managing Session State")
	c.Text("Session state preserves values across reruns.")

	count := ui.Int(c.GetOrInit("counter", 0))
	cols := c.Columns(2)
	// Pinned IDs: these buttons keep their state binding even if the
	// labels are reworded.
	if cols[0].Button("Increment", ui.Key("counter_inc")) {
		count++
		c.Set("counter", count)
	}
	if cols[0].Button("Decrement", ui.Key("counter_dec")) {
		count--
		c.Set("counter", count)
	}
	cols[1].Markdown(fmt.Sprintf("### Current counter value: `%d`", count))
	cols[1].Text("This value persists even when you interact with other widgets.")
}
