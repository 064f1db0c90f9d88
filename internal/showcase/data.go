package showcase

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/glintlabs/glint/internal/ui"
)

var categoryChoices = []string{"X", "Y", "Z"}

// SampleTable generates a table of sample data. It is deterministic on
// its argument so it can be memoized: the row count seeds the generator.
func SampleTable(rows int) *ui.TableData {
	rng := rand.New(rand.NewSource(int64(rows)))
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	table := &ui.TableData{
		Columns: []string{"Category A", "Category B", "Category C", "Date"},
	}
	for i := 0; i < rows; i++ {
		table.Rows = append(table.Rows, []any{
			round3(rng.NormFloat64() + 5),
			round3(rng.NormFloat64() * 2),
			categoryChoices[rng.Intn(len(categoryChoices))],
			base.AddDate(0, 0, i).Format("2006-01-02"),
		})
	}
	return table
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func renderDataCharts(c *ui.Context, alpha float64) error {
	c.Header("Displaying Data and Charts")

	const sampleRows = 20
	cached, err := c.Memoize("showcase.sample_table", sampleRows, func() (any, error) {
		return SampleTable(sampleRows), nil
	})
	if err != nil {
		return fmt.Errorf("generate sample table: %w", err)
	}
	table, err := tableFromAny(cached)
	if err != nil {
		return err
	}

	c.Subheader("Displaying a Table")
	c.Text("The table below is memoized: reruns reuse the generated data instead of recomputing it.")
	c.Table(table.Columns, table.Rows)

	c.Subheader("Metric Display")
	metricCols := c.Columns(3)
	metricCols[0].Metric("Temperature", "70 °F", "1.2 °F")
	metricCols[1].Metric("Wind", "9 mph", "-8%")
	metricCols[2].Metric("Humidity", "86%", "4%")

	c.Divider()
	c.Subheader("Built-in Charts")

	dates, catA, catB, groups := splitColumns(table)
	chartCols := c.Columns(2)
	chartCols[0].Text("Line chart")
	chartCols[0].LineChart(dates, []ui.Series{
		{Name: "Category A", Values: catA},
		{Name: "Category B", Values: catB},
	})
	chartCols[1].Text("Bar chart (group means)")
	labels, means := groupMeans(groups, catA, catB)
	chartCols[1].BarChart(labels, means)

	c.Divider()
	c.Subheader("Scatter Plot")
	c.Text("Category A against Category B, colored by Category C. Opacity follows the sidebar slider.")
	points := make([]ui.Point, 0, len(catA))
	for i := range catA {
		points = append(points, ui.Point{X: catA[i], Y: catB[i], Group: groups[i]})
	}
	c.ScatterChart(points, alpha)

	return nil
}

// tableFromAny recovers a TableData from a memoized value. The memory
// backend returns the original *TableData; shared backends round-trip
// through JSON and hand back generic maps.
func tableFromAny(v any) (*ui.TableData, error) {
	switch t := v.(type) {
	case *ui.TableData:
		return t, nil
	case map[string]any:
		table := &ui.TableData{Columns: ui.Strings(t["columns"])}
		rows, ok := t["rows"].([]any)
		if !ok {
			return nil, fmt.Errorf("cached table has no rows")
		}
		for _, raw := range rows {
			cells, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("cached table row has unexpected shape")
			}
			table.Rows = append(table.Rows, cells)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("cached table has unexpected type %T", v)
	}
}

func splitColumns(table *ui.TableData) (dates []string, catA, catB []float64, groups []string) {
	for _, row := range table.Rows {
		if len(row) < 4 {
			continue
		}
		catA = append(catA, ui.Float(row[0]))
		catB = append(catB, ui.Float(row[1]))
		groups = append(groups, ui.String(row[2]))
		dates = append(dates, ui.String(row[3]))
	}
	return dates, catA, catB, groups
}

// groupMeans aggregates both value columns by group label.
func groupMeans(groups []string, catA, catB []float64) ([]string, []ui.Series) {
	sums := make(map[string][2]float64)
	counts := make(map[string]int)
	for i, g := range groups {
		s := sums[g]
		s[0] += catA[i]
		s[1] += catB[i]
		sums[g] = s
		counts[g]++
	}

	labels := make([]string, 0, len(sums))
	for g := range sums {
		labels = append(labels, g)
	}
	sort.Strings(labels)

	meansA := make([]float64, len(labels))
	meansB := make([]float64, len(labels))
	for i, g := range labels {
		meansA[i] = round3(sums[g][0] / float64(counts[g]))
		meansB[i] = round3(sums[g][1] / float64(counts[g]))
	}

	return labels, []ui.Series{
		{Name: "Category A", Values: meansA},
		{Name: "Category B", Values: meansB},
	}
}
