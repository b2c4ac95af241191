package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/extract"
)

const maxCellWidth = 48

// SummaryOptions controls PrintSummary.
type SummaryOptions struct {
	OutputPath  string
	Fingerprint string
	NoColor     bool
}

type painter struct {
	enabled bool
}

func (p painter) paint(style color.Style, text string) string {
	if !p.enabled {
		return text
	}
	return style.Sprint(text)
}

var (
	headerStyle = color.New(color.FgCyan, color.OpBold)
	labelStyle  = color.New(color.FgDarkGray)
	okStyle     = color.New(color.FgGreen, color.OpBold)
	warnStyle   = color.New(color.FgYellow, color.OpBold)
	errStyle    = color.New(color.FgRed, color.OpBold)
)

// PrintSummary writes a human-readable report of res to w.
func PrintSummary(w io.Writer, res *extract.Result, opts SummaryOptions) {
	p := painter{enabled: !opts.NoColor}

	fmt.Fprintf(w, "%s  %s\n",
		p.paint(headerStyle, fmt.Sprintf("Extraction dep %d cycle %d", res.DepID, res.CycleIndex)),
		p.paint(statusStyle(res.Metadata.Status), "["+string(res.Metadata.Status)+"]"))

	kv := [][2]string{
		{"run_id", res.RunID},
		{"timestamp", formatValue(res.Timestamp)},
		{"total_cycles", fmt.Sprint(res.Metadata.TotalCycles)},
		{"fields", fmt.Sprint(res.Properties.Len())},
		{"errors", fmt.Sprint(len(res.Errors))},
		{"cache_hits", fmt.Sprint(res.CacheStatistics.CacheHits)},
		{"circular_refs", fmt.Sprint(res.CacheStatistics.CircularReferences)},
		{"depth_exceeded", fmt.Sprint(res.CacheStatistics.DepthExceeded)},
		{"elapsed_ms", fmt.Sprintf("%.3f", res.Metadata.ElapsedMS)},
	}
	if opts.Fingerprint != "" {
		kv = append(kv, [2]string{"fingerprint", opts.Fingerprint})
	}
	if opts.OutputPath != "" {
		kv = append(kv, [2]string{"output", opts.OutputPath})
	}
	keyWidth := 0
	for _, row := range kv {
		keyWidth = max(keyWidth, runewidth.StringWidth(row[0]))
	}
	for _, row := range kv {
		fmt.Fprintf(w, "  %s  %s\n", p.paint(labelStyle, runewidth.FillRight(row[0], keyWidth)), row[1])
	}

	if names := res.Properties.Keys(); len(names) > 0 {
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			v, _ := res.Properties.Get(name)
			m, _ := res.Metadata.FieldMethods.Get(name)
			method, _ := m.(string)
			rows = append(rows, []string{name, method, formatValue(v)})
		}
		fmt.Fprintln(w)
		renderTable(w, p, []string{"FIELD", "METHOD", "VALUE"}, rows)
	}

	if len(res.Errors) > 0 {
		rows := make([][]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			rows = append(rows, []string{string(e.Kind), e.Path, e.Message})
		}
		fmt.Fprintln(w)
		renderTable(w, p, []string{"KIND", "PATH", "MESSAGE"}, rows)
	}
}

func statusStyle(s extract.Status) color.Style {
	switch s {
	case extract.StatusCompleted:
		return okStyle
	case extract.StatusPartial:
		return warnStyle
	default:
		return errStyle
	}
}

// renderTable aligns cells by display width so wide runes do not skew columns.
func renderTable(w io.Writer, p painter, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = runewidth.Truncate(row[i], maxCellWidth, "…")
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = p.paint(headerStyle, runewidth.FillRight(h, widths[i]))
	}
	fmt.Fprintln(w, "  "+strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range rows {
		for i, c := range row {
			cells[i] = runewidth.FillRight(c, widths[i])
		}
		fmt.Fprintln(w, "  "+strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// formatValue renders a conversion result as one short line.
func formatValue(v convert.Result) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case *convert.Object:
		if kind, ok := t.Get("type"); ok {
			if s, isString := kind.(string); isString {
				return "<" + s + ">"
			}
		}
		return fmt.Sprintf("{%d fields}", t.Len())
	case []any:
		return fmt.Sprintf("[%d items]", len(t))
	case string:
		return fmt.Sprintf("%q", t)
	default:
		return fmt.Sprint(t)
	}
}
