package extract

import (
	"strings"

	"github.com/dbsmedya/depextract/internal/convert"
)

const sampleTimes = 10

// DocumentSummary describes a loaded document without extracting anything.
type DocumentSummary struct {
	Source              string         `json:"file_path"`
	TotalVariables      int            `json:"total_variables"`
	DependencyVariables []string       `json:"dependency_variables"`
	TimeInfo            *TimeInfo      `json:"time_info"`
	DataStructure       *DataStructure `json:"data_structure"`
}

// TimeInfo summarizes the time axis.
type TimeInfo struct {
	TotalCycles int       `json:"total_cycles"`
	TimeRange   TimeRange `json:"time_range"`
	SampleTimes []any     `json:"sample_times"`
}

// DataStructure describes the root variable named by the navigation path.
type DataStructure struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Shape  []int    `json:"shape"`
	DType  string   `json:"dtype,omitempty"`
	Fields []string `json:"fields"`
}

// IsDependencyVariable reports whether a top-level name looks like dependency data.
func IsDependencyVariable(name string) bool {
	return strings.Contains(strings.ToLower(name), "dep") || strings.HasPrefix(name, "g_Per")
}

// Summarize reports the top-level variables, the time axis and the shape of
// the root variable.
func (e *Extractor) Summarize(root any, source string) *DocumentSummary {
	s := &DocumentSummary{
		Source:              source,
		DependencyVariables: []string{},
	}

	if names, ok := convert.Fields(root); ok {
		s.TotalVariables = len(names)
		for _, name := range names {
			if IsDependencyVariable(name) {
				s.DependencyVariables = append(s.DependencyVariables, name)
			}
		}
	}

	if times, ok := e.timeAxis(root); ok && len(times) > 0 {
		n := min(len(times), sampleTimes)
		samples := make([]any, n)
		for i := range samples {
			samples[i] = convert.NarrowScalar(times[i])
		}
		s.TimeInfo = &TimeInfo{
			TotalCycles: len(times),
			TimeRange: TimeRange{
				Start: convert.NarrowScalar(times[0]),
				End:   convert.NarrowScalar(times[len(times)-1]),
			},
			SampleTimes: samples,
		}
	}

	if len(e.cfg.NavigationPath) > 0 {
		name := e.cfg.NavigationPath[0]
		if v, err := Navigate(root, e.cfg.NavigationPath[:1]); err == nil {
			s.DataStructure = describe(name, v)
		}
	}
	return s
}

func describe(name string, v any) *DataStructure {
	ds := &DataStructure{
		Name:   name,
		Kind:   convert.Classify(v).String(),
		Shape:  []int{},
		Fields: []string{},
	}
	if fields, ok := convert.Fields(v); ok {
		ds.Shape = []int{1, 1}
		ds.Fields = fields
	}
	if info, ok := convert.DescribeArray(v); ok {
		ds.Shape = info.Shape
		ds.DType = info.DType
	}
	return ds
}
