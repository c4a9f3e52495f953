package replay

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/groundstation/internal/backend"
)

// DefaultMaxPoints is the sample budget asked of the backend per series.
const DefaultMaxPoints = 2000

// Other collects variables matching no category keyword.
const Other = "OTHER"

// Category groups replay variables by name keyword.
type Category struct {
	Name     string
	Keywords []string
}

// Categories is checked in order; the first keyword contained in the
// upper-cased variable name wins. GNC precedes STATES so command values
// such as heights land with the guidance bus.
var Categories = []Category{
	{"PWM", []string{"PWM"}},
	{"GNCBUS", []string{"GNC", "CMDVALUE"}},
	{"STATES", []string{"STATE", "LAT", "LON", "HEIGHT"}},
	{"DATACTRL", []string{"CTRL", "REF_", "EST_"}},
	{"AVOIFLAG", []string{"AVOI", "FLAG"}},
	{"DATAFUTABA", []string{"FUTABA", "FTB"}},
	{"DATAGCS", []string{"GCS", "TELE"}},
	{"PARAM", []string{"PARAM"}},
	{"ESC", []string{"ESC", "RPM"}},
}

// Group is one category with its variables in catalog order.
type Group struct {
	Name      string   `json:"name"`
	Variables []string `json:"variables"`
}

// Classify returns the category of a variable name.
func Classify(name string) string {
	upper := strings.ToUpper(name)
	for _, c := range Categories {
		for _, k := range c.Keywords {
			if strings.Contains(upper, k) {
				return c.Name
			}
		}
	}
	return Other
}

// Partition groups variables by category. Empty categories are omitted and
// groups keep the order of Categories, with OTHER last.
func Partition(vars []string) []Group {
	byName := make(map[string][]string)
	for _, v := range vars {
		c := Classify(v)
		byName[c] = append(byName[c], v)
	}
	var out []Group
	for _, c := range Categories {
		if vs := byName[c.Name]; len(vs) > 0 {
			out = append(out, Group{Name: c.Name, Variables: vs})
		}
	}
	if vs := byName[Other]; len(vs) > 0 {
		out = append(out, Group{Name: Other, Variables: vs})
	}
	return out
}

// Analysis is the replay analysis sub-state.
type Analysis struct {
	File              string              `json:"file"`
	Variables         []string            `json:"variables"`
	Groups            []Group             `json:"groups"`
	BackendCategories map[string][]string `json:"backendCategories,omitempty"`
	Selected          []string            `json:"selected"`
	Series            SeriesSet           `json:"series"`
}

func (a Analysis) clone() Analysis {
	out := a
	out.Variables = append([]string(nil), a.Variables...)
	out.Groups = make([]Group, len(a.Groups))
	for i, g := range a.Groups {
		out.Groups[i] = Group{Name: g.Name, Variables: append([]string(nil), g.Variables...)}
	}
	out.Selected = append([]string(nil), a.Selected...)
	return out
}

// Range is the extent of one sampled series.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SeriesSet holds sampled replay series on a shared time axis.
type SeriesSet struct {
	TimeAxis      []float64            `json:"timeAxis"`
	Data          map[string][]float64 `json:"data"`
	Ranges        map[string]Range     `json:"ranges"`
	Missing       []string             `json:"missing,omitempty"`
	TotalPoints   int                  `json:"totalPoints"`
	SampledPoints int                  `json:"sampledPoints"`
}

func newSeriesSet(requested []string, resp backend.SeriesResponse) SeriesSet {
	s := SeriesSet{
		TimeAxis:      resp.TimeAxis,
		Data:          make(map[string][]float64, len(resp.SeriesData)),
		Ranges:        make(map[string]Range, len(resp.SeriesData)),
		TotalPoints:   resp.TotalPoints,
		SampledPoints: resp.SampledPoints,
	}
	for _, name := range requested {
		vals, ok := resp.SeriesData[name]
		if !ok {
			s.Missing = append(s.Missing, name)
			continue
		}
		s.Data[name] = vals
		if len(vals) > 0 {
			s.Ranges[name] = Range{Min: floats.Min(vals), Max: floats.Max(vals)}
		}
	}
	return s
}
