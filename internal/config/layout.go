package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// layoutFile is the YAML venue description:
//
//	rows:
//	  - names: A-Q
//	    seats: 16
//	  - names: R,S,T,U
//	    seats: 13
type layoutFile struct {
	Rows []layoutRows `yaml:"rows"`
}

type layoutRows struct {
	Names string `yaml:"names"`
	Seats int    `yaml:"seats"`
}

// LoadLayout reads a YAML venue layout from path.
func LoadLayout(path string) (model.SeatLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes a YAML venue layout and validates the result.
// names is a single label, a comma separated list or a letter range
// such as "A-Q".
func ParseLayout(data []byte) (model.SeatLayout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	var layout model.SeatLayout
	for i, r := range f.Rows {
		names, err := expandRowNames(r.Names)
		if err != nil {
			return nil, fmt.Errorf("layout rows[%d]: %w", i, err)
		}
		for _, name := range names {
			layout = append(layout, model.RowSpec{Row: name, Seats: r.Seats})
		}
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

func expandRowNames(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		if !isRange {
			out = append(out, model.NormalizeRowLabel(part))
			continue
		}
		from, to = model.NormalizeRowLabel(from), model.NormalizeRowLabel(to)
		if len(from) != 1 || len(to) != 1 || from[0] > to[0] {
			return nil, fmt.Errorf("invalid row range %q", part)
		}
		for c := from[0]; c <= to[0]; c++ {
			out = append(out, string(c))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("names is required")
	}
	return out, nil
}
