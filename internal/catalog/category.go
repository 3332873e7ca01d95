package catalog

import "fmt"

// Category is a risk severity class. The numeric order is the severity order,
// so Critical > High > Medium > Low compares directly.
type Category int

const (
	Low Category = iota
	Medium
	High
	Critical
)

// Categories lists every category from most to least severe. Scoring and
// tallying iterate this slice so their output order is deterministic.
var Categories = []Category{Critical, High, Medium, Low}

func (c Category) String() string {
	switch c {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory converts a lowercase category name into a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "critical":
		return Critical, nil
	case "high":
		return High, nil
	case "medium":
		return Medium, nil
	case "low":
		return Low, nil
	}
	return 0, fmt.Errorf("unknown risk category: %q", s)
}

// MarshalText implements encoding.TextMarshaler so categories serialize as
// their names in JSON and YAML.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
