package domain

import "strings"

// ComplaintTypeConfig maps a complaint type to its SLA duration.
type ComplaintTypeConfig struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SLAHours int    `json:"sla_hours"`
	Active   bool   `json:"active"`
}

// ComplaintTypeTable is a snapshot of type configuration.
type ComplaintTypeTable []ComplaintTypeConfig

// SLAHours looks a type up by case-insensitive name.
func (t ComplaintTypeTable) SLAHours(typeName string) (int, bool) {
	cfg, ok := t.Find(typeName)
	if !ok || cfg.SLAHours <= 0 {
		return 0, false
	}
	return cfg.SLAHours, true
}

// Find returns the configuration whose name matches typeName ignoring case.
func (t ComplaintTypeTable) Find(typeName string) (ComplaintTypeConfig, bool) {
	name := strings.TrimSpace(typeName)
	if name == "" {
		return ComplaintTypeConfig{}, false
	}
	for _, cfg := range t {
		if strings.EqualFold(strings.TrimSpace(cfg.Name), name) {
			return cfg, true
		}
	}
	return ComplaintTypeConfig{}, false
}
