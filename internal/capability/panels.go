package capability

import (
	_ "embed"
	"fmt"

	"github.com/upb/dak-console/models"
	"gopkg.in/yaml.v3"
)

//go:embed panels.yaml
var defaultPanelsYAML []byte

// Panel is one feature surface of the dashboard.
type Panel struct {
	Key      string   `yaml:"key" json:"key"`
	Label    string   `yaml:"label" json:"label"`
	Requires []string `yaml:"requires" json:"requires"`
	Endpoint string   `yaml:"endpoint" json:"endpoint"`
}

type panelsFile struct {
	Panels []Panel `yaml:"panels"`
}

// ParsePanels decodes a panels YAML document.
func ParsePanels(data []byte) ([]Panel, error) {
	var f panelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse panels: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Panels))
	for i, p := range f.Panels {
		if p.Key == "" {
			return nil, fmt.Errorf("panel %d has no key", i)
		}
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("duplicate panel %q", p.Key)
		}
		if len(p.Requires) == 0 {
			return nil, fmt.Errorf("panel %q declares no required capability", p.Key)
		}
		seen[p.Key] = struct{}{}
	}
	return f.Panels, nil
}

// DefaultPanels returns the embedded panel table.
func DefaultPanels() []Panel {
	panels, err := ParsePanels(defaultPanelsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded panels.yaml is invalid: %v", err))
	}
	return panels
}

// Panels returns the resolver's full panel table in declaration order.
func (r *Resolver) Panels() []Panel {
	out := make([]Panel, len(r.panels))
	copy(out, r.panels)
	return out
}

// VisiblePanels returns the panels of all the session may open, in
// declaration order. A panel is visible when any of its required
// capabilities passes Can.
func (r *Resolver) VisiblePanels(all []Panel, s *models.Session) []Panel {
	visible := make([]Panel, 0, len(all))
	for _, p := range all {
		if r.CanAny(s, p.Requires...) {
			visible = append(visible, p)
		}
	}
	return visible
}

// ActivePanel returns requested when it is among visible, otherwise the
// empty key meaning the neutral welcome state.
func ActivePanel(visible []Panel, requested string) string {
	for _, p := range visible {
		if p.Key == requested {
			return p.Key
		}
	}
	return ""
}
