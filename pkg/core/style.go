package core

import (
	"fmt"
	"sort"
)

// Style is the open property bag attached to every entity. Recognized keys
// are documented on the accessors; unrecognized keys are preserved verbatim
// through serialization for forward compatibility.
type Style map[string]any

// Default note style dimensions.
const (
	defaultNoteMinWidth  = 100.0
	defaultNoteMinHeight = 60.0
)

// Float returns the style value at key as a float64, or def when the key is
// absent or not numeric.
func (s Style) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// String returns the style value at key as a string, or def.
func (s Style) String(key, def string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the style value at key as a bool, or def.
func (s Style) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

// Clone returns a deep copy of the style.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	c := make(Style, len(s))
	for k, v := range s {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case Style:
		return val.Clone()
	case []any:
		l := make([]any, len(val))
		for i, inner := range val {
			l[i] = cloneValue(inner)
		}
		return l
	default:
		return v
	}
}

// DefaultNoteStyle returns the built-in style for new notes.
func DefaultNoteStyle() Style {
	return Style{
		"background_color": "#FFFFC8",
		"border_color":     "#C8C896",
		"text_color":       "#000000",
		"border_width":     2.0,
		"corner_radius":    8.0,
		"padding":          10.0,
		"font_family":      "Arial",
		"font_size":        12.0,
		"font_bold":        false,
		"font_italic":      false,
		"min_width":        defaultNoteMinWidth,
		"min_height":       defaultNoteMinHeight,
	}
}

// DefaultConnectionStyle returns the built-in style for new connections.
func DefaultConnectionStyle() Style {
	return Style{
		"line_color":   "#646464",
		"line_width":   2.0,
		"arrow_size":   12.0,
		"arrow_angle":  30.0,
		"show_arrow":   true,
		"curve_factor": 0.0,
	}
}

// DefaultGroupStyle returns the built-in style for new groups.
func DefaultGroupStyle() Style {
	return Style{
		"border_color": "#6496C8",
		"border_width": 1.0,
		"fill_color":   "#6496C814",
	}
}

// builtinTemplates returns the named styles shipped with the application.
func builtinTemplates() map[string]Style {
	return map[string]Style{
		"Default": DefaultNoteStyle(),
		"Sticky Note": {
			"background_color": "#FFFFC8",
			"border_color":     "#C8C896",
			"text_color":       "#000000",
			"border_width":     1.0,
			"corner_radius":    4.0,
			"padding":          8.0,
			"font_family":      "Arial",
			"font_size":        11.0,
			"font_bold":        false,
			"font_italic":      false,
			"min_width":        80.0,
			"min_height":       50.0,
		},
		"Important": {
			"background_color": "#FFC8C8",
			"border_color":     "#C86464",
			"text_color":       "#640000",
			"border_width":     3.0,
			"corner_radius":    8.0,
			"padding":          12.0,
			"font_family":      "Arial",
			"font_size":        14.0,
			"font_bold":        true,
			"font_italic":      false,
			"min_width":        120.0,
			"min_height":       70.0,
		},
		"Idea": {
			"background_color": "#C8DCFF",
			"border_color":     "#96B4DC",
			"text_color":       "#003264",
			"border_width":     2.0,
			"corner_radius":    12.0,
			"padding":          10.0,
			"font_family":      "Arial",
			"font_size":        12.0,
			"font_bold":        false,
			"font_italic":      true,
			"min_width":        100.0,
			"min_height":       60.0,
		},
		"Action Item": {
			"background_color": "#C8FFC8",
			"border_color":     "#96C896",
			"text_color":       "#006400",
			"border_width":     2.0,
			"corner_radius":    6.0,
			"padding":          10.0,
			"font_family":      "Arial",
			"font_size":        12.0,
			"font_bold":        true,
			"font_italic":      false,
			"min_width":        110.0,
			"min_height":       65.0,
		},
		"Question": {
			"background_color": "#FFDCC8",
			"border_color":     "#DCB496",
			"text_color":       "#643200",
			"border_width":     2.0,
			"corner_radius":    10.0,
			"padding":          10.0,
			"font_family":      "Arial",
			"font_size":        12.0,
			"font_bold":        false,
			"font_italic":      false,
			"min_width":        100.0,
			"min_height":       60.0,
		},
		"Title": {
			"background_color": "#F0F0F0",
			"border_color":     "#B4B4B4",
			"text_color":       "#323232",
			"border_width":     3.0,
			"corner_radius":    8.0,
			"padding":          15.0,
			"font_family":      "Arial",
			"font_size":        16.0,
			"font_bold":        true,
			"font_italic":      false,
			"min_width":        150.0,
			"min_height":       80.0,
		},
	}
}

// StyleLibrary manages the default note style and the named style templates.
// Built-in templates cannot be replaced or removed.
type StyleLibrary struct {
	defaultStyle Style
	templates    map[string]Style
	builtin      map[string]bool
}

// NewStyleLibrary returns a library seeded with the built-in templates.
func NewStyleLibrary() *StyleLibrary {
	templates := builtinTemplates()
	builtin := make(map[string]bool, len(templates))
	for name := range templates {
		builtin[name] = true
	}
	return &StyleLibrary{
		defaultStyle: DefaultNoteStyle(),
		templates:    templates,
		builtin:      builtin,
	}
}

// DefaultStyle returns a copy of the style applied to new notes.
func (l *StyleLibrary) DefaultStyle() Style {
	return l.defaultStyle.Clone()
}

// SetDefaultStyle replaces the style applied to new notes.
func (l *StyleLibrary) SetDefaultStyle(s Style) {
	l.defaultStyle = s.Clone()
}

// TemplateNames returns all template names in sorted order.
func (l *StyleLibrary) TemplateNames() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns a copy of the named template.
func (l *StyleLibrary) Template(name string) (Style, bool) {
	s, ok := l.templates[name]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// IsBuiltin reports whether name is a protected built-in template.
func (l *StyleLibrary) IsBuiltin(name string) bool {
	return l.builtin[name]
}

// AddTemplate registers a new user template.
func (l *StyleLibrary) AddTemplate(name string, s Style) error {
	if name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if _, exists := l.templates[name]; exists {
		return fmt.Errorf("template %q already exists", name)
	}
	l.templates[name] = s.Clone()
	return nil
}

// UpdateTemplate replaces an existing user template.
func (l *StyleLibrary) UpdateTemplate(name string, s Style) error {
	if l.builtin[name] {
		return fmt.Errorf("cannot modify built-in template %q", name)
	}
	if _, exists := l.templates[name]; !exists {
		return fmt.Errorf("template %q does not exist", name)
	}
	l.templates[name] = s.Clone()
	return nil
}

// RemoveTemplate deletes a user template.
func (l *StyleLibrary) RemoveTemplate(name string) error {
	if l.builtin[name] {
		return fmt.Errorf("cannot remove built-in template %q", name)
	}
	if _, exists := l.templates[name]; !exists {
		return fmt.Errorf("template %q does not exist", name)
	}
	delete(l.templates, name)
	return nil
}
