package render

import "strings"

var boxKinds = []string{"info", "success", "warning", "error"}

// ClassifyStyle maps a raw style string to a semantic box class. Theme
// variable pairs produce a themed class and drop the raw style; any other
// background declaration produces the custom box class and keeps the raw
// style so the literal color still applies.
func ClassifyStyle(style string, inline bool) (class string, keepStyle bool) {
	prefix := ""
	if inline {
		prefix = "inline-"
	}
	for _, kind := range boxKinds {
		if strings.Contains(style, "var(--b3-card-"+kind+"-background)") &&
			strings.Contains(style, "var(--b3-card-"+kind+"-color)") {
			return prefix + kind + "-box", false
		}
	}
	if hasBackground(style) {
		return prefix + "custom-box", true
	}
	return "", false
}

func hasBackground(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		name, _, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "background", "background-color":
			return true
		}
	}
	return false
}

// styleAttrs returns the class and style attributes for a styled element.
func styleAttrs(style string, inline bool) string {
	if style == "" {
		return ""
	}
	class, keep := ClassifyStyle(style, inline)
	if class == "" {
		return ` style="` + Escape(style) + `"`
	}
	out := ` class="` + class + `"`
	if keep {
		out += ` style="` + Escape(style) + `"`
	}
	return out
}

func idAttr(id string) string {
	if id == "" {
		return ""
	}
	return ` id="` + Escape(id) + `"`
}
