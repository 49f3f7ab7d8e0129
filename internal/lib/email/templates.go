package email

import "embed"

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateMenuChanged corresponds to templates/menu_changed.html
	TemplateMenuChanged Template = "menu_changed"
)

// templates are embedded so the worker does not depend on its working directory.
//
//go:embed templates/*.html
var templates embed.FS
