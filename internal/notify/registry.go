package notify

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
)

var ErrUnknownTemplate = errors.New("unknown email template")

// Registry holds the parsed email templates. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	appName   string
	templates map[string]*template.Template
}

func NewRegistry(appName string) (*Registry, error) {
	r := &Registry{appName: appName, templates: make(map[string]*template.Template, len(templateSources))}
	for name, src := range templateSources {
		t, err := template.New(name).Option("missingkey=zero").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

func (r *Registry) Render(name string, data map[string]any) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	vars := make(map[string]any, len(data)+1)
	for k, v := range data {
		vars[k] = v
	}
	vars["AppName"] = r.appName

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
