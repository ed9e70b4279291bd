package paginate

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"rtflow/config"
	"rtflow/content"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	Source  string
	Title   string
	Format  string
	Surface string
	Link    string
	// Index is 1-based position of the link in the chain.
	Index int
}

func expandTemplate(src *content.Source, name config.TemplateFieldName, field string, surface config.SurfaceKind, link string, index int) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context: string(name),
		Source:  content.BaseName(src.Name),
		Title:   src.Title,
		Format:  src.Format.String(),
		Surface: surface.String(),
		Link:    link,
		Index:   index,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
