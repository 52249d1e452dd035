package assets

import (
	"errors"
	"html/template"
	"strings"
	"testing"
)

func TestLoadStyle(t *testing.T) {
	t.Parallel()

	css, err := LoadStyle(DefaultStyleName)
	if err != nil {
		t.Fatalf("LoadStyle(%q) error = %v", DefaultStyleName, err)
	}
	for _, want := range []string{`html[data-theme="dark"]`, ".card", ".post-header", ".theme-toggle", ".katex-error"} {
		if !strings.Contains(css, want) {
			t.Errorf("site style should contain %q", want)
		}
	}

	if _, err := LoadStyle("missing"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(missing) error = %v, want ErrStyleNotFound", err)
	}
}

func TestLoadTemplateSet_Default(t *testing.T) {
	t.Parallel()

	ts, err := LoadTemplateSet(DefaultTemplateSetName)
	if err != nil {
		t.Fatalf("LoadTemplateSet() error = %v", err)
	}
	if ts.Name != DefaultTemplateSetName {
		t.Errorf("Name = %q, want %q", ts.Name, DefaultTemplateSetName)
	}
	for _, name := range TemplateNames {
		if ts.Page(name) == "" {
			t.Errorf("template %q is empty", name)
		}
	}
}

// Every page template must parse together with the layout.
func TestLoadTemplateSet_DefaultParses(t *testing.T) {
	t.Parallel()

	ts, err := LoadTemplateSet(DefaultTemplateSetName)
	if err != nil {
		t.Fatalf("LoadTemplateSet() error = %v", err)
	}

	funcs := template.FuncMap{"join": strings.Join}
	base, err := template.New(LayoutTemplate).Funcs(funcs).Parse(ts.Page(LayoutTemplate))
	if err != nil {
		t.Fatalf("parsing layout: %v", err)
	}
	for _, page := range []string{IndexTemplate, PostTemplate, NotFoundTemplate} {
		clone, err := base.Clone()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := clone.Parse(ts.Page(page)); err != nil {
			t.Errorf("parsing %s: %v", page, err)
		}
		if clone.Lookup("content") == nil {
			t.Errorf("%s does not define a content template", page)
		}
	}
}

func TestLayoutTemplate_Markup(t *testing.T) {
	t.Parallel()

	ts, err := LoadTemplateSet(DefaultTemplateSetName)
	if err != nil {
		t.Fatal(err)
	}
	layout := ts.Page(LayoutTemplate)

	for _, want := range []string{
		`data-theme="{{.Theme}}"`,
		`aria-label="{{.ToggleLabel}}"`,
		`action="/theme/toggle"`,
		`class="logo-light"`,
		`class="logo-dark"`,
		`katex.min.css`,
		`mermaid.run`,
		`localStorage`,
	} {
		if !strings.Contains(layout, want) {
			t.Errorf("layout should contain %q", want)
		}
	}
}
