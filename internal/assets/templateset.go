package assets

import (
	"errors"
	"fmt"
	"io/fs"
)

// Page template names. Each file is {name}.html inside the set directory.
const (
	LayoutTemplate   = "layout"
	IndexTemplate    = "index"
	PostTemplate     = "post"
	NotFoundTemplate = "notfound"
)

// TemplateNames lists the templates every set must provide.
var TemplateNames = []string{LayoutTemplate, IndexTemplate, PostTemplate, NotFoundTemplate}

// TemplateSet holds the page templates of one site theme.
// The layout defines the page shell and calls a "content" template that
// each page template defines.
type TemplateSet struct {
	Name  string            // Identifier (name or directory path)
	Pages map[string]string // template source keyed by template name
}

// Page returns the source of the named template, "" when absent.
func (ts *TemplateSet) Page(name string) string {
	return ts.Pages[name]
}

// DefaultTemplateSetName is the name of the built-in template set.
const DefaultTemplateSetName = "default"

// DefaultStyleName is the name of the built-in CSS style.
const DefaultStyleName = "site"

// readTemplateSet reads every template of a set through read, which receives
// a template file name such as "post.html".
func readTemplateSet(name string, read func(file string) ([]byte, error)) (*TemplateSet, error) {
	ts := &TemplateSet{Name: name, Pages: make(map[string]string, len(TemplateNames))}

	var missing []string
	for _, page := range TemplateNames {
		content, err := read(page + ".html")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, page)
				continue
			}
			return nil, fmt.Errorf("%w: reading %s.html: %v", ErrAssetRead, page, err)
		}
		ts.Pages[page] = string(content)
	}

	switch {
	case len(missing) == len(TemplateNames):
		return nil, fmt.Errorf("%w: %q", ErrTemplateSetNotFound, name)
	case len(missing) > 0:
		return nil, fmt.Errorf("%w: %q missing %s.html", ErrIncompleteTemplateSet, name, missing[0])
	}
	return ts, nil
}
