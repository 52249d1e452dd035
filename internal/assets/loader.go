package assets

// AssetLoader defines the contract for loading stylesheets and page templates.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplateSet loads every page template of a set.
	// Returns ErrTemplateSetNotFound if no template of the set exists.
	LoadTemplateSet(name string) (*TemplateSet, error)
}
