package entity

// Product is one catalog item articles are written about.
type Product struct {
	// Name is the product display name.
	Name string

	// Description is the marketing copy used as prompt grounding.
	Description string

	// Keywords are optional seed keywords for topic research.
	Keywords []string
}

// Validate checks that the product carries enough material to write about.
func (p *Product) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if p.Description == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	return nil
}
