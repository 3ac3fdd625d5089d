package catalog

// Expansion is an entry of the upstream expansion table.
type Expansion struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Series  string `json:"series"`
	Invalid bool   `json:"invalid,omitempty"`
}

// IsValid reports whether items of the expansion can be resolved to assets.
func (e Expansion) IsValid() bool {
	return e.Code != "" && !e.Invalid
}
