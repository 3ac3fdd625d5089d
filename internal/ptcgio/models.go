package ptcgio

// Set is an expansion as listed by the sets API.
type Set struct {
	Code          string `json:"code"`
	PtcgoCode     string `json:"ptcgoCode"`
	Name          string `json:"name"`
	Series        string `json:"series"`
	TotalCards    int    `json:"totalCards"`
	StandardLegal bool   `json:"standardLegal"`
	ExpandedLegal bool   `json:"expandedLegal"`
	ReleaseDate   string `json:"releaseDate"`
	SymbolURL     string `json:"symbolUrl"`
	LogoURL       string `json:"logoUrl"`
	UpdatedAt     string `json:"updatedAt"`
}

// SetList is the response of GET /sets.
type SetList struct {
	Sets []Set `json:"sets"`
}

// ByPtcgoCode indexes the sets by their PTCGO code. Sets without a code
// are left out; when two sets share a code the first one wins.
func (l *SetList) ByPtcgoCode() map[string]Set {
	index := make(map[string]Set, len(l.Sets))
	for _, set := range l.Sets {
		if set.PtcgoCode == "" {
			continue
		}
		if _, ok := index[set.PtcgoCode]; !ok {
			index[set.PtcgoCode] = set
		}
	}
	return index
}
