package resolver

// AllowList is the set of identities known to be claimed by several items
// whose images are visually equivalent.
type AllowList map[string]struct{}

// NewAllowList builds an allow-list from identities.
func NewAllowList(identities ...string) AllowList {
	list := make(AllowList, len(identities))
	for _, id := range identities {
		list[id] = struct{}{}
	}
	return list
}

// DefaultDuplicates returns the duplicates known in the PTCGO catalog.
func DefaultDuplicates() AllowList {
	return NewAllowList(
		// XY variants; likely a different foil mask
		"FFI/46",
		"FFI/63",
		"FFI/83",
		"AOR/54",
		"BKT/84",
		// A variants
		"UNB/76",
		"UNM/114",
	)
}

// Contains reports whether identity is allow-listed.
func (l AllowList) Contains(identity string) bool {
	_, ok := l[identity]
	return ok
}
