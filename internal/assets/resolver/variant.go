package resolver

import "github.com/ramonehamilton/PTCGO-Assets/internal/catalog"

// Treatment is a special art treatment a card can be printed with.
type Treatment struct {
	Name string
	Flag catalog.ArtFlags

	// SourceTag is appended to the CDN file name.
	SourceTag string

	// FileTag is appended to the asset file name. Foil-mask treatments
	// render the same image as the regular print and leave it empty.
	FileTag string
}

// Treatments in priority order. An item carries at most one in practice; the
// first match wins.
var Treatments = []Treatment{
	{Name: "op", Flag: catalog.OPArt, SourceTag: "op", FileTag: "op"},
	{Name: "xy", Flag: catalog.XYArt, SourceTag: "xy"},
	{Name: "yellow_a", Flag: catalog.YellowAArt, SourceTag: "ya", FileTag: "ya"},
	{Name: "alt", Flag: catalog.AltArt, SourceTag: "a"},
	{Name: "silver", Flag: catalog.SilverArt, SourceTag: "_silver", FileTag: "silver"},
	{Name: "gold", Flag: catalog.GoldArt, SourceTag: "_gold", FileTag: "gold"},
}

// TreatmentOf returns the art treatment of the item, if any.
func TreatmentOf(item catalog.Item) (Treatment, bool) {
	for _, t := range Treatments {
		if item.Flags.Has(t.Flag) {
			return t, true
		}
	}
	return Treatment{}, false
}

// sourceSuffix returns the variant discriminant of the CDN file name: the art
// treatment tag, or the language of a language variant.
func sourceSuffix(item catalog.Item) string {
	if t, ok := TreatmentOf(item); ok {
		return t.SourceTag
	}
	if lang, ok := item.Type.Language(); ok {
		return lang
	}
	return ""
}

// fileSuffix is the variant discriminant of the asset file name.
func fileSuffix(item catalog.Item) string {
	if t, ok := TreatmentOf(item); ok {
		return t.FileTag
	}
	if lang, ok := item.Type.Language(); ok {
		return lang
	}
	return ""
}
