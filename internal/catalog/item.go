package catalog

import "strconv"

// ItemType tags what kind of product an item is and which printing of a card
// it represents.
type ItemType string

const (
	ItemTypeCard            ItemType = "card"
	ItemTypeLeague          ItemType = "league"
	ItemTypeLeagueAlternate ItemType = "league_alternate"
	ItemTypeLanguageDE      ItemType = "language_de"
	ItemTypeLanguageEN      ItemType = "language_en"
	ItemTypeLanguageES      ItemType = "language_es"
	ItemTypeLanguageFR      ItemType = "language_fr"
	ItemTypeLanguageIT      ItemType = "language_it"
	ItemTypeLanguagePTBR    ItemType = "language_pt_br"

	// Non-card products
	ItemTypeDeckBox ItemType = "deck_box"
	ItemTypeSleeve  ItemType = "sleeve"
	ItemTypeCoin    ItemType = "coin"
	ItemTypeAvatar  ItemType = "avatar"
	ItemTypePack    ItemType = "pack"
)

// languages maps language variant item types to their two letter tag.
var languages = map[ItemType]string{
	ItemTypeLanguageDE:   "de",
	ItemTypeLanguageEN:   "en",
	ItemTypeLanguageES:   "es",
	ItemTypeLanguageFR:   "fr",
	ItemTypeLanguageIT:   "it",
	ItemTypeLanguagePTBR: "pt",
}

// IsCard reports whether the item type is a printing of a game card.
func (t ItemType) IsCard() bool {
	switch t {
	case ItemTypeCard, ItemTypeLeague, ItemTypeLeagueAlternate:
		return true
	}
	_, ok := languages[t]
	return ok
}

// Language returns the language tag of a language variant ("de", "pt", ...).
func (t ItemType) Language() (string, bool) {
	lang, ok := languages[t]
	return lang, ok
}

// ArtFlags is the bit set of special art treatments printed on a card.
type ArtFlags uint32

const (
	OPArt ArtFlags = 1 << iota
	XYArt
	YellowAArt
	AltArt
	SilverArt
	GoldArt
)

// Has reports whether every bit of f is set.
func (a ArtFlags) Has(f ArtFlags) bool {
	return f != 0 && a&f == f
}

// Item is a single entry of the upstream item table.
type Item struct {
	ID        int      `json:"-"`
	Type      ItemType `json:"type"`
	Flags     ArtFlags `json:"flags,omitempty"`
	ColNo     string   `json:"colNo,omitempty"` // Collection number as printed, e.g. "RC25", "S15 01", "FOUR"
	No        int      `json:"no,omitempty"`    // Numeric collection number, used when ColNo is empty
	Name      string   `json:"name"`
	Expansion string   `json:"expansion"` // Expansion code
}

// CollectionNumber returns the printed collection number of the item.
func (i Item) CollectionNumber() string {
	if i.ColNo != "" {
		return i.ColNo
	}
	return strconv.Itoa(i.No)
}
