// Package resolver maps catalog items to the canonical identity of their
// source image and to the URL the image is downloaded from.
package resolver

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/PTCGO-Assets/internal/catalog"
)

const (
	// DefaultBaseURL is the CDN directory holding the en_US card renders.
	DefaultBaseURL = "https://cdn.malie.io/file/malie-io/art/cards/png/en_US/"

	// Locale is the first discriminant of every source file name.
	Locale = "en_US"
)

// FileNamer returns the asset file name of a card, without extension.
type FileNamer func(item catalog.Item) string

// Resolution is the outcome of resolving a card.
type Resolution struct {
	// Identity is "{expansionCode}/{file}".
	Identity string
	// Slug is the source file name on the CDN, without extension.
	Slug string
	URL  string

	Item      catalog.Item
	Expansion catalog.Expansion
}

// Resolver resolves items of one catalog.
type Resolver struct {
	catalog    *catalog.Catalog
	ptcgoCodes map[string]string // expansion code -> PTCGO short code
	baseURL    string
	duplicates AllowList
	fileName   FileNamer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL overrides the CDN base URL. It must end with a slash.
func WithBaseURL(baseURL string) Option {
	return func(r *Resolver) { r.baseURL = baseURL }
}

// WithDuplicates replaces the allow-list of visually equivalent duplicates.
func WithDuplicates(list AllowList) Option {
	return func(r *Resolver) { r.duplicates = list }
}

// WithFileNamer replaces the function naming asset files.
func WithFileNamer(fn FileNamer) Option {
	return func(r *Resolver) { r.fileName = fn }
}

// New creates a resolver for cat. It fails if the catalog's PTCGO set map
// cannot be inverted.
func New(cat *catalog.Catalog, opts ...Option) (*Resolver, error) {
	codes, err := catalog.Invert(cat.SetCodes())
	if err != nil {
		return nil, fmt.Errorf("invert PTCGO set map: %w", err)
	}

	r := &Resolver{
		catalog:    cat,
		ptcgoCodes: codes,
		baseURL:    DefaultBaseURL,
		duplicates: DefaultDuplicates(),
		fileName:   ItemFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the identity and source URL of item. Items without an
// image of their own yield a *SkipError.
func (r *Resolver) Resolve(item catalog.Item) (*Resolution, error) {
	if !item.Type.IsCard() {
		return nil, &SkipError{Item: item, Reason: SkipNotCard}
	}
	// League alternates always come with a League variant.
	if item.Type == catalog.ItemTypeLeagueAlternate {
		return nil, &SkipError{Item: item, Reason: SkipLeagueAlternate}
	}

	exp, ok := r.catalog.Expansion(item.Expansion)
	if !ok || !exp.IsValid() {
		return nil, &SkipError{Item: item, Reason: SkipInvalidExpansion}
	}

	ptcgoCode := r.PTCGOCode(exp.Code)
	slug := SourceSlug(item, ptcgoCode)
	return &Resolution{
		Identity:  exp.Code + "/" + r.fileName(item),
		Slug:      slug,
		URL:       r.expansionURL(exp, ptcgoCode) + slug + ".png",
		Item:      item,
		Expansion: exp,
	}, nil
}

// PTCGOCode returns the PTCGO short code of an expansion. Expansions missing
// from the set map use their own code, which PTCGO shares for most sets.
func (r *Resolver) PTCGOCode(expansionCode string) string {
	if code, ok := r.ptcgoCodes[expansionCode]; ok {
		return code
	}
	return expansionCode
}

// IsDuplicate reports whether identity is a known visually equivalent
// duplicate, for which the first resolved URL is kept.
func (r *Resolver) IsDuplicate(identity string) bool {
	return r.duplicates.Contains(identity)
}

// expansionURL returns the CDN directory of an expansion.
func (r *Resolver) expansionURL(exp catalog.Expansion, ptcgoCode string) string {
	// RSP is classified as its own series and breaks the set code rule.
	if exp.Code == "RSP" {
		return r.baseURL + "RSP/RSP/"
	}
	return fmt.Sprintf("%s%s/%s-%s/", r.baseURL, exp.Series, ptcgoCode, strings.ReplaceAll(exp.Code, "-", "_"))
}

// SourceSlug returns the CDN file name of a card, without extension.
func SourceSlug(item catalog.Item, ptcgoCode string) string {
	parts := []string{
		Locale,
		ptcgoCode,
		NormalizeNumber(item.CollectionNumber()),
		SlugifyName(item.Name),
	}
	if suffix := sourceSuffix(item); suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "-")
}

// ItemFile is the default asset file name of a card: its collection number,
// plus the tag of any variant that renders a different image.
func ItemFile(item catalog.Item) string {
	name := strings.ReplaceAll(item.CollectionNumber(), " ", "_")
	if suffix := fileSuffix(item); suffix != "" {
		name += "_" + suffix
	}
	return name
}
