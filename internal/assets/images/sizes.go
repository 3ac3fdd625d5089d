package images

// Size is an output size class such as "xs". A nil Resize keeps the
// source dimensions.
type Size struct {
	Letter string
	Resize *Resize
}

// CardSizes are the card output sizes, smallest first. Card sources are
// 734x1024, so xl ships them unresized.
var CardSizes = []Size{
	{Letter: "xs", Resize: &Resize{Width: 84, Height: 116, Fit: FitInside}},
	{Letter: "s", Resize: &Resize{Width: 180, Height: 251, Fit: FitInside}},
	{Letter: "m", Resize: &Resize{Width: 299, Height: 417, Fit: FitInside}},
	{Letter: "l", Resize: &Resize{Width: 473, Height: 660, Fit: FitInside}},
	{Letter: "xl"},
}

// PackSizes are the product image sizes. Products are squares with
// transparent padding.
var PackSizes = []Size{
	{Letter: "xs", Resize: &Resize{Width: 84, Height: 84, Fit: FitInside}},
	{Letter: "s", Resize: &Resize{Width: 180, Height: 180, Fit: FitInside}},
	{Letter: "m", Resize: &Resize{Width: 299, Height: 299, Fit: FitInside}},
	{Letter: "l", Resize: &Resize{Width: 473, Height: 473, Fit: FitInside}},
}

var (
	LogoResize   = Resize{Width: 186, Height: 62, Fit: FitInside}
	SymbolResize = Resize{Width: 15, Height: 15, Fit: FitInside}
)

// CardFormats returns the formats produced for a card size. Resized cards
// get jpg and webp, full size cards only webp.
func CardFormats(size Size) []Format {
	if size.Resize == nil {
		return []Format{WebP}
	}
	return []Format{JPG, WebP}
}
