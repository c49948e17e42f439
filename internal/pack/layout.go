package pack

// Layout is the section arrangement chosen from the image aspect ratio.
type Layout string

const (
	LayoutWide     Layout = "wide"
	LayoutTall     Layout = "tall"
	LayoutStandard Layout = "standard"
)

// SelectLayout picks wide above 1.5, tall below 0.8, standard otherwise.
func SelectLayout(aspect float64) Layout {
	switch {
	case aspect > 1.5:
		return LayoutWide
	case aspect < 0.8:
		return LayoutTall
	default:
		return LayoutStandard
	}
}

// Sections returns the ordered section names rendered for the layout.
func (l Layout) Sections() []string {
	switch l {
	case LayoutTall:
		return []string{"hero", "features-list", "testimonials", "cta"}
	default:
		return []string{"hero", "features-grid", "cta"}
	}
}
