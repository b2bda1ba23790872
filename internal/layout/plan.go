package layout

import "time"

// Align is the horizontal alignment of a text box.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Text is one line of text in a box whose top-left corner is (X, Y).
type Text struct {
	X, Y, W, H float64
	Text       string
	Size       float64
	Bold       bool
	Align      Align
}

// Rule is a straight line.
type Rule struct {
	X1, Y1, X2, Y2 float64
}

// Image places a named asset.
type Image struct {
	Asset      string
	X, Y, W, H float64
}

// Page is one physical page of a plan.
type Page struct {
	Number int
	Texts  []Text
	Rules  []Rule
	Images []Image
}

// Plan is the positioned content of one invoice, ready for rendering.
// Coordinates are millimetres from the top-left page corner.
type Plan struct {
	Width, Height float64
	Title         string
	Author        string
	Created       time.Time
	Pages         []Page
}

// Strings returns every text string of the plan in drawing order.
func (p *Plan) Strings() []string {
	var out []string
	for _, pg := range p.Pages {
		for _, t := range pg.Texts {
			out = append(out, t.Text)
		}
	}
	return out
}

// LogoAsset is the asset name of the optional logo.
const LogoAsset = "logo"
