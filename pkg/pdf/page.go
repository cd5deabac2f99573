package pdf

// Page is a fixed-size page description: an ordered list of draw commands
// placed at absolute coordinates (points, top-left origin). Commands are
// values; once drawn they cannot be changed through the page.
type Page struct {
	width    float64
	height   float64
	commands []Command
}

// Command is a single drawing primitive.
type Command interface {
	command()
}

// Color represents an RGB color
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Font selects a font face. An empty Family uses the generator default.
type Font struct {
	Family string  `json:"family"` // FontUnicode, or core Arial, Times, Courier
	Style  string  `json:"style"`  // "", "B", "I", "BI"
	Size   float64 `json:"size"`
}

// Align is a horizontal alignment for text commands
type Align string

const (
	AlignLeft    Align = "L"
	AlignCenter  Align = "C"
	AlignRight   Align = "R"
	AlignJustify Align = "J"
)

// Rect draws a rectangle. A nil Fill or Stroke skips that part.
type Rect struct {
	X, Y, W, H float64
	Fill       *Color
	Stroke     *Color
	LineWidth  float64
}

// Line draws a straight rule between two points.
type Line struct {
	X1, Y1, X2, Y2 float64
	Color          Color
	Width          float64
}

// Text draws a single-line text run inside the box (X, Y, W, H), vertically
// centered.
type Text struct {
	X, Y, W, H float64
	Value      string
	Font       Font
	Color      Color
	Align      Align
}

// Paragraph draws wrapped text inside a column of width W starting at (X, Y).
type Paragraph struct {
	X, Y, W    float64
	LineHeight float64
	Value      string
	Font       Font
	Color      Color
	Align      Align
}

// Image places an encoded raster image (PNG or JPG) in the box (X, Y, W, H).
type Image struct {
	Name       string
	Format     string
	Data       []byte
	X, Y, W, H float64
}

func (Rect) command()      {}
func (Line) command()      {}
func (Text) command()      {}
func (Paragraph) command() {}
func (Image) command()     {}

// NewPage creates an empty page of the given size in points
func NewPage(width, height float64) *Page {
	return &Page{
		width:  width,
		height: height,
	}
}

// Size returns the page width and height
func (p *Page) Size() (float64, float64) {
	return p.width, p.height
}

// Draw appends commands to the page in z-order
func (p *Page) Draw(cmds ...Command) *Page {
	for _, cmd := range cmds {
		if img, ok := cmd.(Image); ok {
			img.Data = append([]byte(nil), img.Data...)
			cmd = img
		}
		p.commands = append(p.commands, cmd)
	}
	return p
}

// Commands returns a copy of the command list
func (p *Page) Commands() []Command {
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Texts returns the text runs in drawing order. Useful for assertions.
func (p *Page) Texts() []Text {
	var texts []Text
	for _, cmd := range p.commands {
		if t, ok := cmd.(Text); ok {
			texts = append(texts, t)
		}
	}
	return texts
}

// FindText returns the first text run with the given value
func (p *Page) FindText(value string) (Text, bool) {
	for _, t := range p.Texts() {
		if t.Value == value {
			return t, true
		}
	}
	return Text{}, false
}
