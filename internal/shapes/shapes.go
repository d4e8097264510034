// Package shapes maps model class indices to shape labels and their
// geometric formula sets.
package shapes

// Class identifies one recognized shape category. The numeric values follow
// the model's training label order; FromIndex is the only way class indices
// from the score vector enter this package.
type Class int

const (
	Circle Class = iota
	Cone
	Cube
	Cylinder
	Hexagon
	Pentagon
	Rectangle
	Sphere
	Square
	Triangle
)

// NumClasses is the fixed number of shape categories the model scores.
const NumClasses = 10

var labels = [NumClasses]string{
	"circle",
	"cone",
	"cube",
	"cylinder",
	"hexagon",
	"pentagon",
	"rectangle",
	"sphere",
	"square",
	"triangle",
}

// Area/perimeter for 2-D shapes, volume/surface area for 3-D shapes.
var formulas = map[string]map[string]string{
	"circle": {
		"area":      "π × r²",
		"perimeter": "2 × π × r",
	},
	"cone": {
		"volume":       "⅓ × π × r² × h",
		"surface_area": "π × r × (r + √(r² + h²))",
	},
	"cube": {
		"volume":       "a³",
		"surface_area": "6 × a²",
	},
	"cylinder": {
		"volume":       "π × r² × h",
		"surface_area": "2 × π × r × (r + h)",
	},
	"hexagon": {
		"area":      "(3√3 / 2) × a²",
		"perimeter": "6 × a",
	},
	"pentagon": {
		"area":      "¼ × √(5(5 + 2√5)) × a²",
		"perimeter": "5 × a",
	},
	"rectangle": {
		"area":      "l × w",
		"perimeter": "2 × (l + w)",
	},
	"sphere": {
		"volume":       "4⁄3 × π × r³",
		"surface_area": "4 × π × r²",
	},
	"square": {
		"area":      "a²",
		"perimeter": "4 × a",
	},
	"triangle": {
		"area":      "½ × b × h",
		"perimeter": "a + b + c",
	},
}

// FromIndex converts a raw class index into a Class. ok is false for indices
// outside the fixed class count.
func FromIndex(i int) (Class, bool) {
	if i < 0 || i >= NumClasses {
		return 0, false
	}
	return Class(i), true
}

// Label returns the human-readable shape name.
func (c Class) Label() string {
	if c < 0 || int(c) >= NumClasses {
		return "unknown"
	}
	return labels[c]
}

// Formulas returns the formula set for a label. Unknown labels yield an
// empty set, never an error.
func Formulas(label string) map[string]string {
	set, ok := formulas[label]
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}

// Labels returns the full label table in training order.
func Labels() []string {
	out := make([]string, NumClasses)
	copy(out, labels[:])
	return out
}
