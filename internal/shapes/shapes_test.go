package shapes

import "testing"

func TestLabelTable(t *testing.T) {
	labels := Labels()
	if len(labels) != NumClasses {
		t.Fatalf("label table has %d entries, want %d", len(labels), NumClasses)
	}
	seen := map[string]bool{}
	for i, label := range labels {
		if label == "" {
			t.Fatalf("empty label at index %d", i)
		}
		if seen[label] {
			t.Fatalf("duplicate label %q", label)
		}
		seen[label] = true
	}
}

func TestFromIndex(t *testing.T) {
	if c, ok := FromIndex(4); !ok || c.Label() != "hexagon" {
		t.Fatalf("FromIndex(4) = %v, %v", c, ok)
	}
	for _, i := range []int{-1, NumClasses, 100} {
		if _, ok := FromIndex(i); ok {
			t.Fatalf("FromIndex(%d) accepted an out-of-range index", i)
		}
	}
}

func TestFormulaSets(t *testing.T) {
	planar := map[string]bool{
		"circle": true, "hexagon": true, "pentagon": true,
		"rectangle": true, "square": true, "triangle": true,
	}
	for _, label := range Labels() {
		set := Formulas(label)
		if len(set) != 2 {
			t.Fatalf("%s: formula set has %d entries, want 2", label, len(set))
		}
		if planar[label] {
			if set["area"] == "" || set["perimeter"] == "" {
				t.Fatalf("%s: expected area/perimeter, got %v", label, set)
			}
		} else {
			if set["volume"] == "" || set["surface_area"] == "" {
				t.Fatalf("%s: expected volume/surface_area, got %v", label, set)
			}
		}
	}
}

func TestFormulasUnknownLabel(t *testing.T) {
	set := Formulas("dodecahedron")
	if set == nil || len(set) != 0 {
		t.Fatalf("unknown label should yield an empty set, got %v", set)
	}
}

func TestFormulasCopies(t *testing.T) {
	a := Formulas("circle")
	a["area"] = "tampered"
	if b := Formulas("circle"); b["area"] == "tampered" {
		t.Fatal("Formulas returned a shared map")
	}
}
