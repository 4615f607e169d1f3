package dap

import "testing"

func TestConstraintBuilder_Rendering(t *testing.T) {
	built := NewConstraintBuilder().
		ISel(IndexSelections{"temp": NewIndexRange(0, 10)}).
		ISel(IndexSelections{"pressure": NewIndexSingle(5)}).
		Build()
	want := "temp[0:10],pressure[5]"
	if built != want {
		t.Fatalf("Build() = %q, want %q", built, want)
	}
}

func TestConstraintBuilder_Stride(t *testing.T) {
	built := NewConstraintBuilder().ISel(IndexSelections{"t": NewIndexStride(0, 2, 20)}).Build()
	if want := "t[0:2:20]"; built != want {
		t.Fatalf("Build() = %q, want %q", built, want)
	}
}

func TestConstraintBuilder_Multiple(t *testing.T) {
	built := NewConstraintBuilder().ISel(IndexSelections{"p": NewIndexMultiple([]int{0, 5, 10})}).Build()
	if want := "p[0][5][10]"; built != want {
		t.Fatalf("Build() = %q, want %q", built, want)
	}
}

func TestConstraintBuilder_EmptyBuilder(t *testing.T) {
	b := NewConstraintBuilder()
	if got := b.Build(); got != "" {
		t.Fatalf("Build() on empty builder = %q, want empty", got)
	}
}

func TestConstraintBuilder_Immutable(t *testing.T) {
	base := NewConstraintBuilder()
	withRange := base.ISel(IndexSelections{"a": NewIndexRange(0, 1)})
	if base.Build() != "" {
		t.Fatalf("base mutated: Build() = %q", base.Build())
	}
	if withRange.Build() == "" {
		t.Fatal("withRange was not populated")
	}
}

func TestConstraintBuilder_MultipleDimensionsSameVariable(t *testing.T) {
	built := NewConstraintBuilder().
		ISel(IndexSelections{"grid": NewIndexSingle(0)}).
		ISel(IndexSelections{"grid": NewIndexRange(1, 3)}).
		Build()
	if want := "grid[0][1:3]"; built != want {
		t.Fatalf("Build() = %q, want %q", built, want)
	}
}
