package dap

import "testing"

func TestURLBuilder_Emission(t *testing.T) {
	b := NewURLBuilder("https://x.example/data.nc")
	if got, want := b.DasURL(), "https://x.example/data.das"; got != want {
		t.Errorf("DasURL() = %q, want %q", got, want)
	}
	if got, want := b.DdsURL(), "https://x.example/data.dds"; got != want {
		t.Errorf("DdsURL() = %q, want %q", got, want)
	}
	if got, want := b.DodsURL(""), "https://x.example/data.dods"; got != want {
		t.Errorf("DodsURL(\"\") = %q, want %q", got, want)
	}
	if got, want := b.DodsURL("temp[0:10]"), "https://x.example/data.dods?temp[0:10]"; got != want {
		t.Errorf("DodsURL(constraint) = %q, want %q", got, want)
	}
}

func TestURLBuilder_StripsTrailingSlash(t *testing.T) {
	b := NewURLBuilder("https://x.example/data/")
	if got, want := b.DdsURL(), "https://x.example/data.dds"; got != want {
		t.Errorf("DdsURL() = %q, want %q", got, want)
	}
}

func TestURLBuilder_WithConstraintBuilder(t *testing.T) {
	b := NewURLBuilder("https://x.example/data.nc")
	cb := NewConstraintBuilder().ISel(IndexSelections{"temp": NewIndexRange(0, 10)})
	got := b.DodsURLWithConstraints(cb)
	want := "https://x.example/data.dods?temp[0:10]"
	if got != want {
		t.Fatalf("DodsURLWithConstraints() = %q, want %q", got, want)
	}
}
