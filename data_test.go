package dap

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecoder_BinaryArrayDecode(t *testing.T) {
	ds, err := ParseDDS(`Dataset { Float32 x[x=2]; } d;`)
	if err != nil {
		t.Fatalf("ParseDDS: %v", err)
	}
	raw := append([]byte("Dataset { Float32 x[x=2]; } d;Data:\n"),
		0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x02,
		0x41, 0x20, 0x00, 0x00, 0x41, 0xA0, 0x00, 0x00,
	)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	arr, err := dec.VariableData("x")
	if err != nil {
		t.Fatalf("VariableData: %v", err)
	}
	got, err := arr.AsFloat32s()
	if err != nil {
		t.Fatalf("AsFloat32s: %v", err)
	}
	want := []float32{10.0, 20.0}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("AsFloat32s() = %v, want %v", got, want)
	}
}

func TestDecoder_LengthMismatch(t *testing.T) {
	ds, err := ParseDDS(`Dataset { Float32 x[x=2]; } d;`)
	if err != nil {
		t.Fatalf("ParseDDS: %v", err)
	}
	raw := append([]byte("Dataset { Float32 x[x=2]; } d;Data:\n"),
		0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03,
		0x41, 0x20, 0x00, 0x00, 0x41, 0xA0, 0x00, 0x00,
	)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.VariableData("x"); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("VariableData() error = %v, want ErrInvalidData", err)
	}
}

func TestDecoder_MissingDataMarker(t *testing.T) {
	ds, _ := ParseDDS(`Dataset { Float32 x[x=2]; } d;`)
	if _, err := NewDecoder(ds, []byte("Dataset { Float32 x[x=2]; } d;")); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("NewDecoder() error = %v, want ErrInvalidData", err)
	}
}

func TestDecoder_TolerantSeparator(t *testing.T) {
	ds, _ := ParseDDS(`Dataset { Int32 x[x=1]; } d;`)
	raw := append([]byte("Dataset { Int32 x[x=1]; } d;Data:\r\n  "),
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x2A,
	)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	arr, err := dec.VariableData("x")
	if err != nil {
		t.Fatalf("VariableData: %v", err)
	}
	got, _ := arr.AsInt32s()
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("AsInt32s() = %v, want [42]", got)
	}
}

func TestDecoder_GridCoords(t *testing.T) {
	text := `Dataset {
		Grid {
		 ARRAY:
		    Int32 t[lat=1][lon=2];
		 MAPS:
		    Int32 lat[lat=1];
		    Int32 lon[lon=2];
		} t;
	} d;`
	ds, err := ParseDDS(text)
	if err != nil {
		t.Fatalf("ParseDDS: %v", err)
	}
	// main: header(8) + 2 elems * 4 = 16; lat: header(8)+1*4=12; lon: header(8)+2*4=16
	payload := []byte{
		0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 2, // main t = [1,2]
		0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 9, // lat = [9]
		0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, // lon = [3,4]
	}
	raw := append([]byte(text+"Data:\n"), payload...)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	coords, err := dec.VariableCoords("t")
	if err != nil {
		t.Fatalf("VariableCoords: %v", err)
	}
	if len(coords) != 2 || coords[0].Name != "lat" || coords[1].Name != "lon" {
		t.Fatalf("coords = %+v", coords)
	}
	lat, _ := coords[0].Data.AsInt32s()
	lon, _ := coords[1].Data.AsInt32s()
	if len(lat) != 1 || lat[0] != 9 {
		t.Fatalf("lat = %v, want [9]", lat)
	}
	if len(lon) != 2 || lon[0] != 3 || lon[1] != 4 {
		t.Fatalf("lon = %v, want [3 4]", lon)
	}
}

func TestDataIterator(t *testing.T) {
	ds, _ := ParseDDS(`Dataset { Int32 x[x=3]; } d;`)
	raw := append([]byte("Dataset { Int32 x[x=3]; } d;Data:\n"),
		0, 0, 0, 3, 0, 0, 0, 3,
		0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3,
	)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	it, err := dec.VariableDataIter("x")
	if err != nil {
		t.Fatalf("VariableDataIter: %v", err)
	}
	var got []int64
	for {
		v, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		i, _ := v.AsInt64()
		got = append(got, i)
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDecoder_SequenceNotImplemented(t *testing.T) {
	ds, _ := ParseDDS(`Dataset { Sequence { Int32 id; } events; } d;`)
	raw := append([]byte("Dataset { Sequence { Int32 id; } events; } d;Data:\n"), 0, 0, 0, 0)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.VariableData("events"); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("VariableData(events) error = %v, want ErrNotImplemented", err)
	}
	if _, err := dec.VariableDataIter("events"); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("VariableDataIter(events) error = %v, want ErrNotImplemented", err)
	}
}

func TestDecoder_StructureInvalidTypecast(t *testing.T) {
	ds, _ := ParseDDS(`Dataset { Structure { Int32 a; } meta; } d;`)
	raw := append([]byte("Dataset { Structure { Int32 a; } meta; } d;Data:\n"), 0, 0, 0, 0)
	dec, err := NewDecoder(ds, raw)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.VariableData("meta"); !errors.Is(err, ErrInvalidTypecast) {
		t.Fatalf("VariableData(meta) error = %v, want ErrInvalidTypecast", err)
	}
	if _, err := dec.VariableDataIter("meta"); !errors.Is(err, ErrInvalidTypecast) {
		t.Fatalf("VariableDataIter(meta) error = %v, want ErrInvalidTypecast", err)
	}
}

func BenchmarkDecoder_VariableData(b *testing.B) {
	const n = 10000
	text := "Dataset { Float64 x[x=10000]; } d;"
	ds, err := ParseDDS(text)
	if err != nil {
		b.Fatalf("ParseDDS: %v", err)
	}
	payload := make([]byte, 8+n*8)
	binary.BigEndian.PutUint32(payload[0:4], n)
	binary.BigEndian.PutUint32(payload[4:8], n)
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint64(payload[8+i*8:16+i*8], uint64(i))
	}
	raw := append([]byte(text+"Data:\n"), payload...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dec, err := NewDecoder(ds, raw)
		if err != nil {
			b.Fatalf("NewDecoder: %v", err)
		}
		if _, err := dec.VariableData("x"); err != nil {
			b.Fatalf("VariableData: %v", err)
		}
	}
}
