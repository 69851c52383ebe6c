package il

import "testing"

func TestGetBits(t *testing.T) {
	cases := []struct {
		word        uint32
		first, last uint32
		want        uint32
	}{
		{0xFFFFFFFF, 0, 31, 0xFFFFFFFF},
		{0x0000000F, 0, 3, 0xF},
		{0x000000F0, 4, 7, 0xF},
		{0x80000000, 31, 31, 1},
		{0x00000000, 31, 31, 0},
		{0x12345678, 16, 23, 0x34},
	}
	for _, c := range cases {
		got := GetBits(c.word, c.first, c.last)
		if got != c.want {
			t.Errorf("GetBits(%#x, %d, %d) = %#x, want %#x", c.word, c.first, c.last, got, c.want)
		}
	}
}

func TestGetBit(t *testing.T) {
	if GetBit(0x00000002, 1) != 1 {
		t.Error("GetBit(0x2, 1) should be 1")
	}
	if GetBit(0x00000002, 0) != 0 {
		t.Error("GetBit(0x2, 0) should be 0")
	}
}

func TestGetBitsInvalidRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for first > last")
		}
	}()
	GetBits(0, 5, 2)
}
