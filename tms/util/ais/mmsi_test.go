package ais

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMMSI(t *testing.T) {
	want := "000000123"
	got := FormatMMSI(123)
	if want != got {
		t.Fatalf("want %v ; got %v", want, got)
	}
}

func TestParseMMSI(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint32
		wantErr bool
	}{
		{"plain", "123456789", 123456789, false},
		{"padded", "002320001", 2320001, false},
		{"spaces", " 366999999 ", 366999999, false},
		{"letters", "12AB", 0, true},
		{"negative", "-1", 0, true},
		{"too large", "1073741824", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMMSI(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeMMSI(t *testing.T) {
	assert.Equal(t, "002320001", NormalizeMMSI("2320001"))
	assert.Equal(t, "123456789", NormalizeMMSI("123456789"))
	assert.Equal(t, "NOT-A-NUMBER", NormalizeMMSI(" NOT-A-NUMBER "))
}
