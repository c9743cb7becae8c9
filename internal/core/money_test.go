package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0", 0, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{".5", 50, false},
		{"-1", 0, true},
		{"+1", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"", 0, true},
		{"  ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCentsFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		want    int64
		wantErr bool
	}{
		{"simple", 12.34, 1234, false},
		{"zero", 0, 0, false},
		{"half up", 0.005, 1, false},
		{"negative", -0.01, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CentsFromFloat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CentsFromFloat(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CentsFromFloat(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoney_Units(t *testing.T) {
	m := Money{Cents: 1250}
	if got := m.Units(); got != 12.50 {
		t.Errorf("Units() = %v, want 12.50", got)
	}
}
