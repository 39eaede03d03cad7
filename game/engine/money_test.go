package engine

import "testing"

func TestMoneyClamping(t *testing.T) {
	tests := []struct {
		name string
		got  Money
		want Money
	}{
		{"negative clamps to zero", NewMoney(-5), 0},
		{"normal value passes", NewMoney(1234), 1234},
		{"overflow clamps to max", NewMoney(int64(MaxMoney) + 1), MaxMoney},
		{"sub below zero floors", NewMoney(100).Sub(250), 0},
		{"add past max clamps", MaxMoney.Add(1), MaxMoney},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %d, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	if got := NewMoney(1000).MulPercent(70); got != 700 {
		t.Errorf("MulPercent(70) = %d, want 700", got)
	}
	if got := NewMoney(1000).MulRatio(3, 2); got != 1500 {
		t.Errorf("MulRatio(3,2) = %d, want 1500", got)
	}
	if got := NewMoney(1000).MulRatio(1, 0); got != 1000 {
		t.Errorf("MulRatio with zero denominator should be identity, got %d", got)
	}
	if got := NewMoney(1000).MulFloat(0.1); got != 100 {
		t.Errorf("MulFloat(0.1) = %d, want 100", got)
	}
}

func TestMoneyString(t *testing.T) {
	if got := NewMoney(5_000_000).String(); got != "5000000G" {
		t.Errorf("String() = %q, want %q", got, "5000000G")
	}
}
