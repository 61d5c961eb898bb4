package domain

import "testing"

func TestEmissionsForActivity(t *testing.T) {
	activity := ActivityType{
		Name:            "commute",
		EmissionsFactor: 2.0,
		Rate:            100,
		ReductionPct:    10,
	}

	got := EmissionsForActivity(activity)
	if got != 180 {
		t.Fatalf("expected 180 got %d", got)
	}
}

func TestEmissionsForActivityFullReduction(t *testing.T) {
	activity := ActivityType{
		Name:            "commute",
		EmissionsFactor: 2.0,
		Rate:            100,
		ReductionPct:    100,
	}

	if got := EmissionsForActivity(activity); got != 0 {
		t.Fatalf("expected 0 got %d", got)
	}
}

func TestEmissionsForActivityClampsOverReduction(t *testing.T) {
	activity := ActivityType{
		Name:            "commute",
		EmissionsFactor: 1.5,
		Rate:            40,
		ReductionPct:    150,
	}

	if got := EmissionsForActivity(activity); got != 0 {
		t.Fatalf("expected clamp to 0 got %d", got)
	}
}

func TestEmissionsForQuantityRounds(t *testing.T) {
	cases := []struct {
		name     string
		quantity uint64
		factor   float64
		want     uint64
	}{
		{"whole", 10, 2.5, 25},
		{"rounds up", 3, 0.5, 2},
		{"rounds down", 3, 0.4, 1},
		{"zero quantity", 0, 9.9, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EmissionsForQuantity(tc.quantity, tc.factor); got != tc.want {
				t.Fatalf("expected %d got %d", tc.want, got)
			}
		})
	}
}
