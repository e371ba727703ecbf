package reference

import "testing"

func TestPackagingFactor(t *testing.T) {
	tables := Defaults()
	cases := []struct {
		material string
		want     Factor
		known    bool
	}{
		{"glass", Factor{1.2, 30, 15}, true},
		{" Aluminum ", Factor{11.0, 300, 170}, true},
		{"bamboo", DefaultPackaging, false},
	}
	for _, c := range cases {
		got, known := tables.PackagingFactor(c.material)
		if got != c.want || known != c.known {
			t.Errorf("PackagingFactor(%q) = %v,%v want %v,%v", c.material, got, known, c.want, c.known)
		}
	}
}

func TestTransportModeFallsBackToTruck(t *testing.T) {
	tables := Defaults()
	f, mode := tables.TransportMode("hovercraft")
	if mode != "truck" || f.CO2PerTonKm != 0.096 {
		t.Errorf("unknown mode resolved to %q %v", mode, f)
	}
	f, mode = tables.TransportMode("AIR")
	if mode != "air" || f.CO2PerTonKm != 1.130 {
		t.Errorf("air resolved to %q %v", mode, f)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	tables := Defaults()
	if d := tables.Distance("asia", "europe"); d != 8000 {
		t.Errorf("asia->europe = %v", d)
	}
	if d := tables.Distance("Europe", "Asia"); d != 8000 {
		t.Errorf("europe->asia = %v", d)
	}
	if d := tables.Distance("africa", "oceania"); d != DefaultDistanceKm {
		t.Errorf("unknown pair = %v", d)
	}
}

func TestOriginMultiplier(t *testing.T) {
	tables := Defaults()
	cases := map[string]float64{
		"":                 1.0,
		"France":           1.0,
		"Made in CHINA":    1.30,
		"new zealand lamb": 1.30,
		"USA":              1.15,
		"Morocco":          1.15,
	}
	for origin, want := range cases {
		if got := tables.OriginMultiplier(origin); got != want {
			t.Errorf("OriginMultiplier(%q) = %v, want %v", origin, got, want)
		}
	}
}

func TestDefaultsMinerals(t *testing.T) {
	tables := Defaults()
	for _, m := range minerals {
		if tables.CO2[m] != 0.001 || tables.Water[m] != 1 || tables.Energy[m] != 0.1 {
			t.Errorf("mineral %s has unexpected factors", m)
		}
	}
}

func TestDefaultsAreIndependentCopies(t *testing.T) {
	a := Defaults()
	a.CO2["wheat"] = 99
	if b := Defaults(); b.CO2["wheat"] != 0.8 {
		t.Fatalf("Defaults shares state between calls")
	}
}
