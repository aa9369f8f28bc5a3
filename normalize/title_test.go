package normalize

import "testing"

func TestYear_LeadingToken(t *testing.T) {
	year := Year("2022 Volvo VNL 760 Sleeper")
	if year == nil || *year != 2022 {
		t.Fatalf("expected year 2022, got %v", year)
	}
}

func TestYear_Absent(t *testing.T) {
	if y := Year("Volvo VNL 760 Sleeper"); y != nil {
		t.Fatalf("expected nil year, got %d", *y)
	}
}

func TestYear_ImplausibleRange(t *testing.T) {
	if y := Year("1234 Custom Build"); y != nil {
		t.Fatalf("expected nil for implausible year, got %d", *y)
	}
	if y := Year("9999 Widget"); y != nil {
		t.Fatalf("expected nil for future year, got %d", *y)
	}
}

func TestYear_NotLeading(t *testing.T) {
	if y := Year("Used Volvo 2019 VNL"); y != nil {
		t.Fatalf("expected nil when year is not leading, got %d", *y)
	}
}

func TestMake_CaseInsensitive(t *testing.T) {
	if m := Make("2022 VOLVO VNL 760 Sleeper"); m != "Volvo" {
		t.Fatalf("expected Volvo, got %q", m)
	}
}

func TestMake_LongestWins(t *testing.T) {
	// "Western Star" contains no shorter make, but "Hyundai Translead"
	// must not be shortened to "Hyundai".
	if m := Make("2020 Hyundai Translead Dry Van"); m != "Hyundai Translead" {
		t.Fatalf("expected Hyundai Translead, got %q", m)
	}
	if m := Make("2019 western star 4900"); m != "Western Star" {
		t.Fatalf("expected Western Star, got %q", m)
	}
}

func TestMake_Absent(t *testing.T) {
	if m := Make("2015 Homemade Tilt Trailer"); m != "" {
		t.Fatalf("expected empty make, got %q", m)
	}
}

func TestMakeModel(t *testing.T) {
	make, model := MakeModel("2022 Volvo VNL 760 Sleeper")
	if make != "Volvo" {
		t.Fatalf("expected Volvo, got %q", make)
	}
	if model != "VNL 760 Sleeper" {
		t.Fatalf("expected model 'VNL 760 Sleeper', got %q", model)
	}
}

func TestMakeModel_NoMake(t *testing.T) {
	make, model := MakeModel("48ft Flatbed")
	if make != "" || model != "" {
		t.Fatalf("expected empty make/model, got %q/%q", make, model)
	}
}

func TestCondition(t *testing.T) {
	cases := map[string]string{
		"Used":         "used",
		"NEW":          "new",
		" certified ":  "certified",
		"Salvage":      "salvage",
		"mint":         "",
		"":             "",
	}
	for in, want := range cases {
		if got := Condition(in); got != want {
			t.Fatalf("Condition(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrice(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantNil bool
	}{
		{"$150,000", 150000, false},
		{"150000", 150000, false},
		{"$24,500.50", 24500.50, false},
		{"$89,900 USD", 89900, false},
		{"Call for price", 0, true},
		{"", 0, true},
		{"0", 0, true},
		{"-500", 0, true},
	}
	for _, c := range cases {
		got := Price(c.in)
		if c.wantNil {
			if got != nil {
				t.Fatalf("Price(%q) = %v, want nil", c.in, *got)
			}
			continue
		}
		if got == nil || *got != c.want {
			t.Fatalf("Price(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("2019 FREIGHTLINER CASCADIA 126 SLEEPER"); got != "2019 Freightliner Cascadia 126 Sleeper" {
		t.Fatalf("unexpected recase: %q", got)
	}
}
