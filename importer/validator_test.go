package importer

import "testing"

func TestValidate_CleanBatch(t *testing.T) {
	rows := Parse("title,category,price,condition\n2022 Volvo VNL 760 Sleeper,trailers,150000,Used\n")
	if errs := Validate(rows); len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}

func TestValidate_MissingFieldsReportDisplayRow(t *testing.T) {
	raw := "title,category,price,condition\n" +
		",trailers,100,used\n" + // row 2: missing title
		"ok,,100,used\n" + // row 3: missing category
		"ok,trailers,,used\n" + // row 4: missing price
		"ok,trailers,100,\n" // row 5: missing condition
	rows := Parse(raw)
	errs := Validate(rows)
	if len(errs) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(errs), errs)
	}

	wantRows := map[string]int{"title": 2, "category": 3, "price": 4, "condition": 5}
	for _, e := range errs {
		if want := wantRows[e.Field]; e.Row != want {
			t.Fatalf("violation for %s reported row %d, want %d", e.Field, e.Row, want)
		}
	}
}

func TestValidate_BadPriceAndCondition(t *testing.T) {
	rows := Parse("title,category,price,condition\nok,trailers,cheap,mint\n")
	errs := Validate(rows)
	if len(errs) != 2 {
		t.Fatalf("expected 2 violations, got %v", errs)
	}
}

func TestValidate_ConditionCaseInsensitive(t *testing.T) {
	rows := Parse("title,category,price,condition\nok,trailers,100,CERTIFIED\n")
	if errs := Validate(rows); len(errs) != 0 {
		t.Fatalf("expected condition to validate case-insensitively, got %v", errs)
	}
}

func TestValidate_NoShortCircuit(t *testing.T) {
	raw := "title,category,price,condition\n" +
		",,,\n" +
		",,,\n"
	rows := Parse(raw)
	errs := Validate(rows)
	// Four violations per fully empty row, across both rows.
	if len(errs) != 8 {
		t.Fatalf("expected 8 violations, got %d", len(errs))
	}
}

func TestBuildRow_Normalization(t *testing.T) {
	fields := map[string]string{
		"title":     "2022 Volvo VNL 760 Sleeper",
		"category":  "trailers",
		"price":     "$150,000",
		"condition": "Used",
		"lot":       "A-7", // unrecognized column
	}
	row := BuildRow(fields)

	if row.Year == nil || *row.Year != 2022 {
		t.Fatalf("expected year 2022, got %v", row.Year)
	}
	if row.Make != "Volvo" {
		t.Fatalf("expected make Volvo, got %q", row.Make)
	}
	if row.Price == nil || *row.Price != 150000 {
		t.Fatalf("expected price 150000, got %v", row.Price)
	}
	if row.Condition != "used" {
		t.Fatalf("expected condition used, got %q", row.Condition)
	}
	if row.Extras["lot"] != "A-7" {
		t.Fatalf("unrecognized column not preserved: %v", row.Extras)
	}
}

func TestBuildRow_ExplicitColumnsWin(t *testing.T) {
	fields := map[string]string{
		"title":     "2022 Volvo VNL 760",
		"category":  "semi-trucks",
		"price":     "100",
		"condition": "new",
		"year":      "2021",
		"make":      "Kenworth",
		"mileage":   "250,000",
	}
	row := BuildRow(fields)
	if row.Year == nil || *row.Year != 2021 {
		t.Fatalf("explicit year column must win, got %v", row.Year)
	}
	if row.Make != "Kenworth" {
		t.Fatalf("explicit make column must win, got %q", row.Make)
	}
	if row.Mileage == nil || *row.Mileage != 250000 {
		t.Fatalf("expected mileage 250000, got %v", row.Mileage)
	}
}

func TestBuildRow_ImplausibleYearColumn(t *testing.T) {
	fields := map[string]string{
		"title":     "2022 Volvo VNL 760",
		"category":  "semi-trucks",
		"price":     "100",
		"condition": "used",
		"year":      "99",
	}
	row := BuildRow(fields)
	if row.Year == nil || *row.Year != 2022 {
		t.Fatalf("implausible year column must fall back to the title, got %v", row.Year)
	}

	fields["title"] = "Volvo VNL 760"
	row = BuildRow(fields)
	if row.Year != nil {
		t.Fatalf("no plausible year anywhere, got %v", row.Year)
	}
}
