package schema

import (
	"errors"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		header string
		want   Field
		ok     bool
	}{
		{"Departamento", FieldApartment, true},
		{"N° DEPA", FieldApartment, true},
		{"Nombre", FieldFirstName, true},
		{"Apellidos", FieldLastName, true},
		{"Alquiler (S/.)", FieldRent, true},
		{"Consumo de Agua", FieldWater, true},
		{"LUZ", FieldEnergy, true},
		{"Mantenimiento", "", false},
		{"Monto", "", false},
		// Accents are not folded: "Lúz" does not contain "luz".
		{"Lúz", "", false},
		// First rule wins: "nombre del depa" is an apartment column.
		{"Nombre del depa", FieldApartment, true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := Match(tt.header, DefaultRules)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	headers := []string{
		"Depa", "Nombre", "Apellido", "Alquiler", "Agua", "Luz",
		"Concepto 1", "Monto 1", "Concepto 2", "Monto 2",
	}

	s, err := Build(headers)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i, f := range CanonicalFields {
		idx, ok := s.Column(f)
		if !ok || idx != i {
			t.Errorf("Column(%s) = (%d, %v), want (%d, true)", f, idx, ok, i)
		}
	}

	if len(s.Extras) != 2 {
		t.Fatalf("expected 2 extra pairs, got %d", len(s.Extras))
	}
	want := []ExtraPair{
		{Index: 0, LabelColumn: 6, AmountColumn: 7, LabelHeader: "Concepto 1", AmountHeader: "Monto 1"},
		{Index: 1, LabelColumn: 8, AmountColumn: 9, LabelHeader: "Concepto 2", AmountHeader: "Monto 2"},
	}
	for i, p := range s.Extras {
		if p != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, p, want[i])
		}
	}

	if missing := s.Missing(); len(missing) != 0 {
		t.Errorf("expected no missing fields, got %v", missing)
	}
}

func TestBuildInterleavedExtrasKeepPositionalOrder(t *testing.T) {
	// Extras on both sides of the canonical block still pair left to right.
	headers := []string{"Concepto", "Depa", "Monto", "Luz"}

	s, err := Build(headers)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(s.Extras) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(s.Extras))
	}
	if s.Extras[0].LabelColumn != 0 || s.Extras[0].AmountColumn != 2 {
		t.Errorf("unexpected pair %+v", s.Extras[0])
	}
	if got := s.Missing(); len(got) != 4 {
		t.Errorf("expected 4 missing fields, got %v", got)
	}
}

func TestBuildOddExtras(t *testing.T) {
	headers := []string{"Depa", "Nombre", "Apellido", "Alquiler", "Agua", "Luz", "Concepto"}

	_, err := Build(headers)
	if !errors.Is(err, ErrOddExtraColumns) {
		t.Fatalf("expected ErrOddExtraColumns, got %v", err)
	}
}

func TestBuildDuplicateField(t *testing.T) {
	headers := []string{"Depa", "Agua", "Agua potable"}

	_, err := Build(headers)
	if !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("expected ErrDuplicateColumn, got %v", err)
	}
}

func TestBuildWithRules(t *testing.T) {
	rules := append([]ColumnRule{{Keyword: "renta", Field: FieldRent}}, DefaultRules...)

	s, err := BuildWithRules([]string{"Depa", "Renta mensual"}, rules)
	if err != nil {
		t.Fatalf("BuildWithRules failed: %v", err)
	}
	if idx, ok := s.Column(FieldRent); !ok || idx != 1 {
		t.Errorf("Column(rent) = (%d, %v), want (1, true)", idx, ok)
	}
}
