package decoder

import (
	"context"
	"errors"
	"testing"

	"github.com/baronhoot/rtl-433/internal/bitbuf"
)

type stubDecoder struct {
	name string
}

func (d stubDecoder) Registration() Registration {
	return Registration{Name: d.name, Modulation: "FSK_PCM", Fields: []string{"model", "id"}}
}

func (d stubDecoder) Decode(_ context.Context, _ *bitbuf.Row) (map[string]any, error) {
	return map[string]any{"model": d.name}, nil
}

func TestRegisterAndLookup(t *testing.T) {
	Register(stubDecoder{name: "Test-StubA"})
	Register(stubDecoder{name: "Test-StubB"})

	d, err := Lookup("Test-StubB")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := d.Registration().Name; got != "Test-StubB" {
		t.Errorf("Registration().Name = %q, want Test-StubB", got)
	}

	if _, err := Lookup("Test-Missing"); err == nil {
		t.Error("Lookup of unregistered name did not fail")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(stubDecoder{name: "Test-Dup"})
	Register(stubDecoder{name: "Test-Dup"})
}

func TestAllPreservesOrder(t *testing.T) {
	Register(stubDecoder{name: "Test-OrderA"})
	Register(stubDecoder{name: "Test-OrderB"})

	var names []string
	for _, d := range All() {
		names = append(names, d.Registration().Name)
	}
	posA, posB := -1, -1
	for i, n := range names {
		switch n {
		case "Test-OrderA":
			posA = i
		case "Test-OrderB":
			posB = i
		}
	}
	if posA < 0 || posB < 0 || posA > posB {
		t.Errorf("All() order = %v, want Test-OrderA before Test-OrderB", names)
	}
}

type fieldsDecoder struct {
	name   string
	fields []string
}

func (d fieldsDecoder) Registration() Registration {
	return Registration{Name: d.name, Fields: d.fields}
}

func (d fieldsDecoder) Decode(_ context.Context, _ *bitbuf.Row) (map[string]any, error) {
	return nil, ErrAbortLength
}

func TestFieldOrderUnion(t *testing.T) {
	Register(fieldsDecoder{name: "Test-FieldsA", fields: []string{"model", "test_alpha", "test_shared"}})
	Register(fieldsDecoder{name: "Test-FieldsB", fields: []string{"model", "test_shared", "test_beta"}})

	order := FieldOrder()
	index := make(map[string]int)
	for i, f := range order {
		if _, dup := index[f]; dup {
			t.Fatalf("FieldOrder repeats %q: %v", f, order)
		}
		index[f] = i
	}
	alpha, ok := index["test_alpha"]
	if !ok {
		t.Fatal("test_alpha missing from FieldOrder")
	}
	shared, ok := index["test_shared"]
	if !ok {
		t.Fatal("test_shared missing from FieldOrder")
	}
	beta, ok := index["test_beta"]
	if !ok {
		t.Fatal("test_beta missing from FieldOrder")
	}
	if !(alpha < shared && shared < beta) {
		t.Errorf("FieldOrder does not preserve first-seen order: %v", order)
	}
}

func TestOutcomeErrorsAreDistinct(t *testing.T) {
	outcomes := []error{ErrAbortLength, ErrAbortEarly, ErrFailIntegrity}
	for i, a := range outcomes {
		for j, b := range outcomes {
			if (i == j) != errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = %v", a, b, i == j)
			}
		}
	}
}
