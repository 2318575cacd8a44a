package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/rent-receipts/internal/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "data", "recibos.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	run := &Run{InputFile: "tabla.xlsx", Building: "COLQUEPATA", Year: 2024, Month: "Enero"}

	t.Run("RecordRun generates ID", func(t *testing.T) {
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		if run.ID == "" {
			t.Error("Expected run ID to be generated")
		}
	})

	t.Run("FinishRun stores counters", func(t *testing.T) {
		run.Rows, run.Issued, run.Skipped = 3, 2, 1
		if err := store.FinishRun(ctx, run); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}

		got, err := store.GetRun(ctx, run.ID)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if got.Rows != 3 || got.Issued != 2 || got.Skipped != 1 {
			t.Errorf("unexpected counters: %+v", got)
		}
		if got.FinishedAt.IsZero() {
			t.Error("Expected FinishedAt to be set")
		}
	})

	t.Run("RecordReceipt upserts on the same period and tenant", func(t *testing.T) {
		first := &Receipt{
			RunID: run.ID, Year: 2024, Month: "Enero", Building: "COLQUEPATA",
			Apartment: "101", FirstName: "Ana", LastName: "Rojas",
			Total: decimal.RequireFromString("580.75"), FileName: "2024_enero_depa_101_rojas.pdf",
		}
		if err := store.RecordReceipt(ctx, first); err != nil {
			t.Fatalf("RecordReceipt failed: %v", err)
		}

		again := *first
		again.ID = ""
		again.Total = decimal.RequireFromString("600.00")
		if err := store.RecordReceipt(ctx, &again); err != nil {
			t.Fatalf("RecordReceipt (again) failed: %v", err)
		}
		if again.ID != first.ID {
			t.Errorf("expected the upsert to keep ID %s, got %s", first.ID, again.ID)
		}

		receipts, err := store.ListReceipts(ctx, Filter{Year: 2024, Month: "enero"})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(receipts) != 1 {
			t.Fatalf("expected 1 receipt, got %d", len(receipts))
		}
		if receipts[0].Total.StringFixed(2) != "600.00" {
			t.Errorf("total = %s, want 600.00", receipts[0].Total.StringFixed(2))
		}
	})

	t.Run("ListReceipts filters", func(t *testing.T) {
		other := &Receipt{
			RunID: run.ID, Year: 2024, Month: "Enero", Building: "COLQUEPATA",
			Apartment: "102", FirstName: "Luis", LastName: "Paredes",
			Total: decimal.RequireFromString("100"), FileName: "x.pdf",
		}
		if err := store.RecordReceipt(ctx, other); err != nil {
			t.Fatalf("RecordReceipt failed: %v", err)
		}

		all, err := store.ListReceipts(ctx, Filter{})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 receipts, got %d", len(all))
		}

		byApartment, err := store.ListReceipts(ctx, Filter{Apartment: "102"})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(byApartment) != 1 || byApartment[0].LastName != "Paredes" {
			t.Errorf("unexpected filter result: %+v", byApartment)
		}

		none, err := store.ListReceipts(ctx, Filter{Year: 2023})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no receipts for 2023, got %d", len(none))
		}
	})
}

func TestReceiptRequiresRun(t *testing.T) {
	store := newStore(t)

	err := store.RecordReceipt(context.Background(), &Receipt{RunID: "missing", Year: 2024, Month: "Enero", Apartment: "1", LastName: "X"})
	if err == nil {
		t.Fatal("expected a foreign key error")
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newStore(t)

	if _, err := store.GetRun(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.FinishRun(context.Background(), &Run{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReceiptFromInvoice(t *testing.T) {
	inv := &types.Invoice{
		Entry:    types.Entry{Apartment: "101", FirstName: "Ana", LastName: "Rojas"},
		Params:   types.RunParameters{Year: 2024, Month: "Enero", Building: "OTRO"},
		Address:  types.Address{Building: "QUIPAYPAMPA"},
		Total:    decimal.RequireFromString("10"),
		FileName: "f.pdf",
		IssuedAt: time.Unix(1700000000, 0),
	}

	r := ReceiptFromInvoice("run-1", inv)
	if r.RunID != "run-1" || r.Building != "QUIPAYPAMPA" || r.Apartment != "101" || r.FileName != "f.pdf" {
		t.Errorf("unexpected receipt: %+v", r)
	}
}
