package pdfwriter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/types"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func sampleInvoice() *types.Invoice {
	return &types.Invoice{
		Entry: types.Entry{Apartment: "101", FirstName: "Ana", LastName: "Quispe Huamán"},
		Params: types.RunParameters{
			Building: "COLQUEPATA",
			Year:     2024,
			Month:    "Enero",
		},
		Address: types.Address{
			Building: "COLQUEPATA",
			Street:   "Jr. Colquepata 215",
			Lines:    []string{"Urb. Tahuantinsuyo", "Independencia", "Lima, Perú"},
		},
		LineItems: []types.LineItem{
			{Description: "Renta Enero 2024", Amount: amount("500.00")},
			{Description: "Agua del 01/12/23 al 31/12/23", Amount: amount("25.50")},
			{Description: "Luz del 05/12/23 al 04/01/24", Amount: amount("40.00")},
			{Description: "Mantenimiento de areas comunes\ndel edificio y reparación", Amount: amount("15.25")},
			{Description: "TOTAL", Amount: amount("580.75")},
		},
		Total:    decimal.RequireFromString("580.75"),
		FileName: "2024_enero_depa_101_quispe_huamán.pdf",
		IssuedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestWrite(t *testing.T) {
	r := NewRenderer(config.Issuer{Name: "Administración", Role: "Propietario y Administrador"})

	var buf bytes.Buffer
	if err := r.Write(sampleInvoice(), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:16])
	}
}

func TestRenderWithSignatureImage(t *testing.T) {
	dir := t.TempDir()

	sig := filepath.Join(dir, "firma.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	f, err := os.Create(sig)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	r := NewRenderer(config.Issuer{Name: "A\nB", Role: "Propietario", SignatureImage: sig})

	path := filepath.Join(dir, "recibo.pdf")
	if err := r.Render(sampleInvoice(), path); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".recibo-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestRenderMissingSignatureIsNotFatal(t *testing.T) {
	r := NewRenderer(config.Issuer{SignatureImage: filepath.Join(t.TempDir(), "missing.png")})

	var buf bytes.Buffer
	if err := r.Write(sampleInvoice(), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestRenderOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recibo.pdf")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	if err := NewRenderer(config.Issuer{}).Render(sampleInvoice(), path); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("existing file was not replaced")
	}
}
