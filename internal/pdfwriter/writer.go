// =============================================================================
// Rent Receipt Generator - PDF Writer Module
// =============================================================================
//
// This module is responsible for painting one Invoice onto an A4 page and
// emitting it as a PDF document.
//
// PAGE STRUCTURE:
//
//   +--------------------------------------------------+
//   |                 RECIBO DE PAGO                   |  <- title band
//   |                   Enero 2024                     |
//   |                                                  |
//   | Jr. Colquepata 215        Fecha de emisión: ...  |  <- address block
//   | Urb. Tahuantinsuyo                               |
//   | ...                                              |
//   |                                                  |
//   | Inquilino: Ana Rojas                             |  <- tenant block
//   | Departamento: 101                                |
//   |                                                  |
//   | +----------------------------+-----------------+ |
//   | | Descripción                | Monto [S/.]     | |  <- line items
//   | | Renta Enero 2024           |          500.00 | |
//   | | ...                        |             ... | |
//   | | TOTAL                      |          580.75 | |
//   | +----------------------------+-----------------+ |
//   |                                                  |
//   |                 [signature image]                |  <- signature block
//   |                 ________________                 |
//   |                 Issuer name                      |
//   |                 Propietario y Administrador      |
//   +--------------------------------------------------+
//
// The core PDF fonts only cover cp1252, so every string goes through the
// fpdf Unicode translator first.
//
// =============================================================================

package pdfwriter

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/types"
)

// =============================================================================
// RENDER OPTIONS
// =============================================================================

// RenderOptions contains options for the page layout. Lengths are in mm.
type RenderOptions struct {
	// Title is printed at the top of the page.
	// Default: "RECIBO DE PAGO"
	Title string

	// FontFamily is a core PDF font.
	// Default: "Helvetica"
	FontFamily string

	// Margin is the left, top and right page margin.
	// Default: 20
	Margin float64

	// AmountColumnWidth is the width of the "Monto" column.
	// Default: 40
	AmountColumnWidth float64

	// LineHeight is the height of one text line in the table.
	// Default: 7
	LineHeight float64

	// SignatureWidth is the printed width of the signature image.
	// Default: 45
	SignatureWidth float64
}

// DefaultRenderOptions returns the default layout.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Title:             "RECIBO DE PAGO",
		FontFamily:        "Helvetica",
		Margin:            20,
		AmountColumnWidth: 40,
		LineHeight:        7,
		SignatureWidth:    45,
	}
}

const (
	descriptionHeader = "Descripción"
	amountHeader      = "Monto [S/.]"
	dateLayout        = "02/01/2006"
)

// =============================================================================
// RENDERER
// =============================================================================

// Renderer paints invoices as PDF documents.
type Renderer struct {
	issuer  config.Issuer
	options RenderOptions
	logger  *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithOptions replaces the layout options.
func WithOptions(options RenderOptions) Option {
	return func(r *Renderer) { r.options = options }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// NewRenderer creates a Renderer that signs every receipt as issuer.
func NewRenderer(issuer config.Issuer, opts ...Option) *Renderer {
	r := &Renderer{
		issuer:  issuer,
		options: DefaultRenderOptions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the invoice to a file, replacing any existing one.
//
// PARAMETERS:
//   - inv: The invoice to render.
//   - path: The output file path.
//
// RETURNS:
//   - An error if the document cannot be built or written.
func (r *Renderer) Render(inv *types.Invoice, path string) error {
	var buf bytes.Buffer
	if err := r.Write(inv, &buf); err != nil {
		return err
	}

	// Write to a temporary file, then rename it into place.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".recibo-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}

	return nil
}

// Write renders the invoice to w.
func (r *Renderer) Write(inv *types.Invoice, w io.Writer) error {
	pdf := r.build(inv)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF for %s: %w", inv.FileName, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF for %s: %w", inv.FileName, err)
	}
	return nil
}

// =============================================================================
// PAGE LAYOUT
// =============================================================================

// page bundles the document with its text translator.
type page struct {
	*fpdf.Fpdf
	tr   func(string) string
	opts RenderOptions
}

// build lays out the whole document.
func (r *Renderer) build(inv *types.Invoice) *fpdf.Fpdf {
	opts := r.options

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	pdf.SetAutoPageBreak(true, opts.Margin)
	pdf.SetCreationDate(inv.IssuedAt)
	pdf.SetTitle(fmt.Sprintf("%s %s", opts.Title, inv.Period()), true)
	pdf.SetCreator("recibos", true)
	pdf.AddPage()

	p := &page{
		Fpdf: pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		opts: opts,
	}

	p.titleBand(inv)
	p.addressBlock(inv)
	p.tenantBlock(inv)
	p.lineItemTable(inv)
	r.signatureBlock(p)

	return pdf
}

func (p *page) contentWidth() float64 {
	w, _ := p.GetPageSize()
	left, _, right, _ := p.GetMargins()
	return w - left - right
}

// titleBand prints the document title and the billing period.
func (p *page) titleBand(inv *types.Invoice) {
	width := p.contentWidth()

	p.SetFont(p.opts.FontFamily, "B", 18)
	p.CellFormat(width, 10, p.tr(p.opts.Title), "", 1, "C", false, 0, "")

	p.SetFont(p.opts.FontFamily, "", 12)
	p.CellFormat(width, 7, p.tr(inv.Period()), "", 1, "C", false, 0, "")
	p.Ln(6)
}

// addressBlock prints the building address on the left and the issue date
// on the right.
func (p *page) addressBlock(inv *types.Invoice) {
	width := p.contentWidth()
	lines := append([]string{inv.Address.Street}, inv.Address.Lines...)

	p.SetFont(p.opts.FontFamily, "", 10)
	for i, line := range lines {
		right := ""
		if i == 0 {
			right = "Fecha de emisión: " + inv.IssuedAt.Format(dateLayout)
		}
		p.CellFormat(width/2, 5, p.tr(line), "", 0, "L", false, 0, "")
		p.CellFormat(width/2, 5, p.tr(right), "", 1, "R", false, 0, "")
	}
	p.Ln(6)
}

// tenantBlock prints the tenant's name and apartment.
func (p *page) tenantBlock(inv *types.Invoice) {
	width := p.contentWidth()
	name := strings.TrimSpace(inv.Entry.FirstName + " " + inv.Entry.LastName)

	p.SetFont(p.opts.FontFamily, "B", 11)
	p.CellFormat(30, 6, p.tr("Inquilino:"), "", 0, "L", false, 0, "")
	p.SetFont(p.opts.FontFamily, "", 11)
	p.CellFormat(width-30, 6, p.tr(name), "", 1, "L", false, 0, "")

	p.SetFont(p.opts.FontFamily, "B", 11)
	p.CellFormat(30, 6, p.tr("Departamento:"), "", 0, "L", false, 0, "")
	p.SetFont(p.opts.FontFamily, "", 11)
	p.CellFormat(width-30, 6, p.tr(inv.Entry.Apartment), "", 1, "L", false, 0, "")
	p.Ln(6)
}

// lineItemTable prints the two-column charges table. The header and the
// TOTAL row are bold on a grey background.
func (p *page) lineItemTable(inv *types.Invoice) {
	amountW := p.opts.AmountColumnWidth
	descW := p.contentWidth() - amountW

	p.SetDrawColor(0, 0, 0)
	p.SetLineWidth(0.2)
	p.SetFillColor(220, 220, 220)

	p.SetFont(p.opts.FontFamily, "B", 11)
	p.row([]string{p.tr(descriptionHeader)}, p.tr(amountHeader), descW, amountW, true)

	last := len(inv.LineItems) - 1
	for i, item := range inv.LineItems {
		emphasis := i == last
		if emphasis {
			p.SetFont(p.opts.FontFamily, "B", 11)
		} else {
			p.SetFont(p.opts.FontFamily, "", 11)
		}
		lines := p.descriptionLines(item.Description, descW)
		p.row(lines, item.FormattedAmount(), descW, amountW, emphasis)
	}
	p.Ln(12)
}

// row prints one table row whose description may span several lines.
// Text must already be translated.
func (p *page) row(lines []string, amount string, descW, amountW float64, fill bool) {
	lineH := p.opts.LineHeight
	h := lineH * float64(len(lines))

	_, pageH := p.GetPageSize()
	_, _, _, bottom := p.GetMargins()
	if p.GetY()+h > pageH-bottom {
		p.AddPage()
	}

	x, y := p.GetXY()
	style := "D"
	if fill {
		style = "FD"
	}
	p.Rect(x, y, descW, h, style)
	p.Rect(x+descW, y, amountW, h, style)

	for i, line := range lines {
		p.SetXY(x, y+float64(i)*lineH)
		p.CellFormat(descW, lineH, line, "", 0, "L", false, 0, "")
	}

	p.SetXY(x+descW, y)
	p.CellFormat(amountW, h, amount, "", 0, "R", false, 0, "")
	p.SetXY(x, y+h)
}

// descriptionLines translates a description and splits it on its explicit
// line breaks and then on the cell width.
func (p *page) descriptionLines(desc string, width float64) []string {
	var lines []string
	for _, part := range strings.Split(desc, "\n") {
		split := p.SplitLines([]byte(p.tr(part)), width-2)
		if len(split) == 0 {
			lines = append(lines, "")
			continue
		}
		for _, line := range split {
			lines = append(lines, string(line))
		}
	}
	return lines
}

// signatureBlock prints the optional signature image, a rule, the issuer
// name and role, centred.
func (r *Renderer) signatureBlock(p *page) {
	width := p.contentWidth()
	left, _, _, _ := p.GetMargins()
	sigW := r.options.SignatureWidth
	x := left + (width-sigW)/2

	if img := r.issuer.SignatureImage; img != "" {
		if _, err := os.Stat(img); err != nil {
			r.logger.Warn("signature image not found, leaving it out", "file", img, "error", err)
		} else {
			p.ImageOptions(img, x, p.GetY(), sigW, 0, true,
				fpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	y := p.GetY() + 2
	p.Line(x, y, x+sigW, y)
	p.SetXY(left, y+1)

	p.SetFont(r.options.FontFamily, "", 10)
	for _, line := range strings.Split(r.issuer.Name, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.CellFormat(width, 5, p.tr(line), "", 1, "C", false, 0, "")
	}
	if r.issuer.Role != "" {
		p.SetFont(r.options.FontFamily, "I", 10)
		p.CellFormat(width, 5, p.tr(r.issuer.Role), "", 1, "C", false, 0, "")
	}
}
