package render

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-invoice/internal/invoice"
)

// Engine starts single-use layout sessions.
type Engine interface {
	Start(ctx context.Context) (Session, error)
}

// Session renders exactly one document and is then closed.
type Session interface {
	Render(ctx context.Context, inv invoice.Invoice) ([]byte, error)
	Close() error
}

// PDFEngine lays out invoices on A4 pages with gofpdf. A zero Fonts value
// uses the embedded faces.
type PDFEngine struct {
	Brand          string
	CurrencySymbol string
	Compress       bool
	Fonts          FontSet
}

// Start returns a fresh session.
func (e PDFEngine) Start(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &pdfSession{engine: e}, nil
}

const (
	pageMargin   = 15.0
	pageWidth    = 210.0
	pageHeight   = 297.0
	contentWidth = pageWidth - 2*pageMargin

	colQty     = 25.0
	minRate    = 30.0
	minTotal   = 35.0
	minProduct = 45.0

	rowHeight  = 8.0
	lineHeight = 5.0
	cellPad    = 3.0
	moneyPad   = 4.0

	bodySize     = 10.0
	minMoneySize = 6.0
	maxRowLines  = 40

	// footerSpace keeps table rows clear of the footer line.
	footerSpace = pageMargin + 12
)

var errSessionUsed = errors.New("render: session already used")

type pdfSession struct {
	engine PDFEngine
	used   bool
	closed bool
}

func (s *pdfSession) Close() error {
	s.closed = true
	return nil
}

func (s *pdfSession) Render(ctx context.Context, inv invoice.Invoice) ([]byte, error) {
	if s.used || s.closed {
		return nil, errSessionUsed
	}
	s.used = true

	l := s.engine.newLayout(inv)
	cols := l.plan(inv)
	l.header(s.engine.Brand, inv)
	l.parties(inv)
	l.lineItems(cols, inv.LineItems)
	l.totals(cols, inv)
	l.footer()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e PDFEngine) newLayout(inv invoice.Invoice) layout {
	pdf := gofpdf.New("P", "mm", "A4", "")
	e.Fonts.register(pdf)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, footerSpace)
	pdf.SetCompression(e.Compress)
	pdf.SetCatalogSort(true)
	created := inv.CreatedAt.UTC().Truncate(time.Second)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(printable("Invoice "+inv.ID), true)
	pdf.SetAuthor(printable(inv.IssuerName), true)
	pdf.SetCreator(printable(e.Brand), true)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", bodySize)
	return layout{pdf: pdf, symbol: e.CurrencySymbol}
}

type layout struct {
	pdf    *gofpdf.Fpdf
	symbol string
}

// columns are the table widths for one document. Money cells use size so
// that the widest amount always fits without being shortened.
type columns struct {
	product, qty, rate, total float64
	size                      float64
}

func (c columns) labelWidth() float64 {
	return c.product + c.qty + c.rate
}

func (l layout) money(amount decimal.Decimal) string {
	return printable(FormatMoney(l.symbol, amount))
}

// plan widens the money columns to their widest amount, taking room from
// the product column, and only shrinks the money font once the product
// column reaches its minimum.
func (l layout) plan(inv invoice.Invoice) columns {
	pdf := l.pdf
	rates := make([]string, 0, len(inv.LineItems))
	amounts := []string{l.money(inv.SubTotal), l.money(inv.TaxAmount)}
	for _, item := range inv.LineItems {
		rates = append(rates, l.money(item.Rate))
		amounts = append(amounts, l.money(item.Total))
	}
	grand := l.money(inv.TotalAmount)

	var c columns
	for size := bodySize; ; size -= 0.5 {
		pdf.SetFont(fontFamily, "", size)
		rate := math.Max(minRate, l.widest(rates)+moneyPad)
		total := math.Max(minTotal, l.widest(amounts)+moneyPad)
		pdf.SetFont(fontFamily, "B", size+2)
		total = math.Max(total, pdf.GetStringWidth(grand)+moneyPad)

		c = columns{qty: colQty, rate: rate, total: total, size: size}
		c.product = contentWidth - c.qty - c.rate - c.total
		if c.product >= minProduct || size <= minMoneySize {
			break
		}
	}
	if c.product < minProduct {
		c.product = minProduct
	}
	pdf.SetFont(fontFamily, "", bodySize)
	return c
}

func (l layout) widest(values []string) float64 {
	w := 0.0
	for _, v := range values {
		w = math.Max(w, l.pdf.GetStringWidth(v))
	}
	return w
}

func (l layout) text(w, h float64, s, border string, ln int, align string, fill bool) {
	l.pdf.CellFormat(w, h, l.fit(s, w), border, ln, align, fill, 0, "")
}

// fit shortens s with an ellipsis until it fits in width w. It is used for
// labels and header lines only; amounts go through plan instead.
func (l layout) fit(s string, w float64) string {
	out := []rune(printable(s))
	limit := w - 2
	if l.pdf.GetStringWidth(string(out)) <= limit {
		return string(out)
	}
	for len(out) > 0 && l.pdf.GetStringWidth(string(out)+"...") > limit {
		out = out[:len(out)-1]
	}
	return string(out) + "..."
}

// lines wraps s to width w at spaces, breaking long words when needed.
func (l layout) lines(s string, w float64) []string {
	out := l.pdf.SplitText(printable(s), w)
	if len(out) == 0 {
		return []string{""}
	}
	if len(out) > maxRowLines {
		out = append(out[:maxRowLines-1], l.fit(out[maxRowLines-1]+" "+out[maxRowLines], w))
	}
	return out
}

func (l layout) header(brand string, inv invoice.Invoice) {
	pdf := l.pdf
	pdf.SetTextColor(0, 128, 128)
	pdf.SetFont(fontFamily, "B", 20)
	l.text(110, 12, brand, "", 0, "L", false)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont(fontFamily, "B", 24)
	l.text(70, 12, "INVOICE", "", 1, "R", false)

	pdf.SetFont(fontFamily, "", bodySize)
	pdf.Ln(2)
	l.text(contentWidth, 6, "Invoice #: "+inv.ID, "", 1, "R", false)
	l.text(contentWidth, 6, "Date Issued: "+FormatDate(inv.CreatedAt), "", 1, "R", false)

	pdf.SetDrawColor(0, 128, 128)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY() + 3
	pdf.Line(pageMargin, y, pageWidth-pageMargin, y)
	pdf.SetY(y + 6)
}

func (l layout) parties(inv invoice.Invoice) {
	pdf := l.pdf
	half := contentWidth / 2
	pdf.SetTextColor(0, 128, 128)
	pdf.SetFont(fontFamily, "B", 11)
	l.text(half, 7, "From", "", 0, "L", false)
	l.text(half, 7, "Bill To", "", 1, "L", false)

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont(fontFamily, "", bodySize)
	for _, pair := range [][2]string{{inv.IssuerName, inv.ClientName}, {inv.IssuerEmail, inv.ClientEmail}} {
		left, right := l.lines(pair[0], half), l.lines(pair[1], half)
		x, y := pdf.GetXY()
		l.block(x, y, half, left)
		l.block(x+half, y, half, right)
		pdf.SetXY(x, y+float64(max(len(left), len(right)))*(lineHeight+1))
	}
	pdf.Ln(8)
}

// block writes lines top-down from (x, y) without borders.
func (l layout) block(x, y, w float64, lines []string) {
	for i, line := range lines {
		l.pdf.SetXY(x, y+float64(i)*(lineHeight+1))
		l.pdf.CellFormat(w, lineHeight+1, line, "", 0, "L", false, 0, "")
	}
}

func (l layout) tableHeader(c columns) {
	pdf := l.pdf
	pdf.SetFillColor(0, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(220, 224, 230)
	pdf.SetLineWidth(0.2)
	pdf.SetFont(fontFamily, "B", bodySize)
	l.text(c.product, rowHeight, "Product", "1", 0, "L", true)
	l.text(c.qty, rowHeight, "Quantity", "1", 0, "C", true)
	l.text(c.rate, rowHeight, "Rate", "1", 0, "R", true)
	l.text(c.total, rowHeight, "Total Amount", "1", 1, "R", true)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont(fontFamily, "", bodySize)
}

func (l layout) lineItems(c columns, items []invoice.LineItem) {
	l.tableHeader(c)
	for i, item := range items {
		l.itemRow(c, item, i%2 == 1)
	}
	l.pdf.Ln(4)
}

// itemRow draws one row whose height grows with the wrapped product name.
// A row never splits across pages; the table header repeats instead.
func (l layout) itemRow(c columns, item invoice.LineItem, fill bool) {
	pdf := l.pdf
	pdf.SetFont(fontFamily, "", bodySize)
	names := l.lines(item.Name, c.product)
	h := math.Max(rowHeight, float64(len(names))*lineHeight+cellPad)
	if pdf.GetY()+h > pageHeight-footerSpace {
		pdf.AddPage()
		l.tableHeader(c)
	}

	x, y := pdf.GetXY()
	style := "D"
	if fill {
		pdf.SetFillColor(247, 249, 252)
		style = "FD"
	}
	offset := x
	for _, w := range []float64{c.product, c.qty, c.rate, c.total} {
		pdf.Rect(offset, y, w, h, style)
		offset += w
	}
	for i, name := range names {
		pdf.SetXY(x, y+cellPad/2+float64(i)*lineHeight)
		pdf.CellFormat(c.product, lineHeight, name, "", 0, "L", false, 0, "")
	}
	pdf.SetXY(x+c.product, y)
	pdf.CellFormat(c.qty, h, strconv.Itoa(item.Quantity), "", 0, "C", false, 0, "")
	pdf.SetFontSize(c.size)
	pdf.CellFormat(c.rate, h, l.money(item.Rate), "", 0, "R", false, 0, "")
	pdf.CellFormat(c.total, h, l.money(item.Total), "", 0, "R", false, 0, "")
	pdf.SetFontSize(bodySize)
	pdf.SetXY(x, y+h)
}

func (l layout) totals(c columns, inv invoice.Invoice) {
	pdf := l.pdf
	if pdf.GetY()+2*7+9 > pageHeight-footerSpace {
		pdf.AddPage()
	}
	rows := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Subtotal:", inv.SubTotal},
		{TaxLabel(inv.TaxRate) + ":", inv.TaxAmount},
	}
	for _, row := range rows {
		pdf.SetFont(fontFamily, "", bodySize)
		l.text(c.labelWidth(), 7, row.label, "", 0, "R", false)
		pdf.SetFontSize(c.size)
		pdf.CellFormat(c.total, 7, l.money(row.amount), "", 1, "R", false, 0, "")
	}

	pdf.SetTextColor(0, 128, 128)
	pdf.SetFont(fontFamily, "B", 12)
	l.text(c.labelWidth(), 9, "Total Amount:", "T", 0, "R", false)
	pdf.SetFontSize(c.size + 2)
	pdf.CellFormat(c.total, 9, l.money(inv.TotalAmount), "T", 1, "R", false, 0, "")
	pdf.SetTextColor(40, 40, 40)
}

func (l layout) footer() {
	pdf := l.pdf
	if pdf.GetY() > pageHeight-footerSpace {
		pdf.AddPage()
	}
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetY(pageHeight - pageMargin - 10)
	pdf.SetFont(fontFamily, "I", bodySize)
	pdf.SetTextColor(110, 110, 110)
	l.text(contentWidth, 8, "Thank you for your business!", "", 1, "C", false)
}

