// Package export формирует XLSX-документ с отчётом о продажах.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// ContentType MIME-тип формируемого документа.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetSummary    = "Resumen"
	sheetMonthly    = "Ventas por Mes"
	sheetStatuses   = "Estados de Pedidos"
	sheetHighlights = "Destacados"

	noDataRow = "No hay datos disponibles"

	// Встроенный формат Excel "0.00%".
	percentNumFmt = 10
)

var currencyNumFmt = `"Q"#,##0.00`

var errOverLimit = errors.New("output size limit reached")

// Options задаёт допустимый размер документа в байтах.
type Options struct {
	MinBytes int64
	MaxBytes int64
}

// Renderer сериализует отчёт в XLSX. Безопасен для конкурентного использования.
type Renderer struct {
	opts   Options
	logger *zap.Logger
}

// NewRenderer создаёт рендерер с указанными ограничениями размера.
func NewRenderer(opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{opts: opts, logger: logger}
}

// Filename возвращает имя файла отчёта за интервал.
func Filename(start, end time.Time) string {
	return fmt.Sprintf("reporte_%s_%s.xlsx", start.Format(time.DateOnly), end.Format(time.DateOnly))
}

type styles struct {
	header   int
	cell     int
	currency int
	percent  int
}

// Render строит документ из четырёх листов. Строки пишутся потоково, временные файлы
// удаляются при любом исходе. Слишком большой документ даёт ErrPayloadTooLarge,
// слишком маленький или сбой библиотеки дают ErrRender.
func (r *Renderer) Render(p model.ReportPayload) (out []byte, err error) {
	started := time.Now()

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			out, err = nil, fmt.Errorf("%w: close workbook: %v", model.ErrRender, cerr)
		}
	}()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRender, err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return nil, fmt.Errorf("%w: rename sheet: %v", model.ErrRender, err)
	}

	sheets := []struct {
		name   string
		widths []float64
		header []string
		rows   iter.Seq[[]any]
	}{
		{sheetSummary, []float64{28, 20}, []string{"Métrica", "Valor"}, summaryRows(p, st)},
		{sheetMonthly, []float64{16, 20}, []string{"Mes", "Ventas (Q)"}, monthlyRows(p, st)},
		{sheetStatuses, []float64{24, 14}, []string{"Estado", "Cantidad"}, statusRows(p, st)},
		{sheetHighlights, []float64{24, 32, 24, 26}, []string{"Tipo", "Nombre", "Detalle 1", "Detalle 2"}, highlightRows(p, st)},
	}

	for i, s := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(s.name); err != nil {
				return nil, fmt.Errorf("%w: create sheet %q: %v", model.ErrRender, s.name, err)
			}
		}
		if err := writeSheet(f, s.name, s.widths, s.header, s.rows, st); err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", model.ErrRender, s.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf := &limitedBuffer{max: r.opts.MaxBytes}
	if _, err := f.WriteTo(buf); err != nil {
		if buf.exceeded || errors.Is(err, errOverLimit) {
			return nil, fmt.Errorf("%w: report exceeds %d bytes", model.ErrPayloadTooLarge, r.opts.MaxBytes)
		}
		return nil, fmt.Errorf("%w: write workbook: %v", model.ErrRender, err)
	}

	size := int64(buf.buf.Len())
	if size < r.opts.MinBytes {
		return nil, fmt.Errorf("%w: report is %d bytes, expected at least %d", model.ErrRender, size, r.opts.MinBytes)
	}

	r.logger.Info("report rendered",
		zap.Int64("size", size),
		zap.Duration("duration", time.Since(started)),
	)

	return buf.buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var (
		st  styles
		err error
	)
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Border:    border,
	})
	if err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	st.cell, err = f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return st, fmt.Errorf("cell style: %w", err)
	}
	st.currency, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &currencyNumFmt})
	if err != nil {
		return st, fmt.Errorf("currency style: %w", err)
	}
	st.percent, err = f.NewStyle(&excelize.Style{Border: border, NumFmt: percentNumFmt})
	if err != nil {
		return st, fmt.Errorf("percent style: %w", err)
	}
	return st, nil
}

// writeSheet пишет заголовок и строки из rows. Строки запрашиваются по одной
// и сразу уходят в StreamWriter.
func writeSheet(f *excelize.File, name string, widths []float64, header []string, rows iter.Seq[[]any], st styles) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	for i, w := range widths {
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = excelize.Cell{StyleID: st.header, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("header row: %w", err)
	}

	n := 2
	for row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("row %d: %w", n, err)
		}
		n++
	}

	return sw.Flush()
}

func text(st styles, v string) excelize.Cell {
	return excelize.Cell{StyleID: st.cell, Value: v}
}

func summaryRows(p model.ReportPayload, st styles) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		_ = yield([]any{text(st, "Ventas Totales"), excelize.Cell{StyleID: st.currency, Value: p.TotalSales}}) &&
			yield([]any{text(st, "Total Pedidos"), excelize.Cell{StyleID: st.cell, Value: p.TotalOrders}}) &&
			yield([]any{text(st, "Pedidos Cancelados"), excelize.Cell{StyleID: st.cell, Value: p.CancelledOrders}}) &&
			yield([]any{text(st, "Tasa de Cancelación"), excelize.Cell{StyleID: st.percent, Value: CancellationRate(p)}})
	}
}

// CancellationRate возвращает долю отменённых заказов, 0 при отсутствии заказов.
func CancellationRate(p model.ReportPayload) float64 {
	if p.TotalOrders <= 0 {
		return 0
	}
	return float64(p.CancelledOrders) / float64(p.TotalOrders)
}

func fallbackRow(st styles, width int) []any {
	row := []any{text(st, noDataRow)}
	for i := 1; i < width; i++ {
		row = append(row, text(st, ""))
	}
	return row
}

func monthlyRows(p model.ReportPayload, st styles) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		// Несогласованные ряды не выводим частично.
		if len(p.Months) == 0 || len(p.Months) != len(p.Sales) {
			yield(fallbackRow(st, 2))
			return
		}

		for i, m := range p.Months {
			if !yield([]any{text(st, m), excelize.Cell{StyleID: st.currency, Value: p.Sales[i]}}) {
				return
			}
		}
	}
}

func statusRows(p model.ReportPayload, st styles) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		if len(p.StatusCounts) == 0 {
			yield(fallbackRow(st, 2))
			return
		}

		for _, sc := range p.StatusCounts {
			if !yield([]any{text(st, sc.Status), excelize.Cell{StyleID: st.cell, Value: sc.Count}}) {
				return
			}
		}
	}
}

func highlightRows(p model.ReportPayload, st styles) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		prod, c := p.TopProduct, p.TopCustomer
		if !prod.HasData() && !c.HasData() {
			yield(fallbackRow(st, 4))
			return
		}

		if prod.HasData() {
			if !yield([]any{
				text(st, "Producto Más Vendido"),
				text(st, prod.Name),
				text(st, fmt.Sprintf("Cantidad: %d", prod.Quantity)),
				text(st, fmt.Sprintf("Total: Q%.2f", prod.Total)),
			}) {
				return
			}
		}
		if c.HasData() {
			yield([]any{
				text(st, "Cliente Frecuente"),
				text(st, fmt.Sprintf("%s (%s)", c.Name, c.Phone)),
				text(st, fmt.Sprintf("Total pedidos: %d", c.Orders)),
				text(st, fmt.Sprintf("Total gastado: Q%.2f", c.Total)),
			})
		}
	}
}

// limitedBuffer накапливает документ и отказывает в записи сверх max байт.
type limitedBuffer struct {
	buf      bytes.Buffer
	max      int64
	exceeded bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.max > 0 && int64(b.buf.Len()+len(p)) > b.max {
		b.exceeded = true
		return 0, errOverLimit
	}
	return b.buf.Write(p)
}
