package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vigiadata/vigia/internal/fetch"
	"github.com/vigiadata/vigia/internal/record"
)

// indicatorColumns renames the source table headers to canonical column
// names. Footnote markers like "Close*" are trimmed before lookup.
var indicatorColumns = map[string]string{
	"Date":      "date",
	"Fecha":     "date",
	"Open":      "open",
	"Abrir":     "open",
	"High":      "high",
	"Máx.":      "high",
	"Low":       "low",
	"Mín.":      "low",
	"Close":     "close",
	"Cerrar":    "close",
	"Adj Close": "adj_close",
	"Cierre ajustado": "adj_close",
	"Volume":    "volume",
	"Volumen":   "volume",
}

// IndicatorRows parses the first data table of an indicator history page.
// The header row defines the column layout; body rows whose cell count does
// not match the header are dropped silently, which guards against partial
// rows and layout drift.
func IndicatorRows(page fetch.Page) ([]record.IndicatorRaw, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse indicator page %s: %w", page.URL, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("indicator page %s: no history table found", page.URL)
	}

	var header []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		header = append(header, canonicalColumn(th.Text()))
	})
	if len(header) == 0 {
		return nil, fmt.Errorf("indicator page %s: table has no header row", page.URL)
	}

	var out []record.IndicatorRaw
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() != len(header) {
			return
		}
		var raw record.IndicatorRaw
		cells.Each(func(i int, td *goquery.Selection) {
			value := strings.TrimSpace(td.Text())
			switch header[i] {
			case "date":
				raw.Date = value
			case "open":
				raw.Open = value
			case "high":
				raw.High = value
			case "low":
				raw.Low = value
			case "close":
				raw.Close = value
			case "adj_close":
				raw.AdjClose = value
			case "volume":
				raw.Volume = value
			}
		})
		out = append(out, raw)
	})
	return out, nil
}

func canonicalColumn(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, "*")
	name = strings.TrimSpace(name)
	if canonical, ok := indicatorColumns[name]; ok {
		return canonical
	}
	return strings.ToLower(name)
}
