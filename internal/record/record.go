// Package record defines the canonical records produced by the harvest
// pipeline and consumed by the stores and the monitor. Optional members are
// pointers: a nil member means the source value was missing or could not be
// normalized.
package record

// ProductRaw carries the verbatim field values extracted from one product
// listing, still in source locale formatting. Empty strings mean the field
// was not present on the page.
type ProductRaw struct {
	Brand        string
	Title        string
	PrevPrice    string
	Price        string
	Discount     string
	Installments string
	Rating       string
	Reviews      string
	URL          string
	Promoted     bool
}

// Product is one canonical e-commerce listing row.
type Product struct {
	Brand        *string  `json:"brand,omitempty"`
	Title        *string  `json:"title,omitempty"`
	PrevPrice    *float64 `json:"prev_price,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	DiscountPct  *float64 `json:"discount_pct,omitempty"`
	Installments *string  `json:"installments,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Reviews      *int     `json:"reviews,omitempty"`
	URL          *string  `json:"url,omitempty"`
	Promoted     bool     `json:"promoted"`
	Query        string   `json:"query"`
	FetchedAt    string   `json:"fetched_at"`
}

// Missing reports whether the record lacks a required field. Products
// require a title and a current price to count as complete.
func (p Product) Missing() bool {
	return p.Title == nil || p.Price == nil
}

// IndicatorRaw carries the verbatim cell values of one indicator table row.
type IndicatorRaw struct {
	Date     string
	Open     string
	High     string
	Low      string
	Close    string
	AdjClose string
	Volume   string
}

// Indicator is one canonical financial indicator row. Date-derived fields
// are populated only when Date normalized; an unparseable source date leaves
// all of them nil rather than a partial value.
type Indicator struct {
	Date      string   `json:"date,omitempty"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Close     *float64 `json:"close,omitempty"`
	AdjClose  *float64 `json:"adj_close,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Code      string   `json:"code"`
	Year      *int     `json:"year,omitempty"`
	Month     *int     `json:"month,omitempty"`
	Day       *int     `json:"day,omitempty"`
	YearMonth *string  `json:"year_month,omitempty"`
	Location  Location `json:"location"`
	FetchedAt string   `json:"fetched_at"`
}

// Missing reports whether the record lacks a required field. Indicators
// require a date and a closing value.
func (r Indicator) Missing() bool {
	return r.Date == "" || r.Close == nil
}

// Str returns a pointer to s. Convenience for building optional members.
func Str(s string) *string { return &s }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to n.
func Int(n int) *int { return &n }
