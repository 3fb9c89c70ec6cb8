package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/clock"
	"github.com/vigiadata/vigia/internal/fetch"
	"github.com/vigiadata/vigia/internal/record"
)

// mapFetcher serves canned pages per URL and fails everything else.
type mapFetcher struct {
	pages map[string][]byte
	urls  []string
}

func (f *mapFetcher) Fetch(_ context.Context, rawURL string) (fetch.Page, error) {
	f.urls = append(f.urls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return fetch.Page{}, errors.New("connection refused")
	}
	return fetch.Page{
		URL:        rawURL,
		FinalURL:   rawURL,
		StatusCode: 200,
		Body:       body,
		FetchedAt:  time.Date(2025, 5, 7, 12, 0, 0, 0, time.UTC),
	}, nil
}

// recordingArchive captures every saved object.
type recordingArchive struct {
	objects map[string][]byte
}

func (a *recordingArchive) Save(_ context.Context, name string, data []byte) error {
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[name] = data
	return nil
}

const listingBody = `<li class="ui-search-layout__item">
  <a class="ui-search-link" href="https://listado.example.com/item/MCO-1"> </a>
  <h2 class="ui-search-item__title">Portátil Asus Vivobook</h2>
  <div class="ui-search-price__second-line">
    <span class="andes-money-amount__fraction">2.499.900</span>
  </div>
  <span class="ui-search-price__discount">16% OFF</span>
  <span class="ui-search-reviews__rating-number">no-rating</span>
  <span class="ui-search-reviews__amount">(512)</span>
</li>`

const historyBody = `<table>
  <thead><tr><th>Fecha</th><th>Abrir</th><th>Cerrar*</th></tr></thead>
  <tbody>
    <tr><td>07 may 2025</td><td>4.380,10</td><td>4.399,50</td></tr>
    <tr><td>sin datos</td><td>-</td><td>4.350,00</td></tr>
  </tbody>
</table>`

func fixedClock() clock.Fixed {
	return clock.Fixed{T: time.Date(2025, 5, 7, 15, 30, 0, 0, time.UTC)}
}

func TestProductsSkipsFailedTerm(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{pages: map[string][]byte{
		"https://listado.example.com/portatil-asus": []byte(listingBody),
	}}
	p := New(fetcher, nil, Config{ListingBaseURL: "https://listado.example.com/"}, zap.NewNop(), fixedClock())

	records := p.Products(context.Background(), []string{"impresora laser", "portatil asus"})

	// The failing term contributes nothing and does not abort the batch.
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"https://listado.example.com/impresora-laser",
		"https://listado.example.com/portatil-asus",
	}, fetcher.urls)

	got := records[0]
	require.NotNil(t, got.Title)
	assert.Equal(t, "Portátil Asus Vivobook", *got.Title)
	require.NotNil(t, got.Price)
	assert.Equal(t, 2499900.0, *got.Price)
	require.NotNil(t, got.DiscountPct)
	assert.Equal(t, 16.0, *got.DiscountPct)
	require.NotNil(t, got.Reviews)
	assert.Equal(t, 512, *got.Reviews)

	// Unparseable fields stay absent without suppressing their siblings.
	assert.Nil(t, got.Rating)
	assert.Nil(t, got.PrevPrice)
	assert.Nil(t, got.Installments)

	assert.Equal(t, "portatil asus", got.Query)
	assert.Equal(t, "2025-05-07", got.FetchedAt)
	require.NotNil(t, got.URL)
	assert.Equal(t, "https://listado.example.com/item/MCO-1", *got.URL)
}

func TestIndicators(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{pages: map[string][]byte{
		"https://finance.example.com/quote/DOLA-USD/history": []byte(historyBody),
	}}
	p := New(fetcher, nil, Config{
		IndicatorURLTemplate: "https://finance.example.com/quote/%s/history",
	}, zap.NewNop(), fixedClock())

	records := p.Indicators(context.Background(), []string{"DOLA-USD"})
	require.Len(t, records, 2)

	full := records[0]
	assert.Equal(t, "2025-05-07", full.Date)
	require.NotNil(t, full.Open)
	assert.Equal(t, 4380.1, *full.Open)
	require.NotNil(t, full.Close)
	assert.Equal(t, 4399.5, *full.Close)
	assert.Equal(t, "DOLA-USD", full.Code)
	assert.Equal(t, "Colombia", full.Location.Country)

	// Derived calendar fields exist exactly when the date normalized.
	require.NotNil(t, full.Year)
	assert.Equal(t, 2025, *full.Year)
	require.NotNil(t, full.Month)
	assert.Equal(t, 5, *full.Month)
	require.NotNil(t, full.Day)
	assert.Equal(t, 7, *full.Day)
	require.NotNil(t, full.YearMonth)
	assert.Equal(t, "2025-05", *full.YearMonth)

	bad := records[1]
	assert.Empty(t, bad.Date)
	assert.Nil(t, bad.Year)
	assert.Nil(t, bad.Month)
	assert.Nil(t, bad.Day)
	assert.Nil(t, bad.YearMonth)
	assert.Nil(t, bad.Open)
	require.NotNil(t, bad.Close)
	assert.Equal(t, 4350.0, *bad.Close)
	assert.True(t, bad.Missing())
}

func TestIndicatorsUnknownCode(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{pages: map[string][]byte{
		"https://finance.example.com/quote/XYZ/history": []byte(historyBody),
	}}
	p := New(fetcher, nil, Config{
		IndicatorURLTemplate: "https://finance.example.com/quote/%s/history",
	}, zap.NewNop(), fixedClock())

	records := p.Indicators(context.Background(), []string{"XYZ"})
	require.NotEmpty(t, records)
	assert.Equal(t, record.UnknownLocation, records[0].Location)
}

func TestProductsArchivesRawPage(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{pages: map[string][]byte{
		"https://listado.example.com/portatil-asus": []byte(listingBody),
	}}
	arch := &recordingArchive{}
	p := New(fetcher, arch, Config{ListingBaseURL: "https://listado.example.com"}, zap.NewNop(), fixedClock())

	p.Products(context.Background(), []string{"portatil asus"})

	require.Len(t, arch.objects, 1)
	for name, body := range arch.objects {
		assert.Contains(t, name, "pages/2025-05-07/")
		assert.Contains(t, name, ".html")
		assert.Equal(t, listingBody, string(body))
	}
}

func TestListingURL(t *testing.T) {
	t.Parallel()

	p := New(&mapFetcher{}, nil, Config{ListingBaseURL: "https://listado.example.com/"}, zap.NewNop(), fixedClock())
	assert.Equal(t, "https://listado.example.com/disco-ssd-1tb", p.listingURL("  disco ssd 1tb "))
}
