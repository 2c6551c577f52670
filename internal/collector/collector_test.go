package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"WaveSentinel/internal/model"

	"github.com/rs/zerolog"
)

func bar(day int, c float64) model.OHLCV {
	return model.OHLCV{Time: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), Open: c, High: c + 1, Low: c - 1, Close: c}
}

func TestClean(t *testing.T) {
	raw := []model.OHLCV{
		bar(1, 100),
		bar(2, 101),
		bar(2, 102), // duplicate timestamp replaces
		bar(3, 0),   // zero price
		bar(1, 99),  // out of order
		bar(4, 104),
	}
	got, dropped := Clean(raw)
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
	if len(got) != 3 {
		t.Fatalf("got %d bars, want 3", len(got))
	}
	if got[1].Close != 102 {
		t.Errorf("duplicate not replaced: close %.0f", got[1].Close)
	}
}

func TestCollect(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	c := NewCollector(mock, "TEST", Daily, 250, zerolog.Nop())
	series, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if series.Symbol != "TEST" || series.Len() != 250 {
		t.Errorf("series = %s/%d bars, want TEST/250", series.Symbol, series.Len())
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Bars[i].Time.After(series.Bars[i-1].Time) {
			t.Fatalf("bar %d not after previous", i)
		}
	}
}

func TestCollectErrors(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: []model.OHLCV{}}, "TEST", Daily, 10, zerolog.Nop())
	if _, err := c.Collect(context.Background()); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}

	boom := errors.New("boom")
	c = NewCollector(&MockFetcher{Err: boom}, "TEST", Daily, 10, zerolog.Nop())
	if _, err := c.Collect(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestParseInterval(t *testing.T) {
	tests := map[string]Interval{"": Daily, "daily": Daily, "1d": Daily, "weekly": Weekly, "1wk": Weekly}
	for in, want := range tests {
		got, err := ParseInterval(in)
		if err != nil || got != want {
			t.Errorf("ParseInterval(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseInterval("1h"); err == nil {
		t.Error("expected error for 1h")
	}
}

func TestYahooFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "%5EGSPC") && !strings.Contains(r.URL.Path, "^GSPC") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %s", r.URL.Query().Get("interval"))
		}
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1704067200,1704153600,1704240000],
			"indicators":{"quote":[{"open":[1,null,3],"high":[2,null,4],"low":[0.5,null,2.5],"close":[1.5,null,3.5],"volume":[10,null,30]}]}}]}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "SPX500", Daily, 10)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2 (null bar skipped)", len(bars))
	}
	if bars[1].Close != 3.5 || bars[1].Volume != 30 {
		t.Errorf("last bar = %+v", bars[1])
	}
}

func TestYahooFetcherNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[]}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchBars(context.Background(), "XYZ", Daily, 10); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestYahooRange(t *testing.T) {
	tests := []struct {
		interval Interval
		limit    int
		want     string
	}{
		{Daily, 20, "1mo"},
		{Daily, 300, "2y"},
		{Daily, 1000, "5y"},
		{Weekly, 52, "1y"},
		{Weekly, 300, "max"},
	}
	for _, tt := range tests {
		if got := yahooRange(tt.interval, tt.limit); got != tt.want {
			t.Errorf("yahooRange(%s, %d) = %s, want %s", tt.interval, tt.limit, got, tt.want)
		}
	}
}

func TestVsTraderWeeklyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if strings.HasSuffix(r.URL.Path, "/weekly") {
			http.Error(w, "not supported", http.StatusNotFound)
			return
		}
		// Mon 2024-01-01 .. Wed 2024-01-10 (two ISO weeks).
		var parts []string
		for d := 1; d <= 10; d++ {
			ts := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Unix()
			parts = append(parts, fmt.Sprintf(`{"timestamp":%d,"open":%d,"high":%d,"low":%d,"close":%d,"volume":1}`, ts, d, d+1, d, d))
		}
		fmt.Fprintf(w, "[%s]", strings.Join(parts, ","))
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "")
	bars, err := f.FetchBars(context.Background(), "TEST", Weekly, 5)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d weekly bars, want 2", len(bars))
	}
	if bars[0].Open != 1 || bars[0].Close != 7 || bars[0].High != 8 || bars[0].Volume != 7 {
		t.Errorf("first week = %+v", bars[0])
	}
}

func TestNewFetcher(t *testing.T) {
	for _, tc := range []struct {
		provider, baseURL, want string
		wantErr                 bool
	}{
		{provider: "", want: "yahoo"},
		{provider: "Yahoo", baseURL: "http://local", want: "yahoo"},
		{provider: "vstrader", baseURL: "http://local", want: "vstrader"},
		{provider: "vstrader", wantErr: true},
		{provider: "mock", want: "mock"},
		{provider: "bloomberg", wantErr: true},
	} {
		f, err := NewFetcher(tc.provider, tc.baseURL, "", "")
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.provider)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.provider, err)
			continue
		}
		if f.Name() != tc.want {
			t.Errorf("%q: fetcher %s, want %s", tc.provider, f.Name(), tc.want)
		}
	}
}
