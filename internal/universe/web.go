package universe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	SP500WikipediaURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	SP500CSVURL       = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/master/data/constituents.csv"
)

func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// WikipediaSource scrapes the first table carrying both a Symbol and a Security column.
type WikipediaSource struct {
	URL    string
	Client *http.Client
}

func (w *WikipediaSource) Name() string { return "wikipedia" }

func (w *WikipediaSource) Tickers(ctx context.Context) ([]string, error) {
	resp, err := get(ctx, w.Client, w.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tickers []string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		symbolCol, hasSecurity := -1, false
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			switch strings.TrimSpace(th.Text()) {
			case "Symbol":
				symbolCol = i
			case "Security":
				hasSecurity = true
			}
		})
		if symbolCol < 0 || !hasSecurity {
			return true
		}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			td := tr.Find("td").Eq(symbolCol)
			if td.Length() == 0 {
				return
			}
			if sym := strings.TrimSpace(td.Text()); sym != "" {
				tickers = append(tickers, sym)
			}
		})
		return false
	})

	if len(tickers) == 0 {
		return nil, errors.New("no constituents table found")
	}
	return tickers, nil
}

// CSVSource reads the Symbol column of a constituents CSV.
type CSVSource struct {
	URL    string
	Column string
	Client *http.Client
}

func (c *CSVSource) Name() string { return "csv" }

func (c *CSVSource) Tickers(ctx context.Context) ([]string, error) {
	resp, err := get(ctx, c.Client, c.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	r := csv.NewReader(resp.Body)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), c.Column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv has no %q column", c.Column)
	}

	var tickers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if col < len(rec) {
			tickers = append(tickers, rec[col])
		}
	}
	return tickers, nil
}
