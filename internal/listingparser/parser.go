package listingparser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ProductPage is the parseable surface of a hardware product page: enough to
// prefill a draft listing that the seller then reviews.
type ProductPage struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	PriceCents  int64             `json:"price_cents,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
	ImageURLs   []string          `json:"image_urls,omitempty"`
	SourceURL   string            `json:"source_url"`
	FetchedAt   time.Time         `json:"fetched_at"`
}

type Parser struct {
	httpClient *http.Client
	log        *zap.Logger
	timeout    time.Duration
	maxRetries int
}

func NewParser(timeoutMS, maxRetries int, log *zap.Logger) *Parser {
	return &Parser{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		timeout:    time.Duration(timeoutMS) * time.Millisecond,
		maxRetries: maxRetries,
	}
}

func (p *Parser) FetchAndParse(ctx context.Context, pageURL string) (*ProductPage, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid product page url %q", pageURL)
	}

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	page := &ProductPage{
		SourceURL: pageURL,
		FetchedAt: time.Now(),
	}

	page.Title = extractTitle(doc)
	page.Description = extractDescription(doc)
	page.PriceCents = extractPrice(doc)
	page.Specs = extractSpecs(doc)
	page.ImageURLs = extractImages(doc, u)

	return page, nil
}

// extractTitle prefers og:title, falling back to the first h1 and then the
// document title.
func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if d := strings.TrimSpace(og); d != "" {
			return d
		}
	}
	if meta, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return strings.TrimSpace(meta)
	}
	return ""
}

func extractPrice(doc *goquery.Document) int64 {
	// Structured price metadata first.
	for _, sel := range []string{
		`meta[property="product:price:amount"]`,
		`meta[property="og:price:amount"]`,
		`meta[itemprop="price"]`,
	} {
		if content, ok := doc.Find(sel).Attr("content"); ok {
			if cents := ParsePriceCents(content); cents > 0 {
				return cents
			}
		}
	}

	// Fall back to common price markup.
	var cents int64
	doc.Find(`[itemprop="price"], .price, .product-price, [class*="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if c := ParsePriceCents(strings.TrimSpace(s.Text())); c > 0 {
			cents = c
			return false
		}
		return true
	})
	return cents
}

// extractSpecs walks definition lists and two-column tables, the usual shapes
// of hardware spec sheets.
func extractSpecs(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		defs := dl.Find("dd")
		if terms.Length() != defs.Length() {
			return
		}
		terms.Each(func(i int, dt *goquery.Selection) {
			key := strings.TrimSpace(dt.Text())
			val := strings.TrimSpace(defs.Eq(i).Text())
			if key != "" && val != "" {
				specs[key] = val
			}
		})
	})

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		val := strings.TrimSpace(cells.Eq(1).Text())
		if key != "" && val != "" {
			specs[key] = val
		}
	})

	if len(specs) == 0 {
		return nil
	}
	return specs
}

func extractImages(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var images []string

	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			images = append(images, abs)
		}
	}

	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		add(og)
	}
	doc.Find(`img[itemprop="image"], .product-image img, .gallery img`).Each(func(_ int, s *goquery.Selection) {
		if len(images) >= 8 {
			return
		}
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
	})

	return images
}

var priceRE = regexp.MustCompile(`\d[\d\s,.]*`)

// ParsePriceCents extracts the first numeric amount from text like "$1,299.99"
// or "1299,99 EUR" and returns it in cents. Returns 0 when nothing parseable
// is found.
func ParsePriceCents(text string) int64 {
	match := priceRE.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, " ", "")

	// A trailing two-digit group after ',' or '.' is the decimal part; any
	// other separators are thousands grouping.
	lastComma := strings.LastIndex(match, ",")
	lastDot := strings.LastIndex(match, ".")
	sep := lastComma
	if lastDot > sep {
		sep = lastDot
	}
	if sep >= 0 && len(match)-sep-1 <= 2 {
		intPart := match[:sep]
		fracPart := match[sep+1:]
		intPart = strings.ReplaceAll(intPart, ",", "")
		intPart = strings.ReplaceAll(intPart, ".", "")
		whole, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0
		}
		for len(fracPart) < 2 {
			fracPart += "0"
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0
		}
		return whole*100 + frac
	}

	match = strings.ReplaceAll(match, ",", "")
	match = strings.ReplaceAll(match, ".", "")
	whole, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0
	}
	return whole * 100
}
