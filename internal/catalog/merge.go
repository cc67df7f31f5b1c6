package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-catalog-service/internal/domain"
)

// SourceError records one supplier file that contributed nothing to a merge.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

// Report is the outcome of one merge run. Partial success is the expected
// steady state: Errors lists the sources that failed while Products holds the
// union from the ones that did not.
type Report struct {
	RunID     string
	Products  []domain.Product
	Errors    []SourceError
	PerSource map[string]int
	StartedAt time.Time
	Duration  time.Duration
}

// Loader fetches the raw bytes of one catalog source.
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// FileLoader reads sources from the local filesystem.
type FileLoader struct{}

func (FileLoader) Load(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// HTTPLoader fetches sources over HTTP(S). The client timeout is the only
// guard against a hung supplier endpoint; the merge itself does not cancel.
type HTTPLoader struct {
	Client *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	return io.ReadAll(res.Body)
}

// schemeLoader picks FileLoader or HTTPLoader per source path.
type schemeLoader struct {
	file Loader
	http Loader
}

func (l schemeLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return l.http.Load(ctx, path)
	}
	return l.file.Load(ctx, path)
}

// Merger runs the extract -> normalize (-> classify) pipeline over a set of
// sources and produces one flat, ID-assigned, sorted product list.
type Merger struct {
	loader Loader
	logger *log.Logger
	now    func() time.Time
}

// NewMerger creates a Merger with the given loader and logger. A nil loader
// dispatches on the path scheme (file vs. http); a nil logger discards.
func NewMerger(loader Loader, logger *log.Logger) *Merger {
	if loader == nil {
		loader = schemeLoader{file: FileLoader{}, http: HTTPLoader{}}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Merger{loader: loader, logger: logger, now: time.Now}
}

// Merge processes every source in order. A source that cannot be read or
// parsed contributes zero products and one recorded error; the run never
// aborts for a single bad file. IDs are assigned as one global sequence in
// processing order, then the list is sorted by (category, subcategory, name)
// with case-sensitive byte comparison for deterministic output.
func (m *Merger) Merge(ctx context.Context, sources []Source) *Report {
	started := m.now()
	report := &Report{
		RunID:     uuid.NewString(),
		PerSource: make(map[string]int, len(sources)),
		StartedAt: started,
	}

	for _, src := range sources {
		products, err := m.mergeSource(ctx, src)
		if err != nil {
			m.logger.Printf("WARN: merge %s: source %s contributed nothing: %v", report.RunID, src.Name, err)
			report.Errors = append(report.Errors, SourceError{Source: src.Name, Err: err})
			report.PerSource[src.Name] = 0
			continue
		}
		report.PerSource[src.Name] = len(products)
		report.Products = append(report.Products, products...)
	}

	for i := range report.Products {
		report.Products[i].ID = i + 1
	}
	SortProducts(report.Products)

	report.Duration = m.now().Sub(started)
	m.logger.Printf("INFO: merge %s: %d products from %d/%d sources in %s",
		report.RunID, len(report.Products), len(sources)-len(report.Errors), len(sources), report.Duration)
	return report
}

// mergeSource contains all failures for one supplier file, including panics
// out of unexpected value shapes deep in a document.
func (m *Merger) mergeSource(ctx context.Context, src Source) (products []domain.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			products, err = nil, fmt.Errorf("panic processing source: %v", r)
		}
	}()

	data, err := m.loader.Load(ctx, src.Path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	raws := Extract(doc)
	if len(raws) == 0 {
		m.logger.Printf("INFO: source %s: shape %s, extracted 0 records", src.Name, DetectShape(doc))
		return nil, nil
	}

	now := m.now()
	srcCtx := SourceContext{FileName: src.Name, Enhanced: src.Enhanced}
	skipped := 0
	seq := 0
	for _, raw := range raws {
		p, ok := Normalize(raw, srcCtx, now)
		if !ok {
			skipped++
			continue
		}
		if src.Enhanced {
			series := p.Series
			p.Category = Classify(p.Name, raw.Category, series, src.Name)
			if p.Subcategory == "" {
				p.Subcategory = ClassifySubcategory(p.Name, raw.Category, series)
			}
		}
		seq++
		if p.SKU == "" {
			p.SKU = fmt.Sprintf("%s-%04d", src.Tag, seq)
		}
		products = append(products, p)
	}

	m.logger.Printf("INFO: source %s: extracted %d, kept %d, skipped %d (no name)",
		src.Name, len(raws), len(products), skipped)
	return products, nil
}

// SortProducts orders a product list by (category, subcategory, name) using
// plain byte comparison, matching the on-disk CSV ordering.
func SortProducts(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Subcategory != b.Subcategory {
			return a.Subcategory < b.Subcategory
		}
		return a.Name < b.Name
	})
}
