package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront-catalog-service/internal/domain"
)

// SourceContext carries file-level hints for normalization. Enhanced sources
// get name/description synthesis and the classifier applied on top of the
// plain field mapping.
type SourceContext struct {
	FileName string
	Enhanced bool
}

// Normalize maps one raw supplier record into the canonical Product. The
// boolean result is false when no usable name can be derived; such records are
// filtered, not errored: supplier files routinely carry junk rows.
//
// The record's category context (from extraction) takes precedence over its
// own category field; both fall back to "Uncategorized".
func Normalize(raw Raw, src SourceContext, now time.Time) (domain.Product, bool) {
	f := raw.Fields

	category := raw.Category
	if category == "" {
		category = coerceString(f["category"])
	}
	if category == "" {
		category = domain.DefaultCategory
	}

	name := resolveName(f, category, src)
	if name == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		Name:           name,
		Category:       category,
		Subcategory:    firstString(raw.Subcategory, coerceString(f["subcategory"])),
		Description:    coerceString(f["description"]),
		Price:          parsePrice(f["price"]),
		ImageURL:       firstString(coerceString(f["image_url"]), coerceString(f["image"]), coerceString(f["imageUrl"])),
		InStock:        parseInStock(f),
		CreatedAt:      now,
		UpdatedAt:      now,
		Brand:          coerceString(f["brand"]),
		Series:         coerceString(f["series"]),
		Material:       coerceString(f["material"]),
		Features:       joinFeatures(f["features"]),
		Specifications: coerceString(f["specifications"]),
		Dimensions:     coerceString(f["dimensions"]),
		Weight:         coerceString(f["weight"]),
		Color:          coerceString(f["color"]),
		Model:          coerceString(f["model"]),
		SKU:            coerceString(f["sku"]),
		Capacity:       resolveCapacity(f),
		Variants:       joinFeatures(f["variants"]),
	}

	if src.Enhanced && p.Description == "" {
		p.Description = synthesizeDescription(p)
	}
	return p, true
}

// resolveName tries the known name fields in order; the enhanced path then
// tries to construct one from the descriptive fields before giving up.
func resolveName(f map[string]any, category string, src SourceContext) string {
	if name := stringField(f, nameKeys...); name != "" {
		return name
	}
	if !src.Enhanced {
		return ""
	}
	series := coerceString(f["series"])
	model := coerceString(f["model"])
	if series != "" && model != "" {
		return series + " " + model
	}
	if dims := coerceString(f["dimensions"]); dims != "" {
		return category + " " + dims
	}
	if capL := coerceString(f["capacity_l"]); capL != "" {
		return category + " " + capL + "L"
	}
	return series
}

func synthesizeDescription(p domain.Product) string {
	if p.Series != "" {
		return p.Series + " " + p.Name
	}
	return p.Name + " (" + p.Category + ")"
}

// parsePrice accepts a JSON number or a numeric string; anything else leaves
// the price unset. "199.50" becomes 199.5, absence stays nil (never 0 or NaN).
func parsePrice(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case int:
		f := float64(val)
		return &f
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(val, "$"))
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// parseInStock defaults to true only when the field is absent. A present value
// is coerced to its boolean meaning, so 0, false and "false" all stay false.
func parseInStock(f map[string]any) bool {
	v, ok := f["in_stock"]
	if !ok {
		v, ok = f["inStock"]
	}
	if !ok || v == nil {
		return true
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "0", "false", "no":
			return false
		}
		return true
	default:
		return true
	}
}

// joinFeatures flattens an array value into a single ", "-joined string. A
// string passes through unchanged. The original array structure is lost; the
// CSV model has no room for it.
func joinFeatures(v any) string {
	switch val := v.(type) {
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return coerceString(v)
	}
}

func resolveCapacity(f map[string]any) string {
	if s := coerceString(f["capacity"]); s != "" {
		return s
	}
	if s := coerceString(f["capacity_l"]); s != "" {
		return s + "L"
	}
	return ""
}

// coerceString renders a scalar or mapping value as a plain string. Maps are
// flattened to sorted "key: value" pairs, which covers the suppliers that ship
// specifications as nested objects.
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := coerceString(val[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
