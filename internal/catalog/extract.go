package catalog

import (
	"sort"
)

// Raw is one candidate product record pulled out of a supplier document,
// tagged with the category/subcategory context it was found under. Fields is
// the record as parsed from JSON; nothing has been coerced yet.
type Raw struct {
	Fields      map[string]any
	Category    string
	Subcategory string
}

// Shape is the closed set of supplier JSON layouts the extractor understands.
// Classification happens once, up front, so dispatch is an exhaustive switch
// and the "nothing matched" case is explicit instead of an implicit empty
// return buried in field-presence checks.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeCategoryArray is [{"category": ..., "products": [...]}, ...].
	ShapeCategoryArray
	// ShapeNestedSubcategories is
	// [{"category": ..., "subcategories": [{"name": ..., "products": [...]}]}, ...].
	ShapeNestedSubcategories
	// ShapeFlatArray is a plain [{"name": ...}, ...] product list.
	ShapeFlatArray
	// ShapeObjectWithProducts is {"category": ..., "products": [...]}.
	ShapeObjectWithProducts
	// ShapeSingleProduct is one product object at the top level.
	ShapeSingleProduct
	// ShapeCategoryKeyedObject maps category names to product arrays (or to a
	// single product object).
	ShapeCategoryKeyedObject
)

func (s Shape) String() string {
	switch s {
	case ShapeCategoryArray:
		return "category-array"
	case ShapeNestedSubcategories:
		return "nested-subcategories"
	case ShapeFlatArray:
		return "flat-array"
	case ShapeObjectWithProducts:
		return "object-with-products"
	case ShapeSingleProduct:
		return "single-product"
	case ShapeCategoryKeyedObject:
		return "category-keyed-object"
	default:
		return "unknown"
	}
}

// nameKeys are the fields that make a record look like a product.
var nameKeys = []string{"name", "product_name", "title"}

// DetectShape classifies a parsed JSON document into one of the supported
// supplier layouts. The probes run in the same precedence order the extraction
// uses, so a document matching several layouts is classified consistently.
func DetectShape(doc any) Shape {
	switch v := doc.(type) {
	case []any:
		if len(v) == 0 {
			return ShapeFlatArray
		}
		if everyElement(v, func(m map[string]any) bool { _, ok := m["products"].([]any); return ok }) {
			return ShapeCategoryArray
		}
		if everyElement(v, hasProductSubcategories) {
			return ShapeNestedSubcategories
		}
		if everyElement(v, func(m map[string]any) bool { return true }) {
			return ShapeFlatArray
		}
		return ShapeUnknown
	case map[string]any:
		if _, ok := v["products"].([]any); ok {
			return ShapeObjectWithProducts
		}
		for _, k := range nameKeys {
			if _, ok := v[k]; ok {
				return ShapeSingleProduct
			}
		}
		if len(v) > 0 {
			return ShapeCategoryKeyedObject
		}
		return ShapeUnknown
	default:
		return ShapeUnknown
	}
}

// Extract walks a parsed supplier document and yields the flat, ordered list
// of raw product candidates with their inherited category context. A document
// whose shape is not recognized yields nothing; that is not an error here, the
// merger logs it as zero extracted.
func Extract(doc any) []Raw {
	switch DetectShape(doc) {
	case ShapeCategoryArray:
		return extractCategoryArray(doc.([]any))
	case ShapeNestedSubcategories:
		return extractNested(doc.([]any))
	case ShapeFlatArray:
		return extractFlat(doc.([]any))
	case ShapeObjectWithProducts:
		obj := doc.(map[string]any)
		return emitProducts(objAny(obj["products"]), stringField(obj, "category", "name"), "")
	case ShapeSingleProduct:
		return []Raw{{Fields: doc.(map[string]any)}}
	case ShapeCategoryKeyedObject:
		return extractCategoryKeyed(doc.(map[string]any))
	default:
		return nil
	}
}

func extractCategoryArray(arr []any) []Raw {
	var out []Raw
	for _, el := range arr {
		m := el.(map[string]any)
		category := stringField(m, "category", "name")
		out = append(out, emitProducts(objAny(m["products"]), category, "")...)
	}
	return out
}

func extractNested(arr []any) []Raw {
	var out []Raw
	for _, el := range arr {
		m := el.(map[string]any)
		category := stringField(m, "category", "name")
		subs, _ := m["subcategories"].([]any)
		for _, sel := range subs {
			sm, ok := sel.(map[string]any)
			if !ok {
				continue
			}
			sub := stringField(sm, "name", "subcategory")
			out = append(out, emitProducts(objAny(sm["products"]), category, sub)...)
		}
	}
	return out
}

func extractFlat(arr []any) []Raw {
	var out []Raw
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Raw{Fields: m})
		}
	}
	return out
}

func extractCategoryKeyed(obj map[string]any) []Raw {
	// Map iteration order is random; sort keys so the emitted sequence is
	// deterministic and the merged output stays reviewable.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Raw
	for _, k := range keys {
		switch v := obj[k].(type) {
		case []any:
			out = append(out, emitProducts(v, k, "")...)
		case map[string]any:
			out = append(out, Raw{Fields: v, Category: k})
		}
	}
	return out
}

func emitProducts(products []any, category, subcategory string) []Raw {
	if category == "" {
		category = "Uncategorized"
	}
	var out []Raw
	for _, el := range products {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Raw{Fields: m, Category: category, Subcategory: subcategory})
		}
	}
	return out
}

// everyElement reports whether arr is non-empty, every element is an object,
// and each satisfies pred.
func everyElement(arr []any, pred func(map[string]any) bool) bool {
	if len(arr) == 0 {
		return false
	}
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok || !pred(m) {
			return false
		}
	}
	return true
}

func hasProductSubcategories(m map[string]any) bool {
	subs, ok := m["subcategories"].([]any)
	if !ok || len(subs) == 0 {
		return false
	}
	for _, sel := range subs {
		sm, ok := sel.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := sm["products"].([]any); !ok {
			return false
		}
	}
	return true
}

// stringField returns the first non-empty string value among keys.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func objAny(v any) []any {
	arr, _ := v.([]any)
	return arr
}
