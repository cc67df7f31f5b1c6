package catalog

import (
	"strings"
)

// Top-level labels assigned by the classifier. CategoryOther is the catch-all;
// Classify is total and never fails.
const (
	CategoryMetalPen    = "Metal Pen"
	CategoryKitchenware = "Kitchenware"
	CategoryHousehold   = "Household"
	CategoryPlasticware = "Plasticware"
	CategoryOther       = "Other"
)

type categoryRule struct {
	label    string
	keywords []string
}

// categoryRules is matched in order against the concatenated product name,
// category context, series and source file name. First hit wins, so the
// keyword lists are curated to keep ambiguous terms out of earlier entries.
var categoryRules = []categoryRule{
	{CategoryMetalPen, []string{"pen", "ballpoint", "roller", "fountain", "stylus"}},
	{CategoryKitchenware, []string{"cookware", "casserole", "tiffin", "lunch box", "flask", "bottle", "jug", "kettle", "mug", "tumbler", "serving", "kitchen"}},
	{CategoryHousehold, []string{"bucket", "mop", "basket", "hanger", "stool", "dustbin", "bin", "laundry", "storage box", "household"}},
	{CategoryPlasticware, []string{"plastic", "container", "crate", "tray", "drum", "pet jar", "polymer"}},
}

// fileRules maps a source file name substring to a label when no keyword
// matched the record itself.
var fileRules = []categoryRule{
	{CategoryMetalPen, []string{"pen"}},
	{CategoryKitchenware, []string{"kitchen", "steel", "thermo"}},
	{CategoryHousehold, []string{"household", "home"}},
	{CategoryPlasticware, []string{"plastic"}},
}

type subcategoryRule struct {
	label    string
	keywords []string
}

var subcategoryRules = []subcategoryRule{
	{"Ball Pens", []string{"ball"}},
	{"Roller Pens", []string{"roller"}},
	{"Fountain Pens", []string{"fountain"}},
	{"Flasks & Bottles", []string{"flask", "bottle", "tumbler"}},
	{"Lunch Boxes", []string{"lunch", "tiffin"}},
	{"Cookware", []string{"casserole", "cookware", "kadai"}},
	{"Storage", []string{"container", "jar", "basket", "crate", "storage"}},
	{"Cleaning", []string{"bucket", "mop", "dustbin", "bin"}},
}

// Classify assigns one of the fixed top-level labels using substring matching
// over everything known about the record. The file name fallback catches
// suppliers whose records carry no usable text at all.
func Classify(name, category, series, fileName string) string {
	haystack := strings.ToLower(name + " " + category + " " + series + " " + fileName)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.label
			}
		}
	}
	file := strings.ToLower(fileName)
	for _, rule := range fileRules {
		for _, kw := range rule.keywords {
			if strings.Contains(file, kw) {
				return rule.label
			}
		}
	}
	return CategoryOther
}

// ClassifySubcategory resolves a subcategory label the same way, falling back
// to the raw category/series context when no table entry matches.
func ClassifySubcategory(name, category, series string) string {
	haystack := strings.ToLower(name + " " + category + " " + series)
	for _, rule := range subcategoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.label
			}
		}
	}
	return firstString(category, series)
}
