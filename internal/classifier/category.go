package classifier

import "strings"

type categoryRule struct {
	substrings []string
	category   string
}

// Ordered lookup table for documentation categories. First match wins; the
// ordering is significant and must stay stable for reproducible
// categorization.
var categoryRules = []categoryRule{
	{[]string{"react"}, "react"},
	{[]string{"typescript", "javascript"}, "javascript"},
	{[]string{"node"}, "nodejs"},
	{[]string{"next"}, "nextjs"},
	{[]string{"css", "tailwind"}, "css"},
	{[]string{"html", "dom"}, "html"},
	{[]string{"postgre", "sql"}, "database"},
	{[]string{"python"}, "python"},
}

func MapDocCategory(doc string) string {
	docLower := strings.ToLower(doc)
	for _, rule := range categoryRules {
		for _, sub := range rule.substrings {
			if strings.Contains(docLower, sub) {
				return rule.category
			}
		}
	}
	return "programming"
}
