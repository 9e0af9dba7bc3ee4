package analysis

import (
	"fmt"
	"regexp"
	"sort"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	datePattern  = regexp.MustCompile(`\b(?:\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}[/\-]\d{1,2}[/\-]\d{1,2})\b`)
	moneyPattern = regexp.MustCompile(`\$\s?[\d,]+\.?\d*|\b\d+\.\d{2}\s?(?:USD|EUR|GBP)\b`)
	urlPattern   = regexp.MustCompile(`https?://[A-Za-z0-9$\-_@.&+!*(),%/:=?#~]+`)
	namePattern  = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
)

// ExtractKeyInformation pulls structured facts out of free text with
// pattern matching. It needs no model and always succeeds; absent
// categories are simply missing from the map.
func ExtractKeyInformation(text string) map[string][]string {
	info := make(map[string][]string)

	if emails := unique(emailPattern.FindAllString(text, -1)); len(emails) > 0 {
		info["emails"] = emails
	}
	if groups := phonePattern.FindAllStringSubmatch(text, -1); len(groups) > 0 {
		var phones []string
		for _, g := range groups {
			phones = append(phones, fmt.Sprintf("(%s)%s-%s", g[1], g[2], g[3]))
		}
		info["phone_numbers"] = unique(phones)
	}
	if dates := unique(datePattern.FindAllString(text, -1)); len(dates) > 0 {
		info["dates"] = dates
	}
	if amounts := unique(moneyPattern.FindAllString(text, -1)); len(amounts) > 0 {
		info["monetary_amounts"] = amounts
	}
	if urls := unique(urlPattern.FindAllString(text, -1)); len(urls) > 0 {
		info["urls"] = urls
	}
	if names := unique(namePattern.FindAllString(text, -1)); len(names) > 0 {
		info["potential_names"] = names
	}
	return info
}

// unique sorts and deduplicates, keeping output deterministic
func unique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
