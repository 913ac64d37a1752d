package upload

import "strings"

// ContentTypeAllowList decides which upload content types are accepted.
// Entries are matched three ways: "*" (or "*/*") admits everything,
// "image/*" admits a whole top-level type, anything else must match exactly.
type ContentTypeAllowList []string

// ParseAllowList splits a comma-separated configuration value into an
// allow-list, trimming whitespace and dropping empty entries.
func ParseAllowList(raw string) ContentTypeAllowList {
	var list ContentTypeAllowList
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			list = append(list, entry)
		}
	}
	return list
}

// Allows reports whether the given content type is on the list. An empty
// content type only passes an allow-everything list.
func (l ContentTypeAllowList) Allows(contentType string) bool {
	for _, entry := range l {
		switch {
		case entry == "*" || entry == "*/*":
			return true
		case contentType == "":
			continue
		case strings.HasSuffix(entry, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(entry, "*")) {
				return true
			}
		case entry == contentType:
			return true
		}
	}
	return false
}
