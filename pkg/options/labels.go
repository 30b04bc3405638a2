package options

import (
	"strings"

	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/model"
)

// labelKeys is the display fallback chain: title-like attributes first, then
// name-like ones, then identifiers.
var labelKeys = []string{
	"title",
	"jobTitle",
	"subject",
	"name",
	"fullName",
	"employeeName",
	"departmentName",
	"centerName",
	"assetName",
	"displayName",
	"label",
	"email",
	"id",
	"_id",
}

// Label returns the display label of record.
func Label(record client.Record) string {
	for _, key := range labelKeys {
		if value := record.String(key); value != "" {
			return value
		}
	}
	return ""
}

// Value returns the option value stored for record when it is selected
// through a link to target. Designation links store the display title rather
// than the identifier; the backend matches designations by title.
func Value(target string, record client.Record) string {
	if strings.EqualFold(target, model.DoctypeDesignation) {
		if title := Label(record); title != "" {
			return title
		}
	}
	return record.ID()
}

// ToOptions maps fetched records to options, skipping records with neither
// label nor value.
func ToOptions(target string, records []client.Record) []model.Option {
	out := make([]model.Option, 0, len(records))
	for _, record := range records {
		value := Value(target, record)
		label := Label(record)
		if value == "" && label == "" {
			continue
		}
		if label == "" {
			label = value
		}
		out = append(out, model.Option{Label: label, Value: value})
	}
	return out
}

// Synthetic returns the sentinel options prepended for field on recordType.
// Announcement-like types get "All" and "None" on the department field and
// "None" on the target-center field.
func Synthetic(recordType, field string) []model.Option {
	if !model.IsAnnouncementType(recordType) {
		return nil
	}
	switch field {
	case "departmentId", "department":
		return []model.Option{
			{Label: "All Departments", Value: model.SentinelAll, Sentinel: true},
			{Label: model.SentinelNone, Value: model.SentinelNone, Sentinel: true},
		}
	case "targetCenter":
		return []model.Option{{Label: model.SentinelNone, Value: model.SentinelNone, Sentinel: true}}
	}
	return nil
}

// ParseDesignations reads a department's designation whitelist, stored
// either as a list or as a newline/comma separated string.
func ParseDesignations(raw any) []string {
	var items []string
	switch typed := raw.(type) {
	case nil:
		return nil
	case string:
		items = strings.FieldsFunc(typed, func(r rune) bool { return r == '\n' || r == ',' || r == '\r' })
	case []string:
		items = typed
	case []any:
		for _, item := range typed {
			switch v := item.(type) {
			case string:
				items = append(items, v)
			case map[string]any:
				if title, ok := v["title"].(string); ok {
					items = append(items, title)
				}
			}
		}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		key := strings.ToLower(trimmed)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FilterByWhitelist keeps options whose label matches an entry of whitelist,
// ignoring case. An empty whitelist keeps everything.
func FilterByWhitelist(opts []model.Option, whitelist []string) []model.Option {
	if len(whitelist) == 0 {
		return opts
	}
	allowed := make(map[string]struct{}, len(whitelist))
	for _, entry := range whitelist {
		allowed[strings.ToLower(strings.TrimSpace(entry))] = struct{}{}
	}
	out := make([]model.Option, 0, len(opts))
	for _, opt := range opts {
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(opt.Label))]; ok {
			out = append(out, opt)
		}
	}
	return out
}
