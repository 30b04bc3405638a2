package linkoptions

import (
	"sort"
	"strings"

	"github.com/goliatone/go-recordforms/pkg/model"
)

// Option is one entry of the endpoint response.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Search filters options by a case-insensitive label match. Sentinel options
// always lead; prefix matches come before other matches and the resolver
// order is kept otherwise. An empty query keeps every option.
func Search(options []model.Option, query string, limit int, opts Options) []Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matches := make([]matchedOption, 0, len(options))
	for _, opt := range options {
		lower := strings.ToLower(opt.Label)
		if q != "" && !opt.Sentinel && !strings.Contains(lower, q) {
			continue
		}
		matches = append(matches, matchedOption{
			option:   opt,
			isPrefix: q == "" || strings.HasPrefix(lower, q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].option.Sentinel != matches[j].option.Sentinel {
			return matches[i].option.Sentinel
		}
		return matches[i].isPrefix && !matches[j].isPrefix
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Option, 0, len(matches))
	for _, match := range matches {
		out = append(out, Option{Label: match.option.Label, Value: match.option.Value})
	}
	return out
}

type matchedOption struct {
	option   model.Option
	isPrefix bool
}
