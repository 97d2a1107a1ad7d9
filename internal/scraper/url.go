package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"remote-job-scraper/internal/config"
)

// BuildSearchURL fills the keyword into pathTemplate and joins it onto base.
// The keyword is path-escaped before the '?' and query-escaped after it.
func BuildSearchURL(base, pathTemplate, keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)

	path, query, hasQuery := strings.Cut(pathTemplate, "?")
	path = strings.ReplaceAll(path, config.KeywordPlaceholder, url.PathEscape(keyword))
	if hasQuery {
		query = strings.ReplaceAll(query, config.KeywordPlaceholder, url.QueryEscape(keyword))
		path += "?" + query
	}

	u, err := ResolveURL(base, path)
	if err != nil {
		return "", fmt.Errorf("build search url: %w", err)
	}
	return u, nil
}

// ResolveURL resolves href (absolute or relative) against base.
// An empty href resolves to an empty string.
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
