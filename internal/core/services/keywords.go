package services

import (
	"regexp"
	"strings"
)

var (
	queryPunctuation = regexp.MustCompile(`[“”"'’‘，,。；;：:！!？?（）()【】\[\]<>《》]`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	keywordToken     = regexp.MustCompile(`([\p{Han}]{2,}|[A-Za-z0-9_]{3,})`)
)

// Chinese question prefixes that carry no search signal. Checked in
// order; only the first match is stripped.
var queryPrefixes = []string{
	"介绍一下", "介绍下", "介绍", "什么是", "请介绍", "讲一下", "讲讲", "说明一下", "解释一下", "讲解一下",
}

var keywordStopwords = map[string]struct{}{
	"介绍": {}, "介绍一下": {}, "介绍下": {}, "讲一下": {}, "讲讲": {},
	"说明": {}, "说明一下": {}, "解释": {}, "解释一下": {},
	"如何": {}, "是什么": {}, "什么是": {}, "是否": {}, "可以": {},
	"需要": {}, "应该": {}, "有没有": {}, "怎么": {},
	"哪个": {}, "哪些": {}, "主要": {}, "内容": {}, "信息": {},
	"相关": {}, "问题": {}, "存在": {}, "系统": {},
}

// normalizeQuery strips punctuation, collapses whitespace and removes a
// leading Chinese question prefix such as "介绍一下" or "什么是".
func normalizeQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	trimmed = queryPunctuation.ReplaceAllString(trimmed, " ")
	trimmed = strings.TrimSpace(whitespaceRuns.ReplaceAllString(trimmed, " "))
	for _, prefix := range queryPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
			break
		}
	}
	return trimmed
}

// extractKeywords tokenises a normalized query into search keywords:
// runs of two or more Han characters, or three or more latin word
// characters. Han tokens are expanded into bigrams and, for short
// tokens, single characters, so substring matching still works when a
// document phrases a concept differently. Stopwords are dropped.
//
// Queries so short that no token qualifies fall back to single Han
// characters, keeping one- or two-character Chinese queries usable.
func extractKeywords(query string) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	trimmed := normalizeQuery(query)

	var keywords []string
	for _, m := range keywordToken.FindAllStringSubmatch(trimmed, -1) {
		if token := strings.TrimSpace(m[1]); token != "" {
			keywords = append(keywords, token)
		}
	}
	if len(keywords) > 0 {
		return filterStopwords(expandHanKeywords(keywords))
	}

	compact := []rune(whitespaceRuns.ReplaceAllString(trimmed, ""))
	if len(compact) <= 3 {
		for _, r := range compact {
			if isHan(r) {
				keywords = append(keywords, string(r))
			}
		}
	}
	return filterStopwords(keywords)
}

// expandHanKeywords widens the keyword set while preserving first-seen
// order: short tokens contribute their individual Han characters,
// longer tokens their overlapping bigrams.
func expandHanKeywords(base []string) []string {
	seen := make(map[string]struct{}, len(base))
	expanded := make([]string, 0, len(base))
	add := func(kw string) {
		if _, ok := seen[kw]; !ok {
			seen[kw] = struct{}{}
			expanded = append(expanded, kw)
		}
	}

	for _, token := range base {
		add(token)
	}
	for _, token := range base {
		if strings.TrimSpace(token) == "" {
			continue
		}
		compact := []rune(whitespaceRuns.ReplaceAllString(token, ""))
		if len(compact) <= 1 {
			add(string(compact))
			continue
		}
		if len(compact) <= 3 {
			for _, r := range compact {
				if isHan(r) {
					add(string(r))
				}
			}
		}
		if len(compact) >= 3 {
			for i := 0; i+1 < len(compact); i++ {
				add(string(compact[i : i+2]))
			}
		}
	}
	return expanded
}

func filterStopwords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	filtered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		compact := strings.TrimSpace(kw)
		if compact == "" {
			continue
		}
		if _, stop := keywordStopwords[compact]; stop {
			continue
		}
		filtered = append(filtered, compact)
	}
	return filtered
}

func isHan(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
