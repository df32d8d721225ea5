package tui

import (
	"regexp"
	"strings"
)

var (
	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// bestSentence splits text into sentences and returns them with the index of
// the one sharing the most distinct words with question. The index is -1 when
// the question has no words.
func bestSentence(text, question string) ([]string, int) {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{text}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	qTokens := toTokenSet(question)
	if len(qTokens) == 0 {
		return sentences, -1
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return sentences, bestIdx
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := map[string]struct{}{}
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
