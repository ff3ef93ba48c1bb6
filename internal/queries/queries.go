// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queries turns one topic prompt into an ordered set of diversified
// search queries. Prompts about a person deliberately avoid echoing proper
// nouns so results are not dominated by an unrelated same-named entity;
// technology and general prompts are expanded with a fixed suffix list to
// maximize topical recall.
package queries

import "strings"

// MaxQueries caps the number of queries generated per prompt.
const MaxQueries = 20

// Intent is the coarse prompt classification driving query strategy.
type Intent string

const (
	IntentPerson     Intent = "person"
	IntentTechnology Intent = "technology"
	IntentGeneral    Intent = "general"
)

// personMarkers classify a prompt as being about a person. Bilingual: the
// pipeline is exercised with both English and Japanese prompts.
var personMarkers = []string{
	"さん", "ちゃん", "くん", "歌手", "配信者", "アイドル", "声優", "活動",
	"vtuber", "singer", "streamer", "youtuber", "who is", "artist",
}

// technologyMarkers classify a prompt as technical.
var technologyMarkers = []string{
	"技術", "開発", "プログラミング", "実装", "フレームワーク",
	"technology", "software", "programming", "framework", "machine learning",
	"ai", "api", "cloud", "protocol", "algorithm",
}

// roleCategories are the generic role nouns substituted for a person's name.
var roleCategories = []string{"VTuber", "歌手", "singer", "動画クリエイター", "video creator"}

// activityTerms maps prompt substrings to the activity keyword emitted in
// person queries.
var activityTerms = []struct{ marker, term string }{
	{"音楽", "音楽"},
	{"歌", "歌"},
	{"動画", "動画"},
	{"配信", "配信"},
	{"ライブ", "ライブ"},
	{"music", "music"},
	{"song", "songs"},
	{"video", "videos"},
	{"stream", "streaming"},
	{"live", "live performance"},
}

// topicSuffixes expand a technology or general topic.
var topicSuffixes = []string{
	"latest trends", "technology", "implementation", "case studies",
	"challenges", "market overview",
}

// requestPhrases are trailing request fragments stripped when extracting the
// main topic from a prompt.
var requestPhrases = []string{
	"について詳しく知りたい", "について教えて", "について", "を調べて", "とは",
	"tell me about", "what is", "explain", "details about", "research",
}

// Generate returns up to MaxQueries unique queries for the prompt, in a
// deterministic order. Generation is pure: the same prompt always yields the
// same sequence.
func Generate(prompt string) []string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	intent := ClassifyIntent(prompt)

	var out []string
	switch intent {
	case IntentPerson:
		out = personQueries(prompt)
	case IntentTechnology:
		out = topicQueries(prompt, topicSuffixes)
	default:
		out = topicQueries(prompt, topicSuffixes[:4])
	}

	out = append(out, windowQueries(prompt)...)

	if intent == IntentPerson {
		out = dropForbidden(out, forbiddenNouns(prompt))
	}

	return dedupe(out, MaxQueries)
}

// ClassifyIntent picks the query strategy by substring keyword matching.
// Person wins over technology when both match.
func ClassifyIntent(prompt string) Intent {
	lower := strings.ToLower(prompt)
	for _, m := range personMarkers {
		if strings.Contains(lower, m) {
			return IntentPerson
		}
	}
	for _, m := range technologyMarkers {
		if strings.Contains(lower, m) {
			return IntentTechnology
		}
	}
	return IntentGeneral
}

// personQueries crosses generic role categories with the activity keywords
// found in the prompt, then adds the bare categories. The prompt's proper
// nouns never appear.
func personQueries(prompt string) []string {
	lower := strings.ToLower(prompt)

	var activities []string
	seen := map[string]bool{}
	for _, at := range activityTerms {
		if strings.Contains(lower, at.marker) && !seen[at.term] {
			seen[at.term] = true
			activities = append(activities, at.term)
		}
	}

	var out []string
	for _, category := range roleCategories {
		for _, activity := range activities {
			out = append(out, category+" "+activity)
		}
	}
	out = append(out, roleCategories...)
	return out
}

// topicQueries emits the extracted main topic followed by suffix expansions.
func topicQueries(prompt string, suffixes []string) []string {
	topic := mainTopic(prompt)
	out := []string{topic}
	for _, suffix := range suffixes {
		out = append(out, topic+" "+suffix)
	}
	return out
}

// mainTopic strips request phrasing from the prompt.
func mainTopic(prompt string) string {
	topic := prompt
	lower := strings.ToLower(topic)
	for _, phrase := range requestPhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			topic = strings.TrimSpace(topic[:idx] + topic[idx+len(phrase):])
			lower = strings.ToLower(topic)
		}
	}
	if topic == "" {
		return prompt
	}
	return topic
}

// windowQueries emits every contiguous 2-word window plus the first 3-word
// window of the raw prompt as fallback queries.
func windowQueries(prompt string) []string {
	words := strings.Fields(prompt)
	var out []string
	for i := 0; i+2 <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+2], " "))
	}
	if len(words) >= 3 {
		out = append(out, strings.Join(words[:3], " "))
	}
	return out
}

// forbiddenNouns extracts the proper nouns a person prompt must not leak
// into queries: the segment before the first Japanese possessive or topic
// particle, tokens carrying an honorific, and capitalized English tokens.
func forbiddenNouns(prompt string) []string {
	var nouns []string

	for _, particle := range []string{"の", "は", "が", "を"} {
		if idx := strings.Index(prompt, particle); idx > 0 {
			head := strings.TrimSpace(prompt[:idx])
			if head != "" && len([]rune(head)) <= 10 {
				nouns = append(nouns, head)
			}
			break
		}
	}

	for _, word := range strings.Fields(prompt) {
		for _, honorific := range []string{"さん", "ちゃん", "くん"} {
			if strings.HasSuffix(word, honorific) {
				nouns = append(nouns, strings.TrimSuffix(word, honorific))
			}
		}
		if isCapitalized(word) {
			nouns = append(nouns, word)
		}
	}

	return nouns
}

func isCapitalized(word string) bool {
	if word == "" {
		return false
	}
	c := word[0]
	return c >= 'A' && c <= 'Z'
}

// dropForbidden removes queries containing any forbidden noun.
func dropForbidden(queries, nouns []string) []string {
	if len(nouns) == 0 {
		return queries
	}
	kept := queries[:0]
	for _, q := range queries {
		leak := false
		for _, noun := range nouns {
			if noun != "" && strings.Contains(q, noun) {
				leak = true
				break
			}
		}
		if !leak {
			kept = append(kept, q)
		}
	}
	return kept
}

// dedupe removes duplicates preserving first occurrence, capped at limit.
func dedupe(queries []string, limit int) []string {
	seen := make(map[string]bool, len(queries))
	var out []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) >= limit {
			break
		}
	}
	return out
}
