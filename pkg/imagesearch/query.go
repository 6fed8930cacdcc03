package imagesearch

import (
	"regexp"
	"strings"
)

// stopWords are filtered out of a slide's title/content before it is
// turned into an image search topic: connective words, markup/boilerplate
// terms the generator's own prompts tend to echo back, and generic verbs
// that describe the editing action rather than the subject.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"it": true, "as": true, "from": true, "about": true, "into": true,
	"through": true, "during": true, "before": true, "after": true,
	"above": true, "below": true, "between": true, "under": true, "over": true,
	"slide": true, "content": true, "context": true, "title": true,
	"please": true, "make": true, "apply": true, "using": true, "use": true,
	"create": true, "new": true, "component": true, "replace": true,
	"replacing": true, "original": true, "request": true, "maintaining": true,
	"appropriate": true, "positioning": true, "styling": true, "effect": true,
	"effects": true, "style": true, "styled": true, "subtle": true,
	"slight": true, "add": true,
}

// adjectives are style descriptors that make poor search topics on their
// own — they narrow an image search without naming a subject.
var adjectives = map[string]bool{
	"retro": true, "vintage": true, "warm": true, "cool": true, "modern": true,
	"minimal": true, "bold": true, "chunky": true, "golden": true, "cream": true,
	"brown": true, "orange": true, "yellow": true, "mustard": true, "rust": true,
	"sepia": true, "diagonal": true, "radial": true,
}

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z\-']+`)

// maxTopicWords bounds how many meaningful words a derived topic keeps.
const maxTopicWords = 3

// maxTopicLength clamps the derived topic string's length.
const maxTopicLength = 80

// buildTopic extracts a concise, safe image search topic from free-form
// slide text: it tokenizes into words, drops stop words, adjectives, and
// anything shorter than three characters, and keeps up to maxTopicWords
// tokens. If filtering removes everything, it falls back to the first two
// raw words rather than returning an empty topic for non-empty input.
func buildTopic(text string) string {
	if text == "" {
		return ""
	}

	words := wordPattern.FindAllString(text, -1)

	filtered := make([]string, 0, maxTopicWords)
	for _, w := range words {
		lower := strings.ToLower(w)
		if stopWords[lower] || adjectives[lower] {
			continue
		}
		if len(lower) < 3 {
			continue
		}
		filtered = append(filtered, w)
		if len(filtered) >= maxTopicWords {
			break
		}
	}

	if len(filtered) == 0 && len(words) > 0 {
		n := 2
		if len(words) < n {
			n = len(words)
		}
		filtered = words[:n]
	}

	topic := strings.Join(filtered, " ")
	if len(topic) > maxTopicLength {
		topic = topic[:maxTopicLength]
	}
	return strings.TrimSpace(topic)
}
