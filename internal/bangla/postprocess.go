package bangla

import (
	"math/rand"
	"strings"
)

// fillerProbability is the chance a reply gets a light spoken filler prefix.
const fillerProbability = 0.3

// fillers are short openers that make the bot sound like a call-center agent.
var fillers = []string{
	"আচ্ছা স্যার,",
	"জি স্যার,",
	"ঠিক আছে স্যার,",
	"হুম স্যার,",
}

// fillerSkipPrefixes suppress a filler when the reply already opens politely.
var fillerSkipPrefixes = []string{"স্যার", "আচ্ছা", "জি", "ঠিক আছে"}

// politenessReplacer adds a polite tone to common phrases.
var politenessReplacer = strings.NewReplacer(
	"ঠিক আছে", "ঠিক আছে স্যার",
	"বুঝেছি", "জি স্যার, বুঝেছি",
	"ধন্যবাদ", "অনেক ধন্যবাদ স্যার",
)

// pauseReplacer makes sentence breaks less abrupt for speech.
var pauseReplacer = strings.NewReplacer(
	"।  ", "। ",
	"। তারপর", "... তারপর",
	"। কিন্তু", "... কিন্তু",
)

// PostProcessor rewrites LLM replies into something closer to natural spoken
// Bangla. The random source is injectable so tests are deterministic.
type PostProcessor struct {
	rng *rand.Rand
}

// NewPostProcessor creates a post-processor with the given random source.
// A nil source disables the probabilistic filler prefix.
func NewPostProcessor(rng *rand.Rand) *PostProcessor {
	return &PostProcessor{rng: rng}
}

// Process combines politeness replacements, humanization and light cleanup.
func (p *PostProcessor) Process(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	text = p.emotionalTouch(text)
	text = p.humanize(text)

	return text
}

// emotionalTouch applies the politeness phrase replacements.
func (p *PostProcessor) emotionalTouch(text string) string {
	return politenessReplacer.Replace(text)
}

// humanize occasionally prefixes a filler and smooths sentence breaks.
func (p *PostProcessor) humanize(text string) string {
	stripped := strings.TrimSpace(text)

	if p.shouldAddFiller(stripped) {
		stripped = p.pickFiller() + " " + stripped
	}

	return pauseReplacer.Replace(stripped)
}

func (p *PostProcessor) shouldAddFiller(text string) bool {
	if p.rng == nil || p.rng.Float64() >= fillerProbability {
		return false
	}

	for _, prefix := range fillerSkipPrefixes {
		if strings.HasPrefix(text, prefix) {
			return false
		}
	}

	return true
}

func (p *PostProcessor) pickFiller() string {
	return fillers[p.rng.Intn(len(fillers))]
}
