// Package prompt builds the system prompts for the translation and analysis
// modes the tool offers.
package prompt

import (
	"fmt"
	"slices"
	"strings"
)

// Mode selects which analysis prompt is built for the input text.
type Mode string

const (
	ModeTranslate Mode = "translate"
	ModeSentiment Mode = "sentiment"
	ModeGrammar   Mode = "grammar"
	ModeComms     Mode = "comms"
	ModeCulture   Mode = "culture"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeTranslate, ModeSentiment, ModeGrammar, ModeComms, ModeCulture:
		return true
	}
	return false
}

// Languages offered by the interactive pickers.
var Languages = []string{"English", "Spanish", "French", "German", "Japanese"}

// Contexts are the cultural registers a translation can target.
var Contexts = []string{"Formal", "Casual", "Business", "Youth Slang", "Poetic"}

func SupportedLanguage(lang string) bool {
	return slices.Contains(Languages, lang)
}

func SupportedContext(context string) bool {
	return slices.Contains(Contexts, context)
}

// Request carries the knobs for building one prompt.
type Request struct {
	Mode       Mode
	SourceLang string
	TargetLang string
	// Context is the cultural register, e.g. "Formal"; empty means neutral.
	Context string
	Text    string
}

// Build returns the system prompt and the user message for the request.
func Build(req Request) (system string, user string, err error) {
	if !req.Mode.Valid() {
		return "", "", fmt.Errorf("unsupported mode %q", req.Mode)
	}
	if req.Text == "" {
		return "", "", fmt.Errorf("text is required")
	}

	switch req.Mode {
	case ModeTranslate:
		if req.SourceLang == "" || req.TargetLang == "" {
			return "", "", fmt.Errorf("translate mode requires source and target languages")
		}
		var register string
		if req.Context != "" {
			register = fmt.Sprintf(" Match a %s register.", strings.ToLower(req.Context))
		}
		system = fmt.Sprintf(
			"You are an expert translator. Translate the user's text from %s to %s, preserving meaning, tone, and idiom.%s Reply with the translation only.",
			req.SourceLang, req.TargetLang, register)
	case ModeSentiment:
		system = "You are a sentiment analyst. Describe the overall sentiment of the user's text, note emotionally loaded phrases, and rate the sentiment from -5 (very negative) to +5 (very positive)."
	case ModeGrammar:
		system = fmt.Sprintf(
			"You are a language teacher. Explain the notable grammatical structures in the user's %s text and how they carry over to %s.",
			orAny(req.SourceLang), orAny(req.TargetLang))
	case ModeComms:
		system = "You are a communication coach. Assess how clearly the user's text communicates its intent and suggest improvements for the stated audience."
	case ModeCulture:
		system = "You are a cultural consultant. Identify cultural references, idioms, and allusions in the user's text and explain them for a reader unfamiliar with the source culture."
	}

	return system, req.Text, nil
}

func orAny(lang string) string {
	if lang == "" {
		return "source-language"
	}
	return lang
}
