package source

import (
	"slices"
	"strings"

	"github.com/ashita-ai/aitools/internal/model"
)

// Signals are the repository fields category inference looks at.
type Signals struct {
	Topics      []string
	Description string
	Language    string
}

// Rule assigns Category when any of its conditions hold: a topic in Topics,
// a description containing one of Keywords, or a declared language in
// Languages. Comparisons are case-insensitive.
type Rule struct {
	Category  model.Category
	Topics    []string
	Keywords  []string
	Languages []string
}

// Match reports whether s satisfies r.
func (r Rule) Match(s Signals) bool {
	for _, topic := range s.Topics {
		if slices.Contains(r.Topics, strings.ToLower(topic)) {
			return true
		}
	}
	desc := strings.ToLower(s.Description)
	for _, kw := range r.Keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	lang := strings.ToLower(s.Language)
	return lang != "" && slices.Contains(r.Languages, lang)
}

// Rules is an ordered rule table. The first matching rule wins.
type Rules []Rule

// Infer returns the category of the first rule matching s, or
// model.FallbackCategory when none does.
func (rs Rules) Infer(s Signals) model.Category {
	for _, r := range rs {
		if r.Match(s) {
			return r.Category
		}
	}
	return model.FallbackCategory
}

// DefaultRules maps repository topics, description keywords and languages
// onto catalog categories. Specific media categories come before the broad
// text and generative buckets, whose keywords would otherwise claim nearly
// every repository. Values are lower case.
var DefaultRules = Rules{
	{
		Category: model.CategoryCodeAssistant,
		Topics:   []string{"code-assistant", "copilot", "code-generation", "code-completion", "coding-assistant", "ai-coding"},
		Keywords: []string{"code assistant", "code completion", "code generation", "coding assistant", "copilot", "pair programm"},
	},
	{
		Category: model.CategoryImageGeneration,
		Topics:   []string{"image-generation", "stable-diffusion", "text-to-image", "diffusion", "midjourney", "dalle"},
		Keywords: []string{"image generation", "text-to-image", "stable diffusion", "generate images"},
	},
	{
		Category: model.CategoryVideoCreation,
		Topics:   []string{"video-generation", "text-to-video", "video-editing", "video"},
		Keywords: []string{"video generation", "text-to-video", "generate video"},
	},
	{
		Category: model.CategoryAudioProcessing,
		Topics:   []string{"text-to-speech", "tts", "speech-recognition", "speech-to-text", "asr", "audio", "whisper", "voice"},
		Keywords: []string{"text-to-speech", "speech recognition", "speech synthesis", "audio", "voice"},
	},
	{
		Category: model.CategoryChatBot,
		Topics:   []string{"chatbot", "chatgpt", "chat", "conversational-ai", "assistant"},
		Keywords: []string{"chatbot", "chat bot", "conversational"},
	},
	{
		Category:  model.CategoryDataAnalysis,
		Topics:    []string{"data-analysis", "data-science", "analytics", "data-visualization", "pandas"},
		Keywords:  []string{"data analysis", "analytics", "dataset", "visualization"},
		Languages: []string{"jupyter notebook", "r"},
	},
	{
		Category: model.CategoryTextProcessing,
		Topics:   []string{"nlp", "natural-language-processing", "text-processing", "summarization", "translation"},
		Keywords: []string{"natural language", "text processing", "summariz", "translat"},
	},
	{
		Category: model.CategoryGenerativeAI,
		Topics:   []string{"generative-ai", "llm", "large-language-models", "gpt", "genai"},
		Keywords: []string{"generative", "llm", "language model"},
	},
}
