package source

import (
	"time"

	"github.com/ashita-ai/aitools/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Seed returns the built-in catalog: eight hand-curated tools, one per
// category. Each call returns fresh values.
func Seed() []model.Tool {
	return []model.Tool{
		{
			ID:          "tool-01",
			Name:        "CodeSage",
			Description: "AI-powered code assistant with real-time suggestions and error detection.",
			Logo:        "/tool-logos/codesage.svg",
			Category:    model.CategoryCodeAssistant,
			Tags:        []string{"Programming", "IDE", "Productivity"},
			Rating:      4.8,
			Usage:       model.Usage{Users: 250000, APICalls: 9800000},
			Pricing:     model.PricingFreemium,
			Features:    []string{"Real-time code suggestions", "Error detection and fixes", "Multi-language support"},
			URL:         "https://example.com/codesage",
			IsTrending:  true,
			LastUpdated: day("2023-12-10"),
		},
		{
			ID:          "tool-02",
			Name:        "ImageMaster AI",
			Description: "Generate stunning images from text descriptions with advanced AI models.",
			Logo:        "/tool-logos/imagemaster.svg",
			Category:    model.CategoryImageGeneration,
			Tags:        []string{"Design", "Creative", "Visual"},
			Rating:      4.6,
			Usage:       model.Usage{Users: 780000, APICalls: 12500000},
			Pricing:     model.PricingPaid,
			Features:    []string{"Text-to-image generation", "Style transfer", "Image editing"},
			URL:         "https://example.com/imagemaster",
			LastUpdated: day("2023-11-15"),
		},
		{
			ID:          "tool-03",
			Name:        "SmartChat",
			Description: "Customizable AI chatbot platform with natural language processing capabilities.",
			Logo:        "/tool-logos/smartchat.svg",
			Category:    model.CategoryChatBot,
			Tags:        []string{"Customer Service", "Automation", "NLP"},
			Rating:      4.3,
			Usage:       model.Usage{Users: 450000, APICalls: 28700000},
			Pricing:     model.PricingFreemium,
			Features:    []string{"Natural language processing", "Custom knowledge base integration", "Multi-platform deployment"},
			URL:         "https://example.com/smartchat",
			LastUpdated: day("2023-10-28"),
		},
		{
			ID:          "tool-04",
			Name:        "DataLens",
			Description: "AI-powered data analysis platform that transforms raw data into actionable insights.",
			Logo:        "/tool-logos/datalens.svg",
			Category:    model.CategoryDataAnalysis,
			Tags:        []string{"Analytics", "Business Intelligence", "Visualization"},
			Rating:      4.7,
			Usage:       model.Usage{Users: 120000, APICalls: 5400000},
			Pricing:     model.PricingEnterprise,
			Features:    []string{"Automated data analysis", "Interactive visualizations", "Predictive analytics"},
			URL:         "https://example.com/datalens",
			LastUpdated: day("2023-12-05"),
		},
		{
			ID:          "tool-05",
			Name:        "AudioForge",
			Description: "Transform text into natural-sounding speech with customizable voices and styles.",
			Logo:        "/tool-logos/audioforge.svg",
			Category:    model.CategoryAudioProcessing,
			Tags:        []string{"Text-to-Speech", "Podcasting", "Accessibility"},
			Rating:      4.5,
			Usage:       model.Usage{Users: 320000, APICalls: 7600000},
			Pricing:     model.PricingPaid,
			Features:    []string{"Text-to-speech conversion", "Voice customization", "Multiple language support"},
			URL:         "https://example.com/audioforge",
			LastUpdated: day("2023-11-20"),
		},
		{
			ID:          "tool-06",
			Name:        "VideoGen",
			Description: "Create professional videos with AI-generated scenes, transitions, and effects.",
			Logo:        "/tool-logos/videogen.svg",
			Category:    model.CategoryVideoCreation,
			Tags:        []string{"Marketing", "Content Creation", "Social Media"},
			Rating:      4.2,
			Usage:       model.Usage{Users: 180000, APICalls: 3200000},
			Pricing:     model.PricingPaid,
			Features:    []string{"AI-powered video creation", "Customizable templates", "Automatic transitions"},
			URL:         "https://example.com/videogen",
			LastUpdated: day("2023-12-01"),
		},
		{
			ID:          "tool-07",
			Name:        "TextSculptor",
			Description: "Advanced AI text editor that enhances writing with suggestions and style improvements.",
			Logo:        "/tool-logos/textsculptor.svg",
			Category:    model.CategoryTextProcessing,
			Tags:        []string{"Writing", "Editing", "Content Creation"},
			Rating:      4.4,
			Usage:       model.Usage{Users: 520000, APICalls: 15800000},
			Pricing:     model.PricingFreemium,
			Features:    []string{"Grammar and style checking", "Content suggestions", "Tone adjustment"},
			URL:         "https://example.com/textsculptor",
			LastUpdated: day("2023-11-10"),
		},
		{
			ID:          "tool-08",
			Name:        "QuantumAI",
			Description: "Next-generation AI framework for complex problem-solving and pattern recognition.",
			Logo:        "/tool-logos/quantumai.svg",
			Category:    model.CategoryGenerativeAI,
			Tags:        []string{"Research", "Problem Solving", "Innovation"},
			Rating:      4.9,
			Usage:       model.Usage{Users: 90000, APICalls: 2100000},
			Pricing:     model.PricingEnterprise,
			Features:    []string{"Advanced pattern recognition", "Quantum-inspired algorithms", "Research-grade AI"},
			URL:         "https://example.com/quantumai",
			IsNew:       true,
			LastUpdated: day("2023-12-15"),
		},
	}
}
