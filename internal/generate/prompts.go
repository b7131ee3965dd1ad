// ABOUTME: Prompt builders for question, answer and background image generation
// ABOUTME: Themed templates with validation of the interpolated inputs

package generate

import (
	"fmt"
	"regexp"
	"strings"
)

// Input limits for prompt interpolation.
const (
	maxThemeLength  = 100
	maxAnswerLength = 2000
)

var invalidThemeChars = regexp.MustCompile(`[<>"']`)

// validateTheme rejects themes that would corrupt a prompt template.
func validateTheme(theme string) error {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return fmt.Errorf("theme must not be empty")
	}
	if len(theme) > maxThemeLength {
		return fmt.Errorf("theme too long (%d chars, max %d)", len(theme), maxThemeLength)
	}
	if invalidThemeChars.MatchString(theme) {
		return fmt.Errorf("theme contains invalid characters")
	}
	return nil
}

const questionSystem = `You are an expert research assistant specializing in question generation for academic and professional research. You create thought-provoking, open-ended questions that are clear, specific, and explore complex topics from multiple perspectives.`

// QuestionPrompt builds the prompt for generating candidate questions for a
// theme. The model is asked for several candidates so the duplicate guard
// has alternatives when the first choice already exists.
func QuestionPrompt(theme string, count int) (Prompt, error) {
	if err := validateTheme(theme); err != nil {
		return Prompt{}, err
	}
	if count < 1 {
		count = 1
	}

	user := fmt.Sprintf(`Generate %d thought-provoking questions about %s in research and practice.

Context: these questions will inspire research and creative thinking. They should challenge conventional wisdom and explore the intersection of %s with contemporary challenges and opportunities.

Requirements:
- Each question is open-ended and encourages deep thinking
- Focus on innovation, sustainability, future trends, and societal impact
- Address real-world challenges and opportunities in %s
- Start each question with "How", "What", or "Why"
- Use clear, professional language
- Between %d and %d characters each
- One question per line, each ending with a question mark (?)

Example format:
How can we design buildings that respond to climate change?

Generate %d %s-specific questions that provoke meaningful research discourse:`,
		count, theme, theme, theme, MinQuestionLength, MaxQuestionLength, count, theme)

	return Prompt{System: questionSystem, User: user}, nil
}

// FollowupQuestionPrompt builds a prompt for a question that chains off a
// previous answer, keeping a generation run thematically linked.
func FollowupQuestionPrompt(theme, answer string) (Prompt, error) {
	if err := validateTheme(theme); err != nil {
		return Prompt{}, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Prompt{}, fmt.Errorf("answer must not be empty")
	}
	if len(answer) > maxAnswerLength {
		answer = answer[:maxAnswerLength]
	}

	user := fmt.Sprintf(`A previous research insight on %s reads:

%s

Generate 1 follow-up question that builds on this insight and pushes the inquiry further.

Requirements:
- Start with "How", "What", or "Why"
- Open-ended, specific to %s
- Single question ending with a question mark (?)

Generate the follow-up question:`, theme, answer, theme)

	return Prompt{System: questionSystem, User: user}, nil
}

const answerSystem = `You are an expert researcher and educator analyzing design and built-environment concepts. Provide insightful, academic analysis focusing on underlying principles, design theory, and practical implications. Your responses are comprehensive, well-structured, and academically rigorous.`

// AnswerPrompt builds the analysis prompt for answering a question.
func AnswerPrompt(theme, question string) (Prompt, error) {
	if err := validateTheme(theme); err != nil {
		return Prompt{}, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Prompt{}, fmt.Errorf("question must not be empty")
	}

	user := fmt.Sprintf(`Question: %s
Theme: %s

Analyze this question and provide a comprehensive, academic response in approximately 200-250 words.
Consider:
- Key principles and theories involved
- Contemporary relevance and future implications
- Connection to %s specifically
- Practical and theoretical considerations
- Historical context and evolution
- Cross-disciplinary implications
- Innovation potential and challenges

Provide your detailed analysis:`, question, theme, theme)

	return Prompt{System: answerSystem, User: user}, nil
}

// ImagePrompt builds the background-image prompt for a record. The style
// hint is optional.
func ImagePrompt(theme, style string) string {
	if style == "" {
		style = "minimalist editorial illustration"
	}
	return fmt.Sprintf("Abstract %s background artwork for a research card about %s. No text, no lettering, muted palette, high contrast focal area suitable for overlaid typography.", style, theme)
}
