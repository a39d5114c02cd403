package questiongen

import (
	"fmt"
	"strings"

	"github.com/studyup/studyup/internal/question"
)

const systemPrompt = `You write multiple-choice English practice questions for Korean-speaking learners.

Rules:
- Every question has three or four options. Exactly one is correct and the options are all different.
- correctAnswer is the letter (A-D) of the correct option.
- Distractors should reflect mistakes learners actually make, not random words.
- Match the requested difficulty: BEGINNER uses everyday vocabulary, ADVANCED may use idioms and formal register.
- Explanations are short and written in Korean.
- Leave conversation empty unless the question type is CONVERSATION.
- Do not repeat any question from the "already asked" list.`

var typeInstructions = map[question.Type]string{
	question.TypeWord:                   "Ask for the meaning of a single English word. Options are Korean or English glosses.",
	question.TypeSentence:               "Show an English sentence and ask which translation or paraphrase matches it.",
	question.TypeConversation:           "Write a 2-4 line dialogue in conversation and ask what the next line or the speaker's intent is.",
	question.TypeSynonym:                "Ask which option is closest in meaning to the given word.",
	question.TypeSynonymSentence:        "Show a sentence with one word marked in quotes and ask which option could replace it without changing the meaning.",
	question.TypeSentenceInterpretation: "Show an English sentence and ask what it implies or how it should be interpreted.",
	question.TypeFillInBlank:            "Show a sentence with ___ in place of one word or phrase and ask which option fills it.",
}

// buildUserMessage describes one generation request.
func buildUserMessage(req question.GenerateRequest, prior []string, maxPrior int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question type: %s\n", req.QuestionType)
	if t, err := question.ParseType(req.QuestionType); err == nil {
		if instr, ok := typeInstructions[t]; ok {
			fmt.Fprintf(&b, "Instructions: %s\n", instr)
		}
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	if req.MajorCategory != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.MajorCategory)
	}
	if len(req.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(req.Topics, ", "))
	}
	fmt.Fprintf(&b, "Number of questions: %d\n", req.QuestionCount)

	b.WriteString("\nAlready asked:\n")
	b.WriteString(numbered(prior, maxPrior))
	return b.String()
}

// numbered lists the most recent max items, or "None".
func numbered(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}
	var b strings.Builder
	for i, s := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
