// Package seed supplies the initial question set and the epic/task catalog.
package seed

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Question is one (id, text, response filepath) triple extracted from the
// questions document.
type Question struct {
	ID               string
	Text             string
	ResponseFilepath string
}

// questionPattern matches sections of the form:
//
//	### C01Q03: <heading>
//	**Question:** <text, possibly multi-line>
//
//	**Response filepath:** `<path>`
var questionPattern = regexp.MustCompile("(?s)### (C\\d+Q\\d+):[^\n]*\n\\*\\*Question:\\*\\*\\s+(.+?)\n\n\\*\\*Response filepath:\\*\\*\\s+`([^`]+)`")

// ParseQuestionsFile extracts seed questions from the markdown document at
// path. A missing document yields an empty set, not an error.
func ParseQuestionsFile(path string) ([]Question, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	return parseQuestions(string(content)), nil
}

func parseQuestions(content string) []Question {
	matches := questionPattern.FindAllStringSubmatch(content, -1)
	questions := make([]Question, 0, len(matches))
	for _, m := range matches {
		questions = append(questions, Question{
			ID:               m[1],
			Text:             strings.TrimSpace(m[2]),
			ResponseFilepath: m[3],
		})
	}
	return questions
}

// Category derives a question's category from its identifier: the first
// three characters (C01, C02, ...).
func Category(questionID string) string {
	if len(questionID) < 3 {
		return questionID
	}
	return questionID[:3]
}
