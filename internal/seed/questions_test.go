package seed

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDoc = `# Open Questions

## Category 1: Deployment

### C01Q01: Worker routing
**Question:** How should requests be routed between workers?

**Response filepath:** ` + "`responses/c01q01.md`" + `

### C01Q02: Cache strategy
**Question:** Which layers need caching,
and with what TTLs?

**Response filepath:** ` + "`responses/c01q02.md`" + `

## Category 2: Data

### C02Q01: Retention
**Question:** How long do we keep raw events?

**Response filepath:** ` + "`responses/c02q01.md`" + `
`

func TestParseQuestions(t *testing.T) {
	questions := parseQuestions(sampleDoc)
	if len(questions) != 3 {
		t.Fatalf("parsed %d questions, want 3", len(questions))
	}

	first := questions[0]
	if first.ID != "C01Q01" {
		t.Errorf("first id = %s, want C01Q01", first.ID)
	}
	if first.Text != "How should requests be routed between workers?" {
		t.Errorf("unexpected first text: %q", first.Text)
	}
	if first.ResponseFilepath != "responses/c01q01.md" {
		t.Errorf("unexpected first filepath: %q", first.ResponseFilepath)
	}

	// Multi-line question bodies are captured up to the blank line.
	if questions[1].Text != "Which layers need caching,\nand with what TTLs?" {
		t.Errorf("unexpected multi-line text: %q", questions[1].Text)
	}
	if questions[2].ID != "C02Q01" {
		t.Errorf("third id = %s, want C02Q01", questions[2].ID)
	}
}

func TestParseQuestionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.md")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatalf("failed to write questions file: %v", err)
	}

	questions, err := ParseQuestionsFile(path)
	if err != nil {
		t.Fatalf("ParseQuestionsFile failed: %v", err)
	}
	if len(questions) != 3 {
		t.Errorf("parsed %d questions, want 3", len(questions))
	}
}

func TestParseQuestionsFileMissing(t *testing.T) {
	questions, err := ParseQuestionsFile(filepath.Join(t.TempDir(), "absent.md"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if questions != nil {
		t.Errorf("missing file should yield no questions, got %d", len(questions))
	}
}

func TestCategory(t *testing.T) {
	if got := Category("C01Q05"); got != "C01" {
		t.Errorf("Category(C01Q05) = %s, want C01", got)
	}
	if got := Category("X"); got != "X" {
		t.Errorf("Category(X) = %s, want X", got)
	}
}
