package assistant

import (
	"fmt"
	"strings"

	"github.com/abhisek/ladder/internal/catalog"
)

const systemPrompt = `You are the study assistant inside a self-paced course.
Answer only from the lesson provided and general knowledge of its topic.
Be concise and friendly. Never reveal quiz answers outright; guide the learner
toward the idea instead. If the question is unrelated to the lesson, say so
briefly and point back to the lesson.`

const explainPrompt = `You are the study assistant inside a self-paced course.
A learner just missed a quiz question. Explain why the correct option is right
and what misunderstanding might lead to the option they chose. Keep it under
six sentences and encouraging.`

// lessonText renders lesson content as plain text, cut at limit runes.
func lessonText(sub catalog.SubModule, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lesson: %s\n", sub.Title)
	for _, s := range sub.Content {
		if s.Heading != "" {
			fmt.Fprintf(&b, "\n## %s\n", s.Heading)
		}
		for _, blk := range s.Blocks {
			writeBlock(&b, blk)
		}
	}
	return truncate(b.String(), limit)
}

func writeBlock(b *strings.Builder, blk catalog.Block) {
	switch blk.Kind() {
	case catalog.BlockText:
		b.WriteString(blk.Text + "\n")
	case catalog.BlockList:
		for _, item := range blk.List {
			b.WriteString("- " + item + "\n")
		}
	case catalog.BlockTable:
		b.WriteString(strings.Join(blk.Table.Header, " | ") + "\n")
		for _, row := range blk.Table.Rows {
			b.WriteString(strings.Join(row, " | ") + "\n")
		}
	case catalog.BlockQuote:
		b.WriteString("> " + blk.Quote + "\n")
	case catalog.BlockExample:
		b.WriteString("Example: " + blk.Example + "\n")
	case catalog.BlockCallout:
		b.WriteString("Note: " + blk.Callout + "\n")
	case catalog.BlockLink:
		b.WriteString("See: " + blk.Link.Caption + " (" + blk.Link.URL + ")\n")
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "\n[lesson truncated]"
}

func explainMessage(q catalog.Question, chosen int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nOptions:\n", q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	fmt.Fprintf(&b, "Correct option: %d\n", q.Correct+1)
	if chosen >= 0 && chosen < len(q.Options) {
		fmt.Fprintf(&b, "Learner chose: %d\n", chosen+1)
	} else {
		b.WriteString("Learner ran out of time without answering.\n")
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "Author's explanation: %s\n", q.Explanation)
	}
	return b.String()
}
