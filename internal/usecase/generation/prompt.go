package generation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

const sectionMarker = "=================================================="

// buildContext labels each document with its position and source and joins
// them with a marker line. Texts are cut at limit characters.
func buildContext(cands []result.Candidate, limit int, unknownSource string) string {
	parts := make([]string, 0, len(cands))
	for i := range cands {
		src, ok := cands[i].Source()
		if !ok || src == "" {
			src = unknownSource
		}
		parts = append(parts, fmt.Sprintf("[Document %d - Source: %s]\n%s", i+1, src, truncate(cands[i].Text(), limit)))
	}
	return strings.Join(parts, "\n\n"+sectionMarker+"\n\n")
}

func answerPrompt(query, context, language, disclaimer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert medical assistant. Answer the user's medical question in %s, "+
		"using ONLY the information contained in the reference documents below.\n\n", language)
	b.WriteString("REFERENCE DOCUMENTS:\n")
	b.WriteString(context)
	b.WriteString("\n\nUSER QUESTION: ")
	b.WriteString(query)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. Answer clearly and completely in %s.\n", language)
	b.WriteString("2. Use ONLY information from the documents provided.\n")
	b.WriteString("3. Structure the answer in readable paragraphs.\n")
	b.WriteString("4. If the answer is not in the documents, say so clearly.\n")
	fmt.Fprintf(&b, "5. End with this exact disclaimer: %q\n\n", disclaimer)
	fmt.Fprintf(&b, "COMPLETE ANSWER IN %s:", strings.ToUpper(language))
	return b.String()
}

func summaryPrompt(context, language string) string {
	return fmt.Sprintf("Summarize these medical documents in two sentences, in %s:\n\n%s\n\nSummary:", language, context)
}

func simplifyPrompt(text, language string) string {
	return fmt.Sprintf("Translate and simplify this medical text into plain %s that the general public can understand. "+
		"Keep the important information but make it accessible.\n\nORIGINAL TEXT:\n%s\n\nSIMPLIFIED TEXT IN %s:",
		language, text, strings.ToUpper(language))
}

// truncate cuts s to limit runes and marks the cut with "...".
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
