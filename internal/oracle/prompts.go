package oracle

import (
	"fmt"
	"strings"
)

const describeInstruction = `You are a materials engineer. Describe the material named by the user.
Focus on what kind of material it is and list its equivalent designations
under other standards (ASTM, EN, JIS, ISO, UNS) where they exist.
Answer in at most three sentences of plain text.`

const classifyInstruction = `You are classifying a material into a fixed taxonomy.
Choose exactly one option from this list:

%s

Respond with a JSON object of the form {"option": "<choice>"} where <choice>
is copied verbatim from the list. Do not add any other text.`

const normalizeInstruction = `A previous answer did not match any allowed option.
Rewrite it as the single closest option from this list:

%s

Respond with a JSON object of the form {"option": "<choice>"} where <choice>
is copied verbatim from the list. Do not add any other text.`

func classifyPrompt(options []string) string {
	return fmt.Sprintf(classifyInstruction, optionList(options))
}

func normalizePrompt(options []string) string {
	return fmt.Sprintf(normalizeInstruction, optionList(options))
}

func subjectPrompt(subject, detail string) string {
	if strings.TrimSpace(detail) == "" {
		return subject
	}
	return fmt.Sprintf("%s is described as: %s", subject, detail)
}

func answerPrompt(answer string) string {
	return fmt.Sprintf("Previous answer: %q", answer)
}

func optionList(options []string) string {
	var sb strings.Builder
	for i, o := range options {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(o)
	}
	return sb.String()
}
