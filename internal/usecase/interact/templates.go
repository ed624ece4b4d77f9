package interact

import (
	"fmt"
	"regexp"
	"strings"
)

const serviceUnavailable = "Sorry, I could not reach the analysis service. Please try again."

const helpText = "## Bot Commands\n\n" +
	"**`/fix`** - Generate a fix for the issue on this line\n" +
	"- Usage: `/fix` (on an inline comment)\n\n" +
	"**`/explain [question]`** - Get a detailed explanation of the code\n" +
	"- Example: `/explain why is this slow?`\n\n" +
	"**`/suggest [context]`** - Get alternative implementations\n" +
	"- Example: `/suggest more efficient approach`\n\n" +
	"**`/ignore [reason]`** - Ignore this issue in future reviews\n" +
	"- Example: `/ignore false positive`\n\n" +
	"**`/help`** - Show this help message\n\n" +
	"You can also just chat with me by mentioning my handle."

func fixPrompt(file string, line int, issueContext, content string) string {
	return fmt.Sprintf(`Generate a fix for this code issue:

File: %s
Line: %d
Issue: %s

Current code:
`+"```\n%s\n```"+`

Provide:
1. The exact fixed code (complete file)
2. Explanation of changes
3. Testing recommendations

Format as:
FIXED_CODE:
`+"```"+`
<complete fixed code>
`+"```"+`

EXPLANATION:
<explanation>

TESTING:
<testing recommendations>
`, file, line, issueContext, content)
}

func explainPrompt(file string, line int, question, context string) string {
	return fmt.Sprintf(`Explain this code in detail:

File: %s
Line: %d
Question: %s

Code context:
`+"```\n%s\n```"+`

Provide:
1. What the code does
2. Why it might be problematic
3. Best practices
4. Alternative approaches
`, file, line, question, context)
}

func suggestPrompt(file, focus, content string) string {
	return fmt.Sprintf(`Suggest alternative implementations for this code:

File: %s
Context: %s

Code:
`+"```\n%s\n```"+`

Provide 3 alternative approaches with:
1. Code example
2. Pros and cons
3. Use cases
`, file, focus, content)
}

func dialoguePrompt(thread int, file string, line int, context, message string) string {
	location := file
	if location == "" {
		location = "General discussion"
	}
	return fmt.Sprintf(`You are a helpful code review assistant. A developer is asking about their code.

Context:
- Thread: %d
- File: %s
- Line: %d
- Previous context: %s

Developer's message:
%s

Provide a helpful, conversational response. Be friendly and technical. If they're asking about a fix, offer to generate one with /fix.
`, thread, location, line, context, message)
}

func fixResponse(file string, line int, explanation, code, testing string) string {
	preview := code
	truncated := ""
	if len(preview) > maxFixPreview {
		preview = preview[:maxFixPreview]
		truncated = "..."
	}
	return fmt.Sprintf("## Auto-Fix Generated\n\n"+
		"I've generated a fix for the issue at `%s:%d`.\n\n"+
		"### Changes Made\n%s\n\n"+
		"### Fixed Code\n```\n%s%s\n```\n\n"+
		"### Testing Recommendations\n%s\n\n"+
		"Review the changes, then reply `/apply` to commit or `/reject` to discard.\n\n"+
		"Note: this is a machine-generated fix. Review carefully before applying.",
		file, line, explanation, preview, truncated, testing)
}

func explainResponse(body string) string {
	return "## Code Explanation\n\n" + body + "\n\n---\n*Need more details? Ask me anything about this code.*"
}

func suggestResponse(body string) string {
	return "## Alternative Implementations\n\n" + body + "\n\n---\n*Want to apply one of these? Reply with `/fix`.*"
}

func ignoreResponse(reason string) string {
	return fmt.Sprintf("## Issue Ignored\n\n"+
		"This issue has been marked as ignored.\n\n"+
		"**Reason:** %s\n\n"+
		"It will not be flagged in future reviews of this thread.", reason)
}

func dialogueResponse(body string) string {
	return "## Response\n\n" + body + "\n\n---\n*Commands: `/fix` `/explain` `/suggest` `/help`*"
}

var (
	fixedCodeRe   = regexp.MustCompile("(?s)FIXED_CODE:\\s*```[^\\n]*\\n(.*?)```")
	anyCodeRe     = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	explanationRe = regexp.MustCompile(`(?s)EXPLANATION:\s*(.*?)(?:TESTING:|$)`)
	testingRe     = regexp.MustCompile(`(?s)TESTING:\s*(.*)$`)
)

// extractFixedCode pulls the labeled code block from a fix response,
// falling back to the first code block found anywhere. Empty means no
// usable code came back.
func extractFixedCode(response string) string {
	if m := fixedCodeRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyCodeRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractExplanation(response string) string {
	if m := explanationRe.FindStringSubmatch(response); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	return "See changes above."
}

func extractTesting(response string) string {
	if m := testingRe.FindStringSubmatch(response); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	return "Test the changes thoroughly before merging."
}
