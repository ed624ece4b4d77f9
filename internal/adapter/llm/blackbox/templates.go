package blackbox

import (
	"context"
	"fmt"
)

// The higher-level operations differ only in the prompt template fed to
// Call, never in control flow.

// AnalyzeDiff asks the service to review a code diff for issues.
func (c *Client) AnalyzeDiff(ctx context.Context, diff, changeContext string) string {
	prompt := fmt.Sprintf(`Analyze this code diff for potential issues:

Context: %s

Diff:
`+"```diff\n%s\n```"+`

Focus on:
1. New bugs introduced
2. Security vulnerabilities
3. Breaking changes
4. Performance impacts
5. Code quality issues

Provide specific line numbers and actionable suggestions.`, changeContext, diff)

	return c.Call(ctx, prompt)
}

// ReviewFile asks the service for a full-file review and instructs it
// to answer with the machine-readable issue structure the review
// orchestrator parses. The service does not always comply; callers
// must treat the JSON section as best-effort.
func (c *Client) ReviewFile(ctx context.Context, filename, changeContext, code string) string {
	prompt := fmt.Sprintf(`Analyze this code for potential issues, bugs, and improvements.

File: %s
Context: %s

Code:
`+"```\n%s\n```"+`

Please provide:
1. Potential bugs or logic errors
2. Security vulnerabilities
3. Code quality issues
4. Performance concerns
5. Best practice violations
6. Suggestions for improvement

Format your response as JSON with this structure:
{
    "issues": [
        {
            "type": "bug|security|quality|performance",
            "severity": "critical|high|medium|low|info",
            "line": <line_number>,
            "message": "Description of the issue",
            "suggestion": "How to fix it",
            "code_snippet": "Suggested code fix"
        }
    ],
    "summary": "Overall assessment"
}`, filename, changeContext, code)

	return c.Call(ctx, prompt)
}

// ExplainCode asks the service for an explanation of a code snippet.
func (c *Client) ExplainCode(ctx context.Context, code, language string) string {
	prompt := fmt.Sprintf(`Explain what this %s code does:

`+"```%s\n%s\n```"+`

Provide:
1. High-level overview
2. Key functionality
3. Important details
4. Potential concerns`, language, language, code)

	return c.Call(ctx, prompt)
}

// CheckSecurity asks the service for a security-focused analysis.
func (c *Client) CheckSecurity(ctx context.Context, code, language string) string {
	prompt := fmt.Sprintf(`Perform a security analysis on this %s code:

`+"```%s\n%s\n```"+`

Check for:
1. SQL injection vulnerabilities
2. XSS vulnerabilities
3. Authentication/authorization issues
4. Sensitive data exposure
5. Insecure dependencies
6. Cryptographic weaknesses
7. Input validation issues

Provide severity levels and remediation steps.`, language, language, code)

	return c.Call(ctx, prompt)
}

// SuggestImprovements asks the service for improvement suggestions.
func (c *Client) SuggestImprovements(ctx context.Context, code, language string) string {
	prompt := fmt.Sprintf(`Suggest improvements for this %s code:

`+"```%s\n%s\n```"+`

Provide:
1. Code quality improvements
2. Performance optimizations
3. Best practice recommendations
4. Refactoring suggestions

Be specific and provide code examples.`, language, language, code)

	return c.Call(ctx, prompt)
}
