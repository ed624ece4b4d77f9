package analyzer

import "github.com/hathansen/pr-review-bot/internal/domain"

// NewSecurityScanner returns the pattern-based security analyzer. Each
// rule carries the CWE identifier it maps to.
func NewSecurityScanner() *RuleAnalyzer {
	return NewRuleAnalyzer("security", defaultSecurityRules())
}

func defaultSecurityRules() []Rule {
	return []Rule{
		// SQL injection
		{
			Pattern:    rx(`["'].*(?:SELECT|INSERT|UPDATE|DELETE).*["'].*%\s`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Potential SQL injection vulnerability - string formatting in SQL query",
			Suggestion: "Use parameterized queries with placeholders",
			CWE:        "CWE-89",
		},
		{
			Pattern:    rx(`execute\s*\(\s*f["'].*\{.*\}.*["']`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Potential SQL injection - f-string in SQL query",
			Suggestion: "Use parameterized queries instead of f-strings",
			CWE:        "CWE-89",
		},
		{
			Pattern:    rx(`["'].*(?:SELECT|INSERT|UPDATE|DELETE).*["'].*\+`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Potential SQL injection - string concatenation in query",
			Suggestion: "Use parameterized queries",
			CWE:        "CWE-89",
		},
		// Cross-site scripting
		{
			Pattern:    rx(`innerHTML\s*=`),
			Language:   "javascript",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Potential XSS vulnerability - using innerHTML",
			Suggestion: "Use textContent or sanitize input with DOMPurify",
			CWE:        "CWE-79",
		},
		{
			Pattern:    rx(`dangerouslySetInnerHTML`),
			Language:   "javascript",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Potential XSS vulnerability - dangerouslySetInnerHTML",
			Suggestion: "Sanitize HTML content before rendering",
			CWE:        "CWE-79",
		},
		// Code injection
		{
			Pattern:    rx(`eval\s*\(`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Use of eval() - major security risk",
			Suggestion: "Avoid eval(). Use JSON.parse() or safer alternatives",
			CWE:        "CWE-95",
		},
		{
			Pattern:    rx(`exec\s*\(`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Use of exec() - code injection risk",
			Suggestion: "Avoid exec(). Refactor to use safer alternatives",
			CWE:        "CWE-95",
		},
		// Hardcoded credentials
		{
			Pattern:    rx(`(?:password|passwd|pwd)\s*=\s*["'][^"']{3,}["']`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Hardcoded password detected",
			Suggestion: "Use environment variables or secure secret management",
			CWE:        "CWE-798",
		},
		{
			Pattern:    rx(`(?:api[_-]?key|apikey|api[_-]?secret)\s*=\s*["'][^"']{10,}["']`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Hardcoded API key detected",
			Suggestion: "Use environment variables for API keys",
			CWE:        "CWE-798",
		},
		{
			Pattern:    rx(`(?:secret[_-]?key|private[_-]?key)\s*=\s*["'][^"']{10,}["']`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Hardcoded secret key detected",
			Suggestion: "Use secure secret management system",
			CWE:        "CWE-798",
		},
		{
			Pattern:    rx(`(?:token|auth[_-]?token|access[_-]?token)\s*=\s*["'][^"']{20,}["']`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Hardcoded authentication token detected",
			Suggestion: "Use environment variables for tokens",
			CWE:        "CWE-798",
		},
		// Command injection
		{
			Pattern:    rx(`os\.system\s*\(`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Use of os.system() - potential command injection",
			Suggestion: "Use subprocess.run() with shell=False",
			CWE:        "CWE-78",
		},
		{
			Pattern:    rx(`subprocess\.\w+\([^)]*shell\s*=\s*True`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "subprocess with shell=True - command injection risk",
			Suggestion: "Use shell=False and pass command as list",
			CWE:        "CWE-78",
		},
		{
			Pattern:    rx(`child_process\.exec\s*\(`),
			Language:   "javascript",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Use of child_process.exec - command injection risk",
			Suggestion: "Use execFile() or spawn() with argument array",
			CWE:        "CWE-78",
		},
		// Path traversal
		{
			Pattern:    rx(`open\s*\([^)]*\+[^)]*\)`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Potential path traversal - concatenating user input to file path",
			Suggestion: "Validate and sanitize file paths, use os.path.join()",
			CWE:        "CWE-22",
		},
		{
			Pattern:    rx(`readFile\s*\([^)]*\+[^)]*\)`),
			Language:   "javascript",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Potential path traversal - concatenating paths",
			Suggestion: "Use path.join() and validate input",
			CWE:        "CWE-22",
		},
		// Weak cryptography
		{
			Pattern:    rx(`md5\s*\(`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "MD5 is cryptographically broken",
			Suggestion: "Use SHA-256 or stronger hash functions",
			CWE:        "CWE-327",
		},
		{
			Pattern:    rx(`sha1\s*\(`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityMedium,
			Message:    "SHA-1 is deprecated for security purposes",
			Suggestion: "Use SHA-256 or SHA-3",
			CWE:        "CWE-327",
		},
		{
			Pattern:    rx(`Random\s*\(\)`),
			Language:   LanguageAll,
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityMedium,
			Message:    "Using non-cryptographic random number generator",
			Suggestion: "Use secrets module (Python) or crypto.randomBytes (Node.js)",
			CWE:        "CWE-338",
		},
		// Insecure deserialization
		{
			Pattern:    rx(`pickle\.loads?\s*\(`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Pickle deserialization - arbitrary code execution risk",
			Suggestion: "Use JSON or validate pickle data source",
			CWE:        "CWE-502",
		},
		{
			Pattern:    rx(`yaml\.load\s*\(`),
			Unless:     rx(`Loader`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityCritical,
			Message:    "Unsafe YAML loading - code execution risk",
			Suggestion: "Use yaml.safe_load() instead",
			CWE:        "CWE-502",
		},
		// Server-side request forgery
		{
			Pattern:    rx(`requests\.(?:get|post|put|delete)\s*\([^)]*(?:input|request\.|params)`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Potential SSRF - user input in HTTP request",
			Suggestion: "Validate and whitelist URLs before making requests",
			CWE:        "CWE-918",
		},
		{
			Pattern:    rx(`fetch\s*\([^)]*(?:req\.|request\.|params)`),
			Language:   "javascript",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Potential SSRF - user input in fetch request",
			Suggestion: "Validate URLs against whitelist",
			CWE:        "CWE-918",
		},
		// Weak authentication and transport
		{
			Pattern:    rx(`auth\s*=\s*None`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "Authentication disabled",
			Suggestion: "Enable proper authentication",
			CWE:        "CWE-306",
		},
		{
			Pattern:    rx(`verify\s*=\s*False`),
			Language:   "python",
			Kind:       domain.KindSecurity,
			Severity:   domain.SeverityHigh,
			Message:    "SSL certificate verification disabled",
			Suggestion: "Enable certificate verification",
			CWE:        "CWE-295",
		},
	}
}
