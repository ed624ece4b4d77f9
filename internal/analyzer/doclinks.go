package analyzer

import (
	"regexp"
	"strings"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

// DocMapping associates a code or message pattern with reference
// documentation. Language restricts the mapping to files of that
// language; "all" applies everywhere.
type DocMapping struct {
	Pattern  *regexp.Regexp
	Language string
	Links    []domain.DocLink
}

// DocLinker attaches documentation links to review findings. The
// mapping table is injected so link sets can be extended without
// touching the matcher.
type DocLinker struct {
	mappings []DocMapping
}

func NewDocLinker(mappings []DocMapping) *DocLinker {
	return &DocLinker{mappings: mappings}
}

// Links returns the documentation relevant to text, deduplicated by
// URL in table order. The filename scopes language-specific mappings;
// an empty filename matches only language-independent ones.
func (l *DocLinker) Links(text, filename string) []domain.DocLink {
	language := "all"
	if filename != "" {
		language = domain.DetectLanguage(filename)
	}

	seen := make(map[string]bool)
	var links []domain.DocLink
	for _, mapping := range l.mappings {
		if mapping.Language != "all" && mapping.Language != language {
			continue
		}
		if !mapping.Pattern.MatchString(text) {
			continue
		}
		for _, link := range mapping.Links {
			if seen[link.URL] {
				continue
			}
			seen[link.URL] = true
			links = append(links, link)
		}
	}
	return links
}

// DefaultDocMappings returns the built-in mapping table: library
// imports, common language constructs, and remediation guides keyed
// off the wording of security and bug findings.
func DefaultDocMappings() []DocMapping {
	return []DocMapping{
		docMapping(`import\s+requests`, "python",
			"Requests Documentation", "https://requests.readthedocs.io/", "HTTP library for Python"),
		docMapping(`import\s+pandas`, "python",
			"Pandas Documentation", "https://pandas.pydata.org/docs/", "Data analysis library"),
		docMapping(`import\s+numpy`, "python",
			"NumPy Documentation", "https://numpy.org/doc/", "Numerical computing library"),
		docMapping(`from\s+flask\s+import`, "python",
			"Flask Documentation", "https://flask.palletsprojects.com/", "Web framework for Python"),
		docMapping(`from\s+django`, "python",
			"Django Documentation", "https://docs.djangoproject.com/", "High-level Python web framework"),
		docMapping(`import.*from\s+["']react["']`, "javascript",
			"React Documentation", "https://react.dev/", "JavaScript library for building UIs"),
		docMapping(`import.*from\s+["']express["']`, "javascript",
			"Express.js Documentation", "https://expressjs.com/", "Web framework for Node.js"),
		docMapping(`import.*from\s+["']axios["']`, "javascript",
			"Axios Documentation", "https://axios-http.com/", "Promise-based HTTP client"),
		docMapping(`async\s+def|async\s+function`, "all",
			"Async/Await Guide", "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Statements/async_function", "Understanding asynchronous programming"),
		docMapping(`try\s*:.*except`, "python",
			"Python Exception Handling", "https://docs.python.org/3/tutorial/errors.html", "Handling exceptions in Python"),
		docMapping(`Promise\.`, "javascript",
			"JavaScript Promises", "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Global_Objects/Promise", "Working with Promises"),
		docMapping(`bcrypt|argon2|scrypt|password\s+hash`, "all",
			"Password Hashing Best Practices", "https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html", "OWASP password storage guidelines"),
		docMapping(`jwt|jsonwebtoken`, "all",
			"JWT Best Practices", "https://tools.ietf.org/html/rfc7519", "JSON Web Token specification"),
		docMapping(`sql\s+injection`, "all",
			"SQL Injection Prevention", "https://cheatsheetseries.owasp.org/cheatsheets/SQL_Injection_Prevention_Cheat_Sheet.html", "OWASP SQL injection prevention guide"),
		docMapping(`xss|cross-site\s+scripting`, "all",
			"XSS Prevention", "https://cheatsheetseries.owasp.org/cheatsheets/Cross_Site_Scripting_Prevention_Cheat_Sheet.html", "OWASP XSS prevention guide"),
		docMapping(`hardcoded\s+(?:password|secret|credential)|api\s+key`, "all",
			"Secrets Management", "https://cheatsheetseries.owasp.org/cheatsheets/Secrets_Management_Cheat_Sheet.html", "Best practices for managing secrets"),
		docMapping(`command\s+injection`, "all",
			"Command Injection Prevention", "https://cheatsheetseries.owasp.org/cheatsheets/OS_Command_Injection_Defense_Cheat_Sheet.html", "OWASP command injection defense"),
		docMapping(`null|undefined|none\s+comparison`, "all",
			"Null Safety Best Practices", "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Operators/Optional_chaining", "Handling null and undefined values"),
		docMapping(`import\s+sqlite3`, "python",
			"SQLite3 Documentation", "https://docs.python.org/3/library/sqlite3.html", "SQLite database interface"),
		docMapping(`from\s+sqlalchemy`, "python",
			"SQLAlchemy Documentation", "https://docs.sqlalchemy.org/", "Python SQL toolkit and ORM"),
		docMapping(`import\s+pytest`, "python",
			"Pytest Documentation", "https://docs.pytest.org/", "Python testing framework"),
	}
}

func docMapping(pattern, language, title, url, description string) DocMapping {
	if !strings.HasPrefix(pattern, "(?") {
		pattern = "(?is)" + pattern
	}
	return DocMapping{
		Pattern:  regexp.MustCompile(pattern),
		Language: language,
		Links: []domain.DocLink{{
			Title:       title,
			URL:         url,
			Description: description,
		}},
	}
}
