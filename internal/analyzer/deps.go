package analyzer

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

// Advisory describes one known-vulnerable version range: every
// version below FixedIn is affected.
type Advisory struct {
	Ecosystem string
	Package   string
	FixedIn   string
	ID        string
	Severity  domain.Severity
	Summary   string
}

// DependencyScanner checks dependency manifests against an advisory
// table. The table is injected so it can be refreshed or replaced
// without touching the scanner.
type DependencyScanner struct {
	advisories map[string][]Advisory
}

func NewDependencyScanner(advisories []Advisory) *DependencyScanner {
	index := make(map[string][]Advisory)
	for _, a := range advisories {
		key := a.Ecosystem + "/" + strings.ToLower(a.Package)
		index[key] = append(index[key], a)
	}
	return &DependencyScanner{advisories: index}
}

func (s *DependencyScanner) Name() string { return "deps" }

type dependency struct {
	name      string
	version   string
	ecosystem string
	line      int
}

func (s *DependencyScanner) Detect(content, filename string) ([]domain.Issue, error) {
	var deps []dependency
	switch base := path.Base(filename); {
	case base == "requirements.txt" || strings.HasSuffix(base, "-requirements.txt"):
		deps = parseRequirementsTxt(content)
	case base == "package.json":
		deps = parsePackageJSON(content)
	case base == "go.mod":
		deps = parseGoMod(content)
	default:
		return nil, nil
	}

	var issues []domain.Issue
	for _, dep := range deps {
		key := dep.ecosystem + "/" + strings.ToLower(dep.name)
		for _, adv := range s.advisories[key] {
			if compareVersions(dep.version, adv.FixedIn) >= 0 {
				continue
			}
			issues = append(issues, domain.Issue{
				Kind:     domain.KindSecurity,
				Severity: adv.Severity,
				Line:     dep.line,
				Message: fmt.Sprintf("%s %s has a known vulnerability (%s): %s",
					dep.name, dep.version, adv.ID, adv.Summary),
				Suggestion: fmt.Sprintf("Upgrade %s to %s or later", dep.name, adv.FixedIn),
				Source:     s.Name(),
			})
		}
	}
	return issues, nil
}

var (
	requirementRe = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)\s*[=<>!~]+\s*([0-9][0-9a-zA-Z.]*)`)
	goRequireRe   = regexp.MustCompile(`^\s*([\w./-]+)\s+v([0-9][0-9a-zA-Z.+-]*)`)
)

func parseRequirementsTxt(content string) []dependency {
	var deps []dependency
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := requirementRe.FindStringSubmatch(line); m != nil {
			deps = append(deps, dependency{name: m[1], version: m[2], ecosystem: "PyPI", line: i + 1})
		}
	}
	return deps
}

func parsePackageJSON(content string) []dependency {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return nil
	}

	var deps []dependency
	for _, set := range []map[string]string{manifest.Dependencies, manifest.DevDependencies} {
		for name, version := range set {
			deps = append(deps, dependency{
				name:      name,
				version:   strings.TrimLeft(version, "^~"),
				ecosystem: "npm",
			})
		}
	}
	return deps
}

func parseGoMod(content string) []dependency {
	var deps []dependency
	inRequire := false
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "require ("):
			inRequire = true
			continue
		case inRequire && trimmed == ")":
			inRequire = false
			continue
		}
		candidate := trimmed
		if !inRequire {
			if !strings.HasPrefix(trimmed, "require ") {
				continue
			}
			candidate = strings.TrimPrefix(trimmed, "require ")
		}
		if m := goRequireRe.FindStringSubmatch(candidate); m != nil {
			deps = append(deps, dependency{name: m[1], version: m[2], ecosystem: "Go", line: i + 1})
		}
	}
	return deps
}

// compareVersions compares dotted numeric versions, ignoring any
// non-numeric suffix. Returns -1, 0 or 1.
func compareVersions(a, b string) int {
	as := numericParts(a)
	bs := numericParts(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func numericParts(version string) []int {
	var parts []int
	for _, p := range strings.Split(version, ".") {
		digits := p
		for j, r := range p {
			if r < '0' || r > '9' {
				digits = p[:j]
				break
			}
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}

// DefaultAdvisories returns the built-in advisory table. It covers a
// small set of widely used packages; deployments that need broader
// coverage can load a table from their own feed.
func DefaultAdvisories() []Advisory {
	return []Advisory{
		{Ecosystem: "PyPI", Package: "requests", FixedIn: "2.31.0", ID: "CVE-2023-32681", Severity: domain.SeverityMedium, Summary: "Proxy-Authorization header leaked to destination server on redirect"},
		{Ecosystem: "PyPI", Package: "pyyaml", FixedIn: "5.4", ID: "CVE-2020-14343", Severity: domain.SeverityCritical, Summary: "Arbitrary code execution via full_load of untrusted input"},
		{Ecosystem: "PyPI", Package: "django", FixedIn: "3.2.25", ID: "CVE-2024-27351", Severity: domain.SeverityMedium, Summary: "Regular expression denial of service in Truncator"},
		{Ecosystem: "PyPI", Package: "flask", FixedIn: "2.2.5", ID: "CVE-2023-30861", Severity: domain.SeverityHigh, Summary: "Session cookie disclosure when caching proxies are in use"},
		{Ecosystem: "PyPI", Package: "urllib3", FixedIn: "1.26.18", ID: "CVE-2023-45803", Severity: domain.SeverityMedium, Summary: "Request body not stripped on redirect from 303 status"},
		{Ecosystem: "npm", Package: "lodash", FixedIn: "4.17.21", ID: "CVE-2021-23337", Severity: domain.SeverityHigh, Summary: "Command injection via template"},
		{Ecosystem: "npm", Package: "minimist", FixedIn: "1.2.6", ID: "CVE-2021-44906", Severity: domain.SeverityCritical, Summary: "Prototype pollution"},
		{Ecosystem: "npm", Package: "axios", FixedIn: "1.6.0", ID: "CVE-2023-45857", Severity: domain.SeverityMedium, Summary: "XSRF token leaked to third-party hosts"},
		{Ecosystem: "npm", Package: "express", FixedIn: "4.19.2", ID: "CVE-2024-29041", Severity: domain.SeverityMedium, Summary: "Open redirect via malformed URLs"},
		{Ecosystem: "Go", Package: "golang.org/x/crypto", FixedIn: "0.17.0", ID: "CVE-2023-48795", Severity: domain.SeverityMedium, Summary: "SSH Terrapin prefix truncation attack"},
		{Ecosystem: "Go", Package: "github.com/gin-gonic/gin", FixedIn: "1.9.1", ID: "CVE-2023-29401", Severity: domain.SeverityMedium, Summary: "Header injection via crafted filename"},
	}
}
