package usecases

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"neypot.backend/internal/domain/entities"
)

// RuleTarget selects the request field a rule category is matched against.
type RuleTarget string

const (
	TargetPath      RuleTarget = "path"
	TargetBody      RuleTarget = "body"
	TargetUserAgent RuleTarget = "user_agent"
	// TargetUsername matches the whole body, each body token and, when the
	// profile allows it, the path.
	TargetUsername RuleTarget = "username"
)

// Rule is one weighted pattern. Patterns are case-insensitive unless
// CaseSensitive is set.
type Rule struct {
	Pattern       string
	Weight        int
	CaseSensitive bool
}

type RuleCategory struct {
	Name   string
	Target RuleTarget
	Rules  []Rule
}

// ServiceRules is the scoring profile of one service key.
type ServiceRules struct {
	Categories       []RuleCategory
	BaseWeight       int
	MethodBonus      map[string]int
	UsernameFromPath bool
}

// RuleSet maps a bare service key ("http", "ssh", ...) to its profile.
// Keys without a profile score DefaultWeight.
type RuleSet struct {
	Services      map[string]ServiceRules
	DefaultWeight int
}

// ScoreInput is everything the scorer looks at.
type ScoreInput struct {
	Service   entities.ServiceType
	Path      string
	Method    string
	UserAgent string
	Body      string
}

func weighted(weight int, patterns ...string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{Pattern: p, Weight: weight})
	}
	return rules
}

func concat(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultRuleSet returns the built-in scoring tables.
func DefaultRuleSet() RuleSet {
	web := ServiceRules{
		Categories: []RuleCategory{
			{Name: "sensitive_path", Target: TargetPath, Rules: concat(
				weighted(30, `admin`),
				weighted(35, `\.env`),
				weighted(30, `\.git`),
				weighted(25, `config`, `phpmyadmin`),
				weighted(20, `wp-admin`, `backup`),
				weighted(40, `shell`, `cmd`),
				weighted(35, `eval`),
			)},
			{Name: "payload_injection", Target: TargetBody, Rules: concat(
				weighted(30, `SELECT.*FROM`),
				weighted(35, `UNION.*SELECT`, `<script>`, `<\?php`),
				weighted(25, `wget|curl`),
				weighted(30, `passwd|shadow`),
				[]Rule{{Pattern: `\.\./|\.\.\\`, Weight: 25, CaseSensitive: true}},
				weighted(40, `jndi:`),
				weighted(30, `\$\{.*\}`),
			)},
			{Name: "scanner_user_agent", Target: TargetUserAgent, Rules: concat(
				weighted(30, `sqlmap`),
				weighted(25, `nikto`),
				weighted(20, `nmap`, `masscan`),
				weighted(15, `nuclei`),
				weighted(20, `dirbuster`, `gobuster`),
			)},
		},
		MethodBonus: map[string]int{"POST": 5, "PUT": 5, "DELETE": 10},
	}

	return RuleSet{
		DefaultWeight: 20,
		Services: map[string]ServiceRules{
			"http": web,
			"test": web,
			"ssh": {
				Categories: []RuleCategory{
					{Name: "suspicious_username", Target: TargetUsername, Rules: concat(
						weighted(35, `^root$`),
						weighted(30, `^admin$`),
						weighted(25, `^oracle$`, `^postgres$`, `^mysql$`),
						weighted(15, `^test$`),
					)},
					{Name: "auth_failure", Target: TargetBody, Rules: concat(
						weighted(20, `failed.*password`),
						weighted(25, `invalid.*user`),
						weighted(40, `brute`),
					)},
				},
				BaseWeight:       15,
				UsernameFromPath: true,
			},
			"ftp": {
				Categories: []RuleCategory{
					{Name: "suspicious_username", Target: TargetUsername, Rules: concat(
						weighted(15, `^anonymous$`),
						weighted(35, `^root$`),
						weighted(30, `^admin$`),
					)},
					{Name: "auth_failure", Target: TargetBody, Rules: weighted(20, `login.*failed`)},
				},
				BaseWeight:       10,
				UsernameFromPath: true,
			},
			"mysql": {
				Categories: []RuleCategory{
					{Name: "destructive_query", Target: TargetBody, Rules: concat(
						weighted(50, `DROP`),
						weighted(35, `DELETE.*FROM`),
						weighted(25, `UPDATE.*SET`),
						weighted(15, `INSERT.*INTO`),
						weighted(40, `LOAD_FILE`),
						weighted(45, `INTO.*OUTFILE`),
					)},
					{Name: "suspicious_username", Target: TargetUsername, Rules: concat(
						weighted(35, `^root$`),
						weighted(30, `^admin$`),
					)},
				},
				BaseWeight: 10,
			},
		},
	}
}

type compiledRule struct {
	re     *regexp.Regexp
	weight int
}

type compiledCategory struct {
	target RuleTarget
	rules  []compiledRule
}

type compiledProfile struct {
	categories       []compiledCategory
	baseWeight       int
	methodBonus      map[string]int
	usernameFromPath bool
}

// RiskScorer is a pure function of its input; it holds only the compiled
// rule tables and is safe for concurrent use.
type RiskScorer struct {
	profiles      map[string]compiledProfile
	defaultWeight int
}

func NewRiskScorer(set RuleSet) (*RiskScorer, error) {
	scorer := &RiskScorer{
		profiles:      make(map[string]compiledProfile, len(set.Services)),
		defaultWeight: set.DefaultWeight,
	}
	for key, service := range set.Services {
		profile := compiledProfile{
			baseWeight:       service.BaseWeight,
			methodBonus:      service.MethodBonus,
			usernameFromPath: service.UsernameFromPath,
		}
		for _, category := range service.Categories {
			compiled := compiledCategory{target: category.Target}
			for _, rule := range category.Rules {
				if rule.Weight < 0 {
					return nil, fmt.Errorf("rule %q in %s/%s has negative weight", rule.Pattern, key, category.Name)
				}
				pattern := rule.Pattern
				if !rule.CaseSensitive {
					pattern = "(?i)" + pattern
				}
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil, fmt.Errorf("compile rule %q in %s/%s: %w", rule.Pattern, key, category.Name, err)
				}
				compiled.rules = append(compiled.rules, compiledRule{re: re, weight: rule.Weight})
			}
			profile.categories = append(profile.categories, compiled)
		}
		scorer.profiles[key] = profile
	}
	return scorer, nil
}

// DefaultRiskScorer compiles DefaultRuleSet. The tables are static, so a
// failure here is a programming error.
func DefaultRiskScorer() *RiskScorer {
	scorer, err := NewRiskScorer(DefaultRuleSet())
	if err != nil {
		panic(err)
	}
	return scorer
}

// Score sums the weight of every matching rule, then clamps to 100.
func (s *RiskScorer) Score(in ScoreInput) int {
	profile, ok := s.profiles[in.Service.Key()]
	if !ok {
		return clampScore(s.defaultWeight)
	}

	total := profile.baseWeight
	var usernames []string
	for _, category := range profile.categories {
		if category.target == TargetUsername {
			if usernames == nil {
				usernames = usernameCandidates(in, profile.usernameFromPath)
			}
			for _, rule := range category.rules {
				if anyMatch(rule.re, usernames) {
					total += rule.weight
				}
			}
			continue
		}

		subject := in.field(category.target)
		for _, rule := range category.rules {
			if rule.re.MatchString(subject) {
				total += rule.weight
			}
		}
	}
	total += profile.methodBonus[in.Method]
	return clampScore(total)
}

func (in ScoreInput) field(target RuleTarget) string {
	switch target {
	case TargetPath:
		return in.Path
	case TargetUserAgent:
		return in.UserAgent
	default:
		return in.Body
	}
}

func anyMatch(re *regexp.Regexp, candidates []string) bool {
	for _, c := range candidates {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}

func usernameCandidates(in ScoreInput, includePath bool) []string {
	candidates := []string{in.Body}
	candidates = append(candidates, strings.FieldsFunc(in.Body, isTokenSeparator)...)
	if includePath {
		candidates = append(candidates, in.Path)
	}
	return candidates
}

// isTokenSeparator splits on whitespace and JSON or key=value punctuation.
// Hyphens are kept so "mysql-honeypot" never reads as the user "mysql".
func isTokenSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`{}[]"',:;=`, r)
}

func clampScore(total int) int {
	if total > entities.MaxRiskScore {
		return entities.MaxRiskScore
	}
	if total < entities.MinRiskScore {
		return entities.MinRiskScore
	}
	return total
}

// RiskLevel buckets a score.
func RiskLevel(score int) entities.RiskLevel {
	return entities.LevelForScore(score)
}
