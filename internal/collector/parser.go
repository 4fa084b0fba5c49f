package collector

import (
	"regexp"
	"strings"

	"neypot.backend/internal/usecases"
)

// MaxBodyChars caps the raw log line forwarded as the event body.
const MaxBodyChars = 5000

// Event is the ingest payload built from one log line.
type Event struct {
	SourceIP  string `json:"source_ip"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	UserAgent string `json:"user_agent"`
	Service   string `json:"service"`
	Body      string `json:"body"`
	Username  string `json:"username,omitempty"`

	// Pattern names the log format that matched. Not sent.
	Pattern string `json:"-"`
}

type logPattern struct {
	name string
	re   *regexp.Regexp
}

const ipv4 = `\d{1,3}(?:\.\d{1,3}){3}`

// Patterns are tried in order; the first match wins.
var servicePatterns = map[string][]logPattern{
	"http": {
		{"nginx_combined", regexp.MustCompile(`(?P<ip>` + ipv4 + `) - \S+ \[(?P<time>[^\]]+)\] "(?P<method>[A-Z]+) (?P<path>\S+) [^"]*" (?P<status>\d{3}) (?P<size>\d+|-) "(?P<referer>[^"]*)" "(?P<ua>[^"]*)"`)},
		{"apache_common", regexp.MustCompile(`(?P<ip>` + ipv4 + `) - \S+ \[(?P<time>[^\]]+)\] "(?P<method>[A-Z]+) (?P<path>\S+) [^"]*" (?P<status>\d{3}) (?P<size>\d+|-)`)},
	},
	"ssh": {
		{"auth_failed", regexp.MustCompile(`sshd\[\d+\]: Failed password for (?:invalid user )?(?P<user>[\w.-]+) from (?P<ip>` + ipv4 + `)`)},
		{"auth_success", regexp.MustCompile(`sshd\[\d+\]: Accepted (?:password|publickey) for (?P<user>[\w.-]+) from (?P<ip>` + ipv4 + `)`)},
		{"cowrie_login", regexp.MustCompile(`\[HoneyPotSSHTransport,\d+,(?P<ip>` + ipv4 + `)\] login attempt \[b?'?(?P<user>[^'/\]]+)'?/`)},
		{"cowrie", regexp.MustCompile(`\[SSHChannel.*?\] (?P<ip>` + ipv4 + `).*?(?:login attempt|command)`)},
	},
	"ftp": {
		{"vsftpd", regexp.MustCompile(`(?:vsftpd\[\d+\]:|\[pid \d+\])(?: \[pid \d+\])?(?: \[(?P<user>[^\]]+)\])? .*?Client "(?:::ffff:)?(?P<ip>` + ipv4 + `)"`)},
		{"proftpd", regexp.MustCompile(`proftpd\[\d+\]:? .*?\(?(?P<ip>` + ipv4 + `)\)?.*USER (?P<user>[\w.-]+)`)},
	},
	"mysql": {
		{"audit", regexp.MustCompile(`(?P<ip>` + ipv4 + `).*?Query.*?(?P<query>SELECT|INSERT|UPDATE|DELETE|DROP)`)},
		{"general", regexp.MustCompile(`Connect\s+(?P<user>[\w.-]+)@(?P<ip>` + ipv4 + `)`)},
	},
}

// Services lists the log-backed services the collector can parse.
func Services() []string {
	return []string{"http", "ssh", "ftp", "mysql"}
}

// ParseLine matches a log line against the formats known for service.
func ParseLine(service, line string) (*Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, false
	}

	for _, p := range servicePatterns[service] {
		match := p.re.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		groups := make(map[string]string, len(match))
		for i, name := range p.re.SubexpNames() {
			if name != "" {
				groups[name] = match[i]
			}
		}

		return &Event{
			SourceIP:  orDefault(groups["ip"], usecases.UnknownSourceIP),
			Path:      orDefault(groups["path"], "/"+service),
			Method:    orDefault(groups["method"], strings.ToUpper(service)),
			UserAgent: orDefault(groups["ua"], service+"-honeypot"),
			Service:   service + "-honeypot",
			Body:      usecases.TruncateRunes(line, MaxBodyChars),
			Username:  groups["user"],
			Pattern:   p.name,
		}, true
	}
	return nil, false
}

func orDefault(v, fallback string) string {
	if v == "" || v == "-" {
		return fallback
	}
	return v
}
