package entities

import "strings"

// ServiceType is the honeypot protocol category an event was captured on.
type ServiceType string

const (
	ServiceHTTP   ServiceType = "http-honeypot"
	ServiceSSH    ServiceType = "ssh-honeypot"
	ServiceFTP    ServiceType = "ftp-honeypot"
	ServiceMySQL  ServiceType = "mysql-honeypot"
	ServiceSMTP   ServiceType = "smtp-honeypot"
	ServiceDNS    ServiceType = "dns-honeypot"
	ServiceTelnet ServiceType = "telnet-honeypot"
	ServiceRDP    ServiceType = "rdp-honeypot"
	ServiceTest   ServiceType = "test-honeypot"

	DefaultService = ServiceHTTP

	serviceSuffix = "-honeypot"
)

// SupportedServices lists every accepted service type in display order.
var SupportedServices = []ServiceType{
	ServiceHTTP,
	ServiceSSH,
	ServiceFTP,
	ServiceMySQL,
	ServiceSMTP,
	ServiceDNS,
	ServiceTelnet,
	ServiceRDP,
	ServiceTest,
}

// Key returns the bare rule-set key, e.g. "ssh" for "ssh-honeypot".
func (s ServiceType) Key() string {
	return strings.TrimSuffix(string(s), serviceSuffix)
}

func (s ServiceType) IsSupported() bool {
	for _, supported := range SupportedServices {
		if s == supported {
			return true
		}
	}
	return false
}

// RiskLevel buckets a risk score for display and statistics.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
	RiskInfo     RiskLevel = "info"
)

const (
	MinRiskScore = 0
	MaxRiskScore = 100
)

// RiskLevels is ordered from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskInfo}

// LevelForScore maps a score to its bucket.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskLow
	default:
		return RiskInfo
	}
}

// MinScore is the lowest score that falls into the level.
func (l RiskLevel) MinScore() int {
	switch l {
	case RiskCritical:
		return 80
	case RiskHigh:
		return 60
	case RiskMedium:
		return 40
	case RiskLow:
		return 20
	default:
		return MinRiskScore
	}
}
