package atc

import (
	"regexp"
	"strings"
)

// SwitchRule maps a pilot phrase pattern to the position it requests.
// Rules are evaluated in order; the first match wins.
type SwitchRule struct {
	Pattern  *regexp.Regexp
	Position Position
}

// defaultPilotRules recognize phrases like "switch to ground", "contact
// tower", "request approach" and the shorthand "with ground"/"with tower".
// Departure is worked by the approach controller.
func defaultPilotRules() []SwitchRule {
	return []SwitchRule{
		{regexp.MustCompile(`(?i)(?:switch to|contact|request) (?:ground(?: control)?)`), PositionGround},
		{regexp.MustCompile(`(?i)(?:switch to|contact|request) (?:tower)`), PositionTower},
		{regexp.MustCompile(`(?i)(?:switch to|contact|request) (?:approach|departure)`), PositionApproach},
		{regexp.MustCompile(`(?i)(?:switch to|contact|request) (?:center|area control)`), PositionCenter},
		{regexp.MustCompile(`(?i)(?:with) (?:ground)`), PositionGround},
		{regexp.MustCompile(`(?i)(?:with) (?:tower)`), PositionTower},
	}
}

// controllerCue pairs a reply substring with the position it hands the
// pilot off to.
type controllerCue struct {
	substring string
	position  Position
}

func defaultControllerCues() []controllerCue {
	return []controllerCue{
		{"contact ground", PositionGround},
		{"contact tower", PositionTower},
		{"contact approach", PositionApproach},
		{"contact departure", PositionApproach},
		{"contact center", PositionCenter},
	}
}

var stripPattern = regexp.MustCompile(`(?i)(?:switch to|contact|request|with) (?:ground(?: control)?|tower|approach|departure|center|area control)`)

// SwitchDetector recognizes position-change phrases in pilot messages and
// controller replies. Detection is heuristic by design: the rules are a
// pluggable ordered list so stricter parsing can replace them without
// touching the selector.
type SwitchDetector struct {
	pilotRules     []SwitchRule
	controllerCues []controllerCue
}

// NewSwitchDetector creates a detector with the default rule set.
func NewSwitchDetector() *SwitchDetector {
	return &SwitchDetector{
		pilotRules:     defaultPilotRules(),
		controllerCues: defaultControllerCues(),
	}
}

// NewSwitchDetectorWithRules creates a detector with a custom pilot rule
// set, keeping the default controller cues.
func NewSwitchDetectorWithRules(rules []SwitchRule) *SwitchDetector {
	return &SwitchDetector{
		pilotRules:     rules,
		controllerCues: defaultControllerCues(),
	}
}

// DetectPilot checks a pilot message for a position switch request. When a
// rule matches it returns the requested position, the message with the
// switch phrase stripped, and true. An empty residual means the message was
// purely a position change.
func (d *SwitchDetector) DetectPilot(text string) (Position, string, bool) {
	for _, rule := range d.pilotRules {
		if rule.Pattern.MatchString(text) {
			residual := stripPattern.ReplaceAllString(text, "")
			residual = strings.Trim(residual, " \t,.;")
			return rule.Position, residual, true
		}
	}
	return "", text, false
}

// DetectController checks a controller reply for a handoff instruction.
func (d *SwitchDetector) DetectController(text string) (Position, bool) {
	lower := strings.ToLower(text)
	for _, cue := range d.controllerCues {
		if strings.Contains(lower, cue.substring) {
			return cue.position, true
		}
	}
	return "", false
}
