package pipeline

import (
	"strings"
	"time"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/util"
)

type AlertClassifier struct {
	rules []internal.AlertRule
	fold  bool
}

func NewAlertClassifier(rules []internal.AlertRule, foldAccents bool) *AlertClassifier {
	prepared := make([]internal.AlertRule, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToUpper(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if foldAccents {
				kw = util.FoldAccents(kw)
			}
			keywords = append(keywords, kw)
		}
		prepared = append(prepared, internal.AlertRule{Category: rule.Category, Keywords: keywords})
	}
	return &AlertClassifier{rules: prepared, fold: foldAccents}
}

// ClassifyAlert uses the default keyword set.
func ClassifyAlert(text string) []internal.AlertCategory {
	defaults := config.DefaultRules()
	return NewAlertClassifier(defaults.Alerts, defaults.FoldAccents).Classify(text)
}

// Classify returns every category whose keywords occur in text, in rule
// order. Text with no match is {NONE}.
func (c *AlertClassifier) Classify(text string) []internal.AlertCategory {
	subject := strings.ToUpper(text)
	if c.fold {
		subject = util.FoldAccents(subject)
	}

	out := []internal.AlertCategory{}
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(subject, kw) {
				out = append(out, rule.Category)
				break
			}
		}
	}
	if len(out) == 0 {
		return []internal.AlertCategory{internal.AlertNone}
	}
	return out
}

type AnticipationRule struct {
	Flag  string
	Weeks int
}

// Qualifies is true when flag matches the rule's yes-literal and install
// falls within [today, today+Weeks] inclusive.
func (r AnticipationRule) Qualifies(flag string, install *time.Time, now time.Time) bool {
	if install == nil {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(flag), strings.TrimSpace(r.Flag)) {
		return false
	}
	today := util.Today(now)
	horizon := today.AddDate(0, 0, 7*r.Weeks)
	return !install.Before(today) && !install.After(horizon)
}
