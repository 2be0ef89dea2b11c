package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"eurosom/internal"
)

// Rules is the business configuration of the normalization pipeline. Column
// order matters: specs are resolved in the order listed.
type Rules struct {
	Columns           []internal.ColumnSpec
	Alerts            []internal.AlertRule
	AnticipationFlag  string
	AnticipationWeeks int
	FiscalStartMonth  int
	FoldAccents       bool
}

type rulesFile struct {
	Columns []internal.ColumnSpec `toml:"columns"`
	Alerts  []internal.AlertRule  `toml:"alerts"`
}

func DefaultRules() Rules {
	return Rules{
		Columns: []internal.ColumnSpec{
			{Key: internal.FieldClient, Keyword: "CLIENT", Default: "CLIENT"},
			{Key: internal.FieldCity, Keyword: "VILLE", Default: "VILLE"},
			{Key: internal.FieldAmount, Keyword: "MONTANT", Default: "MONTANT"},
			{Key: internal.FieldOrderDate, Keyword: "DATE COMMANDE", Default: "DATE COMMANDE"},
			{Key: internal.FieldInstallDate, Keyword: "POSE", Default: "DATE POSE"},
			{Key: internal.FieldStatus, Keyword: "STATUT", Default: "STATUT"},
			{Key: internal.FieldSalesperson, Keyword: "COMMERCIAL", Default: "COMMERCIAL"},
			{Key: internal.FieldPostalCode, Keyword: "POSTAL", Default: "CODE POSTAL"},
			{Key: internal.FieldHours, Keyword: "HEURE", Default: "HEURES"},
			{Key: internal.FieldAlert, Keyword: "ALERTE", Default: "ALERTE"},
			{Key: internal.FieldAnticipation, Keyword: "ANTICIP", Default: "ANTICIPATION STOCK"},
			{Key: internal.FieldDelayType, Keyword: "DÉLAI", Default: "TYPE DÉLAI"},
		},
		Alerts: []internal.AlertRule{
			{Category: internal.AlertUrgent, Keywords: []string{"URGENT"}},
			{Category: internal.AlertLate, Keywords: []string{"RETARD"}},
			{Category: internal.AlertUpcoming, Keywords: []string{"PRÉVOIR", "A PREVOIR"}},
			{Category: internal.AlertFarHorizon, Keywords: []string{"HORIZON"}},
			{Category: internal.AlertAwaitingSchedule, Keywords: []string{"ATTENTE PLANIF"}},
		},
		AnticipationFlag:  "OUI",
		AnticipationWeeks: 7,
		FiscalStartMonth:  8,
		FoldAccents:       true,
	}
}

// LoadRules starts from DefaultRules, applies the scalar settings from cfg and
// then the optional TOML overlay at cfg.RulesPath.
func LoadRules(cfg Config) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(cfg.AnticipationFlag) != "" {
		rules.AnticipationFlag = cfg.AnticipationFlag
	}
	if cfg.AnticipationWeeks > 0 {
		rules.AnticipationWeeks = cfg.AnticipationWeeks
	}
	if cfg.FiscalStartMonth >= 1 && cfg.FiscalStartMonth <= 12 {
		rules.FiscalStartMonth = cfg.FiscalStartMonth
	}
	rules.FoldAccents = cfg.FoldAccents

	if strings.TrimSpace(cfg.RulesPath) == "" {
		return rules, nil
	}
	blob, err := os.ReadFile(cfg.RulesPath)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := rules.Overlay(blob); err != nil {
		return Rules{}, fmt.Errorf("parse rules file %s: %w", cfg.RulesPath, err)
	}
	return rules, nil
}

// Overlay merges a TOML document into the rules. Column specs and alert rules
// replace the entry with the same key or category; unknown ones are appended.
func (r *Rules) Overlay(blob []byte) error {
	var file rulesFile
	if err := toml.Unmarshal(blob, &file); err != nil {
		return err
	}

	for _, spec := range file.Columns {
		if spec.Key == "" || strings.TrimSpace(spec.Keyword) == "" {
			return fmt.Errorf("column spec needs key and keyword: %+v", spec)
		}
		if spec.Default == "" {
			spec.Default = spec.Keyword
		}
		replaced := false
		for i := range r.Columns {
			if r.Columns[i].Key == spec.Key {
				r.Columns[i] = spec
				replaced = true
				break
			}
		}
		if !replaced {
			r.Columns = append(r.Columns, spec)
		}
	}

	for _, rule := range file.Alerts {
		if rule.Category == "" {
			return fmt.Errorf("alert rule without category")
		}
		replaced := false
		for i := range r.Alerts {
			if r.Alerts[i].Category == rule.Category {
				r.Alerts[i] = rule
				replaced = true
				break
			}
		}
		if !replaced {
			r.Alerts = append(r.Alerts, rule)
		}
	}
	return nil
}
