package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSource loads plans from a YAML file. The file is re-read on every
// Load call; the Catalog's TTL decides how often that actually happens.
type fileSource struct {
	path string
}

// NewFileSource returns a Source reading plan definitions from a YAML file.
//
// File format (prices in minor currency units):
//
//	currency: USD
//	plans:
//	  - id: plan_basic
//	    name: Basic
//	    tier: basic
//	    monthly_price: 9900
//	    yearly_price: 99900
//	    trial_days: 7
//	    public: true
//	    features:
//	      max_exams: 10
//	      ai_analysis: false
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

type planFile struct {
	Currency string     `yaml:"currency"`
	Plans    []planYAML `yaml:"plans"`
}

type planYAML struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Tier         string         `yaml:"tier"`
	MonthlyPrice int64          `yaml:"monthly_price"`
	YearlyPrice  int64          `yaml:"yearly_price"`
	TrialDays    int            `yaml:"trial_days"`
	Public       bool           `yaml:"public"`
	Features     map[string]any `yaml:"features"`
}

// Load reads and parses the plan file.
func (s *fileSource) Load(ctx context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var file planFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if file.Currency == "" {
		return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan file %s: currency is required", s.path))
	}

	plans := make(map[string]Plan, len(file.Plans))
	for _, p := range file.Plans {
		features, err := parseFeatures(p.ID, p.Features)
		if err != nil {
			return nil, err
		}

		plans[p.ID] = Plan{
			ID:           p.ID,
			Name:         p.Name,
			Tier:         Tier(p.Tier),
			MonthlyPrice: Money{Amount: p.MonthlyPrice, Currency: file.Currency},
			YearlyPrice:  Money{Amount: p.YearlyPrice, Currency: file.Currency},
			Features:     features,
			TrialDays:    p.TrialDays,
			Public:       p.Public,
		}
	}

	return plans, nil
}

// parseFeatures converts loosely typed YAML values into the closed Value
// union. Booleans become flags, integers become limits (-1 = unlimited).
func parseFeatures(planID string, raw map[string]any) (FeatureMap, error) {
	features := make(FeatureMap, len(raw))
	for key, val := range raw {
		switch v := val.(type) {
		case bool:
			features[Feature(key)] = BoolValue(v)
		case int:
			features[Feature(key)] = LimitValue(int64(v))
		case int64:
			features[Feature(key)] = LimitValue(v)
		default:
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s: feature %q has unsupported type %T", planID, key, val))
		}
	}
	return features, nil
}
