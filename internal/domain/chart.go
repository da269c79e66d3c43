package domain

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed chart_template.yaml
var standardChartYAML []byte

// ChartTemplateAccount is one account of a chart template. Parent is the
// parent's code and must appear earlier in the template.
type ChartTemplateAccount struct {
	Code          string          `yaml:"code"`
	Name          string          `yaml:"name"`
	Type          AccountType     `yaml:"type"`
	Category      AccountCategory `yaml:"category"`
	NormalBalance NormalBalance   `yaml:"normal_balance"`
	Parent        string          `yaml:"parent,omitempty"`
}

type chartTemplate struct {
	Accounts []ChartTemplateAccount `yaml:"accounts"`
}

// StandardChartYAML returns the embedded template as written.
func StandardChartYAML() []byte {
	return standardChartYAML
}

// StandardChart parses the embedded chart of accounts.
func StandardChart() ([]ChartTemplateAccount, error) {
	return ParseChart(standardChartYAML)
}

// ParseChart decodes a YAML chart template and checks every account and
// parent reference.
func ParseChart(data []byte) ([]ChartTemplateAccount, error) {
	var tpl chartTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse chart template: %w", err)
	}

	seen := make(map[string]AccountType, len(tpl.Accounts))
	for _, ta := range tpl.Accounts {
		acc := ta.Account()
		if err := acc.Validate(); err != nil {
			return nil, fmt.Errorf("chart account %s: %w", ta.Code, err)
		}
		if _, dup := seen[ta.Code]; dup {
			return nil, fmt.Errorf("chart account %s: %w", ta.Code, ErrDuplicateAccountCode)
		}
		if ta.Parent != "" {
			parentType, ok := seen[ta.Parent]
			if !ok || parentType != ta.Type {
				return nil, fmt.Errorf("chart account %s: %w", ta.Code, ErrInvalidParentAccount)
			}
		}
		seen[ta.Code] = ta.Type
	}
	return tpl.Accounts, nil
}

// Account converts the template row into an active account with zero
// balance. ID, tenant and parent id are set by the caller.
func (ta ChartTemplateAccount) Account() *Account {
	nb := ta.NormalBalance
	if nb == "" {
		nb = ta.Type.DefaultNormalBalance()
	}
	return &Account{
		Code:          ta.Code,
		Name:          ta.Name,
		Type:          ta.Type,
		Category:      ta.Category,
		NormalBalance: nb,
		Balance:       decimal.Zero,
		IsActive:      true,
	}
}
