package ports

import "github.com/jgreely/genaistuff/internal/domain"

// RuleSource provides named canned parameter sets plus global defaults
// from the user-editable config file.
type RuleSource interface {
	Default() domain.ParameterSet
	Rule(name string) (domain.ParameterSet, bool)
	Names() []string
}
