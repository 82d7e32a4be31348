package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleParseErrorTemplate               = "invalid toggle value %q"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
	toggleValueTypeConstant                = "bool"
	longFlagPrefixConstant                 = "--"
	shortFlagPrefixConstant                = "-"
	flagValueSeparatorConstant             = "="
	argumentTerminatorConstant             = "--"
)

var (
	trueLiteralSet = map[string]struct{}{
		toggleTrueCanonicalValue: {},
		"yes":                    {},
		"on":                     {},
		"1":                      {},
		"t":                      {},
		"y":                      {},
	}
	falseLiteralSet = map[string]struct{}{
		toggleFalseCanonicalValue: {},
		"no":                      {},
		"off":                     {},
		"0":                       {},
		"f":                       {},
		"n":                       {},
	}
)

// AddToggleFlag registers a boolean flag that also accepts yes/no style values,
// so "--push", "--push=no", and "--push no" all parse.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	toggleValue := newToggleFlagValue(defaultValue, target)
	flagSet.VarP(toggleValue, name, shorthand, formatToggleUsage(usage, defaultValue))
	if flag := flagSet.Lookup(name); flag != nil {
		flag.NoOptDefVal = toggleTrueCanonicalValue
	}
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf("`%s`", placeholder)
	}
	return fmt.Sprintf("`%s` %s", placeholder, trimmed)
}

// NormalizeCommandArguments rewrites toggle arguments for whichever command the arguments select.
func NormalizeCommandArguments(rootCommand *cobra.Command, arguments []string) []string {
	if rootCommand == nil {
		return arguments
	}
	targetCommand, _, findError := rootCommand.Find(arguments)
	if findError != nil || targetCommand == nil {
		targetCommand = rootCommand
	}
	flagSets := []*pflag.FlagSet{targetCommand.Flags(), targetCommand.InheritedFlags()}
	return NormalizeToggleArguments(arguments, flagSets...)
}

// NormalizeToggleArguments rewrites "--flag value" into "--flag=value" for toggle flags
// registered in the provided flag sets. A following value is only consumed when it is a
// recognized yes/no literal, so positional arguments after a toggle stay positional.
func NormalizeToggleArguments(arguments []string, flagSets ...*pflag.FlagSet) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == argumentTerminatorConstant {
			normalized = append(normalized, arguments[index:]...)
			break
		}

		if index+1 < len(arguments) && isBareToggleArgument(current, flagSets) && isToggleLiteral(arguments[index+1]) {
			normalized = append(normalized, current+flagValueSeparatorConstant+arguments[index+1])
			index++
			continue
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func isBareToggleArgument(argument string, flagSets []*pflag.FlagSet) bool {
	if strings.Contains(argument, flagValueSeparatorConstant) {
		return false
	}
	switch {
	case strings.HasPrefix(argument, longFlagPrefixConstant):
		name := strings.TrimPrefix(argument, longFlagPrefixConstant)
		return len(name) > 0 && lookupToggle(flagSets, func(flagSet *pflag.FlagSet) *pflag.Flag { return flagSet.Lookup(name) })
	case strings.HasPrefix(argument, shortFlagPrefixConstant):
		shorthand := strings.TrimPrefix(argument, shortFlagPrefixConstant)
		return len(shorthand) == 1 && lookupToggle(flagSets, func(flagSet *pflag.FlagSet) *pflag.Flag { return flagSet.ShorthandLookup(shorthand) })
	default:
		return false
	}
}

func lookupToggle(flagSets []*pflag.FlagSet, lookup func(*pflag.FlagSet) *pflag.Flag) bool {
	for _, flagSet := range flagSets {
		if flagSet == nil {
			continue
		}
		if flag := lookup(flagSet); flag != nil {
			_, isToggle := flag.Value.(*toggleFlagValue)
			return isToggle
		}
	}
	return false
}

func isToggleLiteral(value string) bool {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true
	}
	_, isFalse := falseLiteralSet[normalizedValue]
	return isFalse
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleValueTypeConstant
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := falseLiteralSet[normalizedValue]; isFalse {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}
