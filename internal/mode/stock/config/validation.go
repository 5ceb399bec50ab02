package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

const maxSymbolLength = 12

var symbolRegexp = regexp.MustCompile(`^[A-Z][A-Z0-9.-]*$`)

// ValidateSymbol checks that the symbol is a ticker symbol like ACME or BRK.B.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return errors.New("must be set")
	}
	if len(symbol) > maxSymbolLength {
		return fmt.Errorf("must be no more than %d characters", maxSymbolLength)
	}
	if !symbolRegexp.MatchString(symbol) {
		return fmt.Errorf("invalid symbol %q: must start with an upper case letter and contain only A-Z, 0-9, '.' or '-'",
			symbol)
	}

	return nil
}

// Validate validates the WatchSpec. All problems are reported at once.
func (w WatchSpec) Validate() error {
	var allErrs field.ErrorList

	symbolsPath := field.NewPath("symbols")
	if len(w.Symbols) == 0 {
		allErrs = append(allErrs, field.Required(symbolsPath, "at least one symbol must be tracked"))
	}

	seen := make(map[string]struct{}, len(w.Symbols))
	for i, symbol := range w.Symbols {
		if err := ValidateSymbol(symbol); err != nil {
			allErrs = append(allErrs, field.Invalid(symbolsPath.Index(i), symbol, err.Error()))
			continue
		}
		if _, exists := seen[symbol]; exists {
			allErrs = append(allErrs, field.Duplicate(symbolsPath.Index(i), symbol))
		}
		seen[symbol] = struct{}{}
	}

	subscribersPath := field.NewPath("subscribers")
	for i, sub := range w.Subscribers {
		allErrs = append(allErrs, validateSubscriber(sub, w.Symbols, subscribersPath.Index(i))...)
	}

	if w.DispatchTimeout < 0 {
		allErrs = append(
			allErrs,
			field.Invalid(field.NewPath("dispatch-timeout"), w.DispatchTimeout.String(), "must not be negative"),
		)
	}

	if !slices.Contains(SupportedLogLevels, w.LogLevel) {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("log-level"), w.LogLevel, SupportedLogLevels))
	}

	return allErrs.ToAggregate()
}

func validateSubscriber(sub SubscriberSpec, symbols []string, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList

	switch sub.Kind {
	case SubscriberKindChart, SubscriberKindAlert:
	default:
		allErrs = append(allErrs, field.NotSupported(
			path.Child("kind"),
			string(sub.Kind),
			[]string{string(SubscriberKindChart), string(SubscriberKindAlert)},
		))
	}

	if sub.Name == "" {
		allErrs = append(allErrs, field.Required(path.Child("name"), "must name the chart or the alert channel"))
	}

	for j, symbol := range sub.Symbols {
		if !slices.Contains(symbols, symbol) {
			allErrs = append(allErrs, field.NotFound(path.Child("symbols").Index(j), symbol))
		}
	}

	return allErrs
}
