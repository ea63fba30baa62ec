package draft

import (
	"strings"

	"github.com/teranos/ladder/errors"
)

// Fill substitutes {key} placeholders in a template from the given
// context. Unknown placeholders are left intact so a bad template is
// visible in the output rather than silently blanked.
func Fill(template string, context map[string]string) string {
	if len(context) == 0 {
		return template
	}
	pairs := make([]string, 0, len(context)*2)
	for key, value := range context {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ValidateTemplate rejects templates with unbalanced braces before a
// run starts, instead of producing garbled messages mid-run.
func ValidateTemplate(template string) error {
	depth := 0
	for _, r := range template {
		switch r {
		case '{':
			depth++
			if depth > 1 {
				return errors.Wrap(errors.ErrValidation, "nested braces in template")
			}
		case '}':
			depth--
			if depth < 0 {
				return errors.Wrap(errors.ErrValidation, "unmatched closing brace in template")
			}
		}
	}
	if depth != 0 {
		return errors.Wrap(errors.ErrValidation, "unmatched opening brace in template")
	}
	return nil
}
