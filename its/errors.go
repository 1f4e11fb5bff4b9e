package its

import "fmt"

// ruleError is raised with panic from inside a rule constructor and
// recovered by RuleSet.constructRule (or, around one rule's applier,
// by baseRule.applySelector), turning it into a warning and a skipped
// rule —
// exactly the panic/recover-to-bubble-errors idiom droyo-go-xml's
// xsd/walk.go uses for deeply recursive tree walks (parseError +
// stop()), adapted here to skip one rule rather than abort a walk.
type ruleError struct {
	selector string
	category string
	message  string
}

func (e ruleError) Error() string {
	return fmt.Sprintf("its: rule %s (selector %q): %s", e.category, e.selector, e.message)
}

func stop(category, selector, format string, args ...interface{}) {
	panic(ruleError{category: category, selector: selector, message: fmt.Sprintf(format, args...)})
}

// recoverRule recovers a ruleError panic, reporting it through diag
// and the logger, and continuing. Panics that are not
// ruleError are propagated, since they represent programming errors
// rather than the malformed-rule-file / bad-XPath conditions spec.md
// §7 calls out as recoverable.
func (c *Config) recoverRule(diag *[]Diagnostic) {
	if r := recover(); r != nil {
		re, ok := r.(ruleError)
		if !ok {
			panic(r)
		}
		c.warn(diag, DiagRule, re.Error())
	}
}
