package its

import (
	"fmt"
	"log"
)

// DiagKind classifies a Diagnostic, mirroring the error-kind taxonomy
// of spec.md §7.
type DiagKind int

const (
	// DiagRule covers rule-file errors and XPath errors: an offending
	// rule or selector is skipped, and processing continues.
	DiagRule DiagKind = iota
	// DiagParse covers non-fatal XML parse warnings.
	DiagParse
	// DiagMarkup covers translator-markup validation failures; the
	// merger falls back to middle-ground plain-text escaping.
	DiagMarkup
	// DiagSurrogate covers invalid surrogate / malformed UTF-8 in
	// translator-supplied content, replaced with U+FFFD.
	DiagSurrogate
)

func (k DiagKind) String() string {
	switch k {
	case DiagRule:
		return "rule"
	case DiagParse:
		return "parse"
	case DiagMarkup:
		return "markup"
	case DiagSurrogate:
		return "surrogate"
	default:
		return "diagnostic"
	}
}

// A Diagnostic is a single non-fatal warning collected during an
// apply/extract/merge call, so a host tool can render a summary
// without scraping log text.
type Diagnostic struct {
	Kind    DiagKind
	Message string
}

// A Logger is satisfied by *log.Logger; it is the sink Config.logf
// writes warnings to, grounded on xsdgen.Config's logger field and
// cmd/xsdgen's `log.New(os.Stderr, "", 0)` + `log.SetFlags(0)` setup.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Config holds the tunables that vary engine behavior across calls,
// set via functional Options the way xsdgen.Config is configured with
// Option values.
type Config struct {
	logger           Logger
	escapeOnExtract  bool
	maxMicroXMLDepth int
	recursionLimit   int
}

// An Option customizes a Config.
type Option func(*Config)

// DefaultConfig is the zero-value-equivalent Config used when callers
// don't need to customize anything: no logger, escape-on-extract off
// (spec.md §4.6), micro-parser nesting capped at 100 (spec.md §4.8),
// DOM recursion capped at dom.DefaultRecursionLimit.
func DefaultConfig(opts ...Option) *Config {
	c := &Config{
		escapeOnExtract:  false,
		maxMicroXMLDepth: 100,
		recursionLimit:   3000,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithLogger routes warnings to logger in addition to the returned
// Diagnostic slice.
func WithLogger(logger Logger) Option {
	return func(c *Config) { c.logger = logger }
}

// WithStdLogger is a convenience wrapper for the common case of
// logging warnings to a *log.Logger.
func WithStdLogger(l *log.Logger) Option {
	return WithLogger(l)
}

// WithEscapeOnExtract resolves spec.md's Open Question about making
// the "escape on extraction" flag configurable: when true, the
// extractor honors the unit's effective escape value instead of
// forcing it off. The default (false) matches spec.md §4.6 exactly.
func WithEscapeOnExtract(b bool) Option {
	return func(c *Config) { c.escapeOnExtract = b }
}

// WithMaxMicroXMLDepth records a micro-parser nesting-depth limit in
// the Config (default 100). The merger does not pass it on: package
// microxml always applies its own fixed limit of 100.
func WithMaxMicroXMLDepth(n int) Option {
	return func(c *Config) { c.maxMicroXMLDepth = n }
}

func (c *Config) logf(format string, v ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, v...)
	}
}

func (c *Config) warn(diag *[]Diagnostic, kind DiagKind, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	*diag = append(*diag, Diagnostic{Kind: kind, Message: msg})
	c.logf("%s: %s", kind, msg)
}
