// Package commandline contains helper types for collecting
// command-line arguments.
package commandline

import (
	"strings"
)

// The Strings type can be used to collect multiple command-line options,
// in the order provided. It satisfies both stdlib flag.Value and
// pflag.Value (the Type method is pflag-only).
type Strings []string

func (s *Strings) String() string {
	return strings.Join(*s, ",")
}

func (s *Strings) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func (s *Strings) Type() string {
	return "strings"
}
