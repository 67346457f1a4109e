package input

import "strings"

// ListFlag binds a repeated or comma-separated flag to a string slice.
// The first Set replaces whatever default the slice held, so values
// loaded from a config file are overridden rather than extended.
type ListFlag struct {
	dst *[]string
	set bool
}

// NewListFlag returns a flag.Value writing into dst.
func NewListFlag(dst *[]string) *ListFlag {
	return &ListFlag{dst: dst}
}

func (f *ListFlag) String() string {
	if f == nil || f.dst == nil {
		return ""
	}
	return strings.Join(*f.dst, ",")
}

func (f *ListFlag) Set(value string) error {
	if !f.set {
		*f.dst = nil
		f.set = true
	}
	*f.dst = append(*f.dst, SplitList(value)...)
	return nil
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
