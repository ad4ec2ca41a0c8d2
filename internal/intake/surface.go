package intake

import (
	"net/url"
	"strings"
)

// Event is something the user did on the upload surface.
type Event interface{ surfaceEvent() }

// DragEnter marks the drop zone as hot. Visual only.
type DragEnter struct{}

// DragOver keeps the drop zone hot. Visual only.
type DragOver struct{}

// DragLeave clears the hot state. Visual only.
type DragLeave struct{}

// Drop delivers the paths released over the drop zone.
type Drop struct{ Paths []string }

// PickerChange delivers the paths chosen in the file picker.
type PickerChange struct{ Paths []string }

func (DragEnter) surfaceEvent()    {}
func (DragOver) surfaceEvent()     {}
func (DragLeave) surfaceEvent()    {}
func (Drop) surfaceEvent()         {}
func (PickerChange) surfaceEvent() {}

// Surface turns drop and picker events into at most one validated FileHandle
// per event. Rejections stay local: they set Error and hand nothing upward.
type Surface struct {
	policy   Policy
	resolve  func(path string) (FileHandle, error)
	entered  bool
	disabled bool
	err      string
}

// NewSurface returns a surface that resolves paths from the local filesystem.
func NewSurface(p Policy) *Surface {
	return &Surface{policy: p, resolve: FromPath}
}

// WithResolver swaps how a path becomes a FileHandle.
func (s *Surface) WithResolver(fn func(path string) (FileHandle, error)) *Surface {
	s.resolve = fn
	return s
}

// Policy returns the acceptance policy in force.
func (s *Surface) Policy() Policy { return s.policy }

// Entered reports whether a drag is hovering the drop zone.
func (s *Surface) Entered() bool { return s.entered }

// Error is the last local rejection message, "" when none.
func (s *Surface) Error() string { return s.err }

// Disabled reports whether events are currently ignored.
func (s *Surface) Disabled() bool { return s.disabled }

// SetDisabled toggles intake. The owner disables the surface while a transfer
// is in flight.
func (s *Surface) SetDisabled(v bool) {
	s.disabled = v
	if v {
		s.entered = false
	}
}

// ClearError dismisses the local rejection message.
func (s *Surface) ClearError() { s.err = "" }

// Handle applies ev. It returns a handle only for an accepted drop or picker
// selection.
func (s *Surface) Handle(ev Event) (FileHandle, bool) {
	if s.disabled {
		return FileHandle{}, false
	}
	switch e := ev.(type) {
	case DragEnter, DragOver:
		s.entered = true
	case DragLeave:
		s.entered = false
	case Drop:
		s.entered = false
		return s.take(e.Paths)
	case PickerChange:
		return s.take(e.Paths)
	}
	return FileHandle{}, false
}

// take considers only the first path; batch upload is not supported.
func (s *Surface) take(paths []string) (FileHandle, bool) {
	if len(paths) == 0 {
		return FileHandle{}, false
	}
	f, err := s.resolve(paths[0])
	if err != nil {
		s.err = "Cannot read file: " + err.Error()
		return FileHandle{}, false
	}
	out := Validate(f, s.policy)
	if !out.Valid {
		s.err = Describe(out, s.policy)
		return FileHandle{}, false
	}
	s.err = ""
	return f, true
}

// SplitDropPayload parses text a terminal pastes when files are dropped on it:
// one or more paths, shell-quoted or backslash-escaped, optionally file:// URLs.
func SplitDropPayload(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		esc   bool
		have  bool
	)
	flush := func() {
		if have {
			out = append(out, fromFileURL(cur.String()))
		}
		cur.Reset()
		have = false
	}
	for _, r := range s {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
			have = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			esc = true
		case r == '\'' || r == '"':
			quote = r
			have = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	flush()
	return out
}

func fromFileURL(p string) string {
	if !strings.HasPrefix(p, "file://") {
		return p
	}
	u, err := url.Parse(p)
	if err != nil || u.Path == "" {
		return p
	}
	return u.Path
}
