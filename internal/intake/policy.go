package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Rejection reasons reported by Validate.
var (
	ErrSizeExceeded    = errors.New("exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// DefaultAccept mirrors the formats the analysis service profiles.
const DefaultAccept = ".csv,.xlsx,.xls"

// DefaultMaxSizeBytes is 10 MiB.
const DefaultMaxSizeBytes int64 = 10 * 1024 * 1024

// Policy gates which files may be submitted for analysis.
type Policy struct {
	// Accept holds extensions (with a leading '.') and/or exact media types.
	// An empty list accepts any type.
	Accept       []string
	MaxSizeBytes int64
}

// DefaultPolicy returns the process-wide acceptance policy.
func DefaultPolicy() Policy {
	return Policy{Accept: ParseAccept(DefaultAccept), MaxSizeBytes: DefaultMaxSizeBytes}
}

// ParseAccept splits a comma-separated accept string into normalized entries.
func ParseAccept(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Outcome is the result of validating a file against a Policy.
type Outcome struct {
	Valid  bool
	Reason string
}

// Valid is the accepting outcome.
func Valid() Outcome { return Outcome{Valid: true} }

// Invalid builds a rejecting outcome carrying reason.
func Invalid(reason string) Outcome { return Outcome{Reason: reason} }

// Err returns the sentinel error for a rejected outcome, nil when valid.
func (o Outcome) Err() error {
	switch {
	case o.Valid:
		return nil
	case o.Reason == ErrSizeExceeded.Error():
		return ErrSizeExceeded
	case o.Reason == ErrUnsupportedType.Error():
		return ErrUnsupportedType
	default:
		return errors.New(o.Reason)
	}
}

// Validate checks size first, then type. Only the first failing check is reported.
func Validate(f FileHandle, p Policy) Outcome {
	if f.SizeBytes > p.MaxSizeBytes {
		return Invalid(ErrSizeExceeded.Error())
	}
	if len(p.Accept) == 0 {
		return Valid()
	}
	ext := f.Extension()
	// Media types are case-insensitive (RFC 2045); entries are already lowered.
	mt := strings.ToLower(strings.TrimSpace(f.MediaType))
	for _, entry := range p.Accept {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, ".") {
			if ext != "" && ext == entry[1:] {
				return Valid()
			}
			continue
		}
		if mt != "" && mt == entry {
			return Valid()
		}
	}
	return Invalid(ErrUnsupportedType.Error())
}

// Describe renders a rejected outcome as a user-facing sentence.
func Describe(o Outcome, p Policy) string {
	switch o.Err() {
	case nil:
		return ""
	case ErrSizeExceeded:
		return fmt.Sprintf("File size exceeds %s limit.", humanize.IBytes(uint64(p.MaxSizeBytes)))
	case ErrUnsupportedType:
		if len(p.Accept) > 0 {
			return fmt.Sprintf("Unsupported file type. Accepted: %s.", strings.Join(p.Accept, ", "))
		}
		return "Unsupported file type."
	default:
		return o.Reason
	}
}
