package intake

import (
	"io"
	"strings"
	"testing"
)

func handle(name string, size int64, mediaType string) FileHandle {
	return NewFileHandle(name, size, mediaType, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("")), nil
	})
}

func TestValidateOversizedAlwaysRejected(t *testing.T) {
	p := DefaultPolicy()
	cases := []FileHandle{
		handle("data.csv", p.MaxSizeBytes+1, "text/csv"),
		handle("data.exe", p.MaxSizeBytes+1, ""),
		handle("noext", 11*1024*1024, ""),
	}
	for _, f := range cases {
		out := Validate(f, p)
		if out.Valid {
			t.Fatalf("%s: expected rejection", f.Name)
		}
		if out.Reason != "exceeds size limit" {
			t.Fatalf("%s: size must be reported first, got %q", f.Name, out.Reason)
		}
	}
}

func TestValidateAcceptsAllowedExtensionsCaseInsensitive(t *testing.T) {
	p := DefaultPolicy()
	for _, name := range []string{"a.csv", "B.CSV", "report.final.XlSx", "legacy.xls"} {
		if out := Validate(handle(name, 2048, ""), p); !out.Valid {
			t.Fatalf("%s: expected valid, got %q", name, out.Reason)
		}
	}
	// exactly at the limit is still fine
	if out := Validate(handle("edge.csv", p.MaxSizeBytes, ""), p); !out.Valid {
		t.Fatalf("size == limit should be accepted")
	}
}

func TestValidateRejectsUnknownOrMissingExtension(t *testing.T) {
	p := DefaultPolicy()
	for _, name := range []string{"notes.txt", "noext", "trailingdot.", "csv"} {
		out := Validate(handle(name, 10, ""), p)
		if out.Valid || out.Reason != "unsupported file type" {
			t.Fatalf("%s: expected unsupported file type, got %+v", name, out)
		}
	}
}

func TestValidateMediaTypeEntry(t *testing.T) {
	p := Policy{Accept: ParseAccept(".csv, text/plain"), MaxSizeBytes: 100}
	if out := Validate(handle("noext", 10, "text/plain"), p); !out.Valid {
		t.Fatalf("media-type entry should accept extension-less file: %+v", out)
	}
	if out := Validate(handle("noext", 10, "text/plainx"), p); out.Valid {
		t.Fatalf("media type must match exactly")
	}
	for _, mt := range []string{"Text/Plain", " TEXT/PLAIN"} {
		if out := Validate(handle("noext", 10, mt), p); !out.Valid {
			t.Fatalf("media type %q should match regardless of case: %+v", mt, out)
		}
	}
	mixed := Policy{Accept: []string{"Text/CSV"}, MaxSizeBytes: 100}
	if out := Validate(handle("noext", 10, "text/csv"), mixed); !out.Valid {
		t.Fatalf("mixed-case policy entry should match: %+v", out)
	}
	// ".csv" is an extension rule and must not match a media type "csv"
	if out := Validate(handle("x", 10, "csv"), Policy{Accept: []string{".csv"}, MaxSizeBytes: 100}); out.Valid {
		t.Fatalf("extension rule matched a media type")
	}
}

func TestValidateEmptyAcceptListAllowsAnyType(t *testing.T) {
	p := Policy{MaxSizeBytes: 100}
	if out := Validate(handle("whatever.bin", 50, ""), p); !out.Valid {
		t.Fatalf("expected valid with empty accept list")
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	p := DefaultPolicy()
	for _, f := range []FileHandle{handle("a.csv", 1, ""), handle("a.txt", 1, ""), handle("a.csv", p.MaxSizeBytes*2, "")} {
		first, second := Validate(f, p), Validate(f, p)
		if first != second {
			t.Fatalf("%s: outcomes differ: %+v vs %+v", f.Name, first, second)
		}
	}
}

func TestDescribeMentionsLimit(t *testing.T) {
	p := DefaultPolicy()
	msg := Describe(Validate(handle("big.csv", 11*1024*1024, ""), p), p)
	if !strings.Contains(msg, "10 MiB") || !strings.Contains(msg, "limit") {
		t.Fatalf("expected limit in message, got %q", msg)
	}
	if Describe(Valid(), p) != "" {
		t.Fatalf("valid outcome should describe as empty")
	}
}

func TestOutcomeErrSentinels(t *testing.T) {
	if Invalid("exceeds size limit").Err() != ErrSizeExceeded {
		t.Fatalf("expected ErrSizeExceeded")
	}
	if Invalid("unsupported file type").Err() != ErrUnsupportedType {
		t.Fatalf("expected ErrUnsupportedType")
	}
	if Valid().Err() != nil {
		t.Fatalf("expected nil")
	}
}
