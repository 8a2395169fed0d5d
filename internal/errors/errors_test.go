package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E101",
			wantMsg: "Invalid config file",
			wantCat: CategoryConfig,
		},
		{
			name:    "storage error",
			code:    "E201",
			wantMsg: "Bucket unavailable",
			wantCat: CategoryStorage,
		},
		{
			name:    "cli error",
			code:    "E302",
			wantMsg: "Multipart boundary not found",
			wantCat: CategoryCLI,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewCopiesSuggestion(t *testing.T) {
	err := New("E103")
	if err.Suggestion == "" {
		t.Fatal("expected registered suggestion")
	}

	err.WithSuggestion("custom")
	if tmpl, _ := GetTemplate("E103"); tmpl.Suggestion == "custom" {
		t.Fatal("modifying an error must not modify the registry")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "flag %q is required", "input")
	if err.Message != `flag "input" is required` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
	if err.Error() != `flag "input" is required` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := New("E200").WithDetail("storage/videos").Wrap(cause)

	want := "E200: Storage directory not writable: storage/videos: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestHasCode(t *testing.T) {
	inner := New("E101")
	outer := fmt.Errorf("load: %w", New("E202").Wrap(inner))

	if !HasCode(outer, "E202") {
		t.Error("expected E202")
	}
	if !HasCode(outer, "E101") {
		t.Error("expected nested E101")
	}
	if HasCode(outer, "E300") {
		t.Error("unexpected E300")
	}
	if HasCode(stderrors.New("plain"), "E101") {
		t.Error("plain error has no code")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("E103")
	if got := FromError(fmt.Errorf("wrap: %w", coded), "E101"); got != coded {
		t.Error("expected existing CodedError to be returned")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "E202")
	if got.Code != "E202" || got.Wrapped != plain {
		t.Errorf("FromError() = %+v", got)
	}
}

func TestWithLocationFromError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "formstore.yaml")
	content := "server:\n  addr: :8080\nstorage:\n  backend: [disk\nlog:\n  level: info\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E101").WithLocationFromError(file, fmt.Errorf("yaml: line 4: did not find expected ',' or ']'"))
	if err.Location == nil || err.Location.Line != 4 {
		t.Fatalf("Location = %+v, want line 4", err.Location)
	}
	if len(err.Context) != 5 {
		t.Fatalf("Context = %q, want 5 lines", err.Context)
	}
	if err.Context[2] != "  backend: [disk" {
		t.Errorf("Context[2] = %q", err.Context[2])
	}

	noLine := New("E101").WithLocationFromError(file, fmt.Errorf("unexpected EOF"))
	if noLine.Location.String() != file {
		t.Errorf("Location = %q, want bare file", noLine.Location.String())
	}
	if noLine.Context != nil {
		t.Error("expected no context without a line")
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{nil, ""},
		{&Location{File: "a.yaml"}, "a.yaml"},
		{&Location{File: "a.yaml", Line: 3}, "a.yaml:3"},
		{&Location{File: "a.yaml", Line: 3, Column: 7}, "a.yaml:3:7"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E103").WithDetail(`storage.backend is "gcs"`)
	out := err.Format()

	for _, want := range []string{
		"ERROR E103: Unknown storage backend",
		`storage.backend is "gcs"`,
		"Hint: Use one of: disk, s3, minio",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("expected no ANSI codes with colors disabled")
	}
}

func TestFormatWithContext(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := &CodedError{
		Code:     "E101",
		Message:  "Invalid config file",
		Location: &Location{File: "c.yaml", Line: 2},
		Context:  []string{"a: 1", "b: [", "c: 3"},
	}
	out := err.Format()
	if !strings.Contains(out, "→    2 │ b: [") {
		t.Errorf("expected highlighted line 2:\n%s", out)
	}
	if !strings.Contains(out, "   1 │ a: 1") {
		t.Errorf("expected line 1:\n%s", out)
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E102").WithDetail("ingest.max_part_bytes must be positive")
	want := "E102: Invalid config value (ingest.max_part_bytes must be positive)"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E201").WithDetail("bucket uploads").Wrap(stderrors.New("403"))

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	if got["code"] != "E201" || got["category"] != "storage" || got["cause"] != "403" {
		t.Errorf("FormatJSON() = %v", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint() = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, New("E300").WithDetail("--older-than must be positive"))
	if !strings.Contains(buf.String(), "ERROR E300: Invalid flag value") {
		t.Errorf("Fprint() = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, line := range lines {
		if len(line) > 20 {
			t.Errorf("line too long: %q", line)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("expected nil for empty text")
	}
}

func TestRegistryCodesInRange(t *testing.T) {
	ranges := map[Category]string{
		CategoryConfig:  "E1",
		CategoryStorage: "E2",
		CategoryCLI:     "E3",
	}
	for _, code := range GetAllCodes() {
		tmpl, _ := GetTemplate(code)
		if !strings.HasPrefix(code, ranges[tmpl.Category]) {
			t.Errorf("%s has category %s outside its range", code, tmpl.Category)
		}
	}
}
