package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantCode int
	}{
		{name: "nil", err: nil, wantCode: ExitOK},
		{name: "config with path", err: NewConfigError("config.yaml", cause), wantMsg: "config error in config.yaml: boom", wantCode: ExitConfig},
		{name: "config without path", err: NewConfigError("", cause), wantMsg: "config error: boom", wantCode: ExitConfig},
		{name: "command", err: NewCommandError("eval", cause), wantMsg: "command eval failed: boom", wantCode: ExitFailure},
		{name: "wrapped config", err: fmt.Errorf("startup: %w", NewConfigError("", cause)), wantMsg: "startup: config error: boom", wantCode: ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err != nil {
				if got := tt.err.Error(); got != tt.wantMsg {
					t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
				}
				if !errors.Is(tt.err, cause) {
					t.Error("errors.Is() did not find the cause")
				}
			}
			if got := ExitCode(tt.err); got != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "", want: FormatText},
		{input: "text", want: FormatText},
		{input: " JSON ", want: FormatJSON},
		{input: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

type rendered struct{ name string }

func (r rendered) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "name: %s\n", r.name)
	return err
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		data   any
		want   string
	}{
		{name: "text plain", format: FormatText, data: "hello", want: "hello\n"},
		{name: "text renderer", format: FormatText, data: rendered{name: "x"}, want: "name: x\n"},
		{name: "json", format: FormatJSON, data: map[string]int{"a": 1}, want: "{\n  \"a\": 1\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewFormatter(tt.format).FormatTo(&buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("FormatTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONFormatter_Compact(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}
	if err := f.FormatTo(&buf, []string{"a", "b"}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	var got []string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if len(got) != 2 {
		t.Errorf("decoded %v", got)
	}
}

func TestNewTable(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTable(&buf)
	fmt.Fprintln(tw, "ID\tRETURNS")
	fmt.Fprintln(tw, "string-equal\tboolean")
	if err := tw.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "ID            RETURNS\nstring-equal  boolean\n"
	if buf.String() != want {
		t.Errorf("table = %q, want %q", buf.String(), want)
	}
}

func TestSetupSignalHandler_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent)
	defer stop()

	cancel()
	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("ctx.Err() = %v, want context.Canceled", ctx.Err())
	}
}
