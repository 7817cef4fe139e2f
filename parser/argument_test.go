package parser_test

import (
	"testing"

	"github.com/bthedestroyer/kip/parser"
)

func TestParseArgumentDecimal(t *testing.T) {
	arg, err := parser.ParseArgument("42", nil)
	if err != nil {
		t.Fatalf("ParseArgument failed: %v", err)
	}
	data, ok := parser.AsData(arg)
	if !ok || data.Value != 42 || data.DereferenceCount != 0 {
		t.Errorf("got %+v, want DataArg{Value:42}", arg)
	}
}

func TestParseArgumentRadixPrefixes(t *testing.T) {
	tests := []struct {
		tok  string
		want uint32
	}{
		{"$FF", 255},
		{":1010", 10},
		{"#17", 15},
	}
	for _, tt := range tests {
		arg, err := parser.ParseArgument(tt.tok, nil)
		if err != nil {
			t.Fatalf("ParseArgument(%q) failed: %v", tt.tok, err)
		}
		data, ok := parser.AsData(arg)
		if !ok || data.Value != tt.want {
			t.Errorf("ParseArgument(%q) = %+v, want Value=%d", tt.tok, arg, tt.want)
		}
	}
}

func TestParseArgumentDereferencePrefix(t *testing.T) {
	arg, err := parser.ParseArgument("**100", nil)
	if err != nil {
		t.Fatalf("ParseArgument failed: %v", err)
	}
	data, ok := parser.AsData(arg)
	if !ok || data.Value != 100 || data.DereferenceCount != 2 {
		t.Errorf("got %+v, want DataArg{Value:100, DereferenceCount:2}", arg)
	}
}

func TestParseArgumentStringLiteral(t *testing.T) {
	arg, err := parser.ParseArgument(`"hi there"`, nil)
	if err != nil {
		t.Fatalf("ParseArgument failed: %v", err)
	}
	str, ok := parser.AsString(arg)
	if !ok || string(str.Text) != "hi there" {
		t.Errorf("got %+v, want StringArg{Text:\"hi there\"}", arg)
	}
}

func TestParseArgumentUnterminatedStringErrors(t *testing.T) {
	if _, err := parser.ParseArgument(`"oops`, nil); err == nil {
		t.Error("expected an error for an unterminated string literal")
	}
}

func TestParseArgumentCannotDereferenceString(t *testing.T) {
	if _, err := parser.ParseArgument(`*"oops"`, nil); err == nil {
		t.Error("expected an error dereferencing a string literal")
	}
}

func TestParseArgumentLabelLookup(t *testing.T) {
	ctx := &parser.Context{Labels: map[string]parser.Argument{
		"DEST": parser.DataArg{Value: 500},
	}}
	arg, err := parser.ParseArgument("dest", ctx)
	if err != nil {
		t.Fatalf("ParseArgument failed: %v", err)
	}
	data, ok := parser.AsData(arg)
	if !ok || data.Value != 500 {
		t.Errorf("got %+v, want DataArg{Value:500}", arg)
	}
}

func TestParseArgumentLabelWithDereference(t *testing.T) {
	ctx := &parser.Context{Labels: map[string]parser.Argument{
		"PTR": parser.DataArg{Value: 200, DereferenceCount: 1},
	}}
	arg, err := parser.ParseArgument("*PTR", ctx)
	if err != nil {
		t.Fatalf("ParseArgument failed: %v", err)
	}
	data, ok := parser.AsData(arg)
	if !ok || data.DereferenceCount != 2 {
		t.Errorf("got %+v, want DereferenceCount=2", arg)
	}
}

func TestParseArgumentMalformedNumeric(t *testing.T) {
	if _, err := parser.ParseArgument("NOTANUMBER", nil); err == nil {
		t.Error("expected an error for an unresolvable bare token")
	}
}

func TestAsDataRejectsStringArg(t *testing.T) {
	if _, ok := parser.AsData(parser.StringArg{Text: []byte("x")}); ok {
		t.Error("AsData should return ok=false for a StringArg")
	}
}

func TestAsStringRejectsDataArg(t *testing.T) {
	if _, ok := parser.AsString(parser.DataArg{Value: 1}); ok {
		t.Error("AsString should return ok=false for a DataArg")
	}
}
