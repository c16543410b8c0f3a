// Package schema describes the expected relational schema of the application
// in engine-neutral terms. Dialects in the database package render it to DDL.
package schema

import (
	"fmt"
	"strconv"
)

// Kind is the logical column type.
type Kind int

// Logical column types.
const (
	Integer Kind = iota
	String
	Text
	Boolean
	DateTime
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case String:
		return "string"
	case Text:
		return "text"
	case Boolean:
		return "boolean"
	case DateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ColumnType is a logical type plus its length for String columns.
type ColumnType struct {
	Kind   Kind
	Length int
}

// String returns e.g. "string(120)" or "integer".
func (t ColumnType) String() string {
	if t.Kind == String {
		return "string(" + strconv.Itoa(t.Length) + ")"
	}

	return t.Kind.String()
}

// Convenience constructors used by catalog declarations.
var (
	TInteger  = ColumnType{Kind: Integer}  //nolint:gochecknoglobals // immutable value
	TText     = ColumnType{Kind: Text}     //nolint:gochecknoglobals // immutable value
	TBoolean  = ColumnType{Kind: Boolean}  //nolint:gochecknoglobals // immutable value
	TDateTime = ColumnType{Kind: DateTime} //nolint:gochecknoglobals // immutable value
)

// TString returns a variable length string type bounded by n characters.
func TString(n int) ColumnType {
	return ColumnType{Kind: String, Length: n}
}

// DefaultKind tells how a column default is produced.
type DefaultKind int

// Default kinds.
const (
	NoDefault DefaultKind = iota
	LiteralDefault
	NowDefault
)

// Default is a column default. Literal values are int, string or bool.
type Default struct {
	Kind  DefaultKind
	Value any
}

// Literal returns a constant default.
func Literal(v any) Default {
	return Default{Kind: LiteralDefault, Value: v}
}

// Now returns a default of the current timestamp.
func Now() Default {
	return Default{Kind: NowDefault}
}

// IsSet reports whether the column declares any default.
func (d Default) IsSet() bool {
	return d.Kind != NoDefault
}

// String renders the default for checksums and reports.
func (d Default) String() string {
	switch d.Kind {
	case LiteralDefault:
		return fmt.Sprintf("%#v", d.Value)
	case NowDefault:
		return "now()"
	default:
		return ""
	}
}
