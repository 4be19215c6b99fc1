// Package gogen provides typed builders for generated Go source.
//
// Statements, methods and files are plain values rendered to text, then run
// through gofumpt so generated files read like hand-written code. The
// builders centralize indentation and block layout; callers supply
// expressions as already-rendered Go text.
package gogen

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Statements
// =============================================================================

// Stmt is a Go statement that can be rendered to source.
type Stmt interface {
	GoSource() string
}

// Raw is an escape hatch for statements that don't map cleanly to typed
// constructs.
type Raw struct {
	Text string
}

func (r Raw) GoSource() string {
	return r.Text
}

// Comment renders a line comment.
type Comment struct {
	Text string
}

func (c Comment) GoSource() string {
	return "// " + c.Text
}

// Assign renders name := value, or name = value when Define is false.
type Assign struct {
	Names  []string
	Value  string
	Define bool
}

// Define returns the Assign for names := value.
func Define(value string, names ...string) Assign {
	return Assign{Names: names, Value: value, Define: true}
}

func (a Assign) GoSource() string {
	op := " = "
	if a.Define {
		op = " := "
	}
	return strings.Join(a.Names, ", ") + op + a.Value
}

// If renders if [init; ]cond { ... } [else { ... }].
type If struct {
	Init string
	Cond string
	Then Block
	Else Block
}

func (i If) GoSource() string {
	var sb strings.Builder
	sb.WriteString("if ")
	if i.Init != "" {
		sb.WriteString(i.Init)
		sb.WriteString("; ")
	}
	sb.WriteString(i.Cond)
	sb.WriteString(" {\n")
	i.Then.write(&sb, 1)
	if len(i.Else) > 0 {
		sb.WriteString("} else {\n")
		i.Else.write(&sb, 1)
	}
	sb.WriteString("}")
	return sb.String()
}

// ForRange renders for key, value := range expr { ... }. An empty Key
// renders as the blank identifier.
type ForRange struct {
	Key   string
	Value string
	Expr  string
	Body  Block
}

func (f ForRange) GoSource() string {
	key := f.Key
	if key == "" {
		key = "_"
	}
	head := "for " + key
	if f.Value != "" {
		head += ", " + f.Value
	}
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString(" := range ")
	sb.WriteString(f.Expr)
	sb.WriteString(" {\n")
	f.Body.write(&sb, 1)
	sb.WriteString("}")
	return sb.String()
}

// CheckErr renders if err := call; err != nil { return err }. With Discard
// set, the call's first result is discarded (if _, err := ...).
type CheckErr struct {
	Call    string
	Discard bool
}

func (c CheckErr) GoSource() string {
	lhs := "err"
	if c.Discard {
		lhs = "_, err"
	}
	return If{
		Init: lhs + " := " + c.Call,
		Cond: "err != nil",
		Then: Block{Return{Values: []string{"err"}}},
	}.GoSource()
}

// ExecSQL renders a checked db.ExecContext(ctx, "query") call.
type ExecSQL struct {
	DB    string
	Query string
}

func (e ExecSQL) GoSource() string {
	return CheckErr{
		Call:    fmt.Sprintf("%s.ExecContext(ctx, %s)", e.DB, Quote(e.Query)),
		Discard: true,
	}.GoSource()
}

// Return renders return [values].
type Return struct {
	Values []string
}

func (r Return) GoSource() string {
	if len(r.Values) == 0 {
		return "return"
	}
	return "return " + strings.Join(r.Values, ", ")
}

// Block is an ordered list of statements.
type Block []Stmt

// Add appends statements to the block.
func (b *Block) Add(stmts ...Stmt) {
	*b = append(*b, stmts...)
}

// Addf appends a Raw statement built from a format string.
func (b *Block) Addf(format string, args ...any) {
	*b = append(*b, Raw{Text: fmt.Sprintf(format, args...)})
}

func (b Block) write(sb *strings.Builder, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, stmt := range b {
		for _, line := range strings.Split(stmt.GoSource(), "\n") {
			if line == "" {
				sb.WriteString("\n")
				continue
			}
			sb.WriteString(indent)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
}

// =============================================================================
// Declarations
// =============================================================================

// Decl is a top-level declaration.
type Decl interface {
	DeclSource() string
}

// Param is a function parameter, receiver or struct field.
type Param struct {
	Name string
	Type string
}

func (p Param) String() string {
	if p.Name == "" {
		return p.Type
	}
	return p.Name + " " + p.Type
}

// Func renders a function, or a method when Recv is set.
type Func struct {
	Doc     []string // Comment lines without the // prefix
	Recv    *Param
	Name    string
	Params  []Param
	Results []string
	Body    Block
}

func (f Func) DeclSource() string {
	var sb strings.Builder
	writeDoc(&sb, f.Doc)
	sb.WriteString("func ")
	if f.Recv != nil {
		sb.WriteString("(")
		sb.WriteString(f.Recv.String())
		sb.WriteString(") ")
	}
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	switch len(f.Results) {
	case 0:
	case 1:
		sb.WriteString(" ")
		sb.WriteString(f.Results[0])
	default:
		sb.WriteString(" (")
		sb.WriteString(strings.Join(f.Results, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" {\n")
	f.Body.write(&sb, 1)
	sb.WriteString("}")
	return sb.String()
}

// Struct renders type Name struct { ... }.
type Struct struct {
	Doc    []string
	Name   string
	Fields []Param // A field with an empty Name is embedded
}

func (s Struct) DeclSource() string {
	var sb strings.Builder
	writeDoc(&sb, s.Doc)
	sb.WriteString("type ")
	sb.WriteString(s.Name)
	sb.WriteString(" struct {\n")
	for _, f := range s.Fields {
		sb.WriteString("\t")
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// Var renders var Name = Value, or a const when Const is set.
type Var struct {
	Doc   []string
	Name  string
	Value string
	Const bool
}

func (v Var) DeclSource() string {
	var sb strings.Builder
	writeDoc(&sb, v.Doc)
	if v.Const {
		sb.WriteString("const ")
	} else {
		sb.WriteString("var ")
	}
	sb.WriteString(v.Name)
	sb.WriteString(" = ")
	sb.WriteString(v.Value)
	return sb.String()
}

func writeDoc(sb *strings.Builder, doc []string) {
	for _, line := range doc {
		if line == "" {
			sb.WriteString("//\n")
			continue
		}
		sb.WriteString("// ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// =============================================================================
// Files
// =============================================================================

// Import is a single import spec.
type Import struct {
	Name string // Optional alias
	Path string
}

// File is a complete Go source file.
type File struct {
	Header  []string // Comment lines above the package clause
	Package string
	Imports []Import
	Decls   []Decl
}

// Source renders the file without formatting.
func (f File) Source() string {
	var sb strings.Builder
	for _, line := range f.Header {
		sb.WriteString("// ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(f.Header) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("package ")
	sb.WriteString(f.Package)
	sb.WriteString("\n")

	if len(f.Imports) > 0 {
		var std, other []Import
		for _, imp := range f.Imports {
			if isStdImport(imp.Path) {
				std = append(std, imp)
			} else {
				other = append(other, imp)
			}
		}
		sb.WriteString("\nimport (\n")
		writeImports(&sb, std)
		if len(std) > 0 && len(other) > 0 {
			sb.WriteString("\n")
		}
		writeImports(&sb, other)
		sb.WriteString(")\n")
	}

	for _, d := range f.Decls {
		sb.WriteString("\n")
		sb.WriteString(d.DeclSource())
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeImports(sb *strings.Builder, imports []Import) {
	for _, imp := range imports {
		sb.WriteString("\t")
		if imp.Name != "" {
			sb.WriteString(imp.Name)
			sb.WriteString(" ")
		}
		sb.WriteString(strconv.Quote(imp.Path))
		sb.WriteString("\n")
	}
}

// isStdImport reports whether path belongs to the standard library, which
// has no dot in its first element.
func isStdImport(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// Bytes renders and formats the file.
func (f File) Bytes() ([]byte, error) {
	return Format([]byte(f.Source()))
}

// =============================================================================
// Literals and names
// =============================================================================

// Quote renders s as a Go string literal.
func Quote(s string) string {
	return strconv.Quote(s)
}

// Exported upper-cases the first letter of an identifier.
func Exported(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Unexported lower-cases the first letter of an identifier.
func Unexported(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// IdentSuffix turns an arbitrary name (a table name, say) into a CamelCase
// fragment usable inside an identifier: "note_tag" becomes "NoteTag". Runes
// outside [A-Za-z0-9] separate words. A result that would start with a digit,
// or be empty, gets a "T" prefix.
func IdentSuffix(name string) string {
	var sb strings.Builder
	upper := true
	for _, c := range name {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		sb.WriteRune(c)
	}
	out := sb.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "T" + out
	}
	return out
}
