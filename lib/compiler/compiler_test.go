package compiler

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/vyPal/cstmt/lib/parser"
)

func compile(t *testing.T, src string) (*Compiler, error) {
	t.Helper()
	tu, bag, err := parser.ParseString("test.c", src, parser.Options{})
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("parse: %v", bag.Sorted())
	}
	c := NewCompiler()
	return c, c.Compile(tu)
}

func mustCompile(t *testing.T, src string) *Compiler {
	t.Helper()
	c, err := compile(t, src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c
}

func findFunc(t *testing.T, c *Compiler, name string) *ir.Func {
	t.Helper()
	for _, f := range c.Module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestSwitchLowering(t *testing.T) {
	c := mustCompile(t, `
int classify(int x) {
	switch (x) {
	case 1:
		return 10;
	case 2:
	case 1 + 2:
		x = x + 1;
		break;
	default:
		return -1;
	}
	return x;
}`)
	f := findFunc(t, c, "classify")
	var sw *ir.TermSwitch
	for _, b := range f.Blocks {
		if s, ok := b.Term.(*ir.TermSwitch); ok {
			sw = s
		}
	}
	if sw == nil {
		t.Fatal("no switch terminator emitted")
	}
	if len(sw.Cases) != 3 {
		t.Errorf("got %d cases, want 3", len(sw.Cases))
	}
	if !strings.Contains(c.Module.String(), "i32 3, label") {
		t.Errorf("folded case value missing from:\n%s", c.Module)
	}
}

func TestEveryBlockTerminated(t *testing.T) {
	c := mustCompile(t, `
int loops(int n) {
	int sum = 0;
	for (int i = 0; i < n; i++) {
		if (i % 2 == 0 && i != 4)
			continue;
		sum += i;
	}
	while (n > 0) {
		n--;
		if (n == 3) break;
	}
	do {
		sum = sum > 100 ? 100 : sum;
	} while (0);
	if (sum) goto out;
	sum = -1;
out:
	return sum;
	sum = 7;
}

void nothing(void) {
	if (1) return;
}`)
	for _, name := range []string{"loops", "nothing"} {
		for i, b := range findFunc(t, c, name).Blocks {
			if b.Term == nil {
				t.Errorf("%s: block %d has no terminator", name, i)
			}
		}
	}
	out := c.Module.String()
	for _, want := range []string{"icmp slt", "srem", "ret void"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestGlobalsAndStrings(t *testing.T) {
	c := mustCompile(t, `
enum color { RED, GREEN = 4, BLUE };
int g = 2 * 3 + 1;
int printf(const char *, ...);
int main(void) {
	printf("%d\n", g + BLUE);
	return 0;
}`)
	out := c.Module.String()
	for _, want := range []string{"@g = global i32 7", "@str.0 = constant", "add i32", ", 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if !findFunc(t, c, "printf").Sig.Variadic {
		t.Error("printf should be variadic")
	}
}

func TestStaticLocal(t *testing.T) {
	c := mustCompile(t, `int next(void) { static int n; return ++n; }`)
	if out := c.Module.String(); !strings.Contains(out, "@next.n = global i32 0") {
		t.Errorf("static local not emitted as a global:\n%s", out)
	}
}

func TestImplicitDeclaration(t *testing.T) {
	c := mustCompile(t, `int main(void) { return helper(1, 2); }`)
	if !findFunc(t, c, "helper").Sig.Variadic {
		t.Error("implicitly declared function should be variadic")
	}
}

func TestPrototypeCompletedByDefinition(t *testing.T) {
	c := mustCompile(t, `
typedef int number;
number twice();
int main(void) { return twice(4); }
number twice(number a) { return a * 2; }`)
	if got := len(findFunc(t, c, "twice").Params); got != 1 {
		t.Errorf("twice has %d params, want 1", got)
	}
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"break outside loop", "void f(void) { break; }", "'break' statement not in loop or switch statement"},
		{"continue in switch", "void f(int x) { switch (x) { case 1: continue; } }", "'continue' statement not in loop statement"},
		{"case outside switch", "void f(void) { case 1: ; }", "'case' statement not in switch statement"},
		{"duplicate case", "void f(int x) { switch (x) { case 1: case 2 - 1: ; } }", "duplicate case value '1'"},
		{"two defaults", "void f(int x) { switch (x) { default: ; default: ; } }", "multiple default labels"},
		{"non-constant case", "void f(int x) { switch (x) { case x: ; } }", "expression is not an integer constant"},
		{"duplicate label", "void f(void) { a: ; a: ; }", "redefinition of label 'a'"},
		{"missing label", "void f(void) { goto nowhere; }", "use of undeclared label 'nowhere'"},
		{"undeclared identifier", "int f(void) { return y; }", "use of undeclared identifier 'y'"},
		{"void returns value", "void f(void) { return 1; }", "void function 'f' should not return a value"},
		{"function redefinition", "int f(void) { return 0; } int f(void) { return 1; }", "redefinition of 'f'"},
		{"conflicting return", "int f(void); void f(void);", "conflicting types for 'f'"},
		{"pointer deref", "int f(int x) { return *x; }", "pointer operations are not supported"},
		{"struct variable", "struct s { int a; }; struct s v;", "struct and union types are not supported"},
		{"assign to constant", "enum { K }; void f(void) { K = 2; }", "expression is not assignable"},
		{"too few arguments", "int g(int a, int b); int f(void) { return g(1); }", "too few arguments"},
		{"division by zero", "int x = 1 / 0;", "division by zero"},
		{"float", "double d;", "floating-point types are not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			if err == nil {
				t.Fatalf("expected an error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to contain %q", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), "test.c:1:") {
				t.Errorf("error %q lacks a source position", err)
			}
		})
	}
}
