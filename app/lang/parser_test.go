package lang

import (
	"errors"
	"strings"
	"testing"
)

// dump renders a node as an S-expression.
func dump(n Node) string {
	switch n := n.(type) {
	case nil:
		return "<nil>"
	case *DataLit:
		return n.Data.String()
	case *VarRef:
		return n.Name
	case *BinaryExpr:
		return "(" + n.Op.String() + " " + dump(n.Left) + " " + dump(n.Right) + ")"
	case *UnaryExpr:
		return "(neg " + dump(n.Operand) + ")"
	case *PercentExpr:
		return "(% " + dump(n.Expr) + ")"
	case *FuncCall:
		parts := []string{n.Name}
		for _, a := range n.Args {
			parts = append(parts, dump(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *UnitRef:
		return n.Unit.String()
	case *ZoneRef:
		return n.Zone
	case *Assignment:
		return "(= " + n.Name + " " + dump(n.Expr) + ")"
	}
	return "?"
}

func parseLine(t *testing.T, culture, line string) (Node, error) {
	t.Helper()
	return Parse(tokenize(t, culture, line), LookupCulture(culture), DefaultRegistry())
}

func TestParse(t *testing.T) {
	tests := []struct {
		culture string
		line    string
		want    string
	}{
		{"en-US", "2 + 3 * 4", "(+ 2 (* 3 4))"},
		{"en-US", "(2 + 3) * 4", "(* (+ 2 3) 4)"},
		{"en-US", "8 - 2 - 1", "(- (- 8 2) 1)"},
		{"en-US", "-5 + x", "(+ -5 x)"},
		{"en-US", "-(2)", "-2"},
		{"en-US", "-x", "(neg x)"},
		{"en-US", "a = 5", "(= a 5)"},
		{"en-US", "Total: 5 plus 3", "(+ 5 3)"},
		{"en-US", "12 divided by 4", "(/ 12 4)"},
		{"en-US", "10 mod 3", "(mod 10 3)"},
		{"en-US", "1 + 1 >= 2", "(>= (+ 1 1) 2)"},
		{"en-US", "max(1, 2, 3)", "(max 1 2 3)"},
		{"en-US", "(10 + 5)%", "(% (+ 10 5))"},
		{"en-US", "prev * 2", "(* prev 2)"},
		{"en-US", "line1 + 1", "(+ #1 1)"},
		{"en-US", "10% of 200", "(percentOf 10% 200)"},
		{"en-US", "15% off 80", "(percentOff 15% 80)"},
		{"en-US", "20 is 10% of what", "(isPercentOfWhat 10% 20)"},
		{"en-US", "62.5 is what percent of 250", "(isWhatPercentOf 62.5 250)"},
		{"en-US", "250 is what percent off 62.5", "(isWhatPercentOff 62.5 250)"},
		{"en-US", "3 days ago", "(ago 3 day)"},
		{"en-US", "2 weeks from 2024-01-01", "(after 2 week 2024-01-01T00:00:00Z)"},
		{"en-US", "90 minutes in hours", "(convertDuration 90 minute hour)"},
		{"en-US", "2024-01-01 in PST", "(inTimezone 2024-01-01T00:00:00Z PST)"},
		{"en-US", "today + 1 day", "(+ (today) 1 day)"},
		{"en-US", "10% of 200 + 5", "(+ (percentOf 10% 200) 5)"},
		{"fr-FR", "10 % de 200", "(percentOf 10% 200)"},
		{"fr-FR", "max(1,5; 2)", "(max 1.5 2)"},
		{"de-DE", "vor 3 Tagen", "(ago 3 day)"},
		{"de-DE", "12 geteilt durch 4", "(/ 12 4)"},
	}

	for _, tt := range tests {
		node, err := parseLine(t, tt.culture, tt.line)
		if err != nil {
			t.Errorf("[%s] Parse(%q) error: %v", tt.culture, tt.line, err)
			continue
		}
		if got := dump(node); got != tt.want {
			t.Errorf("[%s] Parse(%q) = %s, want %s", tt.culture, tt.line, got, tt.want)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, line := range []string{"", "   ", "// a note", "# heading", "; x = 1", "Groceries:"} {
		node, err := parseLine(t, "en-US", line)
		if err != nil || node != nil {
			t.Errorf("Parse(%q) = %s, %v; want nil, nil", line, dump(node), err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	lines := []string{
		"2 +",
		"(1 + 2",
		"1 2",
		"max(1",
		"foo(1)",
		"abs(1, 2)",
		"pow(2)",
		"sqrt(10%)",
		"a = ",
		")",
	}
	for _, line := range lines {
		_, err := parseLine(t, "en-US", line)
		if !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q) error = %v, want ErrParse", line, err)
		}
	}
}

func TestParseSpans(t *testing.T) {
	line := "x = 10% of 200 + 5"
	node, err := parseLine(t, "en-US", line)
	if err != nil {
		t.Fatal(err)
	}
	asg, ok := node.(*Assignment)
	if !ok {
		t.Fatalf("got %s, want an assignment", dump(node))
	}
	if got := asg.Span.Text(); got != line {
		t.Errorf("assignment span = %q, want the whole line", got)
	}
	sum := asg.Expr.(*BinaryExpr)
	if got := sum.Left.NodeSpan().Text(); got != "10% of 200" {
		t.Errorf("call span = %q, want %q", got, "10% of 200")
	}
}

func TestParseUsesCultureRegistry(t *testing.T) {
	// English productions are not available to French lines.
	if _, err := parseLine(t, "fr-FR", "10 % of 200"); !errors.Is(err, ErrParse) {
		t.Errorf("fr Parse(10 %% of 200) error = %v, want ErrParse", err)
	}
	// Call syntax is shared by every culture.
	node, err := parseLine(t, "de-DE", "abs(-3)")
	if err != nil {
		t.Fatal(err)
	}
	if got := dump(node); got != "(abs -3)" {
		t.Errorf("de Parse(abs(-3)) = %s", got)
	}
}
