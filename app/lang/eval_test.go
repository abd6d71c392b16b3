package lang

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func evalDoc(t *testing.T, culture string, lines ...string) *Snapshot {
	t.Helper()
	e := NewEvaluator(WithCulture(LookupCulture(culture)), WithClock(fixedClock), WithStrictContracts(true))
	snap, err := e.EvaluateDocument(context.Background(), strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("EvaluateDocument error: %v", err)
	}
	return snap
}

func TestEvalLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2 + 3", "5"},
		{"10 - 3", "7"},
		{"4 * 5", "20"},
		{"10 / 4", "2.5"},
		{"1 / 3", "0.3333333333"},
		{"-5", "-5"},
		{"(2 + 3) * 4", "20"},
		{"2 + 3 * 4", "14"},
		{"2 + 3.", "5"},
		{"10 - 2 - 3", "5"},
		{"100 / 10 / 2", "5"},
		{"10 mod 3", "1"},
		{"5 times 3", "15"},
		{"10 divided by 4", "2.5"},
		{"3 plus 4 minus 1", "6"},
		{"6 × 7", "42"},
		{"1,234.5 + 0.5", "1,235"},
		{"(5 + 5)%", "10%"},
		{"5 > 3", "true"},
		{"5 <= 3", "false"},
		{"$5 == $5", "true"},
		{"$10 + $5", "$15.00"},
		{"$100 + 10%", "$110.00"},
		{"200 - 10%", "180"},
		{"10% * 200", "20"},
		{"10% + 200", "220"},
		{"2 hours + 30 min", "150 minutes"},
		{"90 min in hours", "1.5 hours"},
		{"1 day to hours", "24 hours"},
		{"2024-01-31 + 1 day", "2/1/2024"},
		{"2024-01-31 + 1 month", "2/29/2024"},
		{"2024-03-01 - 2024-02-01", "29 days"},
		{"1/2/2024", "1/2/2024"},
		{"sqrt(16)", "4"},
		{"abs(-5)", "5"},
		{"round(2.5)", "3"},
		{"pow(2, 10)", "1024"},
		{"pow(0, 0)", "1"},
		{"pow(2.5, 0)", "1"},
		{"max(3, 7, 5)", "7"},
		{"min($3, $1)", "$1.00"},
	}

	for _, tt := range tests {
		snap := evalDoc(t, "en-US", tt.input)
		lr := snap.Lines[0]
		if lr.Err != nil {
			t.Errorf("%q error: %v", tt.input, lr.Err)
			continue
		}
		if lr.Display != tt.want {
			t.Errorf("%q = %q, want %q", tt.input, lr.Display, tt.want)
		}
	}
}

func TestPercentageFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10% of 200", "20"},
		{"10% of $200", "$20.00"},
		{"10% on 200", "220"},
		{"10% off 200", "180"},
		{"5 is 10% of what", "50"},
		{"10% of what is 5", "50"},
		{"110 is 10% on what", "100"},
		{"90 is 10% off what", "100"},
		{"62.5 is what percent of 250", "25%"},
		{"250 is what percent off 62.5", "75%"},
		{"125 is what percent on 100", "25%"},
		{"10% of 200 + 5", "25"},
		{"5 + 10% of 200", "25"},
	}

	for _, tt := range tests {
		snap := evalDoc(t, "en-US", tt.input)
		lr := snap.Lines[0]
		if lr.Err != nil {
			t.Errorf("%q error: %v", tt.input, lr.Err)
			continue
		}
		if lr.Display != tt.want {
			t.Errorf("%q = %q, want %q", tt.input, lr.Display, tt.want)
		}
	}
}

func TestDateFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"today", "6/15/2024"},
		{"tomorrow", "6/16/2024"},
		{"yesterday", "6/14/2024"},
		{"now", "6/15/2024 12:00"},
		{"3 days ago", "6/12/2024 12:00"},
		{"2 days from 2024-01-30", "2/1/2024"},
		{"1 week before 2024-01-08", "1/1/2024"},
		{"2 days from now", "6/17/2024 12:00"},
		{"today in PST", "6/14/2024 16:00 PST"},
	}

	for _, tt := range tests {
		snap := evalDoc(t, "en-US", tt.input)
		lr := snap.Lines[0]
		if lr.Err != nil {
			t.Errorf("%q error: %v", tt.input, lr.Err)
			continue
		}
		if lr.Display != tt.want {
			t.Errorf("%q = %q, want %q", tt.input, lr.Display, tt.want)
		}
		if !snap.UsesClock && strings.Contains(tt.input, "now") {
			t.Errorf("%q should mark the snapshot as clock dependent", tt.input)
		}
	}
}

func TestVariables(t *testing.T) {
	snap := evalDoc(t, "en-US", "x = 10", "x + 5", "X * 2")

	want := []string{"10", "15", "20"}
	for i, w := range want {
		if got := snap.Lines[i].Display; got != w {
			t.Errorf("line %d = %q, want %q", i+1, got, w)
		}
	}
	if refs := snap.Lines[1].Refs; len(refs) != 1 || refs[0] != 0 {
		t.Errorf("line 2 refs = %v, want [0]", refs)
	}
}

func TestLineReferences(t *testing.T) {
	snap := evalDoc(t, "en-US", "100", "line1 + 50", "#2 * 2", "line 1 + line 2", "#5")

	want := []string{"100", "150", "300", "250", ""}
	for i, w := range want {
		if got := snap.Lines[i].Display; got != w {
			t.Errorf("line %d = %q, want %q", i+1, got, w)
		}
	}
	if !errors.Is(snap.Lines[4].Err, ErrUndefined) {
		t.Errorf("forward reference error = %v, want ErrUndefined", snap.Lines[4].Err)
	}
	if refs := snap.Lines[3].Refs; len(refs) != 2 || refs[0] != 0 || refs[1] != 1 {
		t.Errorf("line 4 refs = %v, want [0 1]", refs)
	}
}

func TestRelativeReferences(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"prev", []string{"10", "prev * 2"}, "20"},
		{"prev skips comments", []string{"10", "// note", "prev + 1"}, "11"},
		{"sum", []string{"10", "20", "sum"}, "30"},
		{"total stops at blank line", []string{"10", "20", "", "5", "total"}, "5"},
		{"sum of currency", []string{"$10", "$2.50", "sum"}, "$12.50"},
		{"average", []string{"10", "20", "average"}, "15"},
	}

	for _, tt := range tests {
		snap := evalDoc(t, "en-US", tt.lines...)
		last := snap.Lines[len(snap.Lines)-1]
		if last.Err != nil {
			t.Errorf("%s: error %v", tt.name, last.Err)
			continue
		}
		if last.Display != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, last.Display, tt.want)
		}
	}
}

func TestAssignedNameShadowsReferenceWord(t *testing.T) {
	snap := evalDoc(t, "en-US", "1", "2", "sum = 100", "sum + 1")
	if got := snap.Lines[3].Display; got != "101" {
		t.Errorf("sum + 1 = %q, want 101", got)
	}
}

func TestCommentsAndLabels(t *testing.T) {
	snap := evalDoc(t, "en-US", "// heading", "; note", "# section", "Rent: $1,200", "Food budget: 300 + 50", "Empty:")

	for i := 0; i < 3; i++ {
		if snap.Lines[i].Value != nil || snap.Lines[i].Err != nil {
			t.Errorf("comment line %d produced %v / %v", i+1, snap.Lines[i].Value, snap.Lines[i].Err)
		}
	}
	if got := snap.Lines[3].Display; got != "$1,200.00" {
		t.Errorf("labelled line = %q, want $1,200.00", got)
	}
	if got := snap.Lines[4].Display; got != "350" {
		t.Errorf("multi-word label = %q, want 350", got)
	}
	if snap.Lines[5].Value != nil || snap.Lines[5].Err != nil {
		t.Errorf("bare label produced %v / %v", snap.Lines[5].Value, snap.Lines[5].Err)
	}
}

func TestErrorsAreLineScoped(t *testing.T) {
	snap := evalDoc(t, "en-US", "abc + 5", "10 +", "$10 + €5", "1 / 0", "2024-01-01 * 2", "5 of 10", "7")

	wantKinds := []error{ErrUndefined, ErrParse, ErrUnsupported, ErrUnsupported, ErrUnsupported, ErrParse}
	for i, kind := range wantKinds {
		lr := snap.Lines[i]
		if lr.Value != nil {
			t.Errorf("line %d %q has value %v", i+1, lr.Text, *lr.Value)
		}
		if !errors.Is(lr.Err, kind) {
			t.Errorf("line %d %q error = %v, want %v", i+1, lr.Text, lr.Err, kind)
		}
		var ee *EvalError
		if !errors.As(lr.Err, &ee) {
			t.Errorf("line %d error %T is not an *EvalError", i+1, lr.Err)
		}
	}
	if got := snap.Lines[6].Display; got != "7" {
		t.Errorf("line after errors = %q, want 7", got)
	}
}

func TestResultSpans(t *testing.T) {
	snap := evalDoc(t, "en-US", "x = 10% of 200")
	v := snap.Lines[0].Value
	if v == nil {
		t.Fatalf("no value: %v", snap.Lines[0].Err)
	}
	if got := v.Span().Text(); got != "10% of 200" {
		t.Errorf("span text = %q, want %q", got, "10% of 200")
	}
	if v.Span().Line != "x = 10% of 200" {
		t.Errorf("span line = %q", v.Span().Line)
	}
}

func TestSpanLineKeepsLineBreak(t *testing.T) {
	e := NewEvaluator(WithClock(fixedClock))
	snap, err := e.EvaluateDocument(context.Background(), "1 + 2\n3")
	if err != nil {
		t.Fatal(err)
	}
	v := snap.Lines[0].Value
	if v == nil {
		t.Fatal("no value")
	}
	if v.Span().Line != "1 + 2\n" {
		t.Errorf("span line = %q, want line with break", v.Span().Line)
	}
	if snap.Lines[0].Text != "1 + 2" {
		t.Errorf("line text = %q", snap.Lines[0].Text)
	}
}

func TestCultures(t *testing.T) {
	tests := []struct {
		culture string
		input   string
		want    string
	}{
		{"en-GB", "1/2/2024", "01/02/2024"},
		{"en-GB", "£5 + £2.50", "£7.50"},
		{"fr-FR", "1 234,5 + 1", "1\u202f235,5"},
		{"fr-FR", "10 % de 200", "20"},
		{"fr-FR", "25 % de 80 €", "20,00\u00a0€"},
		{"fr-FR", "max(1; 2)", "2"},
		{"fr-FR", "2 heures + 30 minutes", "150 minutes"},
		{"fr-FR", "5 > 3", "vrai"},
		{"de-DE", "1.234,5 * 2", "2.469"},
		{"de-DE", "31.01.2024 + 1 Tag", "01.02.2024"},
		{"de-DE", "20 Prozent von 50", "10"},
		{"de-DE", "62,5 ist wie viel Prozent von 250", "25\u00a0%"},
		{"de", "3 mal 4", "12"},
		{"fr-CA", "1,5 + 1", "2,5"},
		{"xx-invalid", "1.5 + 1", "2.5"},
	}

	for _, tt := range tests {
		snap := evalDoc(t, tt.culture, tt.input)
		lr := snap.Lines[0]
		if lr.Err != nil {
			t.Errorf("[%s] %q error: %v", tt.culture, tt.input, lr.Err)
			continue
		}
		if lr.Display != tt.want {
			t.Errorf("[%s] %q = %q, want %q", tt.culture, tt.input, lr.Display, tt.want)
		}
	}
}

func TestEvaluateDocumentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEvaluator()
	snap, err := e.EvaluateDocument(ctx, "1 + 1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if snap != nil {
		t.Errorf("cancelled pass returned a snapshot")
	}
}

func TestStrictContractsPanics(t *testing.T) {
	broken := &FunctionDefinition{
		Name:   "broken",
		Params: []Capability{CapNumeric},
		Interpreter: InterpreterFunc(func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
			return Data{}, errorf(ErrContract, "always")
		}),
	}
	reg, err := NewRegistry(broken)
	if err != nil {
		t.Fatal(err)
	}

	lenient := NewEvaluator(WithRegistry(reg))
	snap, err := lenient.EvaluateDocument(context.Background(), "broken(1)\n2")
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(snap.Lines[0].Err, ErrContract) {
		t.Errorf("error = %v, want ErrContract", snap.Lines[0].Err)
	}
	if snap.Lines[1].Display != "2" {
		t.Errorf("line 2 = %q, want 2", snap.Lines[1].Display)
	}

	defer func() {
		if recover() == nil {
			t.Error("strict evaluator did not panic")
		}
	}()
	strict := NewEvaluator(WithRegistry(reg), WithStrictContracts(true))
	_, _ = strict.EvaluateDocument(context.Background(), "broken(1)")
}

func TestEvalLineHelper(t *testing.T) {
	v, err := EvalLine(context.Background(), "10% of 50", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsOfSubtype(SubtypeDecimal) || v.Value().String() != "5" {
		t.Errorf("EvalLine = %v, want 5", v)
	}
}
