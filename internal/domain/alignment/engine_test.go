package alignment

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/eli5y/eli5y/pkg/errors"
)

func TestAlign_FullPipeline(t *testing.T) {
	markup := `(y_i-f(x_i))^2`
	draft := Draft{
		Explanation: "measure the miss for every point and punish big errors",
		Components: []RawComponent{
			comp("punish big errors", `(y_i-f(x_i))^2`),
			comp("the miss", `y_i-f(x_i)`),
		},
	}

	res, diags, err := Align(markup, draft)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diags = %+v, want none", diags)
	}
	if res.Narrative != draft.Explanation {
		t.Errorf("Narrative = %q, want the explanation untouched", res.Narrative)
	}
	if len(res.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(res.Groups))
	}

	outer, inner := res.Groups[0], res.Groups[1]
	if outer.Label != "punish big errors" || inner.Label != "the miss" {
		t.Errorf("labels = %q, %q", outer.Label, inner.Label)
	}
	if !reflect.DeepEqual(outer.Children, []int{1}) {
		t.Errorf("outer.Children = %v, want [1]", outer.Children)
	}
	if !reflect.DeepEqual(inner.Children, []int{}) {
		t.Errorf("inner.Children = %v, want empty (never nil)", inner.Children)
	}

	// Every emitted span must slice back to the stored text.
	for gi, g := range res.Groups {
		for si, r := range g.Ranges {
			if markup[r.Start:r.End] != g.Latex[si] {
				t.Errorf("group %d span %d: markup slice %q != latex %q",
					gi, si, markup[r.Start:r.End], g.Latex[si])
			}
		}
		ns := g.NarrativeSpan
		if res.Narrative[ns.Start:ns.End] != g.Label {
			t.Errorf("group %d: narrative slice %q != label %q",
				gi, res.Narrative[ns.Start:ns.End], g.Label)
		}
	}
}

func TestAlign_MergedCounterpartYieldsOneMultiSpanGroup(t *testing.T) {
	markup := "s_1^2 + s_2^2"
	draft := Draft{
		Explanation: "the spreads of both groups",
		Components: []RawComponent{
			comp("the spreads", "s_1^2"),
			comp("the spreads", "s_2^2"),
		},
	}

	res, _, err := Align(markup, draft)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("got %d groups, want 1 merged group", len(res.Groups))
	}
	g := res.Groups[0]
	if !reflect.DeepEqual(g.Latex, []string{"s_1^2", "s_2^2"}) {
		t.Errorf("Latex = %v", g.Latex)
	}
	wantRanges := []Span{{Start: 0, End: 5}, {Start: 8, End: 13}}
	if !reflect.DeepEqual(g.Ranges, wantRanges) {
		t.Errorf("Ranges = %v, want %v", g.Ranges, wantRanges)
	}
}

func TestAlign_GlueDroppedInsideSubsumingParent(t *testing.T) {
	markup := "a + b"
	draft := Draft{
		Explanation: "join a and b into the whole sum",
		Components: []RawComponent{
			comp("the whole sum", "a + b"),
			comp("join", "+"),
		},
	}

	res, diags, err := Align(markup, draft)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(res.Groups) != 1 || res.Groups[0].Label != "the whole sum" {
		t.Fatalf("groups = %+v, want only the subsuming parent", res.Groups)
	}
	if len(diags) != 1 || diags[0].Stage != "normalize" || diags[0].Reason != ReasonGlueSubsumed {
		t.Errorf("diags = %+v, want one normalize/glue_subsumed record", diags)
	}
}

func TestAlign_PartialDropKeepsSurvivors(t *testing.T) {
	markup := "E = mc^2"
	draft := Draft{
		Explanation: "energy locked in mass",
		Components: []RawComponent{
			comp("energy", "E"),
			comp("a phrase nowhere in the narrative", "m"),
			comp("mass", "m"),
		},
	}

	res, diags, err := Align(markup, draft)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(res.Groups) != 2 {
		t.Fatalf("got %d groups, want 2 survivors", len(res.Groups))
	}
	if res.Groups[0].Label != "energy" || res.Groups[1].Label != "mass" {
		t.Errorf("labels = %q, %q", res.Groups[0].Label, res.Groups[1].Label)
	}
	found := false
	for _, d := range diags {
		if d.Reason == ReasonCounterpartNotFound {
			found = true
		}
	}
	if !found {
		t.Errorf("diags = %+v, want a counterpart_not_found record", diags)
	}
}

func TestAlign_LabelFallsBackToRole(t *testing.T) {
	draft := Draft{
		Explanation: "squash it between zero and one",
		Components: []RawComponent{
			{Symbols: []string{"\\sigma"}, Role: "operator"},
		},
	}

	res, _, err := Align(`\sigma(x)`, draft)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if res.Groups[0].Label != "operator" {
		t.Errorf("Label = %q, want role fallback", res.Groups[0].Label)
	}
}

func TestAlign_AllComponentsDroppedReturnsErrNoComponents(t *testing.T) {
	draft := Draft{
		Explanation: "nothing matches",
		Components: []RawComponent{
			comp("absent phrase", "x"),
			comp("nothing matches", "zz"),
		},
	}

	res, diags, err := Align("a+b", draft)
	if err == nil {
		t.Fatal("want ErrNoComponents, got nil error")
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeAlignEmptyResult) {
		t.Errorf("err = %v, want code %s", err, apperrors.ErrCodeAlignEmptyResult)
	}
	if res != nil {
		t.Errorf("res = %+v, want nil on terminal failure", res)
	}
	if len(diags) == 0 {
		t.Error("diagnostics must survive a terminal failure")
	}
}

func TestAlign_EmptyDraftReturnsErrNoComponents(t *testing.T) {
	_, _, err := Align("x", Draft{Explanation: "nothing here"})
	if err != ErrNoComponents {
		t.Errorf("err = %v, want ErrNoComponents", err)
	}
}

func TestResult_WireFormat(t *testing.T) {
	res := &Result{
		Narrative: "the miss",
		Groups: []SemanticGroup{
			{
				Ranges:        []Span{{Start: 1, End: 11}},
				Latex:         []string{"y_i-f(x_i)"},
				Label:         "the miss",
				NarrativeSpan: Span{Start: 0, End: 8},
				Children:      []int{},
			},
		},
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{
		`"ranges":[[1,11]]`,
		`"narrative_span":[0,8]`,
		`"children":[]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("wire form %s missing %s", s, want)
		}
	}

	var back Result
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back.Groups[0].Ranges, res.Groups[0].Ranges) {
		t.Errorf("round-trip ranges = %v", back.Groups[0].Ranges)
	}
}

func TestRawComponent_DecodesLegacyBareStringSymbol(t *testing.T) {
	var c RawComponent
	if err := json.Unmarshal([]byte(`{"symbol":"x_i","counterpart":"each point","role":"variable"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(c.Symbols, []string{"x_i"}) {
		t.Errorf("Symbols = %v, want [x_i]", c.Symbols)
	}

	if err := json.Unmarshal([]byte(`{"symbol":["a","b"],"counterpart":"pair","role":"variable"}`), &c); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !reflect.DeepEqual(c.Symbols, []string{"a", "b"}) {
		t.Errorf("Symbols = %v, want [a b]", c.Symbols)
	}
}
