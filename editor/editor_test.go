package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/foundry/layout"
)

func ptr[T any](v T) *T { return &v }

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "<p>Hello</p>", "<p>Hello</p>"},
		{"bold", "<p>Hello <strong>bold</strong> world</p>", "<p>Hello <strong>bold</strong> world</p>"},
		{"b becomes strong", "<p><b>x</b></p>", "<p><strong>x</strong></p>"},
		{"styled", `<p><span style="color: #ff0000">red</span></p>`, `<p><span style="color: #ff0000;">red</span></p>`},
		{"line break", "<p>a<br>b</p>", "<p>a<br>b</p>"},
		{"heading kept", "<h2>Title</h2><p>body</p>", "<h2>Title</h2><p>body</p>"},
		{"bare text wrapped", "hello", "<p>hello</p>"},
		{"empty", "", "<p></p>"},
		{"escapes", "<p>a &amp; b &lt;c&gt;</p>", "<p>a &amp; b &lt;c&gt;</p>"},
		{"unsafe style dropped", `<p><span style="background-color: url(x)">y</span></p>`, "<p>y</p>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.in).HTML()
			if got != tc.want {
				t.Fatalf("Parse(%q).HTML() = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMarksIn(t *testing.T) {
	doc := Parse("<p>ab<strong>cd</strong></p>")

	if got := doc.MarksIn(Range{Anchor: Position{0, 1}, Head: Position{0, 1}}); got != nil {
		t.Fatalf("collapsed range should report nil, got %+v", got)
	}
	all := doc.MarksIn(Range{Anchor: Position{0, 0}, Head: Position{0, 4}})
	if all == nil || all.Bold {
		t.Fatalf("mixed range should not be bold: %+v", all)
	}
	bold := doc.MarksIn(Range{Anchor: Position{0, 4}, Head: Position{0, 2}})
	if bold == nil || !bold.Bold {
		t.Fatalf("backwards range over bold text should be bold: %+v", bold)
	}
}

func TestApplyWithinBlock(t *testing.T) {
	doc := Parse("<p>hello world</p>")
	got := doc.Apply(Range{Anchor: Position{0, 0}, Head: Position{0, 5}}, Patch{Bold: ptr(true)}).HTML()
	if want := "<p><strong>hello</strong> world</p>"; got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
	if doc.HTML() != "<p>hello world</p>" {
		t.Fatalf("Apply mutated the receiver: %q", doc.HTML())
	}
}

func TestApplyAcrossBlocks(t *testing.T) {
	doc := Parse("<p>ab</p><p>cd</p>")
	got := doc.Apply(Range{Anchor: Position{0, 1}, Head: Position{1, 1}}, Patch{Color: ptr("#ff0000")}).HTML()
	want := `<p>a<span style="color: #ff0000;">b</span></p><p><span style="color: #ff0000;">c</span>d</p>`
	if got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
}

func TestApplyMergesAdjacentSpans(t *testing.T) {
	doc := Parse("<p><strong>ab</strong>cd</p>")
	got := doc.Apply(Range{Anchor: Position{0, 2}, Head: Position{0, 4}}, Patch{Bold: ptr(true)})
	if len(got.Blocks[0].Spans) != 1 {
		t.Fatalf("expected one merged span, got %+v", got.Blocks[0].Spans)
	}
}

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) save(_ context.Context, pageID string, idx int, html string) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, pageID+"|"+string(rune('0'+idx))+"|"+html)
	return nil
}

func TestEditorBlurPersistsOnlyChanges(t *testing.T) {
	rec := &recorder{}
	e := New(nil)
	e.Open("p1", 2, "hello", rec.save)

	if got := e.HTML(); got != "<p>hello</p>" {
		t.Fatalf("Open should wrap content, got %q", got)
	}
	e.Focus()
	if err := e.Blur(context.Background()); err != nil {
		t.Fatalf("Blur: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("unchanged blur should not save, got %v", rec.calls)
	}

	e.Focus()
	if err := e.Update("<p>changed</p>"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !e.Dirty() {
		t.Fatal("expected dirty after update")
	}
	if err := e.Blur(context.Background()); err != nil {
		t.Fatalf("Blur: %v", err)
	}
	if diff := cmp.Diff([]string{"p1|2|<p>changed</p>"}, rec.calls); diff != "" {
		t.Fatalf("save calls mismatch (-want +got):\n%s", diff)
	}
	if e.Dirty() || e.Focused() {
		t.Fatal("editor should be clean and unfocused after blur")
	}
}

func TestEditorSaveFailureKeepsBuffer(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{err: boom}
	e := New(nil)
	e.Open("p1", 0, "<p>a</p>", rec.save)
	e.Focus()
	_ = e.Update("<p>b</p>")

	err := e.Blur(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Blur error = %v, want wrapped boom", err)
	}
	if !e.Dirty() || e.HTML() != "<p>b</p>" {
		t.Fatalf("failed save should keep the buffer, got %q", e.HTML())
	}
}

func TestEditorSync(t *testing.T) {
	e := New(nil)
	e.Open("p1", 0, "<p>a</p>", nil)

	e.Focus()
	if e.Sync("<p>external</p>") {
		t.Fatal("Sync must be ignored while focused")
	}
	if err := e.Blur(context.Background()); err != nil {
		t.Fatalf("Blur: %v", err)
	}
	if e.Sync("a") {
		t.Fatal("Sync with an equal wrapped value should be a no-op")
	}
	if !e.Sync("<p>external</p>") || e.HTML() != "<p>external</p>" {
		t.Fatalf("Sync should adopt external value, got %q", e.HTML())
	}
	if e.Dirty() {
		t.Fatal("synced value is not a local change")
	}
}

func TestEditorSyncKeepsUnsavedText(t *testing.T) {
	failing := func(context.Context, string, int, string) error { return errors.New("disk full") }
	e := New(nil)
	e.Open("p1", 0, "<p>old</p>", failing)
	e.Focus()
	if err := e.Update("<p>typed text</p>"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := e.Blur(context.Background()); err == nil {
		t.Fatal("Blur should report the failed save")
	}
	if !e.Dirty() {
		t.Fatal("text from a failed save should stay dirty")
	}

	if e.Sync("<p>old</p>") {
		t.Error("Sync must not replace unsaved text")
	}
	if got := e.HTML(); got != "<p>typed text</p>" {
		t.Errorf("buffer = %q, want the unsaved text", got)
	}
}

func TestEditorSelectNotifiesObserver(t *testing.T) {
	var seen []*Marks
	e := New(func(m *Marks) { seen = append(seen, m) })
	e.Open("p1", 0, "<p><em>ab</em></p>", nil)

	if m := e.Select(Range{}); m != nil {
		t.Fatalf("collapsed selection = %+v, want nil", m)
	}
	m := e.Select(Range{Anchor: Position{0, 0}, Head: Position{0, 2}})
	if m == nil || !m.Italic {
		t.Fatalf("expected italic marks, got %+v", m)
	}
	if len(seen) != 2 || seen[0] != nil || seen[1] != m {
		t.Fatalf("observer calls = %v", seen)
	}
}

func TestEditorApplyUpdatesBuffer(t *testing.T) {
	e := New(nil)
	e.Open("p1", 0, "<p>abc</p>", nil)
	m, err := e.Apply(Range{Anchor: Position{0, 0}, Head: Position{0, 3}}, Patch{FontSize: ptr("24px")})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m == nil || m.FontSize != "24px" {
		t.Fatalf("marks = %+v", m)
	}
	if got, want := e.HTML(), `<p><span style="font-size: 24px;">abc</span></p>`; got != want {
		t.Fatalf("HTML = %q, want %q", got, want)
	}
}

func TestEditorClosedOperations(t *testing.T) {
	e := New(nil)
	if err := e.Update("x"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Update on closed editor = %v", err)
	}
	if err := e.Blur(context.Background()); err != nil {
		t.Fatalf("Blur on closed editor = %v", err)
	}
	if e.Select(Range{Head: Position{0, 1}}) != nil {
		t.Fatal("Select on closed editor should be nil")
	}
}

func TestFromMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"heading and emphasis", "# Title\n\nSome **bold** and *it*", "<h1>Title</h1><p>Some <strong>bold</strong> and <em>it</em></p>"},
		{"soft break is a space", "one\ntwo", "<p>one two</p>"},
		{"list items become paragraphs", "- a\n- b", "<p>a</p><p>b</p>"},
		{"raw html dropped", "<script>alert(1)</script>", layout.EmptyContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromMarkdown(tc.in)
			if err != nil {
				t.Fatalf("FromMarkdown: %v", err)
			}
			if got != tc.want {
				t.Fatalf("FromMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
