package dom

import "testing"

// mustParse parses the body fragment and returns the first element inside
// <body>, so tests can work with small fragments directly.
func mustParse(t *testing.T, source string) *Node {
	t.Helper()
	root, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", source, err)
	}
	return root
}

// firstTag returns the first element with the given tag.
func firstTag(t *testing.T, root *Node, tag string) *Node {
	t.Helper()
	n := root.Find(func(n *Node) bool { return n.Tag == tag })
	if n == nil {
		t.Fatalf("no <%s> element found", tag)
	}
	return n
}

func TestDiffIdentity(t *testing.T) {
	sources := []string{
		`<div class="foo"><p>hello</p><!-- note --><span>x</span></div>`,
		`<ul><li>a</li><li>b</li><li>c</li></ul>`,
		`<form action="/save"><input name="q" value="1"></form>`,
	}
	for _, src := range sources {
		tree := mustParse(t, src)
		if patches := Diff(tree, tree); len(patches) != 0 {
			t.Errorf("Diff(T, T) for %q = %d patches, want 0", src, len(patches))
		}
	}
}

func TestDiffSameContentSeparateParses(t *testing.T) {
	src := `<div id="a"><p>one</p><p>two</p></div>`
	old := mustParse(t, src)
	new := mustParse(t, src)
	if patches := Diff(old, new); len(patches) != 0 {
		t.Errorf("expected no patches for identical content, got %d", len(patches))
	}
}

func TestDiffAttributeChange(t *testing.T) {
	old := mustParse(t, `<div class="foo">X</div>`)
	new := mustParse(t, `<div class="bar">X</div>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected exactly 1 patch, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchSetAttribute {
		t.Errorf("Op = %v, want SetAttribute", p.Op)
	}
	if p.Name != "class" || p.Value != "bar" {
		t.Errorf("patch = {%s %s}, want {class bar}", p.Name, p.Value)
	}
	oldDiv := firstTag(t, old, "div")
	if p.NodeID != oldDiv.ID {
		t.Errorf("NodeID = %d, want old div id %d", p.NodeID, oldDiv.ID)
	}
}

func TestDiffRemovedTrailingChild(t *testing.T) {
	old := mustParse(t, `<ul><li>A</li><li>B</li><li>C</li></ul>`)
	new := mustParse(t, `<ul><li>A</li><li>B</li></ul>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected exactly 1 patch, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchRemoveChild {
		t.Fatalf("Op = %v, want RemoveChild", p.Op)
	}
	oldUl := firstTag(t, old, "ul")
	thirdLi := oldUl.Children[2]
	if p.ParentID != oldUl.ID || p.ChildID != thirdLi.ID {
		t.Errorf("patch targets parent=%d child=%d, want parent=%d child=%d",
			p.ParentID, p.ChildID, oldUl.ID, thirdLi.ID)
	}
}

func TestDiffAppendedChild(t *testing.T) {
	old := mustParse(t, `<ul><li>A</li></ul>`)
	new := mustParse(t, `<ul><li>A</li><li>B</li></ul>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchAppendChild {
		t.Fatalf("Op = %v, want AppendChild", p.Op)
	}
	if p.ParentID != firstTag(t, old, "ul").ID {
		t.Errorf("ParentID = %d, want old ul id", p.ParentID)
	}
	if p.Node == nil || p.Node.Tag != "li" {
		t.Errorf("carried subtree = %+v, want <li>", p.Node)
	}
}

func TestDiffTextChangeTargetsParent(t *testing.T) {
	old := mustParse(t, `<p>hello</p>`)
	new := mustParse(t, `<p>world</p>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.Op != PatchSetText {
		t.Fatalf("Op = %v, want SetText", p.Op)
	}
	if p.NodeID != firstTag(t, old, "p").ID {
		t.Errorf("NodeID = %d, want parent <p> id", p.NodeID)
	}
	if p.Value != "world" {
		t.Errorf("Value = %q, want %q", p.Value, "world")
	}
}

func TestDiffTagChangeReplacesWholeNode(t *testing.T) {
	old := mustParse(t, `<div><span>deep</span></div>`)
	new := mustParse(t, `<section><em>other</em></section>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected single ReplaceNode, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchReplaceNode {
		t.Fatalf("Op = %v, want ReplaceNode", p.Op)
	}
	if p.NodeID != firstTag(t, old, "div").ID {
		t.Errorf("NodeID = %d, want old div id", p.NodeID)
	}
	if p.Node == nil || p.Node.Tag != "section" {
		t.Errorf("carried node = %+v, want <section>", p.Node)
	}
}

func TestDiffKindChangeReplaces(t *testing.T) {
	old := mustParse(t, `<div>just text</div>`)
	new := mustParse(t, `<div><span>element now</span></div>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchReplaceNode {
		t.Fatalf("Op = %v, want ReplaceNode", p.Op)
	}
	// The old text node has no ID; the patch is keyed by its parent.
	if p.NodeID != firstTag(t, old, "div").ID {
		t.Errorf("NodeID = %d, want parent div id", p.NodeID)
	}
}

func TestDiffEventAttributeBecomesProperty(t *testing.T) {
	old := mustParse(t, `<button onclick="inc()">+</button>`)
	new := mustParse(t, `<button onclick="dec()">+</button>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchSetProperty {
		t.Fatalf("Op = %v, want SetProperty (never SetAttribute for onclick)", p.Op)
	}
	if p.Property == nil || *p.Property != "dec()" {
		t.Errorf("Property = %v, want dec()", p.Property)
	}
}

func TestDiffEventAttributeRemovalClearsProperty(t *testing.T) {
	old := mustParse(t, `<button onclick="inc()">+</button>`)
	new := mustParse(t, `<button>+</button>`)

	patches := Diff(old, new)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != PatchSetProperty || p.Property != nil {
		t.Errorf("patch = %+v, want SetProperty with nil value", p)
	}
}

func TestDiffNullValueRemovesAttribute(t *testing.T) {
	for _, literal := range []string{"null", "undefined"} {
		old := mustParse(t, `<div data-x="1">X</div>`)
		new := mustParse(t, `<div data-x="`+literal+`">X</div>`)

		patches := Diff(old, new)
		if len(patches) != 1 {
			t.Fatalf("%s: expected 1 patch, got %d", literal, len(patches))
		}
		if patches[0].Op != PatchRemoveAttribute || patches[0].Name != "data-x" {
			t.Errorf("%s: patch = %+v, want RemoveAttribute data-x", literal, patches[0])
		}
	}
}

func TestDiffNullValueEquivalentToAbsent(t *testing.T) {
	old := mustParse(t, `<div data-x="1">X</div>`)
	withNull := mustParse(t, `<div data-x="null">X</div>`)
	absent := mustParse(t, `<div>X</div>`)

	a := Diff(old, withNull)
	b := Diff(old.Clone(), absent)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected 1 patch each, got %d and %d", len(a), len(b))
	}
	if a[0].Op != b[0].Op || a[0].Name != b[0].Name || a[0].NodeID != b[0].NodeID {
		t.Errorf("null-valued attribute diffs differently from absent: %+v vs %+v", a[0], b[0])
	}
}

func TestDiffAttributesBeforeChildren(t *testing.T) {
	old := mustParse(t, `<div class="a"><p>x</p></div>`)
	new := mustParse(t, `<div class="b"><p>y</p></div>`)

	patches := Diff(old, new)
	if len(patches) != 2 {
		t.Fatalf("expected 2 patches, got %d: %v", len(patches), patches)
	}
	if patches[0].Op != PatchSetAttribute {
		t.Errorf("first patch = %v, want the attribute patch", patches[0].Op)
	}
	if patches[1].Op != PatchSetText {
		t.Errorf("second patch = %v, want the child text patch", patches[1].Op)
	}
}

func TestDiffRemovalsBeforeAppendsOrdering(t *testing.T) {
	// Shrinking one list and growing a sibling list in one diff: per
	// parent, removals come after positional compares and appends last.
	old := mustParse(t, `<div><ul><li>a</li><li>b</li></ul></div>`)
	new := mustParse(t, `<div><ul><li>a</li><li>c</li><li>d</li></ul></div>`)

	patches := Diff(old, new)
	if len(patches) != 2 {
		t.Fatalf("expected 2 patches, got %d: %v", len(patches), patches)
	}
	if patches[0].Op != PatchSetText {
		t.Errorf("patches[0] = %v, want SetText for b->c", patches[0].Op)
	}
	if patches[1].Op != PatchAppendChild {
		t.Errorf("patches[1] = %v, want AppendChild for d", patches[1].Op)
	}
}

func TestDiffDeterministic(t *testing.T) {
	old := mustParse(t, `<div a="1" b="2" c="3" onclick="f()">x</div>`)
	new := mustParse(t, `<div a="9" d="4" onclick="g()">y</div>`)

	first := Diff(old, new)
	for i := 0; i < 10; i++ {
		again := Diff(old, new)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d patches, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].Op != first[j].Op || again[j].Name != first[j].Name ||
				again[j].NodeID != first[j].NodeID || again[j].Value != first[j].Value {
				t.Fatalf("run %d: patch %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestDiffRoundTrip(t *testing.T) {
	cases := []struct{ old, new string }{
		{
			`<div class="foo"><p>one</p><p>two</p></div>`,
			`<div class="bar" data-n="3"><p>one</p><p>changed</p><span>extra</span></div>`,
		},
		{
			`<ul><li>a</li><li>b</li><li>c</li></ul>`,
			`<ul><li>a</li></ul>`,
		},
		{
			`<div><span>x</span></div>`,
			`<div><em>y</em></div>`,
		},
	}
	for _, tc := range cases {
		old := mustParse(t, tc.old)
		new := mustParse(t, tc.new)
		patches := Diff(old, new)

		got := old.Clone()
		applyAll(t, got, patches)
		if !treesEqual(got, new) {
			t.Errorf("round trip failed for %q -> %q\npatches: %v", tc.old, tc.new, patches)
		}
	}
}

// applyAll is a minimal test-side patch applier.
func applyAll(t *testing.T, root *Node, patches []Patch) {
	t.Helper()
	for _, p := range patches {
		switch p.Op {
		case PatchSetAttribute:
			byID(root, p.NodeID).Attrs[p.Name] = p.Value
		case PatchRemoveAttribute:
			delete(byID(root, p.NodeID).Attrs, p.Name)
		case PatchSetText:
			parent := byID(root, p.NodeID)
			for _, c := range parent.Children {
				if c.Kind == KindText {
					c.Text = p.Value
					break
				}
			}
		case PatchReplaceNode:
			replaceByID(root, p.NodeID, p.Node.Clone())
		case PatchAppendChild:
			parent := byID(root, p.ParentID)
			parent.Children = append(parent.Children, p.Node.Clone())
		case PatchRemoveChild:
			parent := byID(root, p.ParentID)
			kept := parent.Children[:0]
			for _, c := range parent.Children {
				if c.Kind == KindElement && c.ID == p.ChildID {
					continue
				}
				kept = append(kept, c)
			}
			parent.Children = kept
		default:
			t.Fatalf("unhandled patch op %v", p.Op)
		}
	}
}

func byID(root *Node, id uint64) *Node {
	return root.Find(func(n *Node) bool { return n.ID == id })
}

func replaceByID(root *Node, id uint64, replacement *Node) {
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		for i, c := range n.Children {
			if c.Kind == KindElement && c.ID == id {
				n.Children[i] = replacement
				return true
			}
			if c.Kind == KindElement && walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
}

// treesEqual compares under (tag, attributes, text, child order); IDs are
// deliberately ignored since they are parse-local.
func treesEqual(a, b *Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != KindElement {
		return a.Text == b.Text
	}
	if a.Tag != b.Tag || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for k, v := range a.Attrs {
		if b.Attrs[k] != v {
			return false
		}
	}
	for i := range a.Children {
		if !treesEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
