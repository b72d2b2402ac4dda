package engine

import (
	"strings"
	"testing"

	"github.com/chazu/dagnav/internal/testutil"
	"github.com/chazu/dagnav/pkg/dagmc"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(create-volume :id 7)`,
			expect: `(create_volume "__kw_id" 7)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `(group "mat:fuel")`,
			expect: `(group "mat:fuel")`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`set-id :x`",
			expect: "`set-id :x`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(remove-from-group g v)`,
			expect: `(remove_from_group g v)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(set-id v -1)`,
			expect: `(set_id v -1)`,
		},
		{
			name:   "comment converted to // style",
			input:  ";; comment with :keyword\n(id v)",
			expect: "// comment with :keyword\n(id v)",
		},
		{
			name:   "single semicolon comment at end",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:file-name`,
			expect: `"__kw_file-name"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builtins over the fuel pin model
// ---------------------------------------------------------------------------

func run(t *testing.T, m *dagmc.Model, source string) *Result {
	t.Helper()
	res, evalErrs, err := NewEngine().Evaluate(m, source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return res
}

func runFails(t *testing.T, m *dagmc.Model, source string) EvalError {
	t.Helper()
	_, evalErrs, err := NewEngine().Evaluate(m, source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected eval error for %q", source)
	}
	return evalErrs[0]
}

func TestSetMaterial(t *testing.T) {
	m := testutil.FuelPin(t)

	source := `
; move the cladding to water
(def clad (volume 3))
(set-material clad "water")
(material clad)
`
	res := run(t, m, source)
	if !strings.Contains(res.Value, "water") {
		t.Errorf("expected material water, got %q", res.Value)
	}

	vols, err := m.VolumesByID()
	if err != nil {
		t.Fatalf("VolumesByID failed: %v", err)
	}
	mat, ok, err := vols[3].Material()
	if err != nil || !ok || mat != "water" {
		t.Errorf("Material() = %q, %v, %v; want water", mat, ok, err)
	}
}

func TestClearMaterial(t *testing.T) {
	m := testutil.FuelPin(t)
	res := run(t, m, `(set-material (volume 1) nil) (material (volume 1))`)
	if res.Value != "nil" {
		t.Errorf("expected nil material, got %q", res.Value)
	}
	without, err := m.VolumesWithoutMaterial()
	if err != nil {
		t.Fatalf("VolumesWithoutMaterial failed: %v", err)
	}
	if len(without) != 1 {
		t.Errorf("expected 1 volume without material, got %d", len(without))
	}
}

func TestBoundary(t *testing.T) {
	m := testutil.FuelPin(t)
	res := run(t, m, `(set-boundary (surface 26) "Reflecting") (boundary (surface 26))`)
	if !strings.Contains(res.Value, "Reflecting") {
		t.Errorf("expected Reflecting, got %q", res.Value)
	}
	byBoundary, err := m.SurfacesByBoundary()
	if err != nil {
		t.Fatalf("SurfacesByBoundary failed: %v", err)
	}
	if len(byBoundary["Reflecting"]) != 4 {
		t.Errorf("expected 4 reflecting surfaces, got %d", len(byBoundary["Reflecting"]))
	}
}

func TestCreateAndGroup(t *testing.T) {
	m := testutil.FuelPin(t)
	source := `
(def v (create-volume :id 20))
(def s (create-surface))
(def g (create-group "picked" :id 9))
(add-to-group g v s (volume 1))
(remove-from-group g (volume 1))
(set-senses s v nil)
(volume-ids g)
`
	res := run(t, m, source)
	if res.Value != "[20]" {
		t.Errorf("expected [20], got %q", res.Value)
	}

	byName, err := m.GroupsByName()
	if err != nil {
		t.Fatalf("GroupsByName failed: %v", err)
	}
	g := byName["picked"]
	if g == nil {
		t.Fatal("expected group 'picked'")
	}
	if id, _ := g.ID(); id != 9 {
		t.Errorf("expected group ID 9, got %d", id)
	}
	sids, err := g.SurfaceIDs()
	if err != nil {
		t.Fatalf("SurfaceIDs failed: %v", err)
	}
	if len(sids) != 1 || sids[0] != 30 {
		t.Errorf("expected surface 30 in group, got %v", sids)
	}

	surfs, err := m.SurfacesByID()
	if err != nil {
		t.Fatalf("SurfacesByID failed: %v", err)
	}
	fwd, err := surfs[30].ForwardVolume()
	if err != nil || fwd == nil {
		t.Fatalf("ForwardVolume() = %v, %v", fwd, err)
	}
	if id, _ := fwd.ID(); id != 20 {
		t.Errorf("expected forward volume 20, got %d", id)
	}
}

func TestIDs(t *testing.T) {
	m := testutil.FuelPin(t)

	if res := run(t, m, `(volume-ids)`); res.Value != "[1 2 3 6]" {
		t.Errorf("volume-ids = %q", res.Value)
	}
	if res := run(t, m, `(surface-ids (volume 1))`); res.Value != "[1 2 3]" {
		t.Errorf("surface-ids of volume 1 = %q", res.Value)
	}
	if res := run(t, m, `(surface-ids (group "boundary:vacuum"))`); res.Value != "[24 25]" {
		t.Errorf("surface-ids of vacuum group = %q", res.Value)
	}

	run(t, m, `(set-id (volume 6) 100)`)
	if res := run(t, m, `(id (volume 100))`); res.Value != "100" {
		t.Errorf("id = %q", res.Value)
	}

	e := runFails(t, m, `(set-id (volume 1) 2)`)
	if !strings.Contains(e.Message, "already in use") {
		t.Errorf("expected duplicate ID message, got %q", e.Message)
	}
}

func TestRenameAndGroupNames(t *testing.T) {
	m := testutil.FuelPin(t)
	run(t, m, `(rename-group (group "mat:41") "mat:zircaloy")`)
	res := run(t, m, `(group-names)`)
	if !strings.Contains(res.Value, "mat:zircaloy") || strings.Contains(res.Value, "mat:41") {
		t.Errorf("group-names = %q", res.Value)
	}

	e := runFails(t, m, `(rename-group (group "mat:fuel") "MAT:ZIRCALOY")`)
	if !strings.Contains(e.Message, "already used") {
		t.Errorf("expected duplicate name message, got %q", e.Message)
	}
}

func TestMeasure(t *testing.T) {
	m := testutil.FuelPin(t)
	res := run(t, m, `(> (measure-volume (volume 1)) 6000)`)
	if res.Value != "true" {
		t.Errorf("expected fuel volume above 6000, got %q", res.Value)
	}
	res = run(t, m, `(< (area (surface 2)) 154)`)
	if res.Value != "true" {
		t.Errorf("expected end cap area below 154, got %q", res.Value)
	}
}

func TestDelete(t *testing.T) {
	m := testutil.FuelPin(t)
	run(t, m, `(delete (surface 29))`)
	surfs, err := m.SurfacesByID()
	if err != nil {
		t.Fatalf("SurfacesByID failed: %v", err)
	}
	if _, ok := surfs[29]; ok {
		t.Error("surface 29 still present")
	}
}

func TestLookupErrors(t *testing.T) {
	m := testutil.FuelPin(t)
	tests := []struct {
		source string
		want   string
	}{
		{`(volume 99)`, "no volume with ID 99"},
		{`(surface 99)`, "no surface with ID 99"},
		{`(group "mat:nothing")`, "no group named"},
		{`(set-material (surface 1) "x")`, "expected volume"},
		{`(area (volume 1))`, "expected surface"},
		{`(volume)`, "takes 1 argument"},
		{`(volume "one")`, "expected integer"},
		{`(add-to-group (group "mat:fuel") 3)`, "expected volume, surface or group"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			e := runFails(t, m, tt.source)
			if !strings.Contains(e.Message, tt.want) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.want)
			}
		})
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	m := testutil.FuelPin(t)
	res := run(t, m, `(def n (+ 2 (id (volume 3)))) n`)
	if res.Value != "5" {
		t.Errorf("expected 5, got %q", res.Value)
	}
}
