package render_test

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/render"
)

func TestRegistryDefaultsName(t *testing.T) {
	reg := render.NewRegistry()
	r := newRenderer(t, fstest.MapFS{})

	if err := reg.Register("", r); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := reg.Get("")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != r {
		t.Fatalf("expected the registered renderer")
	}
	if !reg.Has(render.DefaultName) {
		t.Fatalf("expected %q to be registered", render.DefaultName)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := render.NewRegistry()
	r := newRenderer(t, fstest.MapFS{})

	reg.MustRegister("admin", r)
	if err := reg.Register("admin", r); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}
}

func TestRegistryListAndLookup(t *testing.T) {
	reg := render.NewRegistry()
	reg.MustRegister("site", newRenderer(t, fstest.MapFS{}))
	reg.MustRegister("admin", newRenderer(t, fstest.MapFS{}))

	if diff := cmp.Diff([]string{"admin", "site"}, reg.List()); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
	if _, err := reg.Get("missing"); err == nil {
		t.Fatalf("expected lookup error")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustGet to panic")
		}
	}()
	reg.MustGet("missing")
}
