package plugin

import (
	"io"
	"testing"
)

type superA struct{ Base }

func (p *superA) Restore(io.Reader) error { return nil }
func (p *superA) Persist(io.Writer) error { return nil }

func loadCatalog(t *testing.T, cat *Catalog) *Registry {
	t.Helper()
	reg, err := NewLoader([]LoadUnit{{Unit: cat, DiscoverAll: true}}).Load(&testHost{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return reg
}

func TestRegistryFindSingle(t *testing.T) {
	// A is a class; B declares A as a supertype.
	reg := loadCatalog(t, NewCatalog("native").
		MustRegister(Descriptor{Class: "A"}, New[superA]()).
		MustRegister(Descriptor{Class: "B", Implements: []string{"A"}}, New[basic]()).
		MustRegister(Descriptor{Class: "C", Implements: []string{"X"}}, New[basic]()).
		MustRegister(Descriptor{Class: "D", Implements: []string{"X"}}, New[basic]()))

	tests := []struct {
		class  string
		wantID string
		found  bool
	}{
		{"A", "A", true}, // exact match wins over the assignable B
		{"B", "B", true},
		{"X", "", false}, // two assignable, none exact
		{"Nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			p, ok := reg.FindSingle(tt.class)
			if ok != tt.found {
				t.Fatalf("FindSingle(%q) found = %v, want %v", tt.class, ok, tt.found)
			}
			if ok && p.ID() != tt.wantID {
				t.Errorf("FindSingle(%q) = %q, want %q", tt.class, p.ID(), tt.wantID)
			}
		})
	}
}

func TestRegistryFindSingleCapability(t *testing.T) {
	reg := loadCatalog(t, NewCatalog("native").
		MustRegister(Descriptor{Class: "Plain"}, New[basic]()).
		MustRegister(Descriptor{Class: "Contrib"}, New[contributor]()))

	p, ok := reg.FindSingle(CapabilityContributor)
	if !ok || p.ID() != "Contrib" {
		t.Errorf("FindSingle(%q) = %v, %v", CapabilityContributor, p, ok)
	}

	if _, ok := reg.FindSingle(CapabilityPlugin); ok {
		t.Error("FindSingle(MusicPlugin) should be ambiguous with two plugins")
	}
	if _, ok := reg.FindSingle(CapabilityListener); ok {
		t.Error("FindSingle(PlaybackListener) should find nothing")
	}
}

func TestRegistryFilterKeepsLoadOrder(t *testing.T) {
	reg := loadCatalog(t, NewCatalog("native").
		MustRegister(Descriptor{Class: "C1"}, New[contributor]()).
		MustRegister(Descriptor{Class: "P"}, New[basic]()).
		MustRegister(Descriptor{Class: "C2"}, New[contributor]()))

	contribs := reg.Contributors()
	if len(contribs) != 2 {
		t.Fatalf("Contributors() len = %d, want 2", len(contribs))
	}
	if contribs[0].ID() != "C1" || contribs[1].ID() != "C2" {
		t.Errorf("Contributors() = [%s %s]", contribs[0].ID(), contribs[1].ID())
	}
	if len(reg.Listeners()) != 0 {
		t.Error("Listeners() should be empty")
	}
}

func TestRegistryStates(t *testing.T) {
	reg := loadCatalog(t, NewCatalog("native").
		MustRegister(Descriptor{Class: "A"}, New[basic]()).
		MustRegister(Descriptor{Class: "B"}, New[basic]()))

	reg.SetState("A", StateRestored)
	reg.SetState("missing", StateError)

	usable := reg.Usable()
	if len(usable) != 1 || usable[0].ID() != "A" {
		t.Errorf("Usable() = %v", usable)
	}
	if !StateRestored.IsUsable() || StateLoaded.IsUsable() {
		t.Error("only restored plugins are usable")
	}
}
