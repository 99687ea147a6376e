package plugin

import (
	"errors"
	"strings"
	"testing"
)

func TestFactoryShape(t *testing.T) {
	tests := []struct {
		name    string
		factory Factory
		want    Shape
	}{
		{"host", hostedFactory("x"), ShapeHost},
		{"no-arg", New[basic](), ShapeNoArg},
		{"invalid", Invalid("bad"), ShapeNone},
		{"zero", Factory{}, ShapeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.factory.Shape(); got != tt.want {
				t.Errorf("Shape() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFactoryBuildHost(t *testing.T) {
	host := &testHost{}
	p, err := hostedFactory("x").build("x", host)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	h, ok := p.(*hosted)
	if !ok {
		t.Fatalf("build() returned %T", p)
	}
	if h.host != host {
		t.Error("host constructor did not receive the host")
	}
}

func TestFactoryBuildNoArgAttachesHost(t *testing.T) {
	host := &testHost{}
	p, err := New[basic]().build("basic", host)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	b := p.(*basic)
	if b.ID() != "basic" {
		t.Errorf("ID() = %q, want %q", b.ID(), "basic")
	}
	if b.Host() != host {
		t.Error("Host() was not assigned")
	}
}

func TestFactoryBuildNoArgWithoutSlot(t *testing.T) {
	f := NoArg(func() (Plugin, error) { return slotless{}, nil })

	_, err := f.build("slotless", &testHost{})
	var se *errShape
	if !errors.As(err, &se) {
		t.Fatalf("build() error = %v, want shape error", err)
	}
	if !strings.Contains(se.reason, "host slot") {
		t.Errorf("reason = %q", se.reason)
	}
}

func TestFactoryBuildFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		factory   Factory
		wantShape bool
	}{
		{"zero factory", Factory{}, true},
		{"invalid", Invalid("constructor takes two arguments"), true},
		{"nil from host constructor", WithHost(func(Host) (Plugin, error) { return nil, nil }), true},
		{"nil from no-arg", NoArg(func() (Plugin, error) { return nil, nil }), true},
		{"panic", NoArg(func() (Plugin, error) { panic("nope") }), true},
		{"id mismatch", hostedFactory("other"), true},
		{"constructor error", WithHost(func(Host) (Plugin, error) { return nil, boom }), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.factory.build("x", &testHost{})
			if err == nil {
				t.Fatal("build() should fail")
			}
			var se *errShape
			if got := errors.As(err, &se); got != tt.wantShape {
				t.Errorf("shape error = %v, want %v (err = %v)", got, tt.wantShape, err)
			}
		})
	}
}

func TestConstruct(t *testing.T) {
	f := Construct(func(h Host) *hosted { return &hosted{id: "typed", host: h} })

	p, err := f.build("typed", &testHost{})
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	if p.ID() != "typed" {
		t.Errorf("ID() = %q", p.ID())
	}
}
