package plugin

import "fmt"

// Shape identifies how a factory constructs its plugin.
type Shape int

// Construction shapes, in the order the loader accepts them.
const (
	// ShapeNone - the class offers no accepted constructor.
	ShapeNone Shape = iota

	// ShapeHost - a constructor taking the host as its only argument.
	ShapeHost

	// ShapeNoArg - a no-argument constructor; the host assigns the
	// back-reference through the embedded Base slot afterwards.
	ShapeNoArg
)

// String returns a string representation of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeHost:
		return "host-constructor"
	case ShapeNoArg:
		return "no-arg"
	default:
		return "none"
	}
}

// Factory constructs one plugin instance. The zero Factory has no accepted
// shape and always fails with a contract violation.
type Factory struct {
	withHost func(Host) (Plugin, error)
	noArg    func() (Plugin, error)
	invalid  string
}

// WithHost returns a factory for a constructor taking the host.
func WithHost(fn func(Host) (Plugin, error)) Factory {
	return Factory{withHost: fn}
}

// NoArg returns a factory for a no-argument constructor. The constructed
// plugin must embed Base so the host can assign its back-reference.
func NoArg(fn func() (Plugin, error)) Factory {
	return Factory{noArg: fn}
}

// Invalid returns a factory that always reports a contract violation with
// the given reason. Dynamic units use it for classes whose shape was
// rejected at resolution time.
func Invalid(reason string) Factory {
	return Factory{invalid: reason}
}

// Construct adapts a typed host constructor into a Factory.
func Construct[P Plugin](fn func(Host) P) Factory {
	return WithHost(func(h Host) (Plugin, error) {
		return fn(h), nil
	})
}

// New returns a no-arg Factory allocating a zero T.
func New[T any, P interface {
	*T
	Plugin
}]() Factory {
	return NoArg(func() (Plugin, error) {
		return P(new(T)), nil
	})
}

// Shape reports the construction shape of the factory.
func (f Factory) Shape() Shape {
	switch {
	case f.withHost != nil:
		return ShapeHost
	case f.noArg != nil:
		return ShapeNoArg
	default:
		return ShapeNone
	}
}

// errShape carries the reason a construction violated the contract.
type errShape struct{ reason string }

func (e *errShape) Error() string { return e.reason }

// build runs the factory, assigns id and host to the plugin's Base slot and
// checks the resulting id. Panics are recovered.
func (f Factory) build(id string, host Host) (p Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, &errShape{reason: fmt.Sprintf("constructor panicked: %v", r)}
		}
	}()

	switch f.Shape() {
	case ShapeHost:
		p, err = f.withHost(host)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &errShape{reason: "host constructor returned nil"}
		}
		if slot, ok := p.(hostSlot); ok {
			slot.attach(id, host)
		}
	case ShapeNoArg:
		p, err = f.noArg()
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &errShape{reason: "no-arg constructor returned nil"}
		}
		slot, ok := p.(hostSlot)
		if !ok {
			return nil, &errShape{reason: "no-arg plugin has no settable host slot (embed plugin.Base)"}
		}
		slot.attach(id, host)
	default:
		reason := f.invalid
		if reason == "" {
			reason = "no constructor taking the host and no no-arg constructor"
		}
		return nil, &errShape{reason: reason}
	}

	if got := p.ID(); got != id {
		return nil, &errShape{reason: fmt.Sprintf("instance reports id %q, descriptor declares %q", got, id)}
	}
	return p, nil
}
