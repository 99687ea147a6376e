package plugin

// Descriptor declares a plugin class provided by a load unit.
type Descriptor struct {
	// Class is the class name, unique within its unit.
	Class string

	// ID is the plugin id. Defaults to Class.
	ID string

	// Implements lists named supertypes the class is assignable to, used
	// by Registry.FindSingle.
	Implements []string
}

// withDefaults fills in the default id.
func (d Descriptor) withDefaults() Descriptor {
	if d.ID == "" {
		d.ID = d.Class
	}
	return d
}

// Unit is one isolated code location. Units never share class definitions,
// so the same class name may appear in two units without collision.
type Unit interface {
	// Name identifies the unit in errors and logs.
	Name() string

	// Classes returns every class the unit provides, sorted by name.
	Classes() []string

	// Resolve looks up a class. It returns an error wrapping
	// ErrClassNotFound when the unit does not provide it.
	Resolve(class string) (Descriptor, Factory, error)

	// Close releases the unit's resources.
	Close() error
}

// LoadUnit pairs a unit with the classes expected from it.
type LoadUnit struct {
	Unit Unit

	// Classes lists the classes to load, in order. Ignored when
	// DiscoverAll is set.
	Classes []string

	// DiscoverAll loads every class the unit provides.
	DiscoverAll bool
}

// classes returns the class names to resolve for the load unit.
func (lu LoadUnit) classes() []string {
	if lu.DiscoverAll {
		return lu.Unit.Classes()
	}
	return lu.Classes
}
