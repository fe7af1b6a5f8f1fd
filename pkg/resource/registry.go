package resource

import "fmt"

// CommInstance is a device's communication handle, returned by a registered
// factory. Connect is optional — the pre-connect sweep only calls it when
// the concrete instance implements this interface.
type CommInstance interface {
	Close() error
}

// Connectable is implemented by CommInstance values that need an explicit
// connect step (spec §4.B pre-connect sweep: "connect() invoked if it
// exists on the instance").
type Connectable interface {
	Connect() error
}

// CommFactory builds a CommInstance for a device. Concrete factories (see
// dockercomm, kurtosiscomm) are registered per device/port type.
type CommFactory func(d *Device) (CommInstance, error)

// Registry is an explicit context object (REDESIGN FLAG) replacing the
// original's two process-wide mappings (device-type -> factory, port-type
// -> factory). Each Pool is bound to one Registry at construction time, so
// tests can use private registries instead of mutating process globals.
type Registry struct {
	deviceFactories map[string]CommFactory
	portFactories   map[string]CommFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		deviceFactories: map[string]CommFactory{},
		portFactories:   map[string]CommFactory{},
	}
}

// RegisterDeviceFactory associates a device type with a communication
// instance factory.
func (r *Registry) RegisterDeviceFactory(deviceType string, f CommFactory) {
	r.deviceFactories[deviceType] = f
}

// RegisterPortFactory associates a port type with a communication instance
// factory, looked up by GetPortCommInstance.
func (r *Registry) RegisterPortFactory(portType string, f CommFactory) {
	r.portFactories[portType] = f
}

// GetCommInstance returns the device's cached instance, or instantiates one
// via the registered device-type factory. Passing fresh=true forces
// recreation even if a cached instance exists.
func (p *Pool) GetCommInstance(d *Device, fresh bool) (CommInstance, error) {
	if !fresh && d.commInstance != nil {
		return d.commInstance, nil
	}
	if p.registry == nil {
		return nil, fmt.Errorf("resource: pool has no registry bound")
	}
	factory, ok := p.registry.deviceFactories[d.Type]
	if !ok {
		return nil, fmt.Errorf("resource: no comm factory registered for device type %q", d.Type)
	}
	inst, err := factory(d)
	if err != nil {
		return nil, fmt.Errorf("resource: comm factory for %q: %w", d.Name, err)
	}
	d.commInstance = inst
	return inst, nil
}

// GetPortCommInstance resolves a port-type factory against the port's
// parent device. Unlike GetCommInstance, the result is not cached.
func (p *Pool) GetPortCommInstance(port *Port) (CommInstance, error) {
	if p.registry == nil {
		return nil, fmt.Errorf("resource: pool has no registry bound")
	}
	factory, ok := p.registry.portFactories[port.Type]
	if !ok {
		return nil, fmt.Errorf("resource: no comm factory registered for port type %q", port.Type)
	}
	d := p.DeviceAt(port.Parent)
	return factory(d)
}
