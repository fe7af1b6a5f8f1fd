// Package resource implements the engine's device/port topology: an
// arena-and-index model (REDESIGN FLAG, replacing the original's cyclic
// object references), constraint-based selection including connection
// traversal, and a file-based exclusive reservation protocol.
package resource

import (
	"fmt"
	"sort"
)

// DeviceIndex and PortIndex are arena offsets. Using indices instead of
// pointers for remote-port references makes Pool trivially serializable and
// removes back-pointer ownership ambiguity (cyclic port<->port,
// port->device, device->ports references in the original model).
type DeviceIndex int
type PortIndex int

// PortRef names a (device, port) pair by name, the wire-format identity used
// in the JSON resource file's remote_ports lists.
type PortRef struct {
	Device string
	Port   string
}

// Port belongs to exactly one parent device and holds a set of remote port
// indices modelling an undirected, potentially many-to-many link graph.
type Port struct {
	Name        string
	Type        string
	Description string
	Parent      DeviceIndex
	Remote      map[PortIndex]struct{}
	Attrs       map[string]any
}

// Device is a named node with a type, free-form attributes, a pre-connect
// flag, and an ordered mapping from port name to Port index.
type Device struct {
	Name       string
	Type       string
	Attrs      map[string]any
	PreConnect bool

	// PortOrder preserves insertion order (map iteration order in Go is
	// unspecified, and spec §4.B's selection requires insertion order).
	PortOrder []string
	Ports     map[string]PortIndex

	commInstance CommInstance
}

// Pool is the arena: every Device and Port lives here, referenced by index.
// Invariant: after Load, every remote_port reference resolves to an
// existing (device, port) pair, and the link graph is symmetric.
type Pool struct {
	Path        string
	Info        map[string]any
	Reservation *Reservation

	devices     []*Device
	ports       []*Port
	deviceIndex map[string]DeviceIndex

	registry *Registry
}

// NewPool creates an empty pool bound to the given factory registry.
func NewPool(reg *Registry) *Pool {
	return &Pool{
		Info:        map[string]any{},
		deviceIndex: map[string]DeviceIndex{},
		registry:    reg,
	}
}

// Device looks up a device by name.
func (p *Pool) Device(name string) (*Device, DeviceIndex, bool) {
	idx, ok := p.deviceIndex[name]
	if !ok {
		return nil, 0, false
	}
	return p.devices[idx], idx, true
}

// DeviceAt returns the device stored at idx.
func (p *Pool) DeviceAt(idx DeviceIndex) *Device { return p.devices[idx] }

// PortAt returns the port stored at idx.
func (p *Pool) PortAt(idx PortIndex) *Port { return p.ports[idx] }

// Devices returns all devices in insertion order, the order required by
// §4.B's collect_device scan.
func (p *Pool) Devices() []*Device {
	return p.devices
}

// AddDiscoveredDevice appends a device with no ports, for callers that
// materialize a pool from live service discovery (see kurtosiscomm) rather
// than from the JSON resource file.
func (p *Pool) AddDiscoveredDevice(name, deviceType string, attrs map[string]any) *Device {
	d := &Device{
		Name:  name,
		Type:  deviceType,
		Attrs: attrs,
		Ports: map[string]PortIndex{},
	}
	p.addDevice(d)
	return d
}

// addDevice appends a new device to the arena and indexes it by name.
func (p *Pool) addDevice(d *Device) DeviceIndex {
	idx := DeviceIndex(len(p.devices))
	p.devices = append(p.devices, d)
	p.deviceIndex[d.Name] = idx
	return idx
}

// addPort appends a new port to the arena, bound to the given parent
// device, and registers it on that device's port map.
func (p *Pool) addPort(parent DeviceIndex, port *Port) PortIndex {
	idx := PortIndex(len(p.ports))
	port.Parent = parent
	p.ports = append(p.ports, port)
	d := p.devices[parent]
	d.PortOrder = append(d.PortOrder, port.Name)
	d.Ports[port.Name] = idx
	return idx
}

// Port looks up a (device, port) pair by name.
func (p *Pool) Port(deviceName, portName string) (*Port, PortIndex, error) {
	d, _, ok := p.Device(deviceName)
	if !ok {
		return nil, 0, fmt.Errorf("resource: unknown device %q", deviceName)
	}
	idx, ok := d.Ports[portName]
	if !ok {
		return nil, 0, fmt.Errorf("resource: device %q has no port %q", deviceName, portName)
	}
	return p.ports[idx], idx, nil
}

// RemotePorts resolves a port's remote-port index set to Port pointers, in
// a deterministic order (index order).
func (p *Pool) RemotePorts(port *Port) []*Port {
	idxs := make([]PortIndex, 0, len(port.Remote))
	for idx := range port.Remote {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	out := make([]*Port, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, p.ports[idx])
	}
	return out
}
