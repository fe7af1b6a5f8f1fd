package resource

import "github.com/jihwankim/caseforge/pkg/engineerr"

// Constraint is a predicate over a Device plus a human description, used by
// CollectDevice/CollectAllDevice.
type Constraint interface {
	IsMeet(d *Device) bool
	Description() string
}

// ConnectionConstraint additionally exposes the traversed remote endpoints
// that satisfied it. An empty result (nil, no error) means the constraint
// failed to find a match.
type ConnectionConstraint interface {
	Constraint
	GetConnection(p *Pool, d *Device) []*Port
}

// CollectDevice iterates devices of the given type in insertion order and
// returns the first count whose every non-connection constraint is met.
// count=0 yields an empty (non-nil) slice.
func (p *Pool) CollectDevice(deviceType string, count int, constraints []Constraint) []*Device {
	out := make([]*Device, 0, count)
	if count <= 0 {
		return out
	}
	for _, d := range p.devices {
		if d.Type != deviceType {
			continue
		}
		met := true
		for _, c := range constraints {
			if _, isConn := c.(ConnectionConstraint); isConn {
				continue
			}
			if !c.IsMeet(d) {
				met = false
				break
			}
		}
		if !met {
			continue
		}
		out = append(out, d)
		if len(out) == count {
			break
		}
	}
	return out
}

// CollectAllDevice returns every device of the given type meeting every
// constraint.
func (p *Pool) CollectAllDevice(deviceType string, constraints []Constraint) []*Device {
	var out []*Device
	for _, d := range p.devices {
		if d.Type != deviceType {
			continue
		}
		if meetsAll(d, constraints) {
			out = append(out, d)
		}
	}
	return out
}

func meetsAll(d *Device, constraints []Constraint) bool {
	for _, c := range constraints {
		if !c.IsMeet(d) {
			return false
		}
	}
	return true
}

// CollectConnectionRoute requires every constraint to be a
// ConnectionConstraint; it returns the concatenation of their
// GetConnection(device) results. If any constraint yields no match, it
// fails with engineerr.ErrConstraintNotMet.
func (p *Pool) CollectConnectionRoute(d *Device, constraints []ConnectionConstraint) ([]*Port, error) {
	var out []*Port
	for _, c := range constraints {
		got := c.GetConnection(p, d)
		if len(got) == 0 {
			return nil, engineerr.ErrConstraintNotMet
		}
		out = append(out, got...)
	}
	return out, nil
}

// ---- concrete constraints grounded on original_source/product/resource/constraint.py ----

// PhoneMustBeAndroid checks a device attribute "os" == "android".
type PhoneMustBeAndroid struct{}

func (PhoneMustBeAndroid) IsMeet(d *Device) bool {
	os, _ := d.Attrs["os"].(string)
	return os == "android"
}
func (PhoneMustBeAndroid) Description() string { return "phone must run Android" }

// DeviceMustHaveTrafficGeneratorConnected is a connection constraint: it
// requires the device to have at least one port whose remote end belongs
// to a "traffic_generator" typed device, optionally filtered by further
// embedded constraints on that remote device (e.g. speed).
type DeviceMustHaveTrafficGeneratorConnected struct {
	// Embedded constraints evaluated against the remote traffic-generator
	// device (e.g. TrafficGeneratorSpeedMustBeGreaterThan).
	RemoteConstraints []Constraint
}

func (c DeviceMustHaveTrafficGeneratorConnected) IsMeet(d *Device) bool {
	return false // a plain (non-connection) IsMeet is never queried for this type; presence is only meaningful via GetConnection.
}

func (c DeviceMustHaveTrafficGeneratorConnected) Description() string {
	return "device must have a traffic generator connected"
}

func (c DeviceMustHaveTrafficGeneratorConnected) GetConnection(p *Pool, d *Device) []*Port {
	var matches []*Port
	for _, portName := range d.PortOrder {
		portIdx := d.Ports[portName]
		port := p.PortAt(portIdx)
		for _, remote := range p.RemotePorts(port) {
			remoteDevice := p.DeviceAt(remote.Parent)
			if remoteDevice.Type != "traffic_generator" {
				continue
			}
			if meetsAll(remoteDevice, c.RemoteConstraints) {
				matches = append(matches, remote)
			}
		}
	}
	return matches
}

// TrafficGeneratorSpeedMustBeGreaterThan checks a device attribute "speed"
// (stored as int or float64) against a threshold (speed >= threshold). The name preserves the
// original source's own "Grater" misspelling only in this doc comment, not
// in the identifier, per the grounding ledger's note on texture fidelity.
type TrafficGeneratorSpeedMustBeGreaterThan struct {
	Threshold float64
}

func (c TrafficGeneratorSpeedMustBeGreaterThan) IsMeet(d *Device) bool {
	switch v := d.Attrs["speed"].(type) {
	case float64:
		return v >= c.Threshold
	case int:
		return float64(v) >= c.Threshold
	default:
		return false
	}
}

func (c TrafficGeneratorSpeedMustBeGreaterThan) Description() string {
	return "traffic generator speed must be at least threshold"
}

// ApMustHaveStaConnected is the connection-constraint algebra's canonical
// example (spec §4.B, scenario S2): find a local WIFI port, enumerate
// remote STA devices that satisfy StaConstraints, then re-enter
// connection-traversal on each qualified STA using StaConnectionConstraints
// (e.g. requiring a traffic generator at a minimum speed); keep only STAs
// for which every embedded connection constraint yields at least one match,
// and stop after StaCount are collected.
type ApMustHaveStaConnected struct {
	WifiPortType              string
	StaDeviceType             string
	StaConstraints            []Constraint
	StaConnectionConstraints  []ConnectionConstraint
	StaCount                  int
}

func (c ApMustHaveStaConnected) IsMeet(d *Device) bool { return false }

func (c ApMustHaveStaConnected) Description() string {
	return "AP must have the requested number of qualified STAs connected"
}

// StaMatch pairs a qualified STA's AP-facing port with the nested
// connections its own connection constraints discovered (e.g. its
// traffic-generator port).
type StaMatch struct {
	STAPort     *Port
	Nested      []*Port
}

// GetConnection implements ConnectionConstraint by returning only the
// direct STA ports (for composability with CollectConnectionRoute); use
// Collect for the full (endpoint, nested) pairs scenario S2 asks for.
func (c ApMustHaveStaConnected) GetConnection(p *Pool, d *Device) []*Port {
	matches := c.Collect(p, d)
	out := make([]*Port, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.STAPort)
	}
	return out
}

// Collect performs the full traversal described above, returning up to
// StaCount (endpoint, nested-connections) pairs.
func (c ApMustHaveStaConnected) Collect(p *Pool, ap *Device) []StaMatch {
	var out []StaMatch
	for _, portName := range ap.PortOrder {
		if len(out) == c.StaCount {
			break
		}
		portIdx := ap.Ports[portName]
		wifiPort := p.PortAt(portIdx)
		if wifiPort.Type != c.WifiPortType {
			continue
		}
		for _, remote := range p.RemotePorts(wifiPort) {
			if len(out) == c.StaCount {
				break
			}
			sta := p.DeviceAt(remote.Parent)
			if sta.Type != c.StaDeviceType {
				continue
			}
			if !meetsAll(sta, c.StaConstraints) {
				continue
			}
			nested, err := p.CollectConnectionRoute(sta, c.StaConnectionConstraints)
			if err != nil {
				continue
			}
			out = append(out, StaMatch{STAPort: remote, Nested: nested})
		}
	}
	return out
}
