package resource

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jihwankim/caseforge/pkg/engineerr"
)

// wirePortRef mirrors the JSON resource file's remote_ports entries.
type wirePortRef struct {
	Device string `json:"device"`
	Port   string `json:"port"`
}

type wirePort struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Description *string       `json:"description"`
	RemotePorts []wirePortRef `json:"remote_ports"`
}

type wireDevice struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Description *string             `json:"description"`
	PreConnect  bool                `json:"pre_connect"`
	Ports       map[string]wirePort `json:"ports"`
	Attrs       map[string]any      `json:"-"`
}

type wireReservation struct {
	Owner string `json:"owner"`
	Date  string `json:"date"`
}

type wireFile struct {
	Info     map[string]any          `json:"info"`
	Reserved *wireReservation        `json:"reserved"`
	Devices  map[string]wireDeviceEx `json:"devices"`
}

// wireDeviceEx captures the documented custom attrs alongside the fixed
// fields by decoding twice: once into the fixed shape, once into a raw map
// with the fixed keys removed.
type wireDeviceEx struct {
	wireDevice
	Raw map[string]json.RawMessage `json:"-"`
}

func (d *wireDeviceEx) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &d.wireDevice); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{"name", "type", "description", "pre_connect", "ports"} {
		delete(raw, known)
	}
	d.Raw = raw
	return nil
}

// LoadPool parses the JSON resource file at path, binds it to reg, resolves
// every remote_port reference, fixes up link symmetry (a->b implies b->a),
// and runs the pre-connect sweep. If owner is non-empty and the file
// carries a reservation held by a different owner, LoadPool fails with
// engineerr.ErrResourceReservedByOther and does not mutate the pool.
func LoadPool(path string, reg *Registry, owner string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: %w: %v", engineerr.ErrResourceLoad, err)
	}
	var wf wireFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("resource: %w: %v", engineerr.ErrResourceLoad, err)
	}

	if wf.Reserved != nil && owner != "" && wf.Reserved.Owner != owner {
		return nil, fmt.Errorf("resource: %w: held by %q", engineerr.ErrResourceReservedByOther, wf.Reserved.Owner)
	}

	p := NewPool(reg)
	p.Path = path
	if wf.Info != nil {
		p.Info = wf.Info
	}
	if wf.Reserved != nil {
		p.Reservation = &Reservation{Owner: wf.Reserved.Owner, Timestamp: wf.Reserved.Date}
	}

	// First pass: create every device and its ports so name resolution in
	// the second pass always succeeds regardless of declaration order.
	type pendingLink struct {
		fromIdx PortIndex
		to      wirePortRef
	}
	var pending []pendingLink

	for name, wd := range wf.Devices {
		attrs := map[string]any{}
		for k, raw := range wd.Raw {
			var v any
			if err := json.Unmarshal(raw, &v); err == nil {
				attrs[k] = v
			}
		}
		d := &Device{
			Name:       name,
			Type:       wd.Type,
			Attrs:      attrs,
			PreConnect: wd.PreConnect,
			Ports:      map[string]PortIndex{},
		}
		p.addDevice(d)
	}

	for name, wd := range wf.Devices {
		dIdx := p.deviceIndex[name]
		for pname, wp := range wd.Ports {
			port := &Port{
				Name:   pname,
				Type:   wp.Type,
				Remote: map[PortIndex]struct{}{},
			}
			if wp.Description != nil {
				port.Description = *wp.Description
			}
			pIdx := p.addPort(dIdx, port)
			for _, ref := range wp.RemotePorts {
				pending = append(pending, pendingLink{fromIdx: pIdx, to: ref})
			}
		}
	}

	for _, link := range pending {
		remote, remoteIdx, err := p.Port(link.to.Device, link.to.Port)
		if err != nil {
			return nil, fmt.Errorf("resource: %w: %v", engineerr.ErrResourceLoad, err)
		}
		fromPort := p.ports[link.fromIdx]
		fromPort.Remote[remoteIdx] = struct{}{}
		// Symmetry fixup: a->b implies b->a, even if the file only declared
		// one direction.
		remote.Remote[link.fromIdx] = struct{}{}
		_ = remote
	}

	preConnectSweep(p)

	return p, nil
}

// preConnectSweep calls GetCommInstance + Connect (if implemented) for
// every pre_connect device. Failures are logged-and-swallowed per §4.B: the
// pool is only flagged unusable by the caller on reserved-by/parse errors.
func preConnectSweep(p *Pool) {
	for _, d := range p.devices {
		if !d.PreConnect {
			continue
		}
		inst, err := p.GetCommInstance(d, false)
		if err != nil {
			log.Warn().Str("device", d.Name).Err(err).Msg("pre-connect: comm instance unavailable")
			continue
		}
		if c, ok := inst.(Connectable); ok {
			if err := c.Connect(); err != nil {
				log.Warn().Str("device", d.Name).Err(err).Msg("pre-connect: connect failed")
			}
		}
	}
}
