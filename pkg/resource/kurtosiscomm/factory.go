// Package kurtosiscomm provides a resource.CommFactory backed by a live
// Kurtosis enclave, grounded on the teacher's pkg/discovery/kurtosis/discovery.go.
// It gives Resource Devices of type "kurtosis-service" a communication
// instance resolved from enclave service discovery, and offers an
// alternative to loading the JSON resource file by discovering devices
// directly from a running enclave.
package kurtosiscomm

import (
	"context"
	"fmt"

	"github.com/kurtosis-tech/kurtosis/api/golang/core/lib/enclaves"
	"github.com/kurtosis-tech/kurtosis/api/golang/core/lib/services"
	kurtosis_context "github.com/kurtosis-tech/kurtosis/api/golang/engine/lib/kurtosis_context"

	"github.com/jihwankim/caseforge/pkg/resource"
)

// Instance holds a resolved service's management endpoint.
type Instance struct {
	serviceName string
	ip          string
	ports       map[string]uint16
}

// Connect is a no-op: Kurtosis-discovered services are already running by
// the time they are resolved, so there is nothing further to dial here —
// callers reach the service directly via IP/port.
func (i *Instance) Connect() error { return nil }

// Close is a no-op: Instance holds no owned resources of its own.
func (i *Instance) Close() error { return nil }

// Endpoint returns the resolved IP and named port, if present.
func (i *Instance) Endpoint(portName string) (string, uint16, bool) {
	p, ok := i.ports[portName]
	return i.ip, p, ok
}

// Factory resolves service instances from a Kurtosis enclave context.
type Factory struct {
	enclaveCtx *enclaves.EnclaveContext
}

// NewFactory wraps an already-connected enclave context.
func NewFactory(enclaveCtx *enclaves.EnclaveContext) *Factory {
	return &Factory{enclaveCtx: enclaveCtx}
}

// Build implements resource.CommFactory for devices whose Attrs carry a
// "service_name" key naming a Kurtosis service in the bound enclave.
func (f *Factory) Build(d *resource.Device) (resource.CommInstance, error) {
	name, _ := d.Attrs["service_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("kurtosiscomm: device %q missing service_name attribute", d.Name)
	}
	svc, err := f.enclaveCtx.GetServiceContext(services.ServiceName(name))
	if err != nil {
		return nil, fmt.Errorf("kurtosiscomm: resolve service %q: %w", name, err)
	}
	ports := map[string]uint16{}
	for portID, spec := range svc.GetPublicPorts() {
		ports[portID] = spec.GetNumber()
	}
	return &Instance{serviceName: name, ip: svc.GetMaybePublicIPAddress(), ports: ports}, nil
}

// DiscoverFromEnclave materializes a Resource Pool's device set directly
// from live Kurtosis service discovery, as an alternative to LoadPool's
// JSON file path. Each enclave service becomes a "kurtosis-service" typed
// device with no ports; the pool is not merged with a JSON resource file's
// topology.
func DiscoverFromEnclave(ctx context.Context, enclaveName string, reg *resource.Registry) (*resource.Pool, error) {
	kCtx, err := kurtosis_context.NewKurtosisContextFromLocalEngine()
	if err != nil {
		return nil, fmt.Errorf("kurtosiscomm: connect to kurtosis engine: %w", err)
	}
	enclaveCtx, err := kCtx.GetEnclaveContext(ctx, enclaveName)
	if err != nil {
		return nil, fmt.Errorf("kurtosiscomm: resolve enclave %q: %w", enclaveName, err)
	}

	pool := resource.NewPool(reg)
	pool.Path = "kurtosis://" + enclaveName

	serviceIdentifiers, err := enclaveCtx.GetServices()
	if err != nil {
		return nil, fmt.Errorf("kurtosiscomm: list services: %w", err)
	}
	for name := range serviceIdentifiers {
		pool.AddDiscoveredDevice(string(name), "kurtosis-service", map[string]any{"service_name": string(name)})
	}
	return pool, nil
}
