// Package netimpair adapts the teacher's comcast-wrapper fault injection
// (pkg/injection/l3l4/comcast_wrapper.go) into a port action with
// PreCheck/Action/Final steps that impairs one Device Port's backing network
// interface and reverts the impairment in Final.
package netimpair

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/jihwankim/caseforge/pkg/resource"
)

// Params mirrors the teacher's l3l4.FaultParams, scoped to one port action.
type Params struct {
	Latency     int
	Jitter      int
	PacketLoss  float64
	Bandwidth   int
	TargetPorts string
	TargetProto string
}

// PortAction applies and then reverts a comcast impairment on a Device Port
// of type "eth" through its PreCheck/Action/Final methods. Its Final returns
// an error, so it does not itself satisfy eventsched.Hooks, and it has no
// Close, so it is not a resource.CommInstance. The port's management
// attribute "iface" names the backing network interface; the port's
// "hwaddr" attribute is only checked with resource.ParseEthernet.
type PortAction struct {
	Port   *resource.Port
	Iface  string
	Params Params

	comcastPath string
}

// NewPortAction validates the port carries a usable interface name and a
// parseable hardware address before returning the action.
func NewPortAction(port *resource.Port, params Params) (*PortAction, error) {
	if port.Type != "eth" {
		return nil, fmt.Errorf("netimpair: port %q is not an eth port", port.Name)
	}
	iface, _ := port.Attrs["iface"].(string)
	if iface == "" {
		return nil, fmt.Errorf("netimpair: port %q missing iface attribute", port.Name)
	}
	if hw, ok := port.Attrs["hwaddr"].(string); ok && hw != "" {
		if _, err := resource.ParseEthernet(hw); err != nil {
			return nil, fmt.Errorf("netimpair: port %q: %w", port.Name, err)
		}
	}
	return &PortAction{Port: port, Iface: iface, Params: params, comcastPath: "comcast"}, nil
}

// PreCheck confirms the comcast binary is reachable before attempting to
// apply the impairment.
func (a *PortAction) PreCheck(ctx context.Context) bool {
	_, err := exec.LookPath(a.comcastPath)
	return err == nil
}

// Action applies the impairment via the comcast CLI, mirroring the
// teacher's buildComcastCommand flag layout.
func (a *PortAction) Action(ctx context.Context) error {
	cmd := a.buildCommand()
	out, err := exec.CommandContext(ctx, cmd[0], cmd[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("netimpair: apply on %s: %w (output: %s)", a.Iface, err, out)
	}
	return nil
}

// Final always reverts the impairment, regardless of whether Action
// succeeded, so a port is never left impaired after the event completes.
func (a *PortAction) Final(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, a.comcastPath, "--device", a.Iface, "--stop").CombinedOutput()
	if err != nil {
		return fmt.Errorf("netimpair: revert on %s: %w (output: %s)", a.Iface, err, out)
	}
	return nil
}

func (a *PortAction) buildCommand() []string {
	cmd := []string{a.comcastPath, "--device", a.Iface}
	if a.Params.Latency > 0 {
		cmd = append(cmd, "--latency", fmt.Sprintf("%d", a.Params.Latency))
	}
	if a.Params.Jitter > 0 {
		cmd = append(cmd, "--jitter", fmt.Sprintf("%d", a.Params.Jitter))
	}
	if a.Params.PacketLoss > 0 {
		cmd = append(cmd, "--packet-loss", fmt.Sprintf("%.2f", a.Params.PacketLoss))
	}
	if a.Params.Bandwidth > 0 {
		cmd = append(cmd, "--bandwidth", fmt.Sprintf("%d", a.Params.Bandwidth))
	}
	if a.Params.TargetPorts != "" {
		cmd = append(cmd, "--target-port", a.Params.TargetPorts)
	}
	if a.Params.TargetProto != "" {
		cmd = append(cmd, "--target-proto", a.Params.TargetProto)
	}
	return cmd
}
