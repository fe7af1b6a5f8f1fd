package resource

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// minEthernetFrameBytes is the minimum length the original source's
// Ethernet.parse implicitly assumed (14-byte header + 4-byte minimum
// payload, matching the smallest valid Ethernet II frame before padding).
const minEthernetFrameBytes = 18

// ParseEthernet decodes a hex-encoded Ethernet frame, resolving §9 open
// question (d): rather than leaving "does the wire path ever call with
// fewer than 18 bytes" ambiguous, this validates the minimum length
// explicitly and returns an error instead of silently truncating or
// panicking.
func ParseEthernet(hexStr string) ([]byte, error) {
	hexStr = strings.TrimPrefix(strings.TrimSpace(hexStr), "0x")
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("resource: invalid ethernet hex string: %w", err)
	}
	if len(raw) < minEthernetFrameBytes {
		return nil, fmt.Errorf("resource: ethernet frame too short: got %d bytes, need at least %d", len(raw), minEthernetFrameBytes)
	}
	return raw, nil
}
