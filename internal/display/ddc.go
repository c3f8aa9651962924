package display

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DDC/CI framing (VESA DDC/CI 1.1).
const (
	ddcAddress      = 0x37 // 7-bit i2c slave address of the display
	ddcHostAddress  = 0x51
	ddcDisplayWrite = 0x6E
	ddcReplyXOR     = 0x50
	ddcGetVCP       = 0x01
	ddcGetVCPReply  = 0x02
	ddcSetVCP       = 0x03
	ddcReplyLen     = 11
)

// ddcChecksum XORs seed with every byte of msg.
func ddcChecksum(seed byte, msg []byte) byte {
	sum := seed
	for _, b := range msg {
		sum ^= b
	}
	return sum
}

// ddcFrame wraps payload with the host address, length byte and checksum.
func ddcFrame(payload ...byte) []byte {
	msg := make([]byte, 0, len(payload)+3)
	msg = append(msg, ddcHostAddress, 0x80|byte(len(payload)))
	msg = append(msg, payload...)
	return append(msg, ddcChecksum(ddcDisplayWrite, msg))
}

func getVCPRequest(code byte) []byte {
	return ddcFrame(ddcGetVCP, code)
}

func setVCPRequest(code byte, value uint16) []byte {
	return ddcFrame(ddcSetVCP, code, byte(value>>8), byte(value))
}

// parseVCPReply validates a Get VCP Feature reply for code.
func parseVCPReply(code byte, reply []byte) (current, max uint16, err error) {
	if len(reply) < ddcReplyLen {
		return 0, 0, fmt.Errorf("vcp %#x: short reply (%d bytes)", code, len(reply))
	}
	reply = reply[:ddcReplyLen]
	if want := ddcChecksum(ddcReplyXOR, reply[:ddcReplyLen-1]); reply[ddcReplyLen-1] != want {
		return 0, 0, fmt.Errorf("vcp %#x: checksum %#x, want %#x", code, reply[ddcReplyLen-1], want)
	}
	if reply[2] != ddcGetVCPReply {
		return 0, 0, fmt.Errorf("vcp %#x: unexpected opcode %#x", code, reply[2])
	}
	if reply[3] != 0 {
		return 0, 0, fmt.Errorf("vcp %#x: unsupported by display (result %#x)", code, reply[3])
	}
	if reply[4] != code {
		return 0, 0, fmt.Errorf("vcp %#x: reply is for %#x", code, reply[4])
	}
	max = uint16(reply[6])<<8 | uint16(reply[7])
	current = uint16(reply[8])<<8 | uint16(reply[9])
	return current, max, nil
}

// connector is a connected DRM output that exposes a DDC bus.
type connector struct {
	info Info
	bus  string // i2c-N
}

// scanConnectors lists connected DRM connectors under sysfsDRM that have a
// ddc link, sorted by name.
func scanConnectors(sysfsDRM string) ([]connector, error) {
	entries, err := os.ReadDir(sysfsDRM)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sysfsDRM, err)
	}

	var found []connector
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "card") || !strings.Contains(name, "-") {
			continue
		}
		dir := filepath.Join(sysfsDRM, name)

		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}
		link, err := os.Readlink(filepath.Join(dir, "ddc"))
		if err != nil {
			continue
		}

		info := Info{ID: name}
		if edid, err := os.ReadFile(filepath.Join(dir, "edid")); err == nil {
			info.Manufacturer, info.Model, _ = ParseEDID(edid)
		}
		found = append(found, connector{info: info, bus: filepath.Base(link)})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].info.ID < found[j].info.ID })
	return found, nil
}
