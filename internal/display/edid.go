package display

import (
	"bytes"
	"errors"
	"strings"
)

const (
	edidBlockLen       = 128
	edidDescriptorTag  = 0xFC
	edidDescriptorSize = 18
)

var edidHeader = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// ParseEDID extracts the manufacturer id and monitor name from an EDID base
// block.
func ParseEDID(edid []byte) (manufacturer, model string, err error) {
	if len(edid) < edidBlockLen {
		return "", "", errors.New("edid shorter than one block")
	}
	if !bytes.Equal(edid[:8], edidHeader) {
		return "", "", errors.New("edid header mismatch")
	}

	// Three 5-bit letters, 'A' encoded as 1.
	id := uint16(edid[8])<<8 | uint16(edid[9])
	letters := []byte{
		byte(id>>10&0x1F) + 'A' - 1,
		byte(id>>5&0x1F) + 'A' - 1,
		byte(id&0x1F) + 'A' - 1,
	}
	manufacturer = string(letters)

	for off := 54; off+edidDescriptorSize <= 126; off += edidDescriptorSize {
		d := edid[off : off+edidDescriptorSize]
		if d[0] != 0 || d[1] != 0 || d[3] != edidDescriptorTag {
			continue
		}
		text := d[5:]
		if i := bytes.IndexByte(text, 0x0A); i >= 0 {
			text = text[:i]
		}
		model = strings.TrimSpace(string(text))
		break
	}
	return manufacturer, model, nil
}
