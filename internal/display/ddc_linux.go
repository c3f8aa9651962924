//go:build linux

package display

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

const (
	i2cSlave      = 0x0703 // I2C_SLAVE ioctl from linux/i2c-dev.h
	ddcReplyDelay = 40 * time.Millisecond
	ddcWriteDelay = 50 * time.Millisecond
)

// i2cMonitor speaks DDC/CI over an i2c-dev character device.
type i2cMonitor struct {
	file *os.File
	info Info
}

// EnumerateI2C returns an Enumerator that opens the DDC bus of every
// connected DRM output found under sysfsDRM (usually /sys/class/drm), using
// device nodes in devDir (usually /dev).
func EnumerateI2C(sysfsDRM, devDir string) Enumerator {
	return func() ([]Monitor, error) {
		connectors, err := scanConnectors(sysfsDRM)
		if err != nil {
			return nil, err
		}
		var (
			monitors []Monitor
			errs     []error
		)
		for _, c := range connectors {
			m, err := openI2C(filepath.Join(devDir, c.bus), c.info)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			monitors = append(monitors, m)
		}
		if len(monitors) == 0 && len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return monitors, nil
	}
}

func openI2C(path string, info Info) (*i2cMonitor, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(int(file.Fd()), i2cSlave, ddcAddress); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("select ddc slave on %s: %w", path, err)
	}
	return &i2cMonitor{file: file, info: info}, nil
}

func (m *i2cMonitor) Info() Info {
	return m.info
}

func (m *i2cMonitor) GetVCP(code byte) (uint16, uint16, error) {
	if _, err := m.file.Write(getVCPRequest(code)); err != nil {
		return 0, 0, fmt.Errorf("vcp %#x: write: %w", code, err)
	}
	time.Sleep(ddcReplyDelay)

	reply := make([]byte, ddcReplyLen)
	n, err := m.file.Read(reply)
	if err != nil {
		return 0, 0, fmt.Errorf("vcp %#x: read: %w", code, err)
	}
	return parseVCPReply(code, reply[:n])
}

func (m *i2cMonitor) SetVCP(code byte, value uint16) error {
	if _, err := m.file.Write(setVCPRequest(code, value)); err != nil {
		return fmt.Errorf("vcp %#x: write: %w", code, err)
	}
	time.Sleep(ddcWriteDelay)
	return nil
}

func (m *i2cMonitor) Close() error {
	return m.file.Close()
}
