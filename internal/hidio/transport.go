package hidio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sstallion/go-hid"
	"go.uber.org/zap"

	"github.com/g6audio/g6ctl/internal/logging"
	"github.com/g6audio/g6ctl/internal/protocol"
)

// ErrDeviceGone reports that the underlying HID handle is no longer usable
// because the device was unplugged. It is terminal for the session.
var ErrDeviceGone = errors.New("device removed")

// ErrNotFound reports that no matching HID interface was enumerated
var ErrNotFound = errors.New("device not found")

// Transport is a serialized frame channel to one HID interface. Exactly one
// logical owner may call Write/Read at a time; the manager serializes access.
type Transport interface {
	// Write sends one 64-byte frame, prepending the report id
	Write(frame []byte) error
	// Read returns the next inbound report, or (nil, nil) on timeout.
	// Timeouts are routine, not failures.
	Read(timeout time.Duration) ([]byte, error)
	Close() error
}

// Opener produces a Transport. Openers are injectable so tests can swap in
// mock transports without touching HID.
type Opener func() (Transport, error)

// DeviceTransport is a Transport over a hidapi device handle
type DeviceTransport struct {
	mu     sync.Mutex
	dev    *hid.Device
	path   string
	logger *zap.Logger
}

// OpenInterface enumerates HID interfaces for the given vendor/product pair
// and opens the one with the requested interface number.
func OpenInterface(vendorID, productID uint16, ifaceNum int) (*DeviceTransport, error) {
	var path string
	err := hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		if info.InterfaceNbr == ifaceNum {
			path = info.Path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("HID enumeration failed: %w", err)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %04x:%04x interface %d", ErrNotFound, vendorID, productID, ifaceNum)
	}

	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	logger := logging.GetLogger().With(
		zap.String("path", path),
		zap.Int("interface", ifaceNum),
	)
	logger.Debug("HID interface opened")

	return &DeviceTransport{
		dev:    dev,
		path:   path,
		logger: logger,
	}, nil
}

// ControlOpener returns an Opener for the G6 command interface
func ControlOpener() Opener {
	return func() (Transport, error) {
		return OpenInterface(protocol.VendorID, protocol.ProductID, protocol.ControlInterface)
	}
}

// StatusOpener returns an Opener for the button/relay broadcast interface
func StatusOpener() Opener {
	return func() (Transport, error) {
		return OpenInterface(protocol.VendorID, protocol.ProductID, protocol.StatusInterface)
	}
}

// KnobOpener returns an Opener for the volume wheel broadcast interface
func KnobOpener() Opener {
	return func() (Transport, error) {
		return OpenInterface(protocol.VendorID, protocol.ProductID, protocol.KnobInterface)
	}
}

// Write sends one frame with the report id prepended. Omitting the report id
// would shift every payload byte, so the prepend lives here rather than with
// each caller.
func (t *DeviceTransport) Write(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return ErrDeviceGone
	}

	wire := protocol.WithReportID(frame)
	logging.LogFrame("write", frame)

	n, err := t.dev.Write(wire)
	if err != nil {
		if isRemovalError(err) {
			return fmt.Errorf("%w: %v", ErrDeviceGone, err)
		}
		return fmt.Errorf("HID write failed: %w", err)
	}
	if n != len(wire) {
		return fmt.Errorf("short HID write: %d of %d bytes", n, len(wire))
	}
	return nil
}

// Read returns the next inbound report or (nil, nil) when the timeout
// elapses with nothing pending. Interrupted system calls are retried;
// without that, a signal mid-read surfaces as a spurious error.
func (t *DeviceTransport) Read(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil, ErrDeviceGone
	}

	buf := make([]byte, protocol.FrameSize)
	for {
		n, err := t.dev.ReadWithTimeout(buf, timeout)
		if err != nil {
			if strings.Contains(err.Error(), "Interrupted system call") {
				continue
			}
			if isRemovalError(err) {
				return nil, fmt.Errorf("%w: %v", ErrDeviceGone, err)
			}
			return nil, fmt.Errorf("HID read failed: %w", err)
		}
		if n == 0 {
			return nil, nil
		}
		data := buf[:n]
		logging.LogFrame("read", data)
		return data, nil
	}
}

// Close releases the HID handle. Safe to call more than once.
func (t *DeviceTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil
	}
	err := t.dev.Close()
	t.dev = nil
	t.logger.Debug("HID interface closed")
	return err
}

// isRemovalError reports whether a hidapi error indicates the device was
// disconnected rather than a transient failure.
func isRemovalError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "No such device") ||
		strings.Contains(msg, "device disconnected") ||
		strings.Contains(msg, "not connected")
}

// DeviceInfo describes one enumerated G6 HID interface
type DeviceInfo struct {
	Path         string
	SerialNumber string
	Product      string
	Interface    int
}

// ListDevices enumerates all G6 HID interfaces currently attached
func ListDevices() ([]DeviceInfo, error) {
	var devices []DeviceInfo
	err := hid.Enumerate(protocol.VendorID, protocol.ProductID, func(info *hid.DeviceInfo) error {
		devices = append(devices, DeviceInfo{
			Path:         info.Path,
			SerialNumber: info.SerialNbr,
			Product:      info.ProductStr,
			Interface:    info.InterfaceNbr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("HID enumeration failed: %w", err)
	}
	return devices, nil
}
