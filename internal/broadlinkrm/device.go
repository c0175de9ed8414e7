// Package broadlinkrm talks to Broadlink RM devices on the local network and
// implements the capture.Learner collaborator: discover, authenticate, listen
// for one IR code at a time, and transmit learned codes.
package broadlinkrm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/mixcode/broadlink"

	"git.home.luguber.info/inful/irlisten/internal/capture"
	"git.home.luguber.info/inful/irlisten/internal/config"
	"git.home.luguber.info/inful/irlisten/internal/retry"
)

// Info describes one discovered device, in the shape the config file wants.
type Info struct {
	Type     uint16
	TypeName string
	Addr     string
	MAC      string
}

// TypeID renders the device type the way config expects it ("0x2712").
func (i Info) TypeID() string {
	return fmt.Sprintf("0x%x", i.Type)
}

// Discover broadcasts on all local interfaces and returns every Broadlink
// device that answers within the timeout.
func Discover(timeout time.Duration) ([]Info, error) {
	devs, err := broadlink.DiscoverDevices(timeout, 0)
	if err != nil {
		return nil, fmt.Errorf("device discovery failed: %w", err)
	}

	infos := make([]Info, 0, len(devs))
	for _, d := range devs {
		model, _ := d.DeviceName()
		infos = append(infos, Info{
			Type:     d.Type,
			TypeName: model,
			Addr:     d.UDPAddr.String(),
			MAC:      net.HardwareAddr(d.MACAddr).String(),
		})
	}
	return infos, nil
}

// Device is an authenticated Broadlink device handle. It is not safe for
// concurrent use; the orchestrator holds it exclusively.
type Device struct {
	dev  *broadlink.Device
	name string
	poll time.Duration
}

// Connect builds a device handle from the configured identity and
// authenticates with it, retrying transient failures per the policy.
func Connect(devCfg config.DeviceConfig, capCfg config.CaptureConfig, pol retry.Policy) (*Device, error) {
	typeID, err := strconv.ParseUint(devCfg.Type, 0, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device type %q: %w", devCfg.Type, err)
	}
	mac, err := net.ParseMAC(devCfg.MAC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MAC address: %w", err)
	}
	udpAddr, err := net.ResolveUDPAddr("udp", devCfg.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device address: %w", err)
	}

	dev := &broadlink.Device{
		Type:    uint16(typeID),
		MACAddr: mac,
		UDPAddr: *udpAddr,
	}
	dev.Timeout = capCfg.AuthTimeout

	hostname, _ := os.Hostname() // Your local machine's name.
	deviceID := make([]byte, 15) // Must be 15 bytes long.

	for attempt := 0; ; attempt++ {
		if err = dev.Auth(deviceID, hostname); err == nil {
			break
		}
		if attempt >= pol.MaxRetries {
			return nil, fmt.Errorf("failed to authenticate with device at %s: %w", devCfg.Host, err)
		}
		time.Sleep(pol.Delay(attempt + 1))
	}

	name, _ := dev.DeviceName()
	return &Device{dev: dev, name: name, poll: capCfg.PollInterval}, nil
}

// Name returns the device model name, if known.
func (d *Device) Name() string {
	return d.name
}

// AwaitCapture puts the device into learning mode and polls until a code
// arrives, the timeout elapses, or ctx is cancelled. It is the orchestrator's
// single suspension point, so cancellation must unblock it deterministically.
func (d *Device) AwaitCapture(ctx context.Context, timeout time.Duration) (capture.Result, error) {
	if err := d.dev.StartCaptureRemoteControlCode(); err != nil {
		return capture.Result{}, fmt.Errorf("failed to enter learning mode: %w", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(d.poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return capture.Result{}, ctx.Err()
		case <-deadline.C:
			return capture.Result{Outcome: capture.TimedOut}, nil
		case <-tick.C:
			_, data, err := d.dev.ReadCapturedRemoteControlCode()
			if err != nil {
				// Nothing captured yet; keep polling until the deadline.
				continue
			}
			if len(data) == 0 {
				return capture.Result{Outcome: capture.NoSignal}, nil
			}
			return capture.Result{
				Outcome: capture.Captured,
				Code:    base64.StdEncoding.EncodeToString(data),
			}, nil
		}
	}
}

// Send transmits a previously learned code once.
func (d *Device) Send(code string) error {
	data, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return fmt.Errorf("failed to decode IR code: %w", err)
	}
	if err := d.dev.SendIRRemoteCode(data, 1); err != nil {
		return fmt.Errorf("IR code send failure: %w", err)
	}
	return nil
}
