package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNilProvider is returned when a nil DeviceHandle is passed.
	ErrNilProvider = errors.New("render: nil device provider")

	// ErrNoHAL is returned when a provider does not expose HAL types.
	ErrNoHAL = errors.New("render: provider does not expose HAL device and queue")
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (for example a gogpu.App) implements DeviceHandle and passes it
// to the render package so that batches are drawn with the shared device.
// To be usable here the provider must also implement
//
//	HalDevice() any // hal.Device
//	HalQueue() any  // hal.Queue
type DeviceHandle = gpucontext.DeviceProvider

// halProvider is the optional HAL accessor a DeviceHandle may implement.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// HAL extracts the hal.Device and hal.Queue from a provider.
func HAL(provider DeviceHandle) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, ErrNilProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, ErrNoHAL
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, ErrNoHAL
	}
	return device, queue, nil
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used by hosts that only need the CPU side of the pipeline.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = NullDeviceHandle{}
