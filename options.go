package fontatlas

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fontatlas/text"
	"github.com/gogpu/fontatlas/text/material"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// CPU-only engine
//	e, _ := fontatlas.New()
//
//	// Engine sharing a host GPU device
//	e, _ := fontatlas.New(fontatlas.WithDeviceProvider(provider))
type Option func(*engineOptions)

type engineOptions struct {
	device   hal.Device
	queue    hal.Queue
	err      error
	global   []*text.FontAsset
	def      *text.FontAsset
	material *material.Material
	logger   *slog.Logger
}

// WithDevice mirrors atlas surfaces into textures on device and gives every
// material variant its own sampler.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(o *engineOptions) {
		o.device = device
		o.queue = queue
	}
}

// WithDeviceProvider takes the device and queue from a host provider. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func WithDeviceProvider(provider gpucontext.DeviceProvider) Option {
	return func(o *engineOptions) {
		type halProvider interface {
			HalDevice() any
			HalQueue() any
		}
		hp, ok := provider.(halProvider)
		if !ok {
			o.err = fmt.Errorf("fontatlas: provider does not expose HAL types")
			return
		}
		device, ok := hp.HalDevice().(hal.Device)
		if !ok || device == nil {
			o.err = fmt.Errorf("fontatlas: provider HalDevice is not hal.Device")
			return
		}
		queue, ok := hp.HalQueue().(hal.Queue)
		if !ok || queue == nil {
			o.err = fmt.Errorf("fontatlas: provider HalQueue is not hal.Queue")
			return
		}
		o.device = device
		o.queue = queue
	}
}

// WithGlobalFallbacks sets the process-wide fallback list consulted after
// an asset's own fallbacks. The assets are registered with the engine.
func WithGlobalFallbacks(assets ...*text.FontAsset) Option {
	return func(o *engineOptions) {
		o.global = append([]*text.FontAsset(nil), assets...)
	}
}

// WithDefaultAsset sets the asset consulted last. It is registered with
// the engine.
func WithDefaultAsset(a *text.FontAsset) Option {
	return func(o *engineOptions) { o.def = a }
}

// WithMaterial sets the template every asset's source material is derived
// from. Default: a material using material.AtlasTextShader.
func WithMaterial(m *material.Material) Option {
	return func(o *engineOptions) { o.material = m }
}

// WithLogger is shorthand for calling SetLogger before New.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}
