package device

import (
	"context"
	"errors"
	"sync"

	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/features"
	"github.com/lus/hidpp-go/pkg/wire"
)

// Device errors.
var (
	// ErrDeviceNotResponding indicates the device index points to no
	// reachable device.
	ErrDeviceNotResponding = errors.New("device did not respond")

	// ErrUnsupportedProtocol indicates the device only speaks HID++1.0 and
	// cannot be driven through the capability framework.
	ErrUnsupportedProtocol = errors.New("device does not support HID++2.0")
)

// Config configures device initialization.
type Config struct {
	// Registry picks typed wrappers for resolved features
	// (default: features.DefaultRegistry()).
	Registry *feature.Registry
}

// DefaultConfig returns the default device configuration.
func DefaultConfig() Config {
	return Config{}
}

// Device is a single HID++2.0 peripheral on a channel.
type Device struct {
	ch       *channel.Channel
	index    uint8
	registry *feature.Registry
	protocol feature.ProtocolVersion
	root     *feature.Root

	mu    sync.Mutex
	table map[feature.ID]feature.Info
	cache map[feature.ID]feature.Feature
}

// pingMarker is the arbitrary byte the initialization ping expects back.
const pingMarker = 0x5a

// Initialize verifies the device at the given index and builds a Device for
// it. A device that answers the root ping with a HID++1.0 "invalid sub ID"
// error exists but is HID++1.0 only, which is ErrUnsupportedProtocol. A
// device that answers with any other protocol error, or not at all, is
// ErrDeviceNotResponding.
func Initialize(ctx context.Context, ch *channel.Channel, index uint8, config Config) (*Device, error) {
	registry := config.Registry
	if registry == nil {
		registry = features.DefaultRegistry()
	}

	root := feature.NewRoot(ch, index)
	version, err := root.Ping(ctx, pingMarker)
	if err != nil {
		var devErr *channel.DeviceError
		if errors.As(err, &devErr) {
			if !devErr.Reply.V20 && wire.ErrorCode10(devErr.Reply.Code) == wire.Err10InvalidSubID {
				return nil, ErrUnsupportedProtocol
			}
			return nil, ErrDeviceNotResponding
		}
		if errors.Is(err, channel.ErrRequestTimeout) {
			return nil, ErrDeviceNotResponding
		}
		return nil, err
	}

	return &Device{
		ch:       ch,
		index:    index,
		registry: registry,
		protocol: version,
		root:     root,
		table:    make(map[feature.ID]feature.Info),
		cache:    make(map[feature.ID]feature.Feature),
	}, nil
}

// Index returns the device's index on the channel.
func (d *Device) Index() uint8 {
	return d.index
}

// Channel returns the channel the device is reachable over.
func (d *Device) Channel() *channel.Channel {
	return d.ch
}

// ProtocolVersion returns the version information the initialization ping
// reported.
func (d *Device) ProtocolVersion() feature.ProtocolVersion {
	return d.protocol
}

// Root returns the device's root feature.
func (d *Device) Root() *feature.Root {
	return d.root
}

// EnumerateFeatures walks the device's feature table through the FeatureSet
// feature and returns all entries, the root feature not included. Devices
// without FeatureSet return (nil, nil); features can still be resolved
// individually through Feature.
func (d *Device) EnumerateFeatures(ctx context.Context) ([]feature.Info, error) {
	setInfo, ok, err := d.root.GetFeature(ctx, feature.IDFeatureSet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	set := feature.NewFeatureSet(d.ch, d.index, setInfo.Index)
	count, err := set.Count(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]feature.Info, 0, count)
	for i := 1; i <= count; i++ {
		info, err := set.Get(ctx, uint8(i))
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	d.mu.Lock()
	d.table[setInfo.ID] = setInfo
	for _, info := range infos {
		d.table[info.ID] = info
	}
	d.mu.Unlock()

	return infos, nil
}

// Feature returns the typed wrapper for a feature ID. The table index is
// resolved lazily through the root feature (or reused from a previous
// enumeration) and the wrapper is constructed once per device. ok is false
// when the device does not support the feature or the registry has no
// wrapper for it; neither is an error.
func (d *Device) Feature(ctx context.Context, id feature.ID) (feature.Feature, bool, error) {
	d.mu.Lock()
	if feat, ok := d.cache[id]; ok {
		d.mu.Unlock()
		return feat, true, nil
	}
	info, resolved := d.table[id]
	d.mu.Unlock()

	if !resolved {
		var ok bool
		var err error
		info, ok, err = d.root.GetFeature(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		d.mu.Lock()
		d.table[id] = info
		d.mu.Unlock()
	}

	ctor, ok := d.registry.Constructor(id)
	if !ok {
		return nil, false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if feat, ok := d.cache[id]; ok {
		return feat, true, nil
	}
	feat := ctor(feature.Access{
		Channel:     d.ch,
		DeviceIndex: d.index,
		Info:        info,
	})
	d.cache[id] = feat
	return feat, true, nil
}

// Get resolves a feature ID and asserts the wrapper's concrete type. ok is
// false when the feature is absent, unregistered or of a different type.
func Get[F feature.Feature](ctx context.Context, d *Device, id feature.ID) (F, bool, error) {
	var zero F

	feat, ok, err := d.Feature(ctx, id)
	if err != nil || !ok {
		return zero, false, err
	}

	typed, ok := feat.(F)
	if !ok {
		return zero, false, nil
	}
	return typed, true, nil
}
