package feature

import (
	"context"

	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/wire"
)

// ID is the stable 16-bit identifier of a feature.
type ID uint16

// Well-known feature IDs used by the framework itself.
const (
	IDRoot       ID = 0x0000
	IDFeatureSet ID = 0x0001
)

// Type is the packed feature type byte advertised next to each table entry.
type Type uint8

const (
	// TypeObsolete marks a feature replaced by a newer one but still
	// advertised for older host software.
	TypeObsolete Type = 1 << 7

	// TypeHidden marks a feature end-user configuration software should
	// ignore.
	TypeHidden Type = 1 << 6

	// TypeEngineering marks a feature used for internal testing and
	// manufacturing.
	TypeEngineering Type = 1 << 5

	// TypeManufacturingDeactivatable marks a manufacturing feature that can
	// be permanently deactivated.
	TypeManufacturingDeactivatable Type = 1 << 4

	// TypeComplianceDeactivatable marks a compliance feature that can be
	// permanently deactivated.
	TypeComplianceDeactivatable Type = 1 << 3
)

// Obsolete reports whether the obsolete bit is set.
func (t Type) Obsolete() bool { return t&TypeObsolete != 0 }

// Hidden reports whether the hidden bit is set.
func (t Type) Hidden() bool { return t&TypeHidden != 0 }

// Engineering reports whether the engineering bit is set.
func (t Type) Engineering() bool { return t&TypeEngineering != 0 }

// Info describes one entry of a device's feature table.
type Info struct {
	// ID is the feature's stable identifier.
	ID ID

	// Index is the feature's position in this device's table. It is only
	// meaningful for the device it was resolved on.
	Index uint8

	// Type is the packed type byte.
	Type Type

	// Version is the latest feature version the device supports. Feature
	// versions are backwards compatible under the same ID.
	Version uint8
}

// Feature is implemented by all typed feature wrappers.
type Feature interface {
	// ID returns the feature's stable identifier.
	ID() ID

	// Index returns the feature's table index on the bound device.
	Index() uint8
}

// Access is everything a feature wrapper needs to talk to its device.
type Access struct {
	// Channel carries the wrapper's requests.
	Channel *channel.Channel

	// DeviceIndex addresses the device on the channel.
	DeviceIndex uint8

	// Info is the resolved table entry the wrapper is bound to.
	Info Info
}

// ID returns the bound feature's stable identifier.
func (a Access) ID() ID { return a.Info.ID }

// Index returns the bound feature's table index.
func (a Access) Index() uint8 { return a.Info.Index }

// Call invokes one of the bound feature's functions.
func (a Access) Call(ctx context.Context, function wire.U4, params []byte) (wire.Message, error) {
	return a.Channel.Request(ctx, a.DeviceIndex, a.Info.Index, function, params)
}

// Subscribe returns the stream of the bound feature's unsolicited events.
func (a Access) Subscribe() *channel.Subscription {
	return a.Channel.Subscribe(a.DeviceIndex, a.Info.Index)
}

// Constructor builds a typed wrapper around a resolved feature.
type Constructor func(Access) Feature

// Registry maps feature IDs to wrapper constructors. It is frozen after
// construction and safe for concurrent use.
type Registry struct {
	constructors map[ID]Constructor
}

// NewRegistry builds a frozen registry from the given constructors.
func NewRegistry(constructors map[ID]Constructor) *Registry {
	copied := make(map[ID]Constructor, len(constructors))
	for id, ctor := range constructors {
		copied[id] = ctor
	}
	return &Registry{constructors: copied}
}

// Constructor returns the wrapper constructor for a feature ID. ok is false
// for IDs the registry has no wrapper for, which says nothing about whether
// a device supports the feature.
func (r *Registry) Constructor(id ID) (Constructor, bool) {
	ctor, ok := r.constructors[id]
	return ctor, ok
}
