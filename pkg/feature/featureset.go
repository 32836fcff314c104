package feature

import (
	"context"

	"github.com/lus/hidpp-go/pkg/channel"
)

// FeatureSet function IDs.
const (
	fnFeatureSetCount = 0
	fnFeatureSetGet   = 1
)

// FeatureSet is the feature (0x0001) that enumerates a device's feature
// table. Call Count and then Get for every index 1..count; index 0 is the
// root feature and is not enumerable.
type FeatureSet struct {
	ch          *channel.Channel
	deviceIndex uint8
	index       uint8
}

// NewFeatureSet binds the FeatureSet feature at its resolved table index.
func NewFeatureSet(ch *channel.Channel, deviceIndex, index uint8) *FeatureSet {
	return &FeatureSet{ch: ch, deviceIndex: deviceIndex, index: index}
}

// ID returns IDFeatureSet.
func (f *FeatureSet) ID() ID { return IDFeatureSet }

// Index returns the feature's table index on the bound device.
func (f *FeatureSet) Index() uint8 { return f.index }

// Count returns the number of features in the table, the root feature not
// included.
func (f *FeatureSet) Count(ctx context.Context) (int, error) {
	resp, err := f.ch.Request(ctx, f.deviceIndex, f.index, fnFeatureSetCount, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.ExtendPayload()[0]), nil
}

// Get returns the table entry at the given index. On devices supporting only
// feature version 0 the reported version is always 0.
func (f *FeatureSet) Get(ctx context.Context, index uint8) (Info, error) {
	resp, err := f.ch.Request(ctx, f.deviceIndex, f.index, fnFeatureSetGet, []byte{index, 0x00, 0x00})
	if err != nil {
		return Info{}, err
	}

	payload := resp.ExtendPayload()
	return Info{
		ID:      ID(payload[0])<<8 | ID(payload[1]),
		Index:   index,
		Type:    Type(payload[2]),
		Version: payload[3],
	}, nil
}
