// Package snapshot stores compiled concept graphs as compact binary blobs.
//
// A snapshot is the msgpack encoding of the graph arena compressed with
// zstd. References are stored as arena handles, so decoding restores shared
// targets and cycles exactly as they were compiled.
package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/graph"
	"github.com/vk/conceptc/internal/macro"
)

// Version is bumped whenever the encoded layout changes.
const Version = 1

type value struct {
	Text string `msgpack:"s"`
	Ref  int32  `msgpack:"r"`
}

type record struct {
	Type   string  `msgpack:"t"`
	Values []value `msgpack:"v"`
	Origin string  `msgpack:"o,omitempty"`
}

type document struct {
	Version  int         `msgpack:"version"`
	Concepts []record    `msgpack:"concepts"`
	Order    []int32     `msgpack:"order"`
	Stats    macro.Stats `msgpack:"stats"`
}

// Encode serializes a compilation result.
func Encode(r *compiler.Result) ([]byte, error) {
	doc := document{Version: Version, Stats: r.Stats}
	for _, c := range r.Graph.Instances() {
		rec := record{Type: c.Type(), Origin: c.Origin, Values: make([]value, len(c.Values))}
		for i, v := range c.Values {
			rec.Values[i] = value{Text: v.Text, Ref: int32(v.Ref)}
		}
		doc.Concepts = append(doc.Concepts, rec)
	}
	for _, h := range r.Order {
		doc.Order = append(doc.Order, int32(h))
	}

	raw, err := msgpack.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// Decode restores a compilation result, resolving type names against types.
func Decode(types graph.Types, data []byte) (*compiler.Result, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var doc document
	if err := msgpack.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("snapshot version %d is not supported (want %d)", doc.Version, Version)
	}

	arena := make([]*concept.Instance, len(doc.Concepts))
	for i, rec := range doc.Concepts {
		d, ok := types.Descriptor(rec.Type)
		if !ok {
			return nil, fmt.Errorf("snapshot concept %d has unknown type '%s'", i, rec.Type)
		}
		c := d.New()
		if len(rec.Values) != len(c.Values) {
			return nil, fmt.Errorf("snapshot concept %d of type '%s' has %d values, want %d", i, rec.Type, len(rec.Values), len(c.Values))
		}
		for j, v := range rec.Values {
			c.Values[j] = concept.Value{Text: v.Text, Ref: concept.Handle(v.Ref)}
		}
		c.Handle = concept.Handle(i)
		c.Origin = rec.Origin
		arena[i] = c
	}

	g, err := graph.FromArena(types, arena)
	if err != nil {
		return nil, fmt.Errorf("snapshot is inconsistent: %w", err)
	}
	if len(doc.Order) != len(arena) {
		return nil, fmt.Errorf("snapshot order lists %d concepts, arena holds %d", len(doc.Order), len(arena))
	}
	order := make([]concept.Handle, len(doc.Order))
	for i, h := range doc.Order {
		if int(h) < 0 || int(h) >= len(arena) {
			return nil, fmt.Errorf("snapshot order entry %d points outside the arena", i)
		}
		order[i] = concept.Handle(h)
	}
	return &compiler.Result{Graph: g, Order: order, Stats: doc.Stats}, nil
}
