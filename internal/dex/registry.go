package dex

import (
	"fmt"
	"strings"

	"cetusindexer/internal/typetag"
)

// Cetus CLMM mainnet package and its event types.
const (
	CetusPackageID               = "0x1eabed72c53feb3805120a081dc15963c204dc8d091542592abaf7a35689b2fb"
	DefaultSwapEventType         = CetusPackageID + "::pool::SwapEvent"
	DefaultAddLiquidityEventType = CetusPackageID + "::pool::AddLiquidityEvent"
	DefaultRemoveLiquidityType   = CetusPackageID + "::pool::RemoveLiquidityEvent"
)

// EventKind is the destination of a decoded event.
type EventKind int

const (
	KindSwap EventKind = iota + 1
	KindAddLiquidity
	KindRemoveLiquidity
)

// Kinds lists every kind in a stable order.
var Kinds = []EventKind{KindSwap, KindAddLiquidity, KindRemoveLiquidity}

// Tag is the short form used in identities and metric labels.
func (k EventKind) Tag() string {
	switch k {
	case KindSwap:
		return "swap"
	case KindAddLiquidity:
		return "add"
	case KindRemoveLiquidity:
		return "remove"
	default:
		return "unknown"
	}
}

func (k EventKind) String() string {
	return k.Tag()
}

// Layout names the on-chain struct layout a payload is decoded with.
type Layout string

const (
	LayoutCLMMSwap      Layout = "clmm_swap"
	LayoutMinimalSwap   Layout = "minimal_swap"
	LayoutCLMMLiquidity Layout = "clmm_liquidity"
)

// ParseSwapLayout accepts the configured swap layout name; empty means clmm.
func ParseSwapLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "clmm", string(LayoutCLMMSwap):
		return LayoutCLMMSwap, nil
	case "minimal", string(LayoutMinimalSwap):
		return LayoutMinimalSwap, nil
	default:
		return "", fmt.Errorf("unsupported swap layout: %s", name)
	}
}

// Descriptor binds an event type to its layout and destination kind.
type Descriptor struct {
	Type   typetag.StructTag
	Layout Layout
	Kind   EventKind
}

// RegistryConfig holds optional overrides. Empty strings fall back to the
// Cetus mainnet defaults.
type RegistryConfig struct {
	SwapEventType            string
	AddLiquidityEventType    string
	RemoveLiquidityEventType string
	SwapLayout               Layout
}

// Registry maps canonical event types to descriptors. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	byType      map[string]Descriptor
	names       map[string]struct{}
	descriptors []Descriptor
}

// NewRegistry builds the registry, failing on any unparsable or duplicate type.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	swapLayout := cfg.SwapLayout
	if swapLayout == "" {
		swapLayout = LayoutCLMMSwap
	}
	if swapLayout != LayoutCLMMSwap && swapLayout != LayoutMinimalSwap {
		return nil, fmt.Errorf("unsupported swap layout: %s", swapLayout)
	}

	entries := []struct {
		raw      string
		fallback string
		layout   Layout
		kind     EventKind
	}{
		{cfg.SwapEventType, DefaultSwapEventType, swapLayout, KindSwap},
		{cfg.AddLiquidityEventType, DefaultAddLiquidityEventType, LayoutCLMMLiquidity, KindAddLiquidity},
		{cfg.RemoveLiquidityEventType, DefaultRemoveLiquidityType, LayoutCLMMLiquidity, KindRemoveLiquidity},
	}

	reg := &Registry{
		byType: make(map[string]Descriptor, len(entries)),
		names:  make(map[string]struct{}, len(entries)),
	}
	for _, entry := range entries {
		raw := strings.TrimSpace(entry.raw)
		if raw == "" {
			raw = entry.fallback
		}
		tag, err := typetag.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s event type: %w", entry.kind, err)
		}
		key := tag.String()
		if prev, ok := reg.byType[key]; ok {
			return nil, fmt.Errorf("event type %s registered for both %s and %s", key, prev.Kind, entry.kind)
		}
		desc := Descriptor{Type: tag, Layout: entry.layout, Kind: entry.kind}
		reg.byType[key] = desc
		reg.names[tag.Name] = struct{}{}
		reg.descriptors = append(reg.descriptors, desc)
	}
	return reg, nil
}

// Resolve classifies an emitted event type. Canonical strings hit the map
// directly; other spellings are parsed only when their struct name is
// registered. Unparsable types are a miss.
func (r *Registry) Resolve(eventType string) (Descriptor, bool) {
	if desc, ok := r.byType[eventType]; ok {
		return desc, true
	}
	if _, ok := r.names[structName(eventType)]; !ok {
		return Descriptor{}, false
	}
	tag, err := typetag.Parse(eventType)
	if err != nil {
		return Descriptor{}, false
	}
	desc, ok := r.byType[tag.String()]
	return desc, ok
}

// structName returns the unqualified struct name of a type string without
// parsing it, or "" when there is none.
func structName(eventType string) string {
	if i := strings.IndexByte(eventType, '<'); i >= 0 {
		eventType = eventType[:i]
	}
	i := strings.LastIndex(eventType, "::")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(eventType[i+2:])
}

// Descriptors returns the registered descriptors in kind order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}
