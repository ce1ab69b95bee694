package version

import (
	"encoding/json"
	"fmt"
)

// OverlayKind tags the mod-loader family an Overlay descriptor came from.
type OverlayKind int

const (
	OverlayFabric OverlayKind = iota
	OverlayQuilt
	OverlayForge
	OverlayNeoForge
	OverlayOptiFine
)

// Overlay is the normalised, tagged form every mod-loader descriptor parses
// into, replacing the source's free-form JSON handling per design note §9
// ("tagged OverlayDescriptor sum type and a normalising parser").
type Overlay struct {
	Kind      OverlayKind
	MainClass string
	Arguments *Arguments
	// MinecraftArguments holds the legacy space-separated argument string,
	// when the descriptor predates the modern arguments.{jvm,game} shape.
	MinecraftArguments string
	Libraries          []Library
}

// ParseFabricLike parses fabric.json or quilt.json, whose shape is already
// canonical (modern arguments + libraries list).
func ParseFabricLike(data []byte, kind OverlayKind) (Overlay, error) {
	var doc struct {
		MainClass string    `json:"mainClass"`
		Arguments Arguments `json:"arguments"`
		Libraries []Library `json:"libraries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Overlay{}, fmt.Errorf("version: parse %v overlay: %w", kind, err)
	}
	return Overlay{
		Kind:      kind,
		MainClass: doc.MainClass,
		Arguments: &doc.Arguments,
		Libraries: doc.Libraries,
	}, nil
}

// forgeDetails is the canonical forge/details.json shape.
type forgeDetails struct {
	MainClass          string     `json:"mainClass"`
	Arguments          *Arguments `json:"arguments,omitempty"`
	MinecraftArguments string     `json:"minecraftArguments,omitempty"`
	Libraries          []Library  `json:"libraries,omitempty"`
}

// forgeInstallProfile wraps forgeDetails under "versionInfo", the shape
// legacy Forge installers write instead of the canonical one.
type forgeInstallProfile struct {
	VersionInfo forgeDetails `json:"versionInfo"`
}

// ParseForgeLike parses forge/details.json (used as-is for NeoForge too),
// tolerating the three shapes §4.4 documents:
//  1. canonical forgeDetails JSON;
//  2. the entire document double-encoded as a JSON string
//     (`"{\"mainClass\":...}"`);
//  3. an install-profile wrapper with the real payload under "versionInfo".
func ParseForgeLike(data []byte, kind OverlayKind) (Overlay, error) {
	var details forgeDetails
	firstErr := json.Unmarshal(data, &details)
	if firstErr == nil && details.MainClass != "" {
		return forgeOverlay(details, kind), nil
	}

	// Shape 2: string-wrapped JSON.
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		var inner forgeDetails
		if err := json.Unmarshal([]byte(asString), &inner); err == nil {
			return forgeOverlay(inner, kind), nil
		}
	}

	// Shape 3: install-profile wrapper.
	var profile forgeInstallProfile
	if err := json.Unmarshal(data, &profile); err == nil && profile.VersionInfo.MainClass != "" {
		return forgeOverlay(profile.VersionInfo, kind), nil
	}

	if firstErr != nil {
		return Overlay{}, fmt.Errorf("version: parse %v overlay: %w", kind, firstErr)
	}
	return Overlay{}, fmt.Errorf("version: parse %v overlay: no recognised shape", kind)
}

func forgeOverlay(d forgeDetails, kind OverlayKind) Overlay {
	return Overlay{
		Kind:               kind,
		MainClass:          d.MainClass,
		Arguments:          d.Arguments,
		MinecraftArguments: d.MinecraftArguments,
		Libraries:          d.Libraries,
	}
}

// ParseOptiFine parses optifine.json, treated like Fabric for argument
// extension per §4.4; its classpath contribution is a recursive JAR glob
// under .minecraft/libraries/ handled separately by the classpath builder.
func ParseOptiFine(data []byte) (Overlay, error) {
	ov, err := ParseFabricLike(data, OverlayOptiFine)
	if err != nil {
		return Overlay{}, fmt.Errorf("version: parse optifine overlay: %w", err)
	}
	return ov, nil
}

func (k OverlayKind) String() string {
	switch k {
	case OverlayFabric:
		return "fabric"
	case OverlayQuilt:
		return "quilt"
	case OverlayForge:
		return "forge"
	case OverlayNeoForge:
		return "neoforge"
	case OverlayOptiFine:
		return "optifine"
	default:
		return "unknown"
	}
}
