package config

import "slices"

// Source names the layer a resolved value came from. `prdeploy config list`
// prints it after each value.
type Source string

// Layers, lowest precedence first.
const (
	SourceDefault Source = "default" // Defaults()
	SourceGlobal  Source = "global"  // ~/.config/prdeploy/config.yaml
	SourceLocal   Source = "local"   // .prdeploy.yaml in the repository root
	SourceEnv     Source = "env"     // PRDEPLOY_<KEY>, e.g. PRDEPLOY_SPACE_ORG
	SourceFlag    Source = "flag"    // --set key=value, --log-level, --log-format
)

// Precedence lists every layer, lowest first. A later layer replaces the
// value of an earlier one.
var Precedence = []Source{SourceDefault, SourceGlobal, SourceLocal, SourceEnv, SourceFlag}

// Rank returns the position of s in Precedence, or -1 for an unknown source.
func (s Source) Rank() int {
	return slices.Index(Precedence, s)
}

// Overrides reports whether a value from s replaces a value from other.
// Equal layers override so a file can set a key twice.
func (s Source) Overrides(other Source) bool {
	return s.Rank() >= other.Rank()
}
