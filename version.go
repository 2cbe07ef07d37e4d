package articlecheck

// Version is the release of the articlecheck module.
const Version = "0.4.0"

// DocumentFormat names a markup vocabulary the checks understand.
type DocumentFormat string

// Supported document formats.
const (
	// JATS is the Journal Article Tag Suite.
	JATS DocumentFormat = "JATS"
	// SPS is the SciELO Publishing Schema, a JATS profile.
	SPS DocumentFormat = "SPS"
)

// String returns the format name.
func (f DocumentFormat) String() string {
	return string(f)
}

// IsValid returns true if f is a supported format.
func (f DocumentFormat) IsValid() bool {
	switch f {
	case JATS, SPS:
		return true
	default:
		return false
	}
}

// formatConfig holds format-specific defaults.
type formatConfig struct {
	// DTDVersion is the JATS DTD version the format is based on.
	DTDVersion string
	// SchemaVersion is the profile version, empty for plain JATS.
	SchemaVersion string
}

var formatConfigs = map[DocumentFormat]formatConfig{
	JATS: {DTDVersion: "1.1"},
	SPS:  {DTDVersion: "1.1", SchemaVersion: "1.10"},
}

// FormatInfo returns the DTD and profile versions for f.
func FormatInfo(f DocumentFormat) (dtd, schema string, ok bool) {
	cfg, ok := formatConfigs[f]
	return cfg.DTDVersion, cfg.SchemaVersion, ok
}
