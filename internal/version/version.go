package version

// Build-time variables. Override via -ldflags.
var (
	Version   = "dev"
	Commit    = "dev"
	BuildDate = "dev"
)

// Protocol is the MCP protocol revision this server implements. Reported
// alongside build metadata so a client can detect a version mismatch
// without a handshake round trip.
const Protocol = "2024-11-05"

// Info describes build/version metadata, as reported by fred_server_info_tool.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	Protocol  string `json:"protocol"`
}

// Get returns version info, defaulting empty fields to "dev".
func Get() Info {
	return Info{
		Version:   defaultOr(Version, "dev"),
		Commit:    defaultOr(Commit, "dev"),
		BuildDate: defaultOr(BuildDate, "dev"),
		Protocol:  Protocol,
	}
}

func defaultOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
