// ABOUTME: Version information for the latency tools
// ABOUTME: Reported in logs, the TUI header and -version output
package version

const (
	// Version is the current release
	Version = "0.3.0"

	// Product is the name reported in logs and CLI output
	Product = "Resonate Latency"

	// Manufacturer identifies the project
	Manufacturer = "Resonate Protocol"
)

// String returns the product and version in one line
func String() string {
	return Product + " " + Version
}
