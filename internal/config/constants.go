package config

// Server defaults
const (
	// DefaultBindAddr is the default address the server binds to
	DefaultBindAddr = "0.0.0.0"

	// DefaultPort is the default port for the lyric fetcher server
	DefaultPort = 10000

	// DefaultSite is the site used when no site parameter is given
	DefaultSite = "colorcodedlyrics"
)
