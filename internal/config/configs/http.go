package configs

// HTTP configures the sharing API server. Only the port is tunable; the
// server binds all interfaces, which suits the containerized deployments
// the exchange runs in.
type HTTP struct {
	// Port is the TCP port the API listens on. Defaults to 8080.
	Port uint16 `env:"PORT" envDefault:"8080"`
}
