// Package observability holds opt-in diagnostics toggles of the server.
package observability

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	// EnablePprofTrace mounts the net/http/pprof handlers under
	// /debug/pprof/.
	EnablePprofTrace bool
}

// Enabled reports whether any diagnostics endpoint is switched on.
func (c Config) Enabled() bool {
	return c.EnablePprofTrace
}
