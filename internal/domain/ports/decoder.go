package ports

// SourceValidator reports whether a Media's source is a playable
// resource (local file exists, or a stream URL is well-formed). The
// default implementation shipped in internal/services/playout/decoder
// checks local paths only; a swap-in implementation could probe a
// stream URL instead.
type SourceValidator interface {
	Validate(source string) bool
}

// CommandBuilder turns a validated source plus seek/out/duration into
// the argv the decoder subprocess supervisor should run. Out of scope
// for this module's own process management; only the contract lives
// here, per the spec's treatment of the decoder as an opaque
// collaborator.
type CommandBuilder interface {
	Build(source string, seek, out, duration float64) []string
}
