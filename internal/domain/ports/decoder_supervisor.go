package ports

import "context"

// DecoderSupervisor is the RPC server's handle onto the externally
// supervised decoder process (the "decoder_term" handle in the shared
// state model). Kill should return once the process has actually exited
// or the context expires, whichever comes first.
type DecoderSupervisor interface {
	Kill(ctx context.Context) error
}
