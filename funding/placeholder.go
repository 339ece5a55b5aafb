package funding

import (
	"crypto/sha256"

	"github.com/ZmnSCPxj/routingcore/graph"
)

// placeholderScript derives a unique, deterministic P2WSH-shaped
// scriptPubKey for id, used only during the dry-run txprepare to
// reserve funds and (for an "all" destination) discover the exact
// amount available, before the real funding scripts are known. It is
// never broadcast, so it does not need to be a script anyone could
// actually spend — only unique per destination.
func placeholderScript(id graph.Vertex) []byte {
	hash := sha256.Sum256(id[:])

	script := make([]byte, 2+len(hash))
	script[0] = 0x00 // segwit version 0
	script[1] = 0x20 // push 32 bytes
	copy(script[2:], hash[:])
	return script
}
