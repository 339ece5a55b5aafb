package funding

import (
	"context"

	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/spark"
)

// ConnectResult is one id's outcome from MultiConnect, in the same
// order the caller supplied ids.
type ConnectResult struct {
	Info external.PeerInfo
	Err  error
}

// MultiConnect connects to every id in parallel, one spark per id,
// mirroring multiconnect.c's per-id fan-out even though the underlying
// External.Connect call itself accepts a batch — a single id per call
// keeps one slow or unreachable peer from delaying the others'
// results.
func MultiConnect(ctx context.Context, ext external.PeerConnector, ids []graph.Vertex) []ConnectResult {
	cmd := spark.NewCommand(ctx)
	defer cmd.Finish()

	results := make([]ConnectResult, len(ids))
	tokens := make([]*spark.Token, len(ids))

	for i, id := range ids {
		i, id := i, id
		tokens[i] = spark.StartSpark(cmd, func(ctx context.Context, tok *spark.Token) {
			infos, err := ext.Connect(ctx, []graph.Vertex{id})
			if err != nil {
				results[i] = ConnectResult{Err: err}
				spark.Complete(tok)
				return
			}
			if len(infos) != 1 {
				results[i] = ConnectResult{Err: coreerrors.New(coreerrors.ProtocolFailure,
					coreerrors.CodeOther, "connect returned no peer info")}
				spark.Complete(tok)
				return
			}
			results[i] = ConnectResult{Info: infos[0]}
			spark.Complete(tok)
		})
	}

	spark.WaitAllSparks(cmd, tokens)
	return results
}
