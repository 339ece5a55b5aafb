package funding

import (
	"context"

	"github.com/ZmnSCPxj/routingcore/spark"
)

// cleanup discards any reserved txid and cancels every destination
// still in the Started state (a destination that reached Done must
// not be canceled — the channel is real). Both kinds of cleanup run as
// sparks in parallel, and cleanup itself blocks until every one of
// them has finished, matching the source's mfc_cleanup_/
// mfc_cleanup_complete pairing.
//
// cleanup is idempotent: it clears c.Txid once its discard is issued
// and moves each successfully canceled destination back to NotStarted,
// and it only acts on a set Txid and on destinations still in Started,
// so a second call finds nothing left to do.
func (c *Command) cleanup(ctx context.Context) {
	log.Debugf("funding: cleanup")

	if c.Store != nil {
		if err := c.Store.Record(c.ID, c); err != nil {
			log.Errorf("funding: journal record failed: %v", err)
		}
	}

	var tokens []*spark.Token

	if c.Txid != nil {
		txid := *c.Txid
		c.Txid = nil
		tokens = append(tokens, spark.StartSpark(c.Spark, func(ctx context.Context, tok *spark.Token) {
			if err := c.External.TxDiscard(ctx, txid); err != nil {
				log.Debugf("funding: txdiscard %s failed during cleanup: %v", txid, err)
			}
			spark.Complete(tok)
		}))
	}

	for _, dest := range c.Destination {
		if dest.State != Started {
			continue
		}
		d := dest
		tokens = append(tokens, spark.StartSpark(c.Spark, func(ctx context.Context, tok *spark.Token) {
			if err := c.External.FundChannelCancel(ctx, d.ID); err != nil {
				log.Debugf("funding: fundchannel_cancel %s failed during cleanup: %v", d.ID, err)
			} else {
				d.State = NotStarted
			}
			spark.Complete(tok)
		}))
	}

	spark.WaitAllSparks(c.Spark, tokens)

	if c.Store != nil {
		if err := c.Store.Clear(c.ID); err != nil {
			log.Errorf("funding: journal clear failed: %v", err)
		}
	}
}
