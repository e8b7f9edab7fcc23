package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	elog "github.com/conversim/conversim/internal/log"
	"github.com/conversim/conversim/internal/service/connect"
)

// ConnectCmd runs the auto-connect batch for one user and prints the JSON
// summary.
type ConnectCmd struct {
	UserID string `short:"u" long:"user" description:"user profile id" required:"true"`
	Quiet  bool   `short:"q" long:"quiet" description:"suppress the live conversation feed"`
}

func (c *ConnectCmd) Execute(_ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	wd := connect.StartWatchdog(ctx, rt.records(), 0, rt.cfg.StallDuration())
	defer wd.Stop()

	if !c.Quiet {
		go printFeed(elog.Default.Subscribe(100))
	}

	result, err := rt.connect.RunBatch(ctx, c.UserID)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(result)
}

// printFeed renders live-feed events so the operator can watch conversations
// unfold while the batch runs.
func printFeed(events <-chan elog.Event) {
	for ev := range events {
		switch payload := ev.Payload.(type) {
		case elog.ConversationPayload:
			switch ev.EventType {
			case elog.ConversationStarted:
				fmt.Fprintf(os.Stderr, "--- conversation with %v started (%v)\n", payload.PartnerName, payload.ConversationID)
			case elog.ConversationFinished:
				if payload.Score != nil {
					fmt.Fprintf(os.Stderr, "--- conversation with %v %v, score=%v\n", payload.PartnerName, payload.Status, *payload.Score)
				} else {
					fmt.Fprintf(os.Stderr, "--- conversation with %v %v\n", payload.PartnerName, payload.Status)
				}
			}
		case elog.TurnPayload:
			fmt.Fprintf(os.Stderr, "%v: %v\n", payload.Speaker, payload.Text)
		}
	}
}
