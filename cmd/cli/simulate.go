package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/conversim/conversim/genai/persona"
	"github.com/conversim/conversim/genai/simulation"
	"github.com/google/uuid"
)

// SimulateCmd runs a single ad-hoc conversation between two participant
// definitions and prints the final state.
type SimulateCmd struct {
	AgentA string `short:"a" long:"agent-a" description:"participant A YAML path" required:"true"`
	AgentB string `short:"b" long:"agent-b" description:"participant B YAML path" required:"true"`
	Turns  int    `short:"t" long:"turns" description:"max turns (full exchanges)"`
}

func (c *SimulateCmd) Execute(_ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	agentA, err := persona.LoadParticipant(ctx, c.AgentA)
	if err != nil {
		return err
	}
	agentB, err := persona.LoadParticipant(ctx, c.AgentB)
	if err != nil {
		return err
	}
	ensureID(agentA)
	ensureID(agentB)

	record, err := rt.records().Create(ctx, agentA.ID, agentB.ID)
	if err != nil {
		return err
	}

	maxTurns := c.Turns
	if maxTurns <= 0 {
		maxTurns = rt.cfg.MaxTurns
	}
	final, err := rt.runner.Run(ctx, simulation.NewState(record.ID, *agentA, *agentB, maxTurns))
	if err != nil {
		return err
	}

	for _, entry := range final.Transcript {
		fmt.Printf("%v: %v\n", entry.Speaker, entry.Text)
	}
	fmt.Printf("termination: %v\n", final.TerminationReason)
	return json.NewEncoder(os.Stdout).Encode(final.Analysis)
}

func ensureID(participant *persona.Participant) {
	if participant.ID == "" {
		participant.ID = uuid.NewString()
	}
}
