package cli

import (
	"context"
	"fmt"

	"github.com/conversim/conversim/genai/persona"
	profiledao "github.com/conversim/conversim/internal/dao/profile"
)

// AddCmd loads a participant YAML and stores it as an eligible user profile.
type AddCmd struct {
	Location string `short:"l" long:"location" description:"participant YAML path" required:"true"`
}

func (c *AddCmd) Execute(_ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	participant, err := persona.LoadParticipant(ctx, c.Location)
	if err != nil {
		return err
	}
	profile := &profiledao.Profile{
		ID:              participant.ID,
		Name:            participant.Name,
		Tagline:         participant.Persona.Identity.Tagline,
		Persona:         &participant.Persona,
		IngestionStatus: profiledao.IngestionComplete,
	}
	if err := rt.profiles.Add(ctx, profile); err != nil {
		return err
	}
	fmt.Println(profile.ID)
	return nil
}
