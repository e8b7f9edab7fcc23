package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// LoadParticipant reads a participant definition (id, name, persona) from a
// YAML document at the supplied URL or local path.
func LoadParticipant(ctx context.Context, URL string) (*Participant, error) {
	if strings.TrimSpace(URL) == "" {
		return nil, fmt.Errorf("participant URL is required")
	}
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant %v: %w", URL, err)
	}
	participant := &Participant{}
	if err := yaml.Unmarshal(data, participant); err != nil {
		return nil, fmt.Errorf("failed to parse participant %v: %w", URL, err)
	}
	if participant.Name == "" {
		participant.Name = participant.Persona.DisplayName()
	}
	return participant, nil
}
