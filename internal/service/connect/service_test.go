package connect

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/conversim/conversim/genai/persona"
	"github.com/conversim/conversim/genai/simulation"
	convdao "github.com/conversim/conversim/internal/dao/conversation"
	profiledao "github.com/conversim/conversim/internal/dao/profile"
	"github.com/stretchr/testify/assert"
)

type fakeProfiles struct {
	me       *profiledao.Profile
	partners []*profiledao.Profile
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (*profiledao.Profile, error) {
	if f.me != nil && f.me.ID == id {
		return f.me, nil
	}
	return nil, nil
}

func (f *fakeProfiles) EligiblePartners(ctx context.Context, excludeID string) ([]*profiledao.Profile, error) {
	return f.partners, nil
}

type fakeConversations struct {
	existing map[string]bool
	failFor  map[string]error
	created  []string
	sequence int
}

func (f *fakeConversations) Create(ctx context.Context, participantA, participantB string) (*convdao.Record, error) {
	if err := f.failFor[participantB]; err != nil {
		return nil, err
	}
	f.sequence++
	id := fmt.Sprintf("conv-%v", f.sequence)
	f.created = append(f.created, participantB)
	return &convdao.Record{ID: id, ParticipantA: participantA, ParticipantB: participantB, Status: simulation.StatusRunning}, nil
}

func (f *fakeConversations) PartnerIDs(ctx context.Context, userID string) (map[string]bool, error) {
	if f.existing == nil {
		return map[string]bool{}, nil
	}
	return f.existing, nil
}

// fakeRunner completes conversations with canned terminations and tracks
// concurrent executions.
type fakeRunner struct {
	failConversation map[string]string
	storeErr         error
	active           int32
	maxActive        int32
	runs             int
}

func (f *fakeRunner) Run(ctx context.Context, initial simulation.State) (simulation.State, error) {
	active := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	if active > atomic.LoadInt32(&f.maxActive) {
		atomic.StoreInt32(&f.maxActive, active)
	}
	time.Sleep(5 * time.Millisecond)
	f.runs++

	if f.storeErr != nil {
		return initial, f.storeErr
	}
	if message, ok := f.failConversation[initial.AgentB.ID]; ok {
		state := initial.WithFailure(message)
		return state.WithAnalysis(simulation.AnalysisResult{Score: 0, Takeaways: []string{"Conversation failed due to error"}}), nil
	}
	state := initial.WithTermination(simulation.TerminationMaxTurns)
	return state.WithAnalysis(simulation.AnalysisResult{Score: 75, Takeaways: []string{"Good fit"}}), nil
}

func testProfile(id, name string) *profiledao.Profile {
	return &profiledao.Profile{
		ID:   id,
		Name: name,
		Persona: &persona.AgentPersona{
			Identity: persona.Identity{Name: name},
		},
		IngestionStatus: profiledao.IngestionComplete,
	}
}

func TestService_RunBatch(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{
		me: testProfile("me", "Ada"),
		partners: []*profiledao.Profile{
			testProfile("ben", "Ben"),
			testProfile("cara", "Cara"),
			testProfile("dan", "Dan"),
		},
	}
	conversations := &fakeConversations{existing: map[string]bool{"cara": true}}
	runner := &fakeRunner{}
	service, err := New(profiles, conversations, runner, WithDelay(0))
	assert.Nil(t, err)

	result, err := service.RunBatch(context.Background(), "me")
	assert.Nil(t, err)

	assert.EqualValues(t, 2, result.Total, "already-connected partner is skipped")
	assert.EqualValues(t, 2, result.Run)
	assert.EqualValues(t, 2, result.Succeeded)
	assert.EqualValues(t, 0, result.Failed)
	assert.EqualValues(t, []string{"ben", "dan"}, conversations.created)
	assert.EqualValues(t, 1, runner.maxActive, "conversations never overlap")

	for _, outcome := range result.Outcomes {
		assert.True(t, outcome.Success)
		assert.NotNil(t, outcome.Score)
		assert.EqualValues(t, 75, *outcome.Score)
	}
}

func TestService_RunBatch_PartnerFailureContinues(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{
		me: testProfile("me", "Ada"),
		partners: []*profiledao.Profile{
			testProfile("ben", "Ben"),
			testProfile("cara", "Cara"),
		},
	}
	conversations := &fakeConversations{}
	runner := &fakeRunner{failConversation: map[string]string{"ben": "agent reply failed: unavailable"}}
	service, err := New(profiles, conversations, runner, WithDelay(0))
	assert.Nil(t, err)

	result, err := service.RunBatch(context.Background(), "me")
	assert.Nil(t, err, "a model failure in one conversation does not stop the batch")

	assert.EqualValues(t, 2, result.Run)
	assert.EqualValues(t, 1, result.Succeeded)
	assert.EqualValues(t, 1, result.Failed)
	assert.False(t, result.Outcomes[0].Success)
	assert.Contains(t, result.Outcomes[0].Error, "agent reply failed")
	assert.True(t, result.Outcomes[1].Success)
}

func TestService_RunBatch_CreateFailureContinues(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{
		me: testProfile("me", "Ada"),
		partners: []*profiledao.Profile{
			testProfile("ben", "Ben"),
			testProfile("cara", "Cara"),
		},
	}
	conversations := &fakeConversations{failFor: map[string]error{"ben": fmt.Errorf("constraint violation")}}
	runner := &fakeRunner{}
	service, err := New(profiles, conversations, runner, WithDelay(0))
	assert.Nil(t, err)

	result, err := service.RunBatch(context.Background(), "me")
	assert.Nil(t, err)

	assert.EqualValues(t, 1, result.Run, "only the created conversation counts as run")
	assert.EqualValues(t, 1, result.Failed)
	assert.EqualValues(t, 1, result.Succeeded)
	assert.EqualValues(t, "", result.Outcomes[0].ConversationID)
}

func TestService_RunBatch_StoreFailureIsFatal(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{
		me: testProfile("me", "Ada"),
		partners: []*profiledao.Profile{
			testProfile("ben", "Ben"),
			testProfile("cara", "Cara"),
		},
	}
	conversations := &fakeConversations{}
	runner := &fakeRunner{storeErr: fmt.Errorf("failed to persist turn: disk full")}
	service, err := New(profiles, conversations, runner, WithDelay(0))
	assert.Nil(t, err)

	result, err := service.RunBatch(context.Background(), "me")
	assert.NotNil(t, err, "store unavailability aborts the batch")
	assert.EqualValues(t, 1, len(result.Outcomes), "the batch stops at the failing conversation")
	assert.EqualValues(t, 1, runner.runs)
}

func TestService_RunBatch_UnknownUser(t *testing.T) {
	t.Parallel()
	service, err := New(&fakeProfiles{}, &fakeConversations{}, &fakeRunner{})
	assert.Nil(t, err)
	_, err = service.RunBatch(context.Background(), "ghost")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "not found or persona not ready")
}

func TestService_RunBatch_NoPendingPartners(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{
		me:       testProfile("me", "Ada"),
		partners: []*profiledao.Profile{testProfile("ben", "Ben")},
	}
	conversations := &fakeConversations{existing: map[string]bool{"ben": true}}
	runner := &fakeRunner{}
	service, err := New(profiles, conversations, runner)
	assert.Nil(t, err)

	result, err := service.RunBatch(context.Background(), "me")
	assert.Nil(t, err)
	assert.EqualValues(t, 0, result.Total)
	assert.EqualValues(t, 0, runner.runs)
}
