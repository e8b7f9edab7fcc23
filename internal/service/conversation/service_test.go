package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/conversim/conversim/genai/simulation"
	"github.com/conversim/conversim/internal/service/sqlite"
	"github.com/stretchr/testify/assert"
)

func testService(t *testing.T) *Service {
	db, err := sqlite.New(t.TempDir()).Open(context.Background())
	assert.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })
	service, err := New(db)
	assert.Nil(t, err)
	return service
}

func entry(speaker, id, text string) simulation.TranscriptEntry {
	return simulation.TranscriptEntry{Speaker: speaker, ID: id, Text: text, Timestamp: time.Unix(1700000000, 0).UTC()}
}

func TestService_AppendTurn(t *testing.T) {
	t.Parallel()
	service := testService(t)
	ctx := context.Background()

	record, err := service.Records().Create(ctx, "user-a", "user-b")
	assert.Nil(t, err)

	first := entry("Ada", "user-a", "hello")
	err = service.AppendTurn(ctx, record.ID, first, simulation.Cursor{Entries: 1, NextSpeaker: simulation.SpeakerB})
	assert.Nil(t, err)

	second := entry("Ben", "user-b", "hi")
	err = service.AppendTurn(ctx, record.ID, second, simulation.Cursor{Entries: 2, NextSpeaker: simulation.SpeakerA, CompletedTurns: 1})
	assert.Nil(t, err)

	snapshot, err := service.Snapshot(ctx, record.ID)
	assert.Nil(t, err)
	assert.EqualValues(t, []simulation.TranscriptEntry{first, second}, snapshot)

	cursor, err := service.LoadOrInit(ctx, record.ID)
	assert.Nil(t, err)
	assert.EqualValues(t, simulation.Cursor{Entries: 2, NextSpeaker: simulation.SpeakerA, CompletedTurns: 1}, cursor,
		"transcript and cursor advance together")
}

func TestService_AppendTurnUnknownConversation(t *testing.T) {
	t.Parallel()
	service := testService(t)
	err := service.AppendTurn(context.Background(), "no-such-id", entry("Ada", "user-a", "hello"),
		simulation.Cursor{Entries: 1, NextSpeaker: simulation.SpeakerB})
	assert.NotNil(t, err)

	// the failed append must not leave a checkpoint behind
	cursor, err := service.LoadOrInit(context.Background(), "no-such-id")
	assert.Nil(t, err)
	assert.EqualValues(t, 0, cursor.Entries)
}

func TestService_ResumeAfterInterruption(t *testing.T) {
	t.Parallel()
	service := testService(t)
	ctx := context.Background()

	record, err := service.Records().Create(ctx, "user-a", "user-b")
	assert.Nil(t, err)

	// simulate a run that died after committing two utterances
	err = service.AppendTurn(ctx, record.ID, entry("Ada", "user-a", "Hi, I'm Ada!"),
		simulation.Cursor{Entries: 1, NextSpeaker: simulation.SpeakerB})
	assert.Nil(t, err)
	err = service.AppendTurn(ctx, record.ID, entry("Ben", "user-b", "Hi Ada, I'm Ben."),
		simulation.Cursor{Entries: 2, NextSpeaker: simulation.SpeakerA, CompletedTurns: 1})
	assert.Nil(t, err)

	// a fresh process sees the committed position, not the start
	cursor, err := service.LoadOrInit(ctx, record.ID)
	assert.Nil(t, err)
	assert.EqualValues(t, 2, cursor.Entries)
	assert.EqualValues(t, simulation.SpeakerA, cursor.NextSpeaker)

	snapshot, err := service.Snapshot(ctx, record.ID)
	assert.Nil(t, err)
	assert.EqualValues(t, 2, len(snapshot))
	assert.EqualValues(t, "Hi, I'm Ada!", snapshot[0].Text)
}
