package cli

import (
	"context"
	"database/sql"
	"sync"

	"github.com/conversim/conversim/genai/llm/provider/gemini"
	"github.com/conversim/conversim/genai/simulation"
	"github.com/conversim/conversim/internal/config"
	convdao "github.com/conversim/conversim/internal/dao/conversation"
	profiledao "github.com/conversim/conversim/internal/dao/profile"
	elog "github.com/conversim/conversim/internal/log"
	"github.com/conversim/conversim/internal/service/connect"
	convsvc "github.com/conversim/conversim/internal/service/conversation"
	"github.com/conversim/conversim/internal/service/sqlite"
)

var (
	configPathMu sync.Mutex
	configPath   string
)

func setConfigPath(path string) {
	configPathMu.Lock()
	defer configPathMu.Unlock()
	configPath = path
}

func getConfigPath() string {
	configPathMu.Lock()
	defer configPathMu.Unlock()
	return configPath
}

// runtime bundles the services shared by sub-commands.
type runtime struct {
	cfg           *config.Config
	db            *sql.DB
	profiles      *profiledao.Service
	conversations *convsvc.Service
	runner        *simulation.Runner
	connect       *connect.Service
}

func (r *runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *runtime) records() *convdao.Service {
	return r.conversations.Records()
}

// newRuntime loads the config, ensures the database schema and builds the
// full orchestration stack.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(ctx, getConfigPath())
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.Root).Open(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := profiledao.New(db)
	if err != nil {
		return nil, err
	}
	conversations, err := convsvc.New(db)
	if err != nil {
		return nil, err
	}

	model := gemini.NewClient(cfg.APIKey, cfg.Model, gemini.WithBaseURL(cfg.BaseURL))
	generator, err := simulation.NewGenerator(model)
	if err != nil {
		return nil, err
	}
	analyzer, err := simulation.NewAnalyzer(model)
	if err != nil {
		return nil, err
	}

	runner, err := simulation.NewRunner(generator, analyzer, conversations, conversations,
		simulation.WithTurnListener(publishTurn))
	if err != nil {
		return nil, err
	}

	connectSvc, err := connect.New(profiles, conversations.Records(), runner,
		connect.WithMaxTurns(cfg.MaxTurns),
		connect.WithDelay(cfg.DelayDuration()))
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:           cfg,
		db:            db,
		profiles:      profiles,
		conversations: conversations,
		runner:        runner,
		connect:       connectSvc,
	}, nil
}

func publishTurn(state simulation.State, entry simulation.TranscriptEntry) {
	elog.Publish(elog.Event{EventType: elog.ConversationTurn, Payload: elog.TurnPayload{
		ConversationID: state.ConversationID,
		Speaker:        entry.Speaker,
		Text:           entry.Text,
		Turn:           state.CompletedTurns,
	}})
}
