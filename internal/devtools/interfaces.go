package devtools

import (
	"context"

	"dreamcatcher/internal/app"
	"dreamcatcher/internal/journal"
)

// Journal is the part of the state container seeds write through.
type Journal interface {
	RecordDream(ctx context.Context, in journal.DreamInput) (journal.Dream, error)
	AnalyzeDream(ctx context.Context, id, analysis string) (journal.Dream, error)
	AttachImage(ctx context.Context, id, url string) (journal.Dream, error)
	AddTotem(ctx context.Context, name, description string) (journal.Totem, error)
	AddSymbol(ctx context.Context, term, meaning string) (journal.Symbol, error)
	LogSleep(ctx context.Context, in app.SleepInput) (journal.SleepSession, error)
	StartIncubation(ctx context.Context, intention string) (journal.IncubationSession, error)
	ConsultOracle(ctx context.Context, question, answer string, cards []string) (journal.Reading, error)
	StartOdyssey(ctx context.Context, title string, steps []string) (journal.Odyssey, error)
	CreateSeries(ctx context.Context, title string, dreamIDs ...string) (journal.Series, error)
}
