// Package actions defines the events raised by journal operations. Each tag
// has its own payload type so rule evaluators can switch on the concrete
// value instead of probing a loosely shaped map.
package actions

import (
	"errors"
	"fmt"
	"strings"
)

type Tag string

const (
	TagNewDream        Tag = "NEW_DREAM"
	TagAnalyzeDream    Tag = "ANALYZE_DREAM"
	TagGenerateImage   Tag = "GENERATE_IMAGE"
	TagGenerateVideo   Tag = "GENERATE_VIDEO"
	TagConsultOracle   Tag = "CONSULT_ORACLE"
	TagAddTotem        Tag = "ADD_TOTEM"
	TagAddSymbol       Tag = "ADD_SYMBOL"
	TagStartIncubation Tag = "START_INCUBATION"
	TagLogSleep        Tag = "LOG_SLEEP"
	TagSaveReading     Tag = "SAVE_READING"
	TagStartOdyssey    Tag = "START_ODYSSEY"
	TagCreateSeries    Tag = "CREATE_SERIES"
)

var ErrUnknownTag = errors.New("unknown action tag")

// Action is a tagged event with a tag-specific payload.
type Action interface {
	Tag() Tag
}

type NewDream struct {
	DreamID  string
	Clarity  int
	Lucidity int
	Tags     []string
}

type AnalyzeDream struct{ DreamID string }

type GenerateImage struct{ DreamID string }

type GenerateVideo struct{ DreamID string }

type ConsultOracle struct {
	Question string
	Cards    int
}

type AddTotem struct{ Name string }

type AddSymbol struct{ Term string }

type StartIncubation struct{ Intention string }

type LogSleep struct {
	Hours   float64
	Quality int
}

type SaveReading struct {
	Kind  string
	Cards int
}

type StartOdyssey struct{ Title string }

type CreateSeries struct{ Title string }

func (NewDream) Tag() Tag        { return TagNewDream }
func (AnalyzeDream) Tag() Tag    { return TagAnalyzeDream }
func (GenerateImage) Tag() Tag   { return TagGenerateImage }
func (GenerateVideo) Tag() Tag   { return TagGenerateVideo }
func (ConsultOracle) Tag() Tag   { return TagConsultOracle }
func (AddTotem) Tag() Tag        { return TagAddTotem }
func (AddSymbol) Tag() Tag       { return TagAddSymbol }
func (StartIncubation) Tag() Tag { return TagStartIncubation }
func (LogSleep) Tag() Tag        { return TagLogSleep }
func (SaveReading) Tag() Tag     { return TagSaveReading }
func (StartOdyssey) Tag() Tag    { return TagStartOdyssey }
func (CreateSeries) Tag() Tag    { return TagCreateSeries }

// flatXP is awarded for the action itself, before any quest reward.
var flatXP = map[Tag]int{
	TagNewDream:        20,
	TagAnalyzeDream:    10,
	TagGenerateImage:   10,
	TagGenerateVideo:   15,
	TagConsultOracle:   10,
	TagAddTotem:        15,
	TagAddSymbol:       5,
	TagStartIncubation: 10,
	TagLogSleep:        5,
	TagSaveReading:     5,
	TagStartOdyssey:    20,
	TagCreateSeries:    10,
}

// FlatXP returns the fixed XP award for tag, or 0 when the tag has none.
func FlatXP(tag Tag) int {
	return flatXP[tag]
}

// Tags lists every known tag.
func Tags() []Tag {
	return []Tag{
		TagNewDream, TagAnalyzeDream, TagGenerateImage, TagGenerateVideo,
		TagConsultOracle, TagAddTotem, TagAddSymbol, TagStartIncubation,
		TagLogSleep, TagSaveReading, TagStartOdyssey, TagCreateSeries,
	}
}

// ParseTag accepts tags in any case with '-', ' ' or '_' separators.
func ParseTag(raw string) (Tag, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, tag := range Tags() {
		if string(tag) == norm {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTag, raw)
}
