package events

import (
	"github.com/turbot/hostspipe/types"
)

type Completed struct {
	Base
	LinesWritten int
	ChunksRead   int
	Err          error
	Timing       types.TimingMap
}

func NewCompletedEvent(executionId, listName string, linesWritten int, chunksRead int, timing types.TimingMap, err error) *Completed {
	return &Completed{
		Base:         Base{ExecutionId: executionId, ListName: listName},
		LinesWritten: linesWritten,
		ChunksRead:   chunksRead,
		Timing:       timing,
		Err:          err,
	}
}
