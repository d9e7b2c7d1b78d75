package events

import "fmt"

// Status is the running tally of events seen for a single list
type Status struct {
	ListName     string
	Lines        int
	Chunks       int
	DecodeErrors int
	WriteErrors  int
	Errors       int
	Completed    bool
	// the error which ended the last attempt, if any
	Err error
}

func NewStatus(listName string) *Status {
	return &Status{
		ListName: listName,
	}
}

func (s *Status) Update(event Event) {
	switch e := event.(type) {
	case *DecodeError:
		s.DecodeErrors++
	case *WriteError:
		s.WriteErrors++
	case *Error:
		s.Errors++
		s.Err = e.Err
	case *Completed:
		// a retried list publishes Completed once per attempt, the last one wins
		s.Lines = e.LinesWritten
		s.Chunks = e.ChunksRead
		s.Completed = true
		s.Err = e.Err
	case *Started:
		s.Completed = false
		s.Err = nil
	}
}

func (s *Status) String() string {
	state := "running"
	switch {
	case s.Err != nil:
		state = "failed"
	case s.Completed:
		state = "done"
	}
	return fmt.Sprintf("%s: %s, %d lines from %d chunks, %d decode errors, %d write errors",
		s.ListName, state, s.Lines, s.Chunks, s.DecodeErrors, s.WriteErrors)
}
