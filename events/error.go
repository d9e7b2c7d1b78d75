package events

// Error is published when a list fails. The pump stops after publishing it.
type Error struct {
	Base
	Err error
}

func NewErrorEvent(executionId, listName string, err error) *Error {
	return &Error{
		Base: Base{ExecutionId: executionId, ListName: listName},
		Err:  err,
	}
}
