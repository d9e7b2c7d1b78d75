package events

type Started struct {
	Base
}

func NewStartedEvent(executionId, listName string) *Started {
	return &Started{
		Base: Base{ExecutionId: executionId, ListName: listName},
	}
}
