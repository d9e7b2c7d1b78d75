package events

// Event is a message published by a pump to its observers
type Event interface {
	GetExecutionId() string
	GetListName() string
}

// Base carries the fields common to every event
type Base struct {
	ExecutionId string
	ListName    string
}

func (b *Base) GetExecutionId() string {
	return b.ExecutionId
}

func (b *Base) GetListName() string {
	return b.ListName
}
