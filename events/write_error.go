package events

// WriteError is published when rendered entries could not be written to the sink
type WriteError struct {
	Base
	ChunkNumber int
	Err         error
}

func NewWriteErrorEvent(executionId, listName string, chunkNumber int, err error) *WriteError {
	return &WriteError{
		Base:        Base{ExecutionId: executionId, ListName: listName},
		ChunkNumber: chunkNumber,
		Err:         err,
	}
}
