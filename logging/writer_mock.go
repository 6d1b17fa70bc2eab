package logging

import (
	"io"
	"sync"
)

//WriterMock keeps written records in memory. Used in tests
type WriterMock struct {
	mutex sync.Mutex
	Data  [][]byte
}

func NewWriterMock() *WriterMock {
	return &WriterMock{Data: [][]byte{}}
}

func (im *WriterMock) Write(dataToWrite []byte) (n int, err error) {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	record := make([]byte, len(dataToWrite))
	copy(record, dataToWrite)
	im.Data = append(im.Data, record)
	return len(dataToWrite), nil
}

//Records returns written records as strings
func (im *WriterMock) Records() []string {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	records := make([]string, 0, len(im.Data))
	for _, r := range im.Data {
		records = append(records, string(r))
	}
	return records
}

func (im *WriterMock) Close() (err error) {
	return nil
}

var _ io.WriteCloser = (*WriterMock)(nil)
