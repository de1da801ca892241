package codec

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPool_GetPut(t *testing.T) {
	t.Parallel()

	// Get buffer from pool
	buf := GetBuffer()
	assert.NotNil(t, buf)
	assert.Equal(t, 0, buf.Len())

	buf.WriteString("test data")
	PutBuffer(buf)

	// Get again - should be reset
	buf2 := GetBuffer()
	assert.NotNil(t, buf2)
	assert.Equal(t, 0, buf2.Len())
	PutBuffer(buf2)
}

func TestBufferPool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutBuffer(nil)
	})
}

func TestBufferPool_DropsOversized(t *testing.T) {
	t.Parallel()

	big := bytes.NewBuffer(make([]byte, 0, maxPooledBuffer*2))
	assert.NotPanics(t, func() {
		PutBuffer(big)
	})
}

func TestBufferPool_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for _i := 0; _i < 50; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := GetBuffer()
			buf.WriteString("concurrent")
			PutBuffer(buf)
		}()
	}
	wg.Wait()
}
