package crash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverWithStackSwallowsPanic(t *testing.T) {
	ran := false
	assert.NotPanics(t, func() {
		defer RecoverWithStack("test")
		ran = true
		panic("boom")
	})
	assert.True(t, ran)
}

func TestSafeGoroutine(t *testing.T) {
	done := make(chan struct{})
	SafeGoroutine("test", func() {
		defer close(done)
		panic("boom")
	})
	<-done
}
