package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitSerializesMutation(t *testing.T) {
	s := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Commit(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5000, counter)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s := New()
	notified := 0
	unsub := s.Subscribe(func() { notified++ })

	s.Commit(func() {})
	s.Commit(func() {})
	assert.Equal(t, 2, notified)

	unsub()
	s.Commit(func() {})
	assert.Equal(t, 2, notified)
}

func TestSubscriberMayReadState(t *testing.T) {
	s := New()
	value := 0
	seen := 0

	s.Subscribe(func() {
		s.View(func() { seen = value })
	})
	s.Commit(func() { value = 42 })

	assert.Equal(t, 42, seen)
}

func TestStatusLifecycle(t *testing.T) {
	var st Status

	st.Fail("boom")
	assert.Equal(t, "boom", st.Error)
	assert.False(t, st.Loading)

	st.Begin()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Error, "pending must clear the prior error")

	st.Done()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}
