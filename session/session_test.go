package session

import (
	"sync"
	"testing"
)

func TestFreshChatZeroState(t *testing.T) {
	s := NewStore()
	st := s.Get(42)
	if st.EnteringFeedback {
		t.Error("fresh chat must not be in the feedback form")
	}
	if st.ReturnTo != 0 {
		t.Errorf("fresh chat ReturnTo = %d, want 0", st.ReturnTo)
	}
}

func TestSetAndReset(t *testing.T) {
	s := NewStore()
	s.SetReturnTo(1, 7)
	s.SetEnteringFeedback(1, true)

	st := s.Get(1)
	if st.ReturnTo != 7 || !st.EnteringFeedback {
		t.Errorf("state = %+v, want ReturnTo 7 and EnteringFeedback", st)
	}

	s.Reset(1)
	st = s.Get(1)
	if st.ReturnTo != 0 || st.EnteringFeedback {
		t.Errorf("state after reset = %+v, want zero", st)
	}
}

func TestChatsIsolated(t *testing.T) {
	s := NewStore()
	s.SetEnteringFeedback(1, true)
	if s.Get(2).EnteringFeedback {
		t.Error("state of chat 1 leaked into chat 2")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.SetReturnTo(id, id*2)
			s.SetEnteringFeedback(id, true)
			_ = s.Get(id)
			s.Reset(id)
		}(int64(i))
	}
	wg.Wait()
}
