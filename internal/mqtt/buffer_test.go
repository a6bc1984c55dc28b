package mqtt

import "testing"

func push(rb *ringBuffer, from, to int) {
	for i := from; i < to; i++ {
		rb.push(bufferedMsg{topic: TopicTelemetry, payload: []byte{byte(i)}})
	}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferKeepsOrder(t *testing.T) {
	rb := newRingBuffer(10)
	push(rb, 0, 5)
	if rb.len() != 5 {
		t.Fatalf("len: got %d, want 5", rb.len())
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, msg := range got {
		if msg.payload[0] != byte(i) {
			t.Errorf("item %d: got payload %d", i, msg.payload[0])
		}
	}
	if rb.len() != 0 || rb.drainAll() != nil {
		t.Error("buffer should be empty after drain")
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	rb := newRingBuffer(5)
	push(rb, 0, 8)
	if rb.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", rb.dropped)
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(i + 3); msg.payload[0] != want {
			t.Errorf("item %d: got %d, want %d", i, msg.payload[0], want)
		}
	}
	if rb.dropped != 0 {
		t.Error("drain should reset the dropped count")
	}
}

func TestRingBufferReusableAfterWrap(t *testing.T) {
	rb := newRingBuffer(4)
	push(rb, 0, 3)
	rb.drainAll()
	push(rb, 10, 16)

	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(12 + i); msg.payload[0] != want {
			t.Errorf("item %d: got %d, want %d", i, msg.payload[0], want)
		}
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	push(rb, 0, 3)
	got := rb.drainAll()
	if len(got) != 1 || got[0].payload[0] != 2 {
		t.Errorf("expected only the newest message, got %+v", got)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte(`{"test":true}`), qos: 1, retained: true})
	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || string(m.payload) != `{"test":true}` || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}
