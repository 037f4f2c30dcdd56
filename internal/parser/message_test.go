package parser

import "testing"

func TestGroupMessagesDropsZeroUID(t *testing.T) {
	in := []FetchedMessage{
		{UID: 1},
		{UID: 0},
		{UID: 3},
	}
	out := GroupMessages(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if out[0].UID != 1 || out[1].UID != 3 {
		t.Errorf("unexpected order/contents: %+v", out)
	}
}

func TestGroupMessagesPreservesOrder(t *testing.T) {
	in := []FetchedMessage{{UID: 5}, {UID: 2}, {UID: 9}}
	out := GroupMessages(in)
	want := []uint32{5, 2, 9}
	for i, m := range out {
		if m.UID != want[i] {
			t.Errorf("order mismatch at %d: got %d, want %d", i, m.UID, want[i])
		}
	}
}
