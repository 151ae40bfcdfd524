package model

import (
	"fmt"
	"testing"
)

func TestConversationEvictsOldestFirst(t *testing.T) {
	c := NewConversation("u1")
	for i := 0; i < 10; i++ {
		c.Append(RoleUser, fmt.Sprintf("turn-%d", i), 6)
	}
	if len(c.Turns) != 6 {
		t.Fatalf("expected history bounded to 6 turns, got %d", len(c.Turns))
	}
	if c.Turns[0].Content != "turn-4" {
		t.Fatalf("expected oldest turns evicted first, head is %q", c.Turns[0].Content)
	}
	if c.Turns[5].Content != "turn-9" {
		t.Fatalf("newest turn must be retained, tail is %q", c.Turns[5].Content)
	}
}

func TestConversationNeverEvictsPinnedLeadingTurn(t *testing.T) {
	c := NewConversation("u1")
	c.Pin("you are a helpful assistant")
	for i := 0; i < 20; i++ {
		c.Append(RoleUser, fmt.Sprintf("turn-%d", i), 4)
	}
	if len(c.Turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(c.Turns))
	}
	if !c.Turns[0].Pinned || c.Turns[0].Role != RoleSystem {
		t.Fatalf("pinned system turn must survive eviction")
	}
	if c.Turns[3].Content != "turn-19" {
		t.Fatalf("newest turn must be retained, tail is %q", c.Turns[3].Content)
	}
}

func TestConversationPinReplacesExisting(t *testing.T) {
	c := NewConversation("u1")
	c.Pin("first prompt")
	c.Pin("second prompt")
	if len(c.Turns) != 1 || c.Turns[0].Content != "second prompt" {
		t.Fatalf("re-pinning must replace the leading system turn")
	}
}

func TestConversationClearEmptiesHistory(t *testing.T) {
	c := NewConversation("u1")
	c.Model = "anthropic/claude-sonnet-4"
	c.Append(RoleUser, "hi", 0)
	c.Append(RoleAssistant, "hello", 0)
	c.Clear()
	if len(c.Turns) != 0 {
		t.Fatalf("clear must empty the history, got %d turns", len(c.Turns))
	}
	if c.Model != "anthropic/claude-sonnet-4" {
		t.Fatalf("clear must not touch the model preference")
	}
}

func TestConversationUnboundedWhenMaxZero(t *testing.T) {
	c := NewConversation("u1")
	for i := 0; i < 50; i++ {
		c.Append(RoleUser, "x", 0)
	}
	if len(c.Turns) != 50 {
		t.Fatalf("maxTurns=0 means unbounded, got %d", len(c.Turns))
	}
}
