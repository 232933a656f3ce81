package chats

import (
	"context"
	"testing"
)

func TestChatScopedToUser(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, NewMemoryStore())
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, "u1", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if chat.Title != "New chat" {
		t.Fatalf("title = %q", chat.Title)
	}

	if _, err := svc.Get(ctx, "u2", chat.ID); err != ErrNotFound {
		t.Fatalf("cross-user get: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Messages(ctx, "u2", chat.ID); err != ErrNotFound {
		t.Fatalf("cross-user messages: err = %v, want ErrNotFound", err)
	}
}

func TestAppendKeepsOrder(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, NewMemoryStore())
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, "u1", "test")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Append(ctx, AppendInput{ChatID: chat.ID, Role: RoleUser, Content: "hi", Status: StatusSent}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Append(ctx, AppendInput{ChatID: chat.ID, Role: RoleAssistant, Content: "hello back"}); err != nil {
		t.Fatal(err)
	}

	msgs, err := svc.Messages(ctx, "u1", chat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("order wrong: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	// Default status for appended replies.
	if msgs[1].Status != StatusSent {
		t.Fatalf("status = %q", msgs[1].Status)
	}
}

func TestAppendUsesProvidedMessageID(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, NewMemoryStore())
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "u1", "test")
	msg, err := svc.Append(ctx, AppendInput{MessageID: "m-1", ChatID: chat.ID, Role: RoleUser, Content: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != "m-1" {
		t.Fatalf("id = %q, want m-1", msg.ID)
	}
}
