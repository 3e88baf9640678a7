package mailbox

import (
	"context"

	"applicant-engine/internal/domain"
)

// Source is a mailbox the pipeline drains. Implementations keep enough
// state between Unread and Raw/MarkRead to resolve the ids they handed out.
type Source interface {
	// Unread returns messages not yet marked read, newest first.
	Unread(ctx context.Context) ([]domain.RawMessage, error)
	// Raw returns the undecoded RFC822 bytes of a message.
	Raw(ctx context.Context, mailID string) ([]byte, error)
	// MarkRead flags the given messages so the next Unread skips them.
	MarkRead(ctx context.Context, mailIDs []string) error
	Close() error
}

// Opener connects a fresh Source. Watch mode opens one per pass since
// mail servers drop idle sessions.
type Opener func(ctx context.Context) (Source, error)
