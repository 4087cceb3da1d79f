// Package notify delivers the end-of-run summary to the user.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Sink delivers a message. Implementations must not retry on their own.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// BuildMessage formats the run summary: the new-transaction count, then a
// blank line and one advisory per line when there are advisories.
func BuildMessage(newCount int, advisories []string) string {
	msg := fmt.Sprintf("There are %d new transactions.", newCount)
	if len(advisories) == 0 {
		return msg
	}
	return msg + "\n\n" + strings.Join(advisories, "\n")
}
