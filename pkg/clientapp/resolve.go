package clientapp

import (
	"fmt"
	"strconv"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/session"
)

// ResolveSession finds a session by id, or by its 1-based position in the
// list as printed by "xingling session list".
func ResolveSession(store *session.Store, ref string) (llm.Session, error) {
	if sess, err := store.Get(ref); err == nil {
		return sess, nil
	}

	n, err := strconv.Atoi(ref)
	if err != nil {
		return llm.Session{}, fmt.Errorf("%w: %s", session.ErrNotFound, ref)
	}

	sessions := store.List()
	if n < 1 || n > len(sessions) {
		return llm.Session{}, fmt.Errorf("%w: no session at position %d", session.ErrNotFound, n)
	}
	return sessions[n-1], nil
}
