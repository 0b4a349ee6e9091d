package collect

import "sync"

// Registry owns every ChatState for the process lifetime. States are
// created lazily on first reference and never destroyed; nothing is
// persisted across restarts.
type Registry struct {
	mu    sync.Mutex
	chats map[int64]*ChatState
}

func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]*ChatState)}
}

// Ensure returns the chat's state, creating a fresh default (not
// watching, empty sets) on first reference.
func (r *Registry) Ensure(chatID int64) *ChatState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, exists := r.chats[chatID]
	if !exists {
		state = newChatState()
		r.chats[chatID] = state
	}
	return state
}

// SetWatching toggles collection for a chat, creating its state if
// needed.
func (r *Registry) SetWatching(chatID int64, watching bool) {
	r.Ensure(chatID).SetWatching(watching)
}

// Snapshot copies the chat's current state.
func (r *Registry) Snapshot(chatID int64) Snapshot {
	return r.Ensure(chatID).Snapshot()
}

// WatchingChats lists the ids of every chat currently collecting.
func (r *Registry) WatchingChats() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	chatIDs := make([]int64, 0, len(r.chats))
	for chatID, state := range r.chats {
		if state.Watching() {
			chatIDs = append(chatIDs, chatID)
		}
	}
	return chatIDs
}
