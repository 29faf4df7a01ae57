package handler

import (
	"sync"
	"time"
)

const promptWindow = 60 * time.Second

// promptRegistry tracks open "reply with a value" prompts, keyed by guild,
// channel and user. A prompt is fulfilled by the next message from that
// user in that channel or abandoned after the window elapses.
type promptRegistry struct {
	mu      sync.Mutex
	pending map[string]*prompt
}

type prompt struct {
	timer     *time.Timer
	onValue   func(value string)
	onTimeout func()
}

func newPromptRegistry() *promptRegistry {
	return &promptRegistry{pending: make(map[string]*prompt)}
}

func promptKey(guildID, channelID, userID string) string {
	return guildID + ":" + channelID + ":" + userID
}

// Await opens a prompt, replacing any previous one for the same key.
func (r *promptRegistry) Await(key string, onValue func(value string), onTimeout func()) {
	r.mu.Lock()
	if previous, ok := r.pending[key]; ok {
		previous.timer.Stop()
	}
	p := &prompt{onValue: onValue, onTimeout: onTimeout}
	p.timer = time.AfterFunc(promptWindow, func() {
		r.expire(key, p)
	})
	r.pending[key] = p
	r.mu.Unlock()
}

// expire abandons a prompt when its window elapses. The timer may fire
// while a fulfilling message holds the lock; only the callback that still
// owns the entry reports the timeout, so the actor never hears both
// outcomes.
func (r *promptRegistry) expire(key string, p *prompt) {
	r.mu.Lock()
	owned := r.pending[key] == p
	if owned {
		delete(r.pending, key)
	}
	r.mu.Unlock()
	if owned {
		p.onTimeout()
	}
}

// Fulfill resolves an open prompt with the user's reply. Returns false when
// no prompt is open for the key.
func (r *promptRegistry) Fulfill(key, value string) bool {
	r.mu.Lock()
	p, ok := r.pending[key]
	if ok {
		p.timer.Stop()
		delete(r.pending, key)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	p.onValue(value)
	return true
}
