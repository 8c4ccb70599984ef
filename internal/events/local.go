package events

import (
	"context"
	"sync"
)

const localBuffer = 64

// Local is an in-process Broker used when Redis is disabled. It only reaches
// subscribers in the same process. Slow subscribers drop messages instead of
// blocking publishers.
type Local struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[chan []byte]struct{})}
}

func (l *Local) Publish(_ context.Context, channel string, payload []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for ch := range l.subs[channel] {
		msg := append([]byte(nil), payload...)
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, localBuffer)

	l.mu.Lock()
	if l.subs[channel] == nil {
		l.subs[channel] = make(map[chan []byte]struct{})
	}
	l.subs[channel][ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs[channel], ch)
			if len(l.subs[channel]) == 0 {
				delete(l.subs, channel)
			}
			l.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cleanup()
	}()

	return ch, cleanup, nil
}
