package sse

import (
	"context"
	"sync"

	"ms-storefront/internal/checkout"
)

// CheckoutStateEmitter manages SSE connections and fanout of checkout state
// changes. Subscribers are keyed by checkout ID.
type CheckoutStateEmitter struct {
	clients     map[string][]chan checkout.StateSnapshot
	clientMutex sync.RWMutex
}

func NewCheckoutStateEmitter() *CheckoutStateEmitter {
	return &CheckoutStateEmitter{
		clients: make(map[string][]chan checkout.StateSnapshot),
	}
}

// Subscribe adds a client to a checkout's state stream. The returned channel
// is closed when the context ends.
func (e *CheckoutStateEmitter) Subscribe(ctx context.Context, checkoutID string) chan checkout.StateSnapshot {
	clientChan := make(chan checkout.StateSnapshot, 10)

	e.clientMutex.Lock()
	e.clients[checkoutID] = append(e.clients[checkoutID], clientChan)
	e.clientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeClient(checkoutID, clientChan)
	}()

	return clientChan
}

// EmitStateChange broadcasts a snapshot to all subscribers of its checkout.
func (e *CheckoutStateEmitter) EmitStateChange(snapshot checkout.StateSnapshot) {
	e.clientMutex.RLock()
	clients := e.clients[snapshot.CheckoutID]
	e.clientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send to avoid slowing down emitter if client is slow
		select {
		case clientChan <- snapshot:
			// Successfully sent
		default:
			// Channel buffer full, skip this client for now
		}
	}
}

func (e *CheckoutStateEmitter) removeClient(checkoutID string, clientChan chan checkout.StateSnapshot) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[checkoutID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[checkoutID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[checkoutID]) == 0 {
		delete(e.clients, checkoutID)
	}
}

// ClientCount returns the number of clients currently subscribed to a checkout.
func (e *CheckoutStateEmitter) ClientCount(checkoutID string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[checkoutID])
}
