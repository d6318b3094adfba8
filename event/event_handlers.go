package event

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventHandler returns nil for events it does not handle.
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var (
	EventHandlers []EventHandler
	handlersMu    sync.RWMutex

	InvokeHandlersFunc = invokeHandlers
)

func RegisterHandler(h EventHandler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	EventHandlers = append(EventHandlers, h)
}

// invokeHandlers runs after the change is committed. A failing or panicking handler is logged
// and the remaining handlers still run.
func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	if record == nil {
		return results
	}
	handlersMu.RLock()
	handlers := append([]EventHandler{}, EventHandlers...)
	handlersMu.RUnlock()

	for _, handler := range handlers {
		r := safeHandle(handler, record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := logrus.WithFields(logrus.Fields{"sourceId": record.SourceId, "category": record.EventCategory,
			"handler": r.HandlerIdentifier})
		if r.Success {
			entry.Debug("event handled")
		} else {
			entry.Error("event handler failed: ", r.Message)
		}
	}
	return results
}

func safeHandle(handler EventHandler, record *EventRecord) (r *EventHandleResult) {
	defer func() {
		if p := recover(); p != nil {
			r = &EventHandleResult{Success: false, Message: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return handler(record)
}
