package runtime

import (
	"context"
	"fmt"

	"cosmossdk.io/core/event"
	"cosmossdk.io/core/header"
	"cosmossdk.io/core/store"
	"google.golang.org/protobuf/runtime/protoiface"
)

// KVStoreService opens the module scoped view of the context store.
type KVStoreService struct {
	prefix []byte
}

var _ store.KVStoreService = KVStoreService{}

// NewKVStoreService returns a store service whose keys live under storeKey.
func NewKVStoreService(storeKey string) KVStoreService {
	return KVStoreService{prefix: []byte(storeKey + "/")}
}

// OpenKVStore returns the module view of the context store.
func (s KVStoreService) OpenKVStore(ctx context.Context) store.KVStore {
	return newPrefixStore(multiStore(ctx), s.prefix)
}

// HeaderService reads header information from the context.
type HeaderService struct{}

var _ header.Service = HeaderService{}

func (HeaderService) GetHeaderInfo(ctx context.Context) header.Info {
	return HeaderInfo(ctx)
}

// Event is a recorded key/value event.
type Event struct {
	Type       string
	Attributes []event.Attribute
}

// Attribute returns the value of the named attribute and whether it was present.
func (e Event) Attribute(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// EventCollector accumulates events emitted within a context.
type EventCollector struct {
	events []Event
}

func (c *EventCollector) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *EventCollector) append(events ...Event) { c.events = append(c.events, events...) }
func (c *EventCollector) reset()                 { c.events = nil }

func eventCollector(ctx context.Context) *EventCollector {
	c, _ := ctx.Value(eventsCtxKey{}).(*EventCollector)
	return c
}

// EventService hands out managers that record into the context collector.
type EventService struct{}

var _ event.Service = EventService{}

func (EventService) EventManager(ctx context.Context) event.Manager {
	return eventManager{collector: eventCollector(ctx)}
}

type eventManager struct {
	collector *EventCollector
}

func (m eventManager) Emit(_ context.Context, msg protoiface.MessageV1) error {
	return m.record(fmt.Sprintf("%T", msg), event.Attribute{Key: "msg", Value: msg.String()})
}

func (m eventManager) EmitKV(_ context.Context, eventType string, attrs ...event.Attribute) error {
	return m.record(eventType, attrs...)
}

func (m eventManager) EmitNonConsensus(ctx context.Context, msg protoiface.MessageV1) error {
	return m.Emit(ctx, msg)
}

func (m eventManager) record(eventType string, attrs ...event.Attribute) error {
	if m.collector == nil {
		return fmt.Errorf("no event collector in context for %q", eventType)
	}
	m.collector.append(Event{Type: eventType, Attributes: attrs})
	return nil
}
