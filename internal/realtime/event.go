package realtime

import "encoding/json"

// Event names pushed to connected clients.
const (
	EventTaskCreated    = "task-created"
	EventTaskUpdated    = "task-updated"
	EventTaskDeleted    = "task-deleted"
	EventProjectUpdated = "project-updated"
	EventCommentCreated = "comment-created"
	EventCommentUpdated = "comment-updated"
	EventCommentDeleted = "comment-deleted"
	EventMemberJoined   = "member-joined"
	EventMemberLeft     = "member-left"
	EventNotification   = "notification:new"
)

// Inbound event names clients may send.
const (
	EventJoinProject  = "join-project"
	EventLeaveProject = "leave-project"
)

// relayable lists client-emitted mutation events the hub rebroadcasts
// verbatim to the rest of the room.
var relayable = map[string]struct{}{
	EventTaskCreated:    {},
	EventTaskUpdated:    {},
	EventTaskDeleted:    {},
	EventProjectUpdated: {},
	EventCommentCreated: {},
	EventCommentUpdated: {},
	EventCommentDeleted: {},
}

// Event is the wire frame exchanged over the websocket in both directions.
type Event struct {
	Event     string      `json:"event"`
	ProjectID uint        `json:"project_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func (e Event) encode() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return []byte(`{"event":"error"}`)
	}
	return b
}
