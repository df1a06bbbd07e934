package series

import "github.com/jackzampolin/bookcast/internal/podcast"

// EventType names a progress event.
type EventType string

const (
	EventOutlineReady  EventType = "outline_ready"
	EventEpisodeReady  EventType = "episode_ready"
	EventEpisodeFailed EventType = "episode_failed"
	EventFinished      EventType = "finished"
	EventFailed        EventType = "failed"
)

// Event reports progress of a run. Series is set for outline_ready and
// finished, Episode and Script for episode events, Err for failures.
type Event struct {
	Type    EventType
	JobID   string
	Series  *podcast.Series
	Episode int
	Script  *podcast.Script
	Err     error
}
