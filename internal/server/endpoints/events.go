package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// Event names on the progress stream.
const (
	EventJobs          = "jobs"
	EventNotifications = "notifications"
)

var keepAliveInterval = 15 * time.Second

// EventsEndpoint handles GET /api/events, a Server-Sent Events stream of
// job and notification snapshots. Each event carries the full current
// list; intermediate snapshots may be coalesced for slow readers.
type EventsEndpoint struct{}

func (e *EventsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/events", e.handler
}

func (e *EventsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Progress stream
//	@Description	Server-Sent Events: "jobs" and "notifications" events carry full snapshots
//	@Tags			jobs
//	@Produce		text/event-stream
//	@Success		200
//	@Router			/api/events [get]
func (e *EventsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracker := svcctx.JobsFrom(ctx)
	notes := svcctx.NotificationsFrom(ctx)
	if tracker == nil || notes == nil {
		writeError(w, http.StatusServiceUnavailable, "progress stores not initialized")
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	jobCh := make(chan []jobs.Job, 1)
	noteCh := make(chan []jobs.Notification, 1)
	unsubJobs := tracker.Subscribe(func(s []jobs.Job) { offer(jobCh, s) })
	defer unsubJobs()
	unsubNotes := notes.Subscribe(func(s []jobs.Notification) { offer(noteCh, s) })
	defer unsubNotes()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return err
		}
		return rc.Flush()
	}

	if send(EventJobs, tracker.GetAll()) != nil || send(EventNotifications, notes.GetAll()) != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case s := <-jobCh:
			err = send(EventJobs, s)
		case s := <-noteCh:
			err = send(EventNotifications, s)
		case <-ticker.C:
			if _, err = fmt.Fprint(w, ": keepalive\n\n"); err == nil {
				err = rc.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// offer replaces any unread value in ch with v without blocking.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (e *EventsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow job and notification updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return client.Stream(cmd.Context(), "/api/events", func(event, data string) error {
				var payload any
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					return err
				}
				return api.Output(map[string]any{event: payload})
			})
		},
	}
}
