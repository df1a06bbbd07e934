package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// ListJobsResponse is a snapshot of generation jobs.
type ListJobsResponse struct {
	Jobs []jobs.Job `json:"jobs"`
}

// ListPodcastJobsEndpoint handles GET /api/podcast-jobs.
type ListPodcastJobsEndpoint struct{}

func (e *ListPodcastJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/podcast-jobs", e.handler
}

func (e *ListPodcastJobsEndpoint) RequiresInit() bool { return false }

func (e *ListPodcastJobsEndpoint) Group() string { return "jobs" }

// handler godoc
//
//	@Summary	List podcast generation jobs
//	@Tags		jobs
//	@Produce	json
//	@Success	200	{object}	ListJobsResponse
//	@Router		/api/podcast-jobs [get]
func (e *ListPodcastJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := ListJobsResponse{Jobs: []jobs.Job{}}
	if tracker := svcctx.JobsFrom(r.Context()); tracker != nil {
		resp.Jobs = tracker.GetAll()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPodcastJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List podcast generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListJobsResponse
			if err := client.Get(cmd.Context(), "/api/podcast-jobs", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListNotificationsResponse is a snapshot of notifications, newest first.
type ListNotificationsResponse struct {
	Notifications []jobs.Notification `json:"notifications"`
}

// ListNotificationsEndpoint handles GET /api/notifications.
type ListNotificationsEndpoint struct{}

func (e *ListNotificationsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/notifications", e.handler
}

func (e *ListNotificationsEndpoint) RequiresInit() bool { return false }

func (e *ListNotificationsEndpoint) Group() string { return "notifications" }

// handler godoc
//
//	@Summary	List notifications
//	@Tags		notifications
//	@Produce	json
//	@Success	200	{object}	ListNotificationsResponse
//	@Router		/api/notifications [get]
func (e *ListNotificationsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := ListNotificationsResponse{Notifications: []jobs.Notification{}}
	if notes := svcctx.NotificationsFrom(r.Context()); notes != nil {
		resp.Notifications = notes.GetAll()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListNotificationsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListNotificationsResponse
			if err := client.Get(cmd.Context(), "/api/notifications", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DismissNotificationEndpoint handles DELETE /api/notifications/{id}.
type DismissNotificationEndpoint struct{}

func (e *DismissNotificationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/notifications/{id}", e.handler
}

func (e *DismissNotificationEndpoint) RequiresInit() bool { return false }

func (e *DismissNotificationEndpoint) Group() string { return "notifications" }

// handler godoc
//
//	@Summary	Dismiss a notification
//	@Tags		notifications
//	@Param		id	path	string	true	"Notification ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/notifications/{id} [delete]
func (e *DismissNotificationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	notes := svcctx.NotificationsFrom(r.Context())
	if notes == nil || !notes.Dismiss(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DismissNotificationEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.NewClient(getServerURL()).Delete(cmd.Context(), "/api/notifications/"+args[0])
		},
	}
}

// ClearNotificationsEndpoint handles DELETE /api/notifications.
type ClearNotificationsEndpoint struct{}

func (e *ClearNotificationsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/notifications", e.handler
}

func (e *ClearNotificationsEndpoint) RequiresInit() bool { return false }

func (e *ClearNotificationsEndpoint) Group() string { return "notifications" }

// handler godoc
//
//	@Summary	Clear all notifications
//	@Tags		notifications
//	@Success	204
//	@Router		/api/notifications [delete]
func (e *ClearNotificationsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if notes := svcctx.NotificationsFrom(r.Context()); notes != nil {
		notes.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *ClearNotificationsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.NewClient(getServerURL()).Delete(cmd.Context(), "/api/notifications")
		},
	}
}
