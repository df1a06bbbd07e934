package endpoints

import (
	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/defra"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	DefraManager *defra.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Book endpoints
		&UploadBookEndpoint{},
		&ListBooksEndpoint{},
		&GetBookEndpoint{},

		// Catalog endpoints
		&CatalogSearchEndpoint{},
		&CatalogImportEndpoint{},

		// Podcast endpoints
		&GeneratePodcastEndpoint{},
		&RetryEpisodesEndpoint{},
		&ListPodcastsEndpoint{},
		&RenderEpisodeAudioEndpoint{},
		&DownloadEpisodeAudioEndpoint{},

		// Progress endpoints
		&ListPodcastJobsEndpoint{},
		&ListLLMCallsEndpoint{},
		&ListNotificationsEndpoint{},
		&DismissNotificationEndpoint{},
		&ClearNotificationsEndpoint{},
		&EventsEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
