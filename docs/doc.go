// Package docs provides the OpenAPI documentation for the Bookcast API.
//
// Bookcast API
//
//	@title			Bookcast API
//	@version		1.0
//	@description	Turns books into multi-episode podcast series: upload or import books, generate outlines and episode scripts, render audio and follow progress.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/bookcast
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/bookcast/serve.go -o ./swagger --parseDependency --parseInternal
