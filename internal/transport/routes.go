package transport

import "github.com/wb-go/wbf/ginext"

// Router - то, что нужно от движка для регистрации маршрутов; *ginext.Engine ему удовлетворяет
type Router interface {
	GET(relativePath string, handlers ...ginext.HandlerFunc)
	POST(relativePath string, handlers ...ginext.HandlerFunc)
	DELETE(relativePath string, handlers ...ginext.HandlerFunc)
}

// RegisterRoutes - статические пути регистрируются раньше /:filename
func RegisterRoutes(r Router, h *ImageHandler, apiKey string) {
	auth := RequireAPIKey(apiKey)

	r.GET("/", h.Root)
	r.GET("/favicon.ico", h.Favicon)
	r.GET("/robots.txt", h.Robots)
	r.GET("/health", h.Health)

	r.POST("/upload", auth, h.Upload) // загрузка по URL или base64
	r.GET("/files", h.List)
	r.GET("/files/count", h.Count)
	r.GET("/files/size", h.Size)

	r.GET("/:filename", h.Serve)
	r.DELETE("/:filename", auth, h.Delete) // удаление
}
