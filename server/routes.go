package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetUpRouter(service RepositoryService) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/repos", service.GetRepositories)
	r.POST("/repos", service.AddRepository)
	r.GET("/repos/:param", service.GetRepository)
	r.PUT("/repos/:param", service.UpdateRepository)
	r.DELETE("/repos/:param", service.DeleteRepository)
	r.GET("/repos/:param/atom", service.GetRepositoryAtom)
	r.POST("/repos/:param/import", service.ImportRepository)
	r.POST("/repos/:param/reimport", service.ReimportRepository)

	r.POST("/releases/:id/renotify/:channel", service.RenotifyRelease)

	r.GET("/livez", service.Livez)
	r.GET("/readyz", service.Readyz)
	r.GET("/revisionz", service.Revisionz)

	return r
}
