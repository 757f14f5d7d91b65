// Package router registers the HTTP routes of the film catalog on Echo.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/film-catalog/internal/handler"
	"github.com/iliyamo/film-catalog/internal/middleware"
)

// Handlers groups the route targets.
type Handlers struct {
	Films     *handler.FilmHandler
	Users     *handler.UserHandler
	Reference *handler.ReferenceHandler
	DB        *sql.DB // serves /readyz
}

// Middlewares holds the optional Redis-backed middleware. Nil entries are
// skipped.
type Middlewares struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// New builds an Echo instance with the JSON serializer, request logging,
// panic recovery and every route registered.
func New(h Handlers, mw Middlewares) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())

	RegisterRoutes(e, h.DB)

	v1 := e.Group("/v1")
	if mw.RateLimit != nil {
		v1.Use(mw.RateLimit)
	}
	if mw.Cache != nil {
		v1.Use(mw.Cache)
	}
	RegisterFilms(v1, h.Films)
	RegisterUsers(v1, h.Users)
	RegisterReference(v1, h.Reference)
	return e
}

// RegisterRoutes registers the unversioned operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterFilms registers film reads, rankings and writes. Static ranking
// paths are registered next to /films/:id; Echo's router prefers static
// segments over parameters.
func RegisterFilms(g *echo.Group, f *handler.FilmHandler) {
	g.GET("/films", f.List)
	g.POST("/films", f.Create)
	g.GET("/films/popular", f.Popular)
	g.GET("/films/popular/filter", f.PopularFiltered)
	g.GET("/films/common", f.Common)
	g.GET("/films/search", f.Search)
	g.GET("/films/director/:id", f.ByDirector)
	g.GET("/films/:id", f.Get)
	g.PUT("/films/:id", f.Update)
	g.DELETE("/films/:id", f.Delete)
	g.PUT("/films/:id/like/:userId", f.AddLike)
	g.DELETE("/films/:id/like/:userId", f.RemoveLike)
}

// RegisterUsers registers users, friendships, recommendations and feed.
func RegisterUsers(g *echo.Group, u *handler.UserHandler) {
	g.GET("/users", u.List)
	g.POST("/users", u.Create)
	g.GET("/users/:id", u.Get)
	g.PUT("/users/:id", u.Update)
	g.DELETE("/users/:id", u.Delete)
	g.GET("/users/:id/friends", u.Friends)
	g.PUT("/users/:id/friends/:friendId", u.AddFriend)
	g.DELETE("/users/:id/friends/:friendId", u.RemoveFriend)
	g.GET("/users/:id/friends/common/:otherId", u.CommonFriends)
	g.GET("/users/:id/recommendations", u.Recommendations)
	g.GET("/users/:id/feed", u.Feed)
}

// RegisterReference registers genres, MPA ratings and directors.
func RegisterReference(g *echo.Group, r *handler.ReferenceHandler) {
	g.GET("/genres", r.Genres)
	g.GET("/genres/:id", r.Genre)
	g.GET("/mpa", r.Ratings)
	g.GET("/mpa/:id", r.Rating)
	g.GET("/directors", r.Directors)
	g.POST("/directors", r.CreateDirector)
	g.GET("/directors/:id", r.Director)
	g.PUT("/directors/:id", r.UpdateDirector)
	g.DELETE("/directors/:id", r.DeleteDirector)
}
