package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/service"
)

// FilmHandler serves film reads, rankings and film writes.
type FilmHandler struct {
	Ranking *service.RankingService
	Catalog *service.CatalogService
	Config  config.RankingConfig
}

func NewFilmHandler(ranking *service.RankingService, catalog *service.CatalogService, cfg config.RankingConfig) *FilmHandler {
	if ranking == nil || catalog == nil {
		panic("nil service passed to NewFilmHandler")
	}
	return &FilmHandler{Ranking: ranking, Catalog: catalog, Config: cfg}
}

type idRef struct {
	ID uint64 `json:"id" validate:"gt=0"`
}

// FilmRequest is the JSON body of film create and update.
type FilmRequest struct {
	Name        string  `json:"name" validate:"notblank,max=255"`
	Description string  `json:"description" validate:"max=200"`
	ReleaseDate string  `json:"releaseDate" validate:"required,releasedate"`
	Duration    int     `json:"duration" validate:"gt=0"`
	Mpa         *idRef  `json:"mpa" validate:"required"`
	Genres      []idRef `json:"genres" validate:"dive"`
	Directors   []idRef `json:"directors" validate:"dive"`
}

func (r FilmRequest) input() (model.FilmInput, error) {
	release, err := model.ParseDate(r.ReleaseDate)
	if err != nil {
		return model.FilmInput{}, err
	}
	in := model.FilmInput{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		ReleaseDate: release,
		Duration:    r.Duration,
		MpaID:       r.Mpa.ID,
	}
	for _, g := range r.Genres {
		in.GenreIDs = append(in.GenreIDs, g.ID)
	}
	for _, d := range r.Directors {
		in.DirectorIDs = append(in.DirectorIDs, d.ID)
	}
	return in, nil
}

func (h *FilmHandler) withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	if h.Config.QueryTimeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), h.Config.QueryTimeout)
}

// List handles GET /v1/films.
func (h *FilmHandler) List(c echo.Context) error {
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	films, err := h.Ranking.ListFilms(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// Get handles GET /v1/films/:id.
func (h *FilmHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	film, err := h.Ranking.GetFilm(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, film)
}

// Create handles POST /v1/films.
func (h *FilmHandler) Create(c echo.Context) error {
	var req FilmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, "invalid releaseDate")
	}
	film, err := h.Catalog.CreateFilm(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, film)
}

// Update handles PUT /v1/films/:id.
func (h *FilmHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	var req FilmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, "invalid releaseDate")
	}
	film, err := h.Catalog.UpdateFilm(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, film)
}

// Delete handles DELETE /v1/films/:id.
func (h *FilmHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	if err := h.Catalog.DeleteFilm(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddLike handles PUT /v1/films/:id/like/:userId.
func (h *FilmHandler) AddLike(c echo.Context) error {
	return h.like(c, h.Catalog.AddLike)
}

// RemoveLike handles DELETE /v1/films/:id/like/:userId.
func (h *FilmHandler) RemoveLike(c echo.Context) error {
	return h.like(c, h.Catalog.RemoveLike)
}

func (h *FilmHandler) like(c echo.Context, op func(ctx context.Context, filmID, userID uint64) error) error {
	filmID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := op(c.Request().Context(), filmID, userID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// count reads ?count, falling back to the configured default.
func (h *FilmHandler) count(c echo.Context) (int, error) {
	n, present, err := queryInt(c, "count")
	if err != nil {
		return 0, fmt.Errorf("%w: count must be an integer", service.ErrInvalidArgument)
	}
	if !present {
		return h.Config.DefaultCount, nil
	}
	if h.Config.MaxCount > 0 && n > h.Config.MaxCount {
		return 0, fmt.Errorf("%w: count must not exceed %d", service.ErrInvalidArgument, h.Config.MaxCount)
	}
	return n, nil
}

// Popular handles GET /v1/films/popular. When genreId or year is given the
// request is served as PopularFiltered.
func (h *FilmHandler) Popular(c echo.Context) error {
	if c.QueryParam("genreId") != "" || c.QueryParam("year") != "" {
		return h.PopularFiltered(c)
	}
	limit, err := h.count(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	films, err := h.Ranking.MostPopular(ctx, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// PopularFiltered handles GET /v1/films/popular/filter?count=&genreId=&year=.
func (h *FilmHandler) PopularFiltered(c echo.Context) error {
	limit, err := h.count(c)
	if err != nil {
		return writeError(c, err)
	}
	var genreID *uint64
	if g, present, err := queryInt(c, "genreId"); err != nil || (present && g <= 0) {
		return badRequest(c, "genreId must be a positive integer")
	} else if present {
		id := uint64(g)
		genreID = &id
	}
	var year *int
	if y, present, err := queryInt(c, "year"); err != nil {
		return badRequest(c, "year must be an integer")
	} else if present {
		year = &y
	}
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	films, err := h.Ranking.PopularByGenreAndYear(ctx, limit, genreID, year)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// Common handles GET /v1/films/common?userId=&friendId=.
func (h *FilmHandler) Common(c echo.Context) error {
	a, presentA, errA := queryInt(c, "userId")
	b, presentB, errB := queryInt(c, "friendId")
	if errA != nil || errB != nil || !presentA || !presentB || a <= 0 || b <= 0 {
		return badRequest(c, "userId and friendId must be positive integers")
	}
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	films, err := h.Ranking.CommonFilms(ctx, uint64(a), uint64(b))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// ByDirector handles GET /v1/films/director/:id?sortBy=year|likes.
func (h *FilmHandler) ByDirector(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid director id")
	}
	sortBy := c.QueryParam("sortBy")
	if sortBy == "" {
		sortBy = service.SortByYear
	}
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	films, err := h.Ranking.ByDirector(ctx, id, sortBy)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// Search handles GET /v1/films/search?query=&by=title,director.
func (h *FilmHandler) Search(c echo.Context) error {
	var by []string
	if raw := c.QueryParam("by"); raw != "" {
		by = strings.Split(raw, ",")
	}
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	films, err := h.Ranking.Search(ctx, c.QueryParam("query"), by)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}
