package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/service"
)

// ReferenceHandler serves genres, MPA ratings and directors.
type ReferenceHandler struct {
	Catalog *service.CatalogService
}

func NewReferenceHandler(catalog *service.CatalogService) *ReferenceHandler {
	if catalog == nil {
		panic("nil service passed to NewReferenceHandler")
	}
	return &ReferenceHandler{Catalog: catalog}
}

// DirectorRequest is the JSON body of director create and update.
type DirectorRequest struct {
	Name string `json:"name" validate:"notblank,max=255"`
}

func (h *ReferenceHandler) Genres(c echo.Context) error {
	out, err := h.Catalog.Genres(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) Genre(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid genre id")
	}
	g, err := h.Catalog.Genre(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *ReferenceHandler) Ratings(c echo.Context) error {
	out, err := h.Catalog.Ratings(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) Rating(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid rating id")
	}
	m, err := h.Catalog.Rating(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *ReferenceHandler) Directors(c echo.Context) error {
	out, err := h.Catalog.Directors(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) Director(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid director id")
	}
	d, err := h.Catalog.Director(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *ReferenceHandler) CreateDirector(c echo.Context) error {
	var req DirectorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	d, err := h.Catalog.CreateDirector(c.Request().Context(), strings.TrimSpace(req.Name))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *ReferenceHandler) UpdateDirector(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid director id")
	}
	var req DirectorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	d, err := h.Catalog.UpdateDirector(c.Request().Context(), model.Director{ID: id, Name: strings.TrimSpace(req.Name)})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *ReferenceHandler) DeleteDirector(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid director id")
	}
	if err := h.Catalog.DeleteDirector(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
