package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/service"
)

// UserHandler serves users, friendships, recommendations and the feed.
type UserHandler struct {
	Social *service.SocialService
	Recs   *service.RecommendationService
}

func NewUserHandler(social *service.SocialService, recs *service.RecommendationService) *UserHandler {
	if social == nil || recs == nil {
		panic("nil service passed to NewUserHandler")
	}
	return &UserHandler{Social: social, Recs: recs}
}

// UserRequest is the JSON body of user create and update.
type UserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Login    string `json:"login" validate:"required,nospace,max=64"`
	Name     string `json:"name" validate:"max=255"`
	Birthday string `json:"birthday" validate:"omitempty,pastdate"`
}

func (r UserRequest) user(id uint64) model.User {
	u := model.User{ID: id, Email: r.Email, Login: r.Login, Name: r.Name}
	if r.Birthday != "" {
		// validated by pastdate
		if b, err := model.ParseDate(r.Birthday); err == nil {
			u.Birthday = &b
		}
	}
	return u
}

func (h *UserHandler) Create(c echo.Context) error {
	var req UserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	u, err := h.Social.CreateUser(c.Request().Context(), req.user(0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req UserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	u, err := h.Social.UpdateUser(c.Request().Context(), req.user(id))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	u, err := h.Social.User(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Social.Users(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.Social.DeleteUser(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddFriend handles PUT /v1/users/:id/friends/:friendId.
func (h *UserHandler) AddFriend(c echo.Context) error {
	userID, friendID, ok := userPair(c, "friendId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.Social.AddFriend(c.Request().Context(), userID, friendID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveFriend handles DELETE /v1/users/:id/friends/:friendId.
func (h *UserHandler) RemoveFriend(c echo.Context) error {
	userID, friendID, ok := userPair(c, "friendId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.Social.RemoveFriend(c.Request().Context(), userID, friendID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Friends(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	users, err := h.Social.Friends(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CommonFriends handles GET /v1/users/:id/friends/common/:otherId.
func (h *UserHandler) CommonFriends(c echo.Context) error {
	userID, otherID, ok := userPair(c, "otherId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	users, err := h.Social.CommonFriends(c.Request().Context(), userID, otherID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// Recommendations handles GET /v1/users/:id/recommendations.
func (h *UserHandler) Recommendations(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	films, err := h.Recs.Recommend(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// Feed handles GET /v1/users/:id/feed.
func (h *UserHandler) Feed(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	events, err := h.Social.Feed(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func userPair(c echo.Context, other string) (uint64, uint64, bool) {
	a, okA := pathID(c, "id")
	b, okB := pathID(c, other)
	return a, b, okA && okB
}
