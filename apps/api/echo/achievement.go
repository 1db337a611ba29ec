package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/sifa/core/achievement"
	"github.com/mwalimu/sifa/core/auth"
	"github.com/mwalimu/sifa/core/user"
)

type achievementApi struct {
	svc    achievement.ServiceInterface
	usrSvc user.ServiceInterface
}

func registerAchievementAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc achievement.ServiceInterface,
	usrSvc user.ServiceInterface,
) {
	api := achievementApi{svc: svc, usrSvc: usrSvc}

	// public search; approved records only
	g.GET("/search", api.search)

	ag := g.Group("/achievements", jwt)
	ag.GET("", api.query, permissionMiddleware(auth.ActionListAchievements))
	ag.POST("", api.create, permissionMiddleware(auth.ActionCreateAchievement))
	ag.GET("/pending", api.queryPending, permissionMiddleware(auth.ActionListPending))
	ag.GET("/stats", api.stats, permissionMiddleware(auth.ActionViewStats))
	ag.GET("/teacher/:id", api.queryByTeacher, permissionMiddleware(auth.ActionListAchievements))
	ag.PUT("/:id/review", api.review, permissionMiddleware(auth.ActionReviewAchievement))
}

// Handlers

func (api *achievementApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data achievement.NewAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAchievement")
	}
	if data.Teacher == "" {
		data.Teacher = claims.TeacherID
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// submitting on behalf of another teacher needs its own permission
	if data.Teacher != claims.TeacherID && !auth.Allowed(claims.Role, auth.ActionCreateForAnyone) {
		return errHttpForbidden
	}

	ach, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating achievement")
	}
	return ctx.JSON(http.StatusCreated, ach)
}

func (api *achievementApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(achievement.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []achievement.Achievement{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// row-level scoping; teachers only ever see their own records
	switch auth.ListScope(claims.Role) {
	case auth.ScopeOwn:
		filter.Teacher = claims.TeacherID
	case auth.ScopeApprovedOnly:
		filter.Status = achievement.StatusApproved
	case auth.ScopeNone:
		return errHttpForbidden
	}

	achs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying achievements")
	}
	if achs == nil {
		achs = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, achs)
}

func (api *achievementApi) queryByTeacher(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	teacherID := user.CleanTeacherID(ctx.Param("id"))
	if auth.ListScope(claims.Role) == auth.ScopeOwn && teacherID != claims.TeacherID {
		return errHttpForbidden
	}

	achs, err := api.svc.QueryByTeacher(ctx.Request().Context(), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying achievements by teacher")
	}
	if achs == nil {
		achs = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, achs)
}

func (api *achievementApi) queryPending(ctx echo.Context) error {
	achs, err := api.svc.QueryPending(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pending achievements")
	}
	if achs == nil {
		achs = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, achs)
}

func (api *achievementApi) review(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data achievement.ReviewAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewAchievement")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ach, err := api.svc.Review(ctx.Request().Context(), ctx.Param("id"), data.Status, claims.TeacherID)
	if err != nil {
		return errors.Wrap(err, "reviewing achievement")
	}
	return ctx.JSON(http.StatusOK, ach)
}

func (api *achievementApi) stats(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	achStats, err := api.svc.Stats(rctx)
	if err != nil {
		return errors.Wrap(err, "aggregating achievement stats")
	}
	teachers, err := api.usrSvc.CountByRole(rctx, user.RoleTeacher)
	if err != nil {
		return errors.Wrap(err, "counting teachers")
	}
	hods, err := api.usrSvc.CountByRole(rctx, user.RoleHod)
	if err != nil {
		return errors.Wrap(err, "counting hods")
	}

	return ctx.JSON(http.StatusOK, StatsResponse{
		Achievements: achStats,
		Teachers:     teachers,
		Hods:         hods,
	})
}

func (api *achievementApi) search(ctx echo.Context) error {
	filter := new(achievement.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []achievement.Achievement{})
	}
	filter.Clean()

	achs, err := api.svc.Search(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching achievements")
	}
	if achs == nil {
		achs = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, achs)
}

type StatsResponse struct {
	Achievements achievement.Stats `json:"achievements"`
	Teachers     int               `json:"teachers"`
	Hods         int               `json:"hods"`
}
